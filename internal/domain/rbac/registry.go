// Package rbac is the authoritative, static answer to which roles may reach
// which console area and perform which action.
// Both the sidebar and the guards read from the same tables, so visible
// links and enforced permissions cannot diverge.
package rbac

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
)

// RouteKey identifies one protected console area.
type RouteKey string

const (
	RouteDashboard      RouteKey = "dashboard"
	RouteUsers          RouteKey = "users"
	RoutePayments       RouteKey = "payments"
	RouteAdministration RouteKey = "administration"
)

// ErrUnknownRoute is returned for keys outside the fixed route set.
var ErrUnknownRoute = errors.New("unknown route")

// RouteDescriptor describes one protected application area.
// LabelKey and DescriptionKey are resolved by the i18n catalog.
type RouteDescriptor struct {
	Key            RouteKey
	Path           string
	LabelKey       string
	DescriptionKey string
	AllowedRoles   []domainauth.Role
}

// Allows reports whether role is in the descriptor's allowed set.
func (d RouteDescriptor) Allows(role domainauth.Role) bool {
	return slices.Contains(d.AllowedRoles, role)
}

// Registry is an immutable, ordered set of route descriptors.
type Registry struct {
	routes []RouteDescriptor
	byKey  map[RouteKey]int
}

var defaultRegistry = NewRegistry([]RouteDescriptor{
	{
		Key:            RouteDashboard,
		Path:           "/dashboard",
		LabelKey:       "nav.dashboard",
		DescriptionKey: "navDesc.dashboard",
		AllowedRoles:   []domainauth.Role{domainauth.RoleSuperAdmin, domainauth.RoleManager, domainauth.RoleRetention},
	},
	{
		Key:            RouteUsers,
		Path:           "/users",
		LabelKey:       "nav.users",
		DescriptionKey: "navDesc.users",
		AllowedRoles:   []domainauth.Role{domainauth.RoleSuperAdmin, domainauth.RoleManager},
	},
	{
		Key:            RoutePayments,
		Path:           "/payment-management",
		LabelKey:       "nav.payments",
		DescriptionKey: "navDesc.payments",
		AllowedRoles:   []domainauth.Role{domainauth.RoleSuperAdmin, domainauth.RoleManager},
	},
	{
		Key:            RouteAdministration,
		Path:           "/administration",
		LabelKey:       "nav.administration",
		DescriptionKey: "navDesc.administration",
		AllowedRoles:   []domainauth.Role{domainauth.RoleSuperAdmin},
	},
})

// Default returns the console's built-in registry.
func Default() *Registry { return defaultRegistry }

// NewRegistry copies routes into a new registry. Later duplicates of a key are ignored.
func NewRegistry(routes []RouteDescriptor) *Registry {
	reg := &Registry{byKey: make(map[RouteKey]int, len(routes))}
	for _, rd := range routes {
		if _, dup := reg.byKey[rd.Key]; dup {
			continue
		}
		rd.AllowedRoles = slices.Clone(rd.AllowedRoles)
		reg.byKey[rd.Key] = len(reg.routes)
		reg.routes = append(reg.routes, rd)
	}
	return reg
}

// DefinitionsFor returns the descriptor for key.
func (r *Registry) DefinitionsFor(key RouteKey) (RouteDescriptor, error) {
	i, ok := r.byKey[key]
	if !ok {
		return RouteDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownRoute, key)
	}
	return cloneDescriptor(r.routes[i]), nil
}

// MustDefinitionsFor is DefinitionsFor for keys known at compile time.
func (r *Registry) MustDefinitionsFor(key RouteKey) RouteDescriptor {
	rd, err := r.DefinitionsFor(key)
	if err != nil {
		panic(err)
	}
	return rd
}

// IsAllowed reports whether role may access the route identified by key.
// Unknown keys are never allowed.
func (r *Registry) IsAllowed(role domainauth.Role, key RouteKey) bool {
	i, ok := r.byKey[key]
	if !ok {
		return false
	}
	return r.routes[i].Allows(role)
}

// Routes returns all descriptors in registry order.
func (r *Registry) Routes() []RouteDescriptor {
	out := make([]RouteDescriptor, len(r.routes))
	for i, rd := range r.routes {
		out[i] = cloneDescriptor(rd)
	}
	return out
}

// Visible returns the descriptors role may navigate to, in registry order.
func (r *Registry) Visible(role domainauth.Role) []RouteDescriptor {
	var out []RouteDescriptor
	for _, rd := range r.routes {
		if rd.Allows(role) {
			out = append(out, cloneDescriptor(rd))
		}
	}
	return out
}

// Match returns the descriptor whose path equals path or is a segment prefix of it.
func (r *Registry) Match(path string) (RouteDescriptor, bool) {
	for _, rd := range r.routes {
		if hasPathPrefix(path, rd.Path) {
			return cloneDescriptor(rd), true
		}
	}
	return RouteDescriptor{}, false
}

// ProtectedPrefixes lists every route path.
func (r *Registry) ProtectedPrefixes() []string {
	out := make([]string, len(r.routes))
	for i, rd := range r.routes {
		out[i] = rd.Path
	}
	return out
}

// MatrixRow is one role's access across all routes, in registry order.
type MatrixRow struct {
	Role    domainauth.Role
	Allowed []bool
}

// Matrix returns the role × route access table.
func (r *Registry) Matrix() []MatrixRow {
	roles := domainauth.Roles()
	rows := make([]MatrixRow, 0, len(roles))
	for _, role := range roles {
		row := MatrixRow{Role: role, Allowed: make([]bool, len(r.routes))}
		for i, rd := range r.routes {
			row.Allowed[i] = rd.Allows(role)
		}
		rows = append(rows, row)
	}
	return rows
}

func cloneDescriptor(rd RouteDescriptor) RouteDescriptor {
	rd.AllowedRoles = slices.Clone(rd.AllowedRoles)
	return rd
}

// hasPathPrefix matches whole path segments so "/users" does not match "/usersettings".
func hasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/' || strings.HasSuffix(prefix, "/")
}
