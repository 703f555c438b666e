package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
)

func TestRegistry_IsAllowed_FullMatrix(t *testing.T) {
	want := map[RouteKey]map[domainauth.Role]bool{
		RouteDashboard: {
			domainauth.RoleSuperAdmin: true, domainauth.RoleManager: true,
			domainauth.RoleRetention: true, domainauth.RoleUser: false,
		},
		RouteUsers: {
			domainauth.RoleSuperAdmin: true, domainauth.RoleManager: true,
			domainauth.RoleRetention: false, domainauth.RoleUser: false,
		},
		RoutePayments: {
			domainauth.RoleSuperAdmin: true, domainauth.RoleManager: true,
			domainauth.RoleRetention: false, domainauth.RoleUser: false,
		},
		RouteAdministration: {
			domainauth.RoleSuperAdmin: true, domainauth.RoleManager: false,
			domainauth.RoleRetention: false, domainauth.RoleUser: false,
		},
	}

	reg := Default()
	for key, roles := range want {
		rd, err := reg.DefinitionsFor(key)
		require.NoError(t, err)
		for _, role := range domainauth.Roles() {
			t.Run(string(key)+"/"+string(role), func(t *testing.T) {
				assert.Equal(t, roles[role], reg.IsAllowed(role, key))
				// membership in the descriptor is the definition of allowed
				assert.Equal(t, rd.Allows(role), reg.IsAllowed(role, key))
			})
		}
	}
}

func TestRegistry_DefinitionsFor_Unknown(t *testing.T) {
	_, err := Default().DefinitionsFor("reports")
	require.ErrorIs(t, err, ErrUnknownRoute)
	assert.False(t, Default().IsAllowed(domainauth.RoleSuperAdmin, "reports"))
	assert.Panics(t, func() { Default().MustDefinitionsFor("reports") })
}

func TestRegistry_DescriptorsAreCopies(t *testing.T) {
	rd := Default().MustDefinitionsFor(RouteAdministration)
	rd.AllowedRoles[0] = domainauth.RoleUser

	assert.False(t, Default().IsAllowed(domainauth.RoleUser, RouteAdministration))
}

func TestRegistry_VisibleMatchesIsAllowed(t *testing.T) {
	reg := Default()
	for _, role := range domainauth.Roles() {
		visible := map[RouteKey]bool{}
		for _, rd := range reg.Visible(role) {
			visible[rd.Key] = true
		}
		for _, rd := range reg.Routes() {
			assert.Equal(t, reg.IsAllowed(role, rd.Key), visible[rd.Key], "role=%s route=%s", role, rd.Key)
		}
	}
	assert.Empty(t, reg.Visible(domainauth.RoleUser))
}

func TestRegistry_Match(t *testing.T) {
	reg := Default()
	tests := []struct {
		path string
		key  RouteKey
		ok   bool
	}{
		{path: "/dashboard", key: RouteDashboard, ok: true},
		{path: "/dashboard/traders", key: RouteDashboard, ok: true},
		{path: "/payment-management/bank", key: RoutePayments, ok: true},
		{path: "/administration", key: RouteAdministration, ok: true},
		{path: "/usersettings", ok: false},
		{path: "/", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rd, ok := reg.Match(tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.key, rd.Key)
			}
		})
	}
}

func TestRegistry_Matrix(t *testing.T) {
	reg := Default()
	rows := reg.Matrix()
	require.Len(t, rows, len(domainauth.Roles()))
	routes := reg.Routes()
	for _, row := range rows {
		require.Len(t, row.Allowed, len(routes))
		for i, rd := range routes {
			assert.Equal(t, reg.IsAllowed(row.Role, rd.Key), row.Allowed[i])
		}
	}
}

func TestNewRegistry_IgnoresDuplicateKeys(t *testing.T) {
	reg := NewRegistry([]RouteDescriptor{
		{Key: "a", Path: "/a", AllowedRoles: []domainauth.Role{domainauth.RoleManager}},
		{Key: "a", Path: "/other", AllowedRoles: []domainauth.Role{domainauth.RoleUser}},
	})
	require.Len(t, reg.Routes(), 1)
	assert.Equal(t, "/a", reg.MustDefinitionsFor("a").Path)
	assert.Equal(t, []string{"/a"}, reg.ProtectedPrefixes())
}

func TestCanPerform(t *testing.T) {
	assert.True(t, CanPerform(domainauth.RoleSuperAdmin, ActionManageAdminUsers))
	assert.False(t, CanPerform(domainauth.RoleManager, ActionManageAdminUsers))
	assert.True(t, CanPerform(domainauth.RoleManager, ActionApproveDeposit))
	assert.False(t, CanPerform(domainauth.RoleRetention, ActionApproveDeposit))
	assert.Nil(t, ActionsFor(domainauth.RoleUser))
}

func TestCanManageOperator(t *testing.T) {
	assert.True(t, CanManageOperator(domainauth.RoleSuperAdmin, domainauth.RoleManager))
	assert.False(t, CanManageOperator(domainauth.RoleSuperAdmin, domainauth.RoleSuperAdmin))
	assert.False(t, CanManageOperator(domainauth.RoleManager, domainauth.RoleRetention))
}
