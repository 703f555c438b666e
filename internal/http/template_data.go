package httpx

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/siamkarim/2mro-admin/internal/authctx"
	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/domain/rbac"
)

// PageMeta names the page being rendered.
type PageMeta struct {
	Title       string // catalog key
	CurrentPage string
}

// NavItem is one sidebar link.
type NavItem struct {
	Path           string
	LabelKey       string
	DescriptionKey string
	Active         bool
}

// PaginationData contains skip/limit pagination information for list views.
type PaginationData struct {
	Skip     int
	Limit    int
	Count    int // items on this page
	Total    int // 0 when unknown
	HasNext  bool
	BasePath string
}

// LocaleResolver picks the locale for a request; *i18n.Catalog satisfies it.
type LocaleResolver interface {
	FromRequest(r *http.Request) string
	Locales() []string
}

// layoutDeps is what every full page needs besides its own data.
type layoutDeps struct {
	registry *rbac.Registry
	locales  LocaleResolver
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
	r    *http.Request
}

// newTemplateData creates a TemplateDataBuilder seeded with the layout fields.
func newTemplateData(r *http.Request, meta PageMeta, deps layoutDeps) *TemplateDataBuilder {
	return &TemplateDataBuilder{data: basePageData(r, meta, deps), r: r}
}

func basePageData(r *http.Request, meta PageMeta, deps layoutDeps) map[string]any {
	data := map[string]any{
		"Title":       meta.Title,
		"CurrentPage": meta.CurrentPage,
		"CSRFToken":   GetCSRFToken(r),
		"RequestID":   RequestIDFromContext(r.Context()),
		"Locale":      "en",
	}
	if deps.locales != nil {
		data["Locale"] = deps.locales.FromRequest(r)
		data["Locales"] = deps.locales.Locales()
	}

	p, err := authctx.FromContext(r.Context())
	if err != nil {
		return data
	}
	role := p.CurrentRole()
	id := p.Identity()
	data["Identity"] = id
	data["Role"] = role
	data["ActualRole"] = id.Role
	data["Previewing"] = p.Previewing()
	data["PreviewRoles"] = previewChoices(id.Role)
	if deps.registry != nil {
		data["Nav"] = navItems(deps.registry, role, r.URL.Path)
	}
	return data
}

// navItems derives the sidebar from the registry so visible links match the guards.
func navItems(reg *rbac.Registry, role domainauth.Role, current string) []NavItem {
	active, _ := reg.Match(current)
	visible := reg.Visible(role)
	items := make([]NavItem, 0, len(visible))
	for _, rd := range visible {
		items = append(items, NavItem{
			Path:           rd.Path,
			LabelKey:       rd.LabelKey,
			DescriptionKey: rd.DescriptionKey,
			Active:         rd.Key == active.Key,
		})
	}
	return items
}

// previewChoices lists the roles a user may preview, which are only ever lower
// than their own. Only super-admins get the switcher.
func previewChoices(actual domainauth.Role) []domainauth.Role {
	if actual != domainauth.RoleSuperAdmin {
		return nil
	}
	var out []domainauth.Role
	for _, role := range domainauth.Roles() {
		if role.Rank() < actual.Rank() && role != domainauth.RoleUser {
			out = append(out, role)
		}
	}
	return out
}

// WithPagination adds pagination data and builds PrevURL/NextURL.
func (b *TemplateDataBuilder) WithPagination(p PaginationData) *TemplateDataBuilder {
	b.data["Skip"] = p.Skip
	b.data["Limit"] = p.Limit
	b.data["StartIndex"] = p.Skip + 1
	b.data["EndIndex"] = p.Skip + p.Count
	if p.Total > 0 {
		b.data["TotalCount"] = p.Total
	}
	if p.Skip > 0 {
		b.data["PrevURL"] = buildSkipURL(p.BasePath, b.r.URL.Query(), max(p.Skip-p.Limit, 0), p.Limit)
	}
	if p.HasNext {
		b.data["NextURL"] = buildSkipURL(p.BasePath, b.r.URL.Query(), p.Skip+p.Limit, p.Limit)
	}
	return b
}

func buildSkipURL(base string, q url.Values, skip, limit int) string {
	out := url.Values{}
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	out.Set("skip", strconv.Itoa(skip))
	out.Set("limit", strconv.Itoa(limit))
	return base + "?" + out.Encode()
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
