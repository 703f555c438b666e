package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
// These constants ensure consistency across UI handlers and template mapping.
const (
	PageLogin          = "login"
	PageDashboard      = "dashboard"
	PageUsers          = "users"
	PagePayments       = "payments"
	PageAdministration = "administration"

	// Fallbacks.
	PageNoAccess = "no-access"
	PageNotFound = "not-found"
	PageError    = "error"
)

const (
	// DefaultPageSize is the number of traders fetched per page.
	DefaultPageSize = 20
	// MaxPageSize bounds the page_size query parameter.
	MaxPageSize = 100
	// OnlineUsersLimit bounds the dashboard's online users panel.
	OnlineUsersLimit = 50
)

// Cookie and form names shared with the templates.
const (
	PreviewRoleCookie = "previewRole"
	formEmail         = "email"
	formPassword      = "password"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "web/templates"       // From project root
	TemplatePathFromTest = "../../web/templates" // From internal/http test files

	staticPathFromRoot = "web/static"
)

// Content templates are defined once and reused to avoid per-call allocations.
//
//nolint:gochecknoglobals // static read-only lookup for templates; avoids per-call allocations
var contentTemplates = map[string]string{
	PageLogin:          "login-content",
	PageDashboard:      "dashboard-content",
	PageUsers:          "users-content",
	PagePayments:       "payments-content",
	PageAdministration: "administration-content",
	PageNoAccess:       "no-access-content",
	PageNotFound:       "not-found-content",
	PageError:          "error-content",
}

// ContentTemplateFor returns the content template name for a page,
// falling back to the not-found body for unknown pages.
func ContentTemplateFor(page string) string {
	if name, ok := contentTemplates[page]; ok {
		return name
	}
	return "not-found-content"
}
