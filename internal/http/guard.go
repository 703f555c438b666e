package httpx

import (
	"net/http"
	"strings"

	"github.com/siamkarim/2mro-admin/internal/adapters/cookiestore"
)

// Route guard decisions, as reported to the observer.
const (
	GuardAllow    = "allow"
	GuardRedirect = "redirect"
	GuardHome     = "home"
)

// GuardObserver receives every route guard decision; *metrics.Metrics satisfies it.
type GuardObserver interface {
	ObserveGuard(decision string)
}

// GuardConfig configures RouteGuard.
type GuardConfig struct {
	// EntryPath is the sign-in page. Defaults to "/".
	EntryPath string
	// HomePath is where an authenticated visitor of the entry path is sent. Defaults to "/dashboard".
	HomePath string
	// RedirectAuthenticatedEntry sends visitors of EntryPath that hold an access token to HomePath.
	RedirectAuthenticatedEntry bool
	// ProtectedPrefixes are the paths that require an access token cookie.
	ProtectedPrefixes []string
	// PublicPrefixes are never guarded. Defaults to the static, internal, auth,
	// health and metrics paths.
	PublicPrefixes []string
	Observer       GuardObserver
}

//nolint:gochecknoglobals // read-only default list
var defaultPublicPrefixes = []string{"/static/", "/_internal/", "/auth/", "/healthz", "/metrics"}

func (c GuardConfig) withDefaults() GuardConfig {
	if c.EntryPath == "" {
		c.EntryPath = "/"
	}
	if c.HomePath == "" {
		c.HomePath = "/dashboard"
	}
	if c.PublicPrefixes == nil {
		c.PublicPrefixes = defaultPublicPrefixes
	}
	return c
}

// RouteGuard redirects requests for protected areas that carry no access token
// back to the entry page. It only checks that the cookie is present: the token
// is never validated here, and a stale token is caught by the first API call.
func RouteGuard(cfg GuardConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := cfg.decide(r)
			if cfg.Observer != nil {
				cfg.Observer.ObserveGuard(decision)
			}
			switch decision {
			case GuardRedirect:
				redirect(w, r, cfg.EntryPath)
			case GuardHome:
				redirect(w, r, cfg.HomePath)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func (c GuardConfig) decide(r *http.Request) string {
	p := r.URL.Path
	if p == c.EntryPath {
		if c.RedirectAuthenticatedEntry && isNavigation(r) && cookiestore.HasAccessToken(r) {
			return GuardHome
		}
		return GuardAllow
	}
	if c.isPublic(p) {
		return GuardAllow
	}
	// protected areas win over the file-extension rule: /administration/report.csv is guarded
	for _, prefix := range c.ProtectedPrefixes {
		if hasSegmentPrefix(p, prefix) {
			if cookiestore.HasAccessToken(r) {
				return GuardAllow
			}
			return GuardRedirect
		}
	}
	// everything else, including assets with a file extension such as /favicon.ico
	return GuardAllow
}

func (c GuardConfig) isPublic(p string) bool {
	for _, prefix := range c.PublicPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func isNavigation(r *http.Request) bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}

// hasSegmentPrefix matches whole path segments so "/users" does not guard "/usersettings".
func hasSegmentPrefix(p, prefix string) bool {
	if !strings.HasPrefix(p, prefix) {
		return false
	}
	return len(p) == len(prefix) || p[len(prefix)] == '/' || strings.HasSuffix(prefix, "/")
}
