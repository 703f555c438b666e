package httpx

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/domain/model"
	"github.com/siamkarim/2mro-admin/internal/domain/rbac"
	"github.com/siamkarim/2mro-admin/internal/i18n"
	"github.com/siamkarim/2mro-admin/internal/observability/metrics"
)

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// withCSRF attaches a matching cookie and header so state-changing requests pass.
func withCSRF(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "csrf-test-token"})
	r.Header.Set(DefaultCSRFHeaderName, "csrf-test-token")
	return r
}

func TestNewRouter_RequiresServices(t *testing.T) {
	_, err := NewRouter(RouterServices{})
	require.Error(t, err)
}

func TestRouter_EntryFlows(t *testing.T) {
	router := newTestRouter(t, &fakeSessions{identity: identityFor(domainauth.RoleManager)}, &fakeConsoleAPI{})

	t.Run("login page", func(t *testing.T) {
		rec := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `action="/auth/login"`)
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	})

	t.Run("signed-in visitors skip the login page", func(t *testing.T) {
		rec := serve(router, withAccessCookie(httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	})

	t.Run("protected page without cookie", func(t *testing.T) {
		rec := serve(router, httptest.NewRequest(http.MethodGet, "/payment-management", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("login without csrf is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("email=a%40b.c&password=pw"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := serve(router, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("login with csrf", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("email=a%40b.c&password=pw"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := serve(router, withCSRF(req))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	})
}

func TestRouter_RoleGating(t *testing.T) {
	tests := []struct {
		role     domainauth.Role
		path     string
		wantCode int
	}{
		{domainauth.RoleRetention, "/dashboard", http.StatusOK},
		{domainauth.RoleRetention, "/users", http.StatusForbidden},
		{domainauth.RoleRetention, "/payment-management", http.StatusForbidden},
		{domainauth.RoleManager, "/payment-management", http.StatusOK},
		{domainauth.RoleManager, "/administration", http.StatusForbidden},
		{domainauth.RoleSuperAdmin, "/administration", http.StatusOK},
		{domainauth.RoleUser, "/dashboard", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+" "+tt.path, func(t *testing.T) {
			router := newTestRouter(t, &fakeSessions{identity: identityFor(tt.role)}, &fakeConsoleAPI{})
			rec := serve(router, withAccessCookie(httptest.NewRequest(http.MethodGet, tt.path, nil)))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), "Your role does not have permission")
			}
		})
	}
}

func TestRouter_PreviewNarrowsAccess(t *testing.T) {
	router := newTestRouter(t, &fakeSessions{identity: identityFor(domainauth.RoleSuperAdmin)}, &fakeConsoleAPI{})

	req := withAccessCookie(httptest.NewRequest(http.MethodGet, "/administration", nil))
	req.AddCookie(&http.Cookie{Name: PreviewRoleCookie, Value: "MANAGER"})
	rec := serve(router, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_ActionRequiresPermission(t *testing.T) {
	api := &fakeConsoleAPI{}
	router := newTestRouter(t, &fakeSessions{identity: identityFor(domainauth.RoleSuperAdmin)}, api)

	req := withAccessCookie(htmxRequest(http.MethodPost, "/payment-management/crypto/3/delete", ""))
	req.AddCookie(&http.Cookie{Name: PreviewRoleCookie, Value: "RETENTION"})
	rec := serve(router, withCSRF(req))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, api.Calls(), "denied actions never reach the API")

	req = withAccessCookie(htmxRequest(http.MethodPost, "/payment-management/crypto/3/delete", ""))
	rec = serve(router, withCSRF(req))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"DeleteCryptoWallet 3"}, api.Calls())
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t, &fakeSessions{}, &fakeConsoleAPI{})

	t.Run("html", func(t *testing.T) {
		rec := serve(router, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Page not found")
	})

	t.Run("json", func(t *testing.T) {
		rec := serve(router, jsonRequest(http.MethodGet, "/nope", ""))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":"not_found"`)
	})

	t.Run("missing static asset keeps the file server response", func(t *testing.T) {
		rec := serve(router, httptest.NewRequest(http.MethodGet, "/static/missing.js", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NotContains(t, rec.Body.String(), "Page not found")
	})
}

func TestRouter_StaticAndHealth(t *testing.T) {
	router := newTestRouter(t, &fakeSessions{}, &fakeConsoleAPI{})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CompressesTextAssets(t *testing.T) {
	router := newTestRouter(t, &fakeSessions{}, &fakeConsoleAPI{})
	plain := serve(router, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	require.Equal(t, http.StatusOK, plain.Code)

	req := httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	rec := serve(router, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Contains(t, rec.Header().Values("Vary"), "Accept-Encoding")
	assert.Equal(t, plain.Body.String(), gunzip(t, rec.Body))
}

func TestRouter_Metrics(t *testing.T) {
	if _, err := os.Stat(TemplatePathFromTest); err != nil {
		t.Skip("Templates not available, skipping router test")
	}
	m := metrics.New(prometheus.NewRegistry())
	router, err := NewRouter(RouterServices{
		Sessions:    &fakeSessions{identity: identityFor(domainauth.RoleRetention)},
		API:         &fakeConsoleAPI{summary: model.Summary{TotalUsers: 1}},
		Catalog:     i18n.MustLoad(),
		Metrics:     m,
		MetricsPath: "/metrics",
		TemplateFS:  os.DirFS(TemplatePathFromTest),
		StaticFS:    os.DirFS("../../web/static"),
	})
	require.NoError(t, err)

	serve(router, withAccessCookie(httptest.NewRequest(http.MethodGet, "/administration", nil)))
	serve(router, httptest.NewRequest(http.MethodGet, "/users", nil))

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `admin_console_role_guard_denials_total{route="administration"} 1`)
	assert.Contains(t, body, `admin_console_route_guard_decisions_total{decision="redirect"} 1`)
	assert.Contains(t, body, `route="users"`)
}

func TestStaticWithCacheHeaders(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})
	tests := []struct {
		path  string
		isDev bool
		want  string
	}{
		{"/static/js/app.1a2b3c4d.js", false, "public, max-age=31536000, immutable"},
		{"/static/js/app.1a2b3c4d.js.map", true, "public, max-age=31536000, immutable"},
		{"/static/js/app.js", true, "no-cache, no-store, must-revalidate"},
		{"/static/js/app.js", false, "public, max-age=3600"},
	}
	for _, tt := range tests {
		rec := serve(staticWithCacheHeaders(inner, tt.isDev), httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.want, rec.Header().Get("Cache-Control"), tt.path)
	}
}

func TestRouteLabel(t *testing.T) {
	label := routeLabel(rbac.Default())
	tests := map[string]string{
		"/":                                "login",
		"/dashboard":                       "dashboard",
		"/users/9/positions":               "users",
		"/payment-management/crypto/1":     "payments",
		"/administration":                  "administration",
		"/auth/login":                      "auth",
		"/session/preview-role":            "session",
		"/static/css/app.css":              "static",
		"/healthz":                         "healthz",
		"/metrics":                         "metrics",
		"/wp-admin/../../etc/passwd":       "other",
	}
	for path, want := range tests {
		assert.Equal(t, want, label(httptest.NewRequest(http.MethodGet, path, nil)), path)
	}
}
