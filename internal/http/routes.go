package httpx

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"

	admin "github.com/siamkarim/2mro-admin"
	"github.com/siamkarim/2mro-admin/internal/adapters/cookiestore"
	"github.com/siamkarim/2mro-admin/internal/domain/rbac"
	"github.com/siamkarim/2mro-admin/internal/observability/metrics"
)

// MessageCatalog translates keys and picks the request locale; *i18n.Catalog satisfies it.
type MessageCatalog interface {
	Translator
	LocaleResolver
}

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions SessionManager
	API      ConsoleAPI
	// Registry defaults to rbac.Default().
	Registry *rbac.Registry
	Catalog  MessageCatalog
	// Metrics is optional; /metrics is only mounted when MetricsPath is set.
	Metrics     *metrics.Metrics
	MetricsPath string
	Cookies     cookiestore.Options
	// Guard configures the edge route guard. ProtectedPrefixes default to the registry paths.
	Guard        GuardConfig
	HealthChecks map[string]HealthCheck
	// TemplateFS and StaticFS override the embedded assets (tests, custom builds).
	TemplateFS     fs.FS
	StaticFS       fs.FS
	CurrencySymbol string
	Compression    CompressionConfig
	IsDev          bool         // Development mode flag for hot reloading, etc.
	Logger         *slog.Logger // Logger for template and HTTP errors (optional)
}

func (s RouterServices) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s RouterServices) registry() *rbac.Registry {
	if s.Registry != nil {
		return s.Registry
	}
	return rbac.Default()
}

// NewRouter creates and configures the console's HTTP handler with its full middleware chain.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Sessions == nil || services.API == nil {
		return nil, errors.New("router: Sessions and API are required")
	}
	mux := http.NewServeMux()

	ui, err := setupUIHandlers(services)
	if err != nil {
		return nil, err
	}
	auth := &AuthHandlers{
		Sessions: services.Sessions,
		UI:       ui,
		Cookies:  services.Cookies,
		Logger:   services.Logger,
	}
	cfg := uiRouteConfig{
		Session: RequireSession(SessionConfig{
			Sessions:  services.Sessions,
			Cookies:   services.Cookies,
			EntryPath: entryPath(services.Guard),
			OnError:   ui.pageFailure,
			Logger:    services.Logger,
		}),
		Guard: RoleGuardOptions{
			Registry: services.registry(),
			Denied:   http.HandlerFunc(ui.NoAccess),
			Observer: services.Metrics,
		},
	}

	registerAuthRoutes(mux, auth, cfg)
	registerUIRoutes(mux, ui, cfg)

	health := healthHandler(services.HealthChecks, services.logger())
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	if services.MetricsPath != "" && services.Metrics != nil {
		mux.Handle("GET "+services.MetricsPath, services.Metrics.Handler())
	}

	static, err := staticHandler(services)
	if err != nil {
		return nil, err
	}
	mux.Handle("GET /static/", static)

	// Wrap with NotFound handler
	var handler http.Handler = &notFoundHandler{mux: mux, uiHandlers: ui}

	guard := services.Guard
	if guard.ProtectedPrefixes == nil {
		guard.ProtectedPrefixes = services.registry().ProtectedPrefixes()
	}
	if guard.Observer == nil && services.Metrics != nil {
		guard.Observer = services.Metrics
	}
	if guard.PublicPrefixes == nil && services.MetricsPath != "" {
		guard.PublicPrefixes = append(append([]string(nil), defaultPublicPrefixes...), services.MetricsPath)
	}

	handler = CSRFProtection(CSRFConfig{CookieDomain: services.Cookies.Domain})(handler)
	handler = RouteGuard(guard)(handler)
	handler = BrowserDetection()(handler)
	compression := services.Compression
	if compression.Logger == nil {
		compression.Logger = services.Logger
	}
	handler = Compression(compression)(handler)
	handler = Logging(LoggingConfig{
		Logger:     services.Logger,
		Observer:   services.Metrics,
		RouteLabel: routeLabel(services.registry()),
	})(handler)
	handler = RequestID()(handler)
	handler = Recover(services.Logger)(handler)
	return handler, nil
}

func entryPath(g GuardConfig) string {
	if g.EntryPath == "" {
		return "/"
	}
	return g.EntryPath
}

// templateFS picks the template source: disk in dev mode for hot reloading,
// otherwise the override or the embedded FS.
func templateFS(services RouterServices) (fs.FS, error) {
	switch {
	case services.TemplateFS != nil:
		return services.TemplateFS, nil
	case services.IsDev:
		return os.DirFS(TemplatePathFromRoot), nil
	}
	sub, err := fs.Sub(admin.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		return nil, fmt.Errorf("embedded templates: %w", err)
	}
	return sub, nil
}

// setupUIHandlers creates UI handlers with the template renderer.
func setupUIHandlers(services RouterServices) (*UIHandlers, error) {
	tfs, err := templateFS(services)
	if err != nil {
		return nil, err
	}
	cfg := TemplateRendererConfig{
		TemplateFS:     tfs,
		CurrencySymbol: services.CurrencySymbol,
		Logger:         services.Logger,
	}
	if services.Catalog != nil {
		cfg.Translator = services.Catalog
	}
	tr, err := NewTemplateRenderer(cfg)
	if err != nil {
		services.logger().Error("failed to create template renderer", slog.Any("error", err))
		return nil, fmt.Errorf("template renderer: %w", err)
	}

	ui := &UIHandlers{
		T:        tr,
		API:      services.API,
		Registry: services.registry(),
		Cookies:  services.Cookies,
		IsDev:    services.IsDev,
		Logger:   services.Logger,
	}
	if services.Catalog != nil {
		ui.Locales = services.Catalog
		ui.Messages = services.Catalog
	}
	if services.Metrics != nil {
		ui.Upstream = services.Metrics
	}
	return ui, nil
}

// staticHandler serves /static/* from disk in dev mode, otherwise from the embedded FS.
func staticHandler(services RouterServices) (http.Handler, error) {
	var sfs fs.FS
	switch {
	case services.StaticFS != nil:
		sfs = services.StaticFS
	case services.IsDev:
		sfs = os.DirFS(staticPathFromRoot)
	default:
		sub, err := fs.Sub(admin.StaticFS, staticPathFromRoot)
		if err != nil {
			return nil, fmt.Errorf("embedded static assets: %w", err)
		}
		sfs = sub
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServerFS(sfs)), services.IsDev), nil
}

// hashedFilePattern matches content-hashed filenames including optional .map (e.g. app.abc123.js).
var hashedFilePattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

// staticWithCacheHeaders wraps a static file handler to add appropriate cache headers.
func staticWithCacheHeaders(handler http.Handler, isDev bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case hashedFilePattern.MatchString(r.URL.Path):
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		case isDev:
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		default:
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		handler.ServeHTTP(w, r)
	})
}

// routeLabel names a request for metrics from a fixed set: the registry key of a
// protected area, one of the public surfaces, or "other".
func routeLabel(reg *rbac.Registry) func(*http.Request) string {
	return func(r *http.Request) string {
		p := r.URL.Path
		if rd, ok := reg.Match(p); ok {
			return string(rd.Key)
		}
		switch {
		case p == "/":
			return "login"
		case strings.HasPrefix(p, "/auth/"):
			return "auth"
		case strings.HasPrefix(p, "/session/"):
			return "session"
		case strings.HasPrefix(p, "/static/"):
			return "static"
		case p == "/healthz":
			return "healthz"
		case p == "/metrics":
			return "metrics"
		}
		return "other"
	}
}

// notFoundHandler wraps a ServeMux and provides custom 404 handling.
type notFoundHandler struct {
	mux        *http.ServeMux
	uiHandlers *UIHandlers
}

// ServeHTTP implements http.Handler and provides custom 404 handling.
func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cw := newCaptureWriter(w)
	h.mux.ServeHTTP(cw, r)

	// For missing static assets, preserve the default file server response
	if cw.status == http.StatusNotFound && cw.unmatched() && !strings.HasPrefix(r.URL.Path, "/static/") {
		if h.uiHandlers != nil {
			h.uiHandlers.NotFound(w, r)
			return
		}
		http.NotFound(w, r)
		return
	}
	cw.flushTo(w)
}

// captureWriter buffers headers, status and body so we can decide post-dispatch.
type captureWriter struct {
	rw     http.ResponseWriter
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{rw: w, header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

// unmatched reports whether the 404 is the mux's plain-text one rather than a
// page a handler already rendered.
func (c *captureWriter) unmatched() bool {
	return strings.HasPrefix(c.header.Get("Content-Type"), "text/plain")
}

func (c *captureWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		slog.Default().Debug("failed to write captured response", "error", err)
	}
}

// uiRouteConfig holds the wrappers shared by route registration.
type uiRouteConfig struct {
	Session func(http.Handler) http.Handler
	Guard   RoleGuardOptions
}

// page wraps a role-gated page handler.
func (cfg uiRouteConfig) page(key rbac.RouteKey, h http.HandlerFunc) http.Handler {
	return cfg.Session(RoleGuard(key, cfg.Guard)(h))
}

// action wraps a state-changing handler that needs both page access and action.
func (cfg uiRouteConfig) action(key rbac.RouteKey, act rbac.Action, h http.HandlerFunc) http.Handler {
	return cfg.Session(RoleGuard(key, cfg.Guard)(RequireAction(act, cfg.Guard)(h)))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, cfg uiRouteConfig) {
	mux.HandleFunc("GET /{$}", h.LoginPage)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
	mux.Handle("POST /session/preview-role", cfg.Session(http.HandlerFunc(h.PreviewRole)))
}

// registerUIRoutes delegates to per-area UI route registration functions.
func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	registerUIDashboardRoutes(mux, h, cfg)
	registerUIUsersRoutes(mux, h, cfg)
	registerUIPaymentsRoutes(mux, h, cfg)
	registerUIAdministrationRoutes(mux, h, cfg)
}

func registerUIDashboardRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	mux.Handle("GET /dashboard", cfg.page(rbac.RouteDashboard, h.Dashboard))
}

func registerUIUsersRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	mux.Handle("GET /users", cfg.page(rbac.RouteUsers, h.Users))
	mux.Handle("GET /users/{id}/positions", cfg.page(rbac.RouteUsers, h.TraderPositions))
	mux.Handle("GET /users/{id}/transactions", cfg.page(rbac.RouteUsers, h.TraderTransactions))
	mux.Handle("POST /users/{id}/positions/{positionID}",
		cfg.action(rbac.RouteUsers, rbac.ActionEditPosition, h.UpdatePosition))
}

func registerUIPaymentsRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	mux.Handle("GET /payment-management", cfg.page(rbac.RoutePayments, h.Payments))
	// approve/reject check the deposit or withdrawal action against the form's type
	mux.Handle("POST /payment-management/transactions/{id}/approve", cfg.page(rbac.RoutePayments, h.ApproveTransaction))
	mux.Handle("POST /payment-management/transactions/{id}/reject", cfg.page(rbac.RoutePayments, h.RejectTransaction))

	settings := func(fn http.HandlerFunc) http.Handler {
		return cfg.action(rbac.RoutePayments, rbac.ActionManagePaymentSettings, fn)
	}
	mux.Handle("POST /payment-management/bank", settings(h.UpdateBank))
	mux.Handle("POST /payment-management/crypto", settings(h.AddWallet))
	mux.Handle("POST /payment-management/crypto/{id}", settings(h.UpdateWallet))
	mux.Handle("POST /payment-management/crypto/{id}/delete", settings(h.DeleteWallet))
}

func registerUIAdministrationRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	mux.Handle("GET /administration", cfg.page(rbac.RouteAdministration, h.Administration))
	mux.Handle("POST /administration/users",
		cfg.action(rbac.RouteAdministration, rbac.ActionManageAdminUsers, h.CreateOperator))
	mux.Handle("POST /administration/users/{id}",
		cfg.action(rbac.RouteAdministration, rbac.ActionManageAdminUsers, h.UpdateOperator))
	mux.Handle("POST /administration/users/{id}/delete",
		cfg.action(rbac.RouteAdministration, rbac.ActionManageAdminUsers, h.DeleteOperator))
	mux.Handle("POST /administration/users/{id}/traders",
		cfg.action(rbac.RouteAdministration, rbac.ActionAssignTrader, h.AssignTraders))
}
