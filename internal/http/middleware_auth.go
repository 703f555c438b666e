package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/siamkarim/2mro-admin/internal/adapters/cookiestore"
	"github.com/siamkarim/2mro-admin/internal/authctx"
	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/domain/rbac"
	apperrors "github.com/siamkarim/2mro-admin/internal/errors"
	"github.com/siamkarim/2mro-admin/internal/ports"
	"github.com/siamkarim/2mro-admin/internal/service"
)

// SessionManager is the session lifecycle as the HTTP layer uses it.
type SessionManager interface {
	Login(ctx context.Context, store ports.TokenStore, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, store ports.TokenStore) error
	Identify(ctx context.Context, store ports.TokenStore) (domainauth.Identity, error)
	HomePath() string
}

var _ SessionManager = (*service.SessionService)(nil)

// SessionConfig configures RequireSession.
type SessionConfig struct {
	Sessions SessionManager
	Cookies  cookiestore.Options
	// EntryPath is where unauthenticated browsers are sent. Defaults to "/".
	EntryPath string
	// OnError renders failures other than missing credentials, e.g. an unreachable API.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
	Logger  *slog.Logger
}

// RequireSession resolves the caller's identity and roots the per-request
// Auth/Role Context. Requests without a usable session are sent to the entry page
// (browsers) or answered with 401 (JSON clients).
func RequireSession(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.EntryPath == "" {
		cfg.EntryPath = "/"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := tokenStoreFor(w, r, cfg.Cookies)
			id, err := cfg.Sessions.Identify(r.Context(), store)
			if err != nil {
				if isUnauthenticated(err) {
					unauthenticated(w, r, cfg.EntryPath)
					return
				}
				logger.WarnContext(r.Context(), "identify session", "error", err)
				if cfg.OnError != nil {
					cfg.OnError(w, r, err)
					return
				}
				WriteAppError(w, err)
				return
			}

			sess := &domainauth.Session{
				Identity: id,
				Tokens: domainauth.TokenPair{
					AccessToken:  store.Get(domainauth.TokenAccess),
					RefreshToken: store.Get(domainauth.TokenRefresh),
				},
				PreviewRole: previewRoleFromRequest(r),
			}
			provider := authctx.NewProvider(*sess)
			// a role switch during this request persists as the preview cookie
			provider.Subscribe(func(role domainauth.Role) {
				writePreviewCookie(w, r, previewCookieParams{Actual: id.Role, Active: role, Domain: cfg.Cookies.Domain})
			})

			ctx := withTokenStore(r.Context(), store)
			ctx = SetSessionInContext(ctx, sess)
			ctx = authctx.WithProvider(ctx, provider)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isUnauthenticated(err error) bool {
	if errors.Is(err, service.ErrNotAuthenticated) {
		return true
	}
	return apperrors.IsUnauthenticated(apperrors.MapUpstreamError(err))
}

func unauthenticated(w http.ResponseWriter, r *http.Request, entry string) {
	if IsBrowserRequest(r) {
		redirect(w, r, entry)
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errors.New("authentication required"),
	})
}

func previewRoleFromRequest(r *http.Request) domainauth.Role {
	c, err := r.Cookie(PreviewRoleCookie)
	if err != nil {
		return ""
	}
	role, err := domainauth.ParseRole(c.Value)
	if err != nil {
		return ""
	}
	return role
}

type previewCookieParams struct {
	Actual domainauth.Role
	Active domainauth.Role
	Domain string
}

// writePreviewCookie stores the active role while it is a preview and clears it otherwise.
func writePreviewCookie(w http.ResponseWriter, r *http.Request, p previewCookieParams) {
	c := &http.Cookie{
		Name:     PreviewRoleCookie,
		Path:     "/",
		Domain:   p.Domain,
		HttpOnly: true,
		Secure:   cookiestore.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
	if p.Active.Rank() >= p.Actual.Rank() {
		c.MaxAge = -1
	} else {
		c.Value = string(p.Active)
	}
	http.SetCookie(w, c)
}

// RoleDenialObserver counts role guard denials; *metrics.Metrics satisfies it.
type RoleDenialObserver interface {
	ObserveRoleDenial(route string)
}

// RoleGuardOptions configures RoleGuard and RequireAction.
type RoleGuardOptions struct {
	Registry *rbac.Registry
	// Denied renders the no-access page for browsers. It must write a 403.
	Denied   http.Handler
	Observer RoleDenialObserver
}

// RoleGuard lets the wrapped page render only when the active role may reach key.
// Otherwise the fixed no-access fallback is served and the page handler never runs.
// An unknown key panics at construction time.
func RoleGuard(key rbac.RouteKey, opts RoleGuardOptions) func(http.Handler) http.Handler {
	reg := opts.Registry
	if reg == nil {
		reg = rbac.Default()
	}
	rd := reg.MustDefinitionsFor(key)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rd.Allows(authctx.RoleFromContext(r.Context())) {
				next.ServeHTTP(w, r)
				return
			}
			if opts.Observer != nil {
				opts.Observer.ObserveRoleDenial(string(key))
			}
			deny(w, r, opts.Denied)
		})
	}
}

// RequireAction is RoleGuard at action granularity, for state-changing endpoints.
func RequireAction(action rbac.Action, opts RoleGuardOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rbac.CanPerform(authctx.RoleFromContext(r.Context()), action) {
				next.ServeHTTP(w, r)
				return
			}
			if opts.Observer != nil {
				opts.Observer.ObserveRoleDenial(string(action))
			}
			deny(w, r, opts.Denied)
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, page http.Handler) {
	if !IsBrowserRequest(r) || page == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "insufficient_permissions",
			Err:     errors.New("insufficient permissions"),
		})
		return
	}
	page.ServeHTTP(w, r)
}
