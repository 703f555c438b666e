package httpx

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/siamkarim/2mro-admin/internal/adapters/cookiestore"
	"github.com/siamkarim/2mro-admin/internal/authctx"
	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/service"
)

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Sessions SessionManager
	// UI renders the login page.
	UI      *UIHandlers
	Cookies cookiestore.Options
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPage serves GET /, the console entry page.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, loginView{Status: http.StatusOK, Redirect: r.URL.Query().Get("redirect_uri")})
}

type loginView struct {
	Status   int
	Email    string
	Message  string
	Redirect string
}

func (h *AuthHandlers) renderLogin(w http.ResponseWriter, r *http.Request, v loginView) {
	b := h.UI.pageData(r, PageMeta{Title: "login.title", CurrentPage: PageLogin}).
		With("Email", v.Email).
		With("RedirectURI", safeRedirectFromURL(v.Redirect))
	if v.Message != "" {
		b.WithError(v.Message)
	}
	h.UI.renderPage(w, r, v.Status, b.Build())
}

// Login handles POST /auth/login with a form or a JSON body.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if isJSONBody(r) {
		if !DecodeJSON(w, r, &req) {
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		req.Email = r.PostFormValue(formEmail)
		req.Password = r.PostFormValue(formPassword)
	}
	redirectTo := safeRedirectFromURL(r.FormValue("redirect_uri"))

	store := tokenStoreFor(w, r, h.Cookies)
	result, err := h.Sessions.Login(r.Context(), store, req.Email, req.Password)
	if err != nil {
		h.loginFailed(w, r, req.Email, redirectTo, err)
		return
	}

	// a fresh session never inherits a preview
	clearCookie(w, r, PreviewRoleCookie, h.Cookies.Domain)

	dest := result.RedirectTo
	if redirectTo != "" && redirectTo != "/" {
		dest = redirectTo
	}
	h.logger().InfoContext(r.Context(), "login succeeded", "user_id", result.Identity.UserID)
	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusOK, map[string]any{
			"status":      "success",
			"redirect_to": dest,
			"role":        result.Identity.Role,
		})
		return
	}
	redirect(w, r, dest)
}

func (h *AuthHandlers) loginFailed(w http.ResponseWriter, r *http.Request, email, redirectTo string, err error) {
	var le *service.LoginError
	if !errors.As(err, &le) {
		h.logger().ErrorContext(r.Context(), "login failed", "error", err)
		le = &service.LoginError{Message: service.DefaultLoginFailureMessage, Err: err}
	}
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "login_failed", Err: errors.New(le.Message)})
		return
	}
	// htmx swaps 2xx responses only
	status := http.StatusUnauthorized
	if IsHTMX(r) {
		status = http.StatusOK
	}
	h.renderLogin(w, r, loginView{Status: status, Email: strings.TrimSpace(email), Message: le.Message, Redirect: redirectTo})
}

// Logout handles POST /auth/logout. Local credentials are always cleared.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	store := tokenStoreFor(w, r, h.Cookies)
	if err := h.Sessions.Logout(r.Context(), store); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}
	clearCookie(w, r, PreviewRoleCookie, h.Cookies.Domain)

	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": "/"})
		return
	}
	redirect(w, r, "/")
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	store := tokenStoreFor(w, r, h.Cookies)
	id, err := h.Sessions.Identify(r.Context(), store)
	if err != nil {
		if !isUnauthenticated(err) {
			h.logger().WarnContext(r.Context(), "auth status lookup failed", "error", err)
		}
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	sess := domainauth.Session{Identity: id, PreviewRole: previewRoleFromRequest(r)}
	role := sess.EffectiveRole()
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":    id.UserID,
			"name":  id.Name,
			"email": id.Email,
			"role":  id.Role,
		},
		"role":       role,
		"previewing": role != id.Role,
	})
}

// PreviewRole handles POST /session/preview-role. A super-admin may switch the
// active role to a lower one; an empty role ends the preview.
func (h *AuthHandlers) PreviewRole(w http.ResponseWriter, r *http.Request) {
	p, err := authctx.FromContext(r.Context())
	if err != nil {
		unauthenticated(w, r, "/")
		return
	}
	actual := p.Identity().Role
	if actual != domainauth.RoleSuperAdmin {
		deny(w, r, http.HandlerFunc(h.UI.NoAccess))
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	target := actual
	if raw := strings.TrimSpace(r.PostFormValue("role")); raw != "" {
		role, err := domainauth.ParseRole(raw)
		if err != nil || role.Rank() > actual.Rank() || role == domainauth.RoleUser {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_role", Err: errors.New("role cannot be previewed")})
			return
		}
		target = role
	}
	p.SetRole(target)
	h.logger().InfoContext(r.Context(), "preview role changed", "actual", actual, "active", target)

	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusOK, map[string]any{"role": target, "previewing": p.Previewing()})
		return
	}
	redirect(w, r, h.Sessions.HomePath())
}

func isJSONBody(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors the attributes used when setting it so every browser drops it.
func clearCookie(w http.ResponseWriter, r *http.Request, name, domain string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   cookiestore.IsSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with a single "/" and free of backslashes. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	// browsers read "/\host" as "//host"
	if strings.ContainsRune(candidate, '\\') || !strings.HasPrefix(candidate, "/") ||
		(len(candidate) > 1 && candidate[1] == '/') {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

// safeRedirectFromURL reduces a URL (such as a Referer) to its local path and
// query. Returns "" when nothing safe remains.
func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || !strings.HasPrefix(u.Path, "/") {
		return ""
	}
	local := u.Path
	if u.RawQuery != "" {
		local += "?" + u.RawQuery
	}
	if p := safeRedirectPath(local); p != "/" || local == "/" {
		return p
	}
	return ""
}
