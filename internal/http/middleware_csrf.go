package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/siamkarim/2mro-admin/internal/adapters/cookiestore"
)

const (
	// DefaultCSRFCookieName is the cookie holding the token. Forms post it under the same name.
	DefaultCSRFCookieName = "csrf_token"
	// DefaultCSRFHeaderName is the header htmx and fetch callers echo the token in (canonical form).
	DefaultCSRFHeaderName = "X-Csrf-Token"
	// DefaultCSRFTokenLength is the number of random bytes in a token.
	DefaultCSRFTokenLength = 32
	// DefaultCSRFMaxAge matches the access token lifetime.
	DefaultCSRFMaxAge = 24 * 3600
)

var errCSRFFailed = errors.New("CSRF token validation failed")

// CSRFConfig configures double-submit cookie protection. Zero values take the defaults above.
type CSRFConfig struct {
	CookieName    string
	HeaderName    string
	FormFieldName string
	CookieDomain  string
	TokenLength   int
	// MaxAge is the cookie lifetime in seconds.
	MaxAge int
}

func (c CSRFConfig) withDefaults() CSRFConfig {
	if c.CookieName == "" {
		c.CookieName = DefaultCSRFCookieName
	}
	if c.HeaderName == "" {
		c.HeaderName = DefaultCSRFHeaderName
	}
	if c.FormFieldName == "" {
		c.FormFieldName = c.CookieName
	}
	if c.TokenLength <= 0 {
		c.TokenLength = DefaultCSRFTokenLength
	}
	if c.MaxAge == 0 {
		c.MaxAge = DefaultCSRFMaxAge
	}
	return c
}

// CSRFProtection issues a token cookie on first contact and requires every
// unsafe request to echo it back, in the header or in the form body. The token
// is also placed in the request context for templates (see GetCSRFToken).
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := cfg.issue(w, r)
			if err != nil {
				// fail closed
				http.Error(w, "unable to generate CSRF token", http.StatusInternalServerError)
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token))

			if !isSafeMethod(r.Method) && !cfg.echoed(r, token) {
				csrfFailed(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// issue returns the client's token, minting one and setting the cookie when it has none.
func (c CSRFConfig) issue(w http.ResponseWriter, r *http.Request) (string, error) {
	if ck, err := r.Cookie(c.CookieName); err == nil && ck.Value != "" {
		return ck.Value, nil
	}

	b := make([]byte, c.TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf token generation failed: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	http.SetCookie(w, &http.Cookie{
		Name:   c.CookieName,
		Value:  token,
		Path:   "/",
		Domain: c.CookieDomain,
		// htmx reads it to fill the header
		HttpOnly: false,
		Secure:   cookiestore.IsSecureRequest(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   c.MaxAge,
	})
	return token, nil
}

// echoed reports whether the request carries token. The header wins over the
// form field; bodies that are not forms are never parsed.
func (c CSRFConfig) echoed(r *http.Request, token string) bool {
	got := r.Header.Get(c.HeaderName)
	if got == "" {
		mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data" {
			got = r.FormValue(c.FormFieldName)
		}
	}
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

// csrfFailed answers a rejected request. htmx callers also get a toast so an
// expired form does not fail silently.
func csrfFailed(w http.ResponseWriter, r *http.Request) {
	if IsHTMX(r) {
		triggerToast(w, "Your form expired. Reload the page and try again.", "error")
	}
	if !IsBrowserRequest(r) || IsHTMX(r) {
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "csrf_failed", Err: errCSRFFailed})
		return
	}
	http.Error(w, errCSRFFailed.Error(), http.StatusForbidden)
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

type csrfTokenKey struct{}

// GetCSRFToken returns the token CSRFProtection placed in the request context.
func GetCSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfTokenKey{}).(string)
	return token
}
