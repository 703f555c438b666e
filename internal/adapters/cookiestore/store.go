// Package cookiestore keeps the access/refresh token pair in browser cookies.
package cookiestore

import (
	"net/http"
	"strings"
	"sync"
	"time"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
)

// Cookie names shared with the browser.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// CookieName returns the cookie that holds tokens of the given kind.
func CookieName(kind domainauth.TokenKind) string {
	if kind == domainauth.TokenRefresh {
		return RefreshCookie
	}
	return AccessCookie
}

// Options control the attributes of written cookies.
type Options struct {
	Domain string
	Path   string
}

// Store is a TokenStore bound to a single HTTP exchange.
// Reads come from the request cookies; writes go to Set-Cookie headers on the
// response and shadow the request values for the rest of the exchange.
type Store struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	r       *http.Request
	opts    Options
	written map[domainauth.TokenKind]string
}

// New binds a Store to the given exchange.
func New(w http.ResponseWriter, r *http.Request, opts Options) *Store {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &Store{
		w:       w,
		r:       r,
		opts:    opts,
		written: make(map[domainauth.TokenKind]string, 2),
	}
}

// Set writes both cookies. A non-positive TTL produces a browser-session cookie.
func (s *Store) Set(pair domainauth.TokenPair, accessTTL, refreshTTL time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.write(domainauth.TokenAccess, pair.AccessToken, accessTTL)
	s.write(domainauth.TokenRefresh, pair.RefreshToken, refreshTTL)
}

// Get returns the token of kind, preferring values written during this exchange.
func (s *Store) Get(kind domainauth.TokenKind) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.written[kind]; ok {
		return v
	}
	c, err := s.r.Cookie(CookieName(kind))
	if err != nil {
		return ""
	}
	return c.Value
}

// Clear expires both cookies.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, kind := range []domainauth.TokenKind{domainauth.TokenAccess, domainauth.TokenRefresh} {
		s.written[kind] = ""
		http.SetCookie(s.w, &http.Cookie{
			Name:     CookieName(kind),
			Value:    "",
			Path:     s.opts.Path,
			Domain:   s.opts.Domain,
			HttpOnly: true,
			Secure:   IsSecureRequest(s.r),
			MaxAge:   -1,
			Expires:  time.Unix(0, 0).UTC(),
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (s *Store) write(kind domainauth.TokenKind, value string, ttl time.Duration) {
	s.written[kind] = value
	c := &http.Cookie{
		Name:     CookieName(kind),
		Value:    value,
		Path:     s.opts.Path,
		Domain:   s.opts.Domain,
		HttpOnly: true,
		Secure:   IsSecureRequest(s.r),
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		c.MaxAge = int(ttl.Seconds())
		c.Expires = time.Now().Add(ttl).UTC()
	}
	http.SetCookie(s.w, c)
}

// HasAccessToken reports whether the request carries a non-empty access cookie.
// Presence only; the value is never inspected.
func HasAccessToken(r *http.Request) bool {
	c, err := r.Cookie(AccessCookie)
	return err == nil && c.Value != ""
}

// IsSecureRequest reports whether the request arrived over TLS, directly or via a proxy.
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	// proxies may append, e.g. "https,http"
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}
