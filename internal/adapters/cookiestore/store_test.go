package cookiestore

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
)

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestStore_GetReadsRequestCookies(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "acc"})
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "ref"})

	s := New(httptest.NewRecorder(), req, Options{})
	assert.Equal(t, "acc", s.Get(domainauth.TokenAccess))
	assert.Equal(t, "ref", s.Get(domainauth.TokenRefresh))
}

func TestStore_GetMissing(t *testing.T) {
	s := New(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), Options{})
	assert.Empty(t, s.Get(domainauth.TokenAccess))
	assert.Empty(t, s.Get(domainauth.TokenRefresh))
}

func TestStore_SetWritesCookiesAndShadowsRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "old"})
	rec := httptest.NewRecorder()

	s := New(rec, req, Options{Domain: "admin.example.com"})
	s.Set(domainauth.TokenPair{AccessToken: "new-a", RefreshToken: "new-r"}, 24*time.Hour, 7*24*time.Hour)

	assert.Equal(t, "new-a", s.Get(domainauth.TokenAccess))
	assert.Equal(t, "new-r", s.Get(domainauth.TokenRefresh))

	cookies := cookiesByName(rec)
	require.Contains(t, cookies, AccessCookie)
	require.Contains(t, cookies, RefreshCookie)
	assert.Equal(t, 86400, cookies[AccessCookie].MaxAge)
	assert.Equal(t, 604800, cookies[RefreshCookie].MaxAge)
	assert.True(t, cookies[AccessCookie].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[AccessCookie].SameSite)
	assert.Equal(t, "admin.example.com", cookies[AccessCookie].Domain)
	assert.Equal(t, "/", cookies[AccessCookie].Path)
	assert.False(t, cookies[AccessCookie].Secure)
}

func TestStore_SetDoesNotValidate(t *testing.T) {
	s := New(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), Options{})
	s.Set(domainauth.TokenPair{AccessToken: "not a jwt at all"}, time.Minute, time.Minute)
	assert.Equal(t, "not a jwt at all", s.Get(domainauth.TokenAccess))
	assert.Empty(t, s.Get(domainauth.TokenRefresh))
}

func TestStore_Clear(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "acc"})
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "ref"})
	rec := httptest.NewRecorder()

	s := New(rec, req, Options{})
	s.Clear()
	s.Clear()

	assert.Empty(t, s.Get(domainauth.TokenAccess))
	assert.Empty(t, s.Get(domainauth.TokenRefresh))
	for _, c := range rec.Result().Cookies() {
		assert.Equal(t, -1, c.MaxAge, c.Name)
		assert.Empty(t, c.Value)
	}
}

func TestStore_SecureDetection(t *testing.T) {
	tests := []struct {
		name string
		prep func(r *http.Request)
		want bool
	}{
		{name: "plain", prep: func(*http.Request) {}, want: false},
		{name: "tls", prep: func(r *http.Request) { r.TLS = &tls.ConnectionState{} }, want: true},
		{name: "forwarded", prep: func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS") }, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prep(req)
			rec := httptest.NewRecorder()
			New(rec, req, Options{}).Set(domainauth.TokenPair{AccessToken: "a", RefreshToken: "r"}, time.Hour, time.Hour)
			assert.Equal(t, tt.want, cookiesByName(rec)[AccessCookie].Secure)
		})
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), Options{})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Set(domainauth.TokenPair{AccessToken: "a", RefreshToken: "r"}, time.Hour, time.Hour)
			_ = s.Get(domainauth.TokenAccess)
		}()
	}
	wg.Wait()
	assert.Equal(t, "a", s.Get(domainauth.TokenAccess))
}

func TestHasAccessToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, HasAccessToken(req))
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: ""})
	assert.False(t, HasAccessToken(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "x"})
	assert.True(t, HasAccessToken(req))
}
