// Package apiclient is the single gateway to the remote brokerage REST API.
// Every authenticated call carries the current bearer token and is retried at
// most once after a transparent token refresh.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/ports"
)

const (
	defaultTimeout          = 15 * time.Second
	defaultErrorMessagePath = "message || detail || error"
	defaultAccessTTL        = 24 * time.Hour
	defaultRefreshTTL       = 7 * 24 * time.Hour
	maxBodyBytes            = 4 << 20
)

// Refresh results reported to the observer.
const (
	RefreshSuccess = "success"
	RefreshShared  = "shared"
	RefreshFailure = "failure"
	RefreshSkipped = "skipped"
)

// RefreshObserver receives the outcome of every refresh attempt.
type RefreshObserver interface {
	ObserveRefresh(result string)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration

	// ErrorMessagePath is a JMESPath expression evaluated against JSON error bodies.
	ErrorMessagePath string
	// IdentityPaths locate identity fields in the /auth/me response.
	IdentityPaths IdentityPaths

	// Lifetimes applied to tokens obtained by a refresh.
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	Logger   *slog.Logger
	Observer RefreshObserver
}

// Client talks to the remote API. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	hc         *http.Client
	msgPath    string
	idPaths    IdentityPaths
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *slog.Logger
	observer   RefreshObserver

	refreshes singleflight.Group
}

// New builds a Client from cfg.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("api base url is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http(s): %q", raw)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		base:       base,
		hc:         hc,
		msgPath:    fallbackString(strings.TrimSpace(cfg.ErrorMessagePath), defaultErrorMessagePath),
		idPaths:    cfg.IdentityPaths.withDefaults(),
		accessTTL:  fallbackDuration(cfg.AccessTTL, defaultAccessTTL),
		refreshTTL: fallbackDuration(cfg.RefreshTTL, defaultRefreshTTL),
		logger:     logger.With("component", "apiclient"),
		observer:   cfg.Observer,
	}
	return c, nil
}

// Request describes one call relative to the base URL. Body, when set, is sent as JSON.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response is a fully read upstream response with a 2xx status.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type attemptKey struct{}

// attemptFrom returns how many times the current call has already been retried.
func attemptFrom(ctx context.Context) int {
	n, _ := ctx.Value(attemptKey{}).(int)
	return n
}

func withAttempt(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, attemptKey{}, n)
}

// Do sends req with the bearer token held by store. A 401 on the first attempt
// triggers one refresh; on success the store is updated and req is re-sent once.
// When the refresh cannot be performed the store is cleared and the original
// 401 is returned. A nil store sends the request unauthenticated.
func (c *Client) Do(ctx context.Context, store ports.TokenStore, req Request) (*Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, store, req, body)
}

func (c *Client) do(ctx context.Context, store ports.TokenStore, req Request, body []byte) (*Response, error) {
	token := ""
	if store != nil {
		token = store.Get(domainauth.TokenAccess)
	}

	resp, err := c.send(ctx, req, body, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || store == nil || attemptFrom(ctx) > 0 {
		return c.result(resp)
	}

	// The retry runs with a non-zero attempt so a second 401 is returned as-is.
	retryCtx := withAttempt(ctx, attemptFrom(ctx)+1)
	if !c.refreshInto(retryCtx, store) {
		store.Clear()
		return c.result(resp)
	}
	return c.do(retryCtx, store, req, body)
}

// RefreshStore renews the pair held by store outside of a request, for callers
// that learn of an expired access token on their own. It shares in-flight
// refreshes with Do.
func (c *Client) RefreshStore(ctx context.Context, store ports.TokenStore) bool {
	return c.refreshInto(ctx, store)
}

// refreshInto exchanges the refresh token held by store for a new pair.
// Concurrent callers presenting the same refresh token share one upstream call.
func (c *Client) refreshInto(ctx context.Context, store ports.TokenStore) bool {
	rt := store.Get(domainauth.TokenRefresh)
	if rt == "" {
		c.observe(RefreshSkipped)
		return false
	}

	v, err, shared := c.refreshes.Do(rt, func() (any, error) {
		// Detach from the first caller's cancellation; other waiters depend on the result.
		return c.Refresh(context.WithoutCancel(ctx), rt)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "token refresh failed", "error", err)
		c.observe(RefreshFailure)
		return false
	}

	pair, ok := v.(domainauth.TokenPair)
	if !ok || pair.AccessToken == "" {
		c.logger.WarnContext(ctx, "token refresh returned no access token")
		c.observe(RefreshFailure)
		return false
	}

	store.Set(pair, c.accessTTL, c.refreshTTL)
	if shared {
		c.observe(RefreshShared)
	} else {
		c.observe(RefreshSuccess)
	}
	return true
}

func (c *Client) observe(result string) {
	if c.observer != nil {
		c.observer.ObserveRefresh(result)
	}
}

// send performs one HTTP exchange and reads the whole body.
func (c *Client) send(ctx context.Context, req Request, body []byte, token string) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	hreq, err := http.NewRequestWithContext(ctx, method, c.resolve(req.Path, req.Query), rdr)
	if err != nil {
		return nil, fmt.Errorf("create api request: %w", err)
	}
	hreq.Header.Set("Accept", "application/json")
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(hreq)
	}

	hresp, err := c.hc.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("api %s %s: %w", method, req.Path, err)
	}
	defer hresp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(hresp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read api response: %w", err)
	}

	return &Response{StatusCode: hresp.StatusCode, Header: hresp.Header, Body: data}, nil
}

func (c *Client) result(resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	return nil, &APIError{
		StatusCode: resp.StatusCode,
		Message:    extractMessage(c.msgPath, resp.Body),
		Body:       resp.Body,
	}
}

func (c *Client) resolve(path string, q url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func encodeBody(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode api request: %w", err)
	}
	return data, nil
}

func fallbackString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func fallbackDuration(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
