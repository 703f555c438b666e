package httpx

import (
	"context"
	"net/http"

	"github.com/siamkarim/2mro-admin/internal/adapters/cookiestore"
	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/ports"
)

type sessionKey struct{}

// SetSessionInContext returns a child context carrying the resolved console session.
// A nil session leaves ctx unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetUserSessionFromContext reports the session RequireSession resolved for the request.
func GetUserSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// GetSessionFromContext is GetUserSessionFromContext without the presence flag.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if s, ok := GetUserSessionFromContext(ctx); ok {
		return s
	}
	return nil
}

type tokenStoreKey struct{}

// withTokenStore pins the exchange's token store so a refresh performed by one
// call is seen by every later call in the same request.
func withTokenStore(ctx context.Context, store ports.TokenStore) context.Context {
	return context.WithValue(ctx, tokenStoreKey{}, store)
}

// tokenStoreFor returns the store pinned by the session middleware, or binds a fresh
// cookie store to the exchange.
func tokenStoreFor(w http.ResponseWriter, r *http.Request, opts cookiestore.Options) ports.TokenStore {
	if store, ok := r.Context().Value(tokenStoreKey{}).(ports.TokenStore); ok && store != nil {
		return store
	}
	return cookiestore.New(w, r, opts)
}

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned by the RequestID middleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
