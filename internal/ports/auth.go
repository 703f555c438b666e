package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/apiclient; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
)

// TokenStore holds the current access/refresh token pair for one client.
// It never validates token contents.
type TokenStore interface {
	// Set stores both tokens, each with its own lifetime.
	Set(pair domainauth.TokenPair, accessTTL, refreshTTL time.Duration)

	// Get returns the token of the given kind, or "" when missing or expired.
	Get(kind domainauth.TokenKind) string

	// Clear removes both tokens. Clearing an empty store is a no-op.
	Clear()
}

// AuthAPI is the remote brokerage authentication endpoint set.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (domainauth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (domainauth.TokenPair, error)
	Logout(ctx context.Context, store TokenStore) error
	Me(ctx context.Context, store TokenStore) (domainauth.Identity, error)
}

// IdentityResolver derives the authenticated identity (and its role) from the
// credentials currently held by store.
type IdentityResolver interface {
	Resolve(ctx context.Context, store TokenStore) (domainauth.Identity, error)
}

// IdentityCache memoizes resolved identities by access-token fingerprint.
type IdentityCache interface {
	Get(ctx context.Context, fingerprint string) (domainauth.Identity, bool, error)
	Set(ctx context.Context, fingerprint string, id domainauth.Identity, ttl time.Duration) error
	Delete(ctx context.Context, fingerprint string) error
}
