package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/ports"
)

// IdentityStrategy selects where the role of an access token comes from.
type IdentityStrategy string

const (
	// StrategyAuto reads token claims first and falls back to the remote API.
	StrategyAuto IdentityStrategy = "auto"
	// StrategyClaims only trusts the access token's claims.
	StrategyClaims IdentityStrategy = "claims"
	// StrategyRemote always asks the remote API.
	StrategyRemote IdentityStrategy = "remote"
)

// ParseIdentityStrategy converts raw into a strategy; empty means auto.
func ParseIdentityStrategy(raw string) (IdentityStrategy, error) {
	switch s := IdentityStrategy(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return StrategyAuto, nil
	case StrategyAuto, StrategyClaims, StrategyRemote:
		return s, nil
	default:
		return "", fmt.Errorf("unknown identity strategy %q", raw)
	}
}

// Identity cache results reported to the observer.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// ErrNotAuthenticated is returned when no access token is present.
var ErrNotAuthenticated = errors.New("not authenticated")

// ClaimsParser reads an identity out of an access token.
type ClaimsParser interface {
	Identity(token string) (domainauth.Identity, error)
}

// verifier is implemented by claims parsers that can report whether they check signatures.
type verifier interface {
	Verifies() bool
}

// TokenRefresher exchanges the refresh token held by store for a new pair.
// It reports whether the store now holds a fresh access token.
type TokenRefresher interface {
	RefreshStore(ctx context.Context, store ports.TokenStore) bool
}

// IdentityFetcher asks the remote API who the current token belongs to.
type IdentityFetcher interface {
	Me(ctx context.Context, store ports.TokenStore) (domainauth.Identity, error)
}

// CacheObserver receives identity cache outcomes.
type CacheObserver interface {
	ObserveIdentityCache(result string)
}

// IdentityResolverOptions groups dependencies for IdentityResolver.
type IdentityResolverOptions struct {
	Strategy IdentityStrategy
	Claims   ClaimsParser
	Remote   IdentityFetcher
	// Cache is optional; without it every request resolves afresh.
	Cache    ports.IdentityCache
	CacheTTL time.Duration
	Logger   *slog.Logger
	Observer CacheObserver

	// Refresher renews expired access tokens before claims are read again.
	Refresher TokenRefresher
}

// IdentityResolver implements ports.IdentityResolver.
type IdentityResolver struct {
	strategy IdentityStrategy
	claims   ClaimsParser
	remote   IdentityFetcher
	refresh  TokenRefresher
	cache    ports.IdentityCache
	ttl      time.Duration
	logger   *slog.Logger
	observer CacheObserver
}

var _ ports.IdentityResolver = (*IdentityResolver)(nil)

// NewIdentityResolver constructs an IdentityResolver.
func NewIdentityResolver(opts IdentityResolverOptions) (*IdentityResolver, error) {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyAuto
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	claims := opts.Claims
	unverified := claims != nil && !verifies(claims)
	switch strategy {
	case StrategyClaims:
		if claims == nil {
			return nil, errors.New("claims strategy requires a claims parser")
		}
		if unverified {
			return nil, errors.New("claims strategy requires a token secret")
		}
	case StrategyRemote:
		if opts.Remote == nil {
			return nil, errors.New("remote strategy requires an identity fetcher")
		}
	case StrategyAuto:
		// roles in unsigned tokens are never trusted; the remote API decides
		if unverified {
			logger.Info("token secret not set, identities resolve through the remote API")
			claims = nil
		}
		if claims == nil && opts.Remote == nil {
			return nil, errors.New("auto strategy requires a verifying claims parser or identity fetcher")
		}
	default:
		return nil, fmt.Errorf("unknown identity strategy %q", strategy)
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &IdentityResolver{
		strategy: strategy,
		claims:   claims,
		remote:   opts.Remote,
		refresh:  opts.Refresher,
		cache:    opts.Cache,
		ttl:      ttl,
		logger:   logger.With("component", "identity"),
		observer: opts.Observer,
	}, nil
}

// Fingerprint returns the cache key for an access token. Raw tokens are never stored.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Resolve returns the identity behind the access token held by store.
// An identity without a recognizable role resolves to USER.
func (r *IdentityResolver) Resolve(ctx context.Context, store ports.TokenStore) (domainauth.Identity, error) {
	token := store.Get(domainauth.TokenAccess)
	if token == "" {
		return domainauth.Identity{}, ErrNotAuthenticated
	}

	if id, ok := r.cached(ctx, Fingerprint(token)); ok {
		return id, nil
	}

	id, err := r.resolve(ctx, store, token)
	if err != nil {
		return domainauth.Identity{}, err
	}

	// A remote lookup may have refreshed the pair; key by the token now held.
	if current := store.Get(domainauth.TokenAccess); current != "" {
		token = current
	}
	r.remember(ctx, Fingerprint(token), id)
	return id, nil
}

func (r *IdentityResolver) resolve(ctx context.Context, store ports.TokenStore, token string) (domainauth.Identity, error) {
	switch r.strategy {
	case StrategyClaims:
		id, err := r.fromClaims(token)
		if errors.Is(err, domainauth.ErrTokenInvalid) {
			return r.refreshClaims(ctx, store, err)
		}
		return id, err
	case StrategyRemote:
		return r.fromRemote(ctx, store)
	}

	if r.claims != nil {
		id, err := r.claims.Identity(token)
		if err == nil {
			return id, nil
		}
		if r.remote == nil {
			return failClosed(id, err)
		}
		r.logger.DebugContext(ctx, "claims lookup failed, asking remote", "error", err)
	}
	return r.fromRemote(ctx, store)
}

func (r *IdentityResolver) fromClaims(token string) (domainauth.Identity, error) {
	id, err := r.claims.Identity(token)
	if err != nil {
		return failClosed(id, err)
	}
	return id, nil
}

// refreshClaims renews the pair after the access token was rejected and reads
// the new token. A failed renewal ends the session.
func (r *IdentityResolver) refreshClaims(ctx context.Context, store ports.TokenStore, cause error) (domainauth.Identity, error) {
	if r.refresh == nil || !r.refresh.RefreshStore(ctx, store) {
		store.Clear()
		return domainauth.Identity{}, fmt.Errorf("%w: %w", ErrNotAuthenticated, cause)
	}
	id, err := r.fromClaims(store.Get(domainauth.TokenAccess))
	if err != nil {
		r.logger.WarnContext(ctx, "refreshed token still unreadable", "error", err)
		store.Clear()
		return domainauth.Identity{}, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	return id, nil
}

func verifies(p ClaimsParser) bool {
	v, ok := p.(verifier)
	return !ok || v.Verifies()
}

func (r *IdentityResolver) fromRemote(ctx context.Context, store ports.TokenStore) (domainauth.Identity, error) {
	id, err := r.remote.Me(ctx, store)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("fetch identity: %w", err)
	}
	if !id.Role.Valid() {
		r.logger.WarnContext(ctx, "remote identity has no recognizable role", "user_id", id.UserID)
		id.Role = domainauth.RoleUser
	}
	return id, nil
}

// failClosed downgrades a role-less but otherwise readable identity to USER.
func failClosed(id domainauth.Identity, err error) (domainauth.Identity, error) {
	if errors.Is(err, domainauth.ErrNoRole) {
		id.Role = domainauth.RoleUser
		return id, nil
	}
	return domainauth.Identity{}, fmt.Errorf("read token claims: %w", err)
}

// Forget drops the cached identity for the access token held by store.
func (r *IdentityResolver) Forget(ctx context.Context, store ports.TokenStore) error {
	if r.cache == nil {
		return nil
	}
	token := store.Get(domainauth.TokenAccess)
	if token == "" {
		return nil
	}
	if err := r.cache.Delete(ctx, Fingerprint(token)); err != nil {
		return fmt.Errorf("forget identity: %w", err)
	}
	return nil
}

func (r *IdentityResolver) cached(ctx context.Context, fp string) (domainauth.Identity, bool) {
	if r.cache == nil {
		return domainauth.Identity{}, false
	}
	id, ok, err := r.cache.Get(ctx, fp)
	switch {
	case err != nil:
		r.logger.WarnContext(ctx, "identity cache read failed", "error", err)
		r.observe(CacheError)
		return domainauth.Identity{}, false
	case !ok:
		r.observe(CacheMiss)
		return domainauth.Identity{}, false
	default:
		r.observe(CacheHit)
		return id, true
	}
}

func (r *IdentityResolver) remember(ctx context.Context, fp string, id domainauth.Identity) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, fp, id, r.ttl); err != nil {
		r.logger.WarnContext(ctx, "identity cache write failed", "error", err)
	}
}

func (r *IdentityResolver) observe(result string) {
	if r.observer != nil {
		r.observer.ObserveIdentityCache(result)
	}
}
