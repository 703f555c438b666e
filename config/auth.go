package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// IdentityStrategy selects where the console learns a token's role.
type IdentityStrategy string

const (
	// IdentityAuto reads token claims first and falls back to the remote API.
	IdentityAuto IdentityStrategy = "auto"
	// IdentityClaims only trusts the access token's claims.
	IdentityClaims IdentityStrategy = "claims"
	// IdentityRemote always asks the remote API.
	IdentityRemote IdentityStrategy = "remote"
)

// UnmarshalText implements encoding.TextUnmarshaler for IdentityStrategy.
func (s *IdentityStrategy) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "":
		*s = IdentityAuto
		return nil
	case "auto", "claims", "remote":
		*s = IdentityStrategy(v)
		return nil
	default:
		return fmt.Errorf("invalid IdentityStrategy: %q (valid options: auto, claims, remote)", v)
	}
}

// AuthConfig groups session and identity configuration.
type AuthConfig struct {
	// Cookie lifetimes for the token pair.
	AccessTTL  time.Duration `env:"AUTH_ACCESS_TTL"  envDefault:"24h"`
	RefreshTTL time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"168h"`

	IdentityStrategy IdentityStrategy `env:"AUTH_IDENTITY_STRATEGY" envDefault:"auto"`
	// RoleClaim names the JWT claim holding the role; dots address nested objects.
	RoleClaim string `env:"AUTH_ROLE_CLAIM" envDefault:"role"`
	// TokenSecret enables HS256 verification of access tokens when set.
	TokenSecret string        `env:"AUTH_TOKEN_SECRET"`
	TokenLeeway time.Duration `env:"AUTH_TOKEN_LEEWAY" envDefault:"30s"`

	IdentityCacheTTL  time.Duration `env:"AUTH_IDENTITY_CACHE_TTL"  envDefault:"5m"`
	IdentityCacheSize int           `env:"AUTH_IDENTITY_CACHE_SIZE" envDefault:"1024"`

	// EntryPath is the sign-in page; HomePath is where a login lands.
	EntryPath string `env:"AUTH_ENTRY_PATH" envDefault:"/"`
	HomePath  string `env:"AUTH_HOME_PATH"  envDefault:"/dashboard"`
	// RedirectAuthenticatedEntry sends signed-in visitors of EntryPath to HomePath.
	RedirectAuthenticatedEntry bool `env:"AUTH_REDIRECT_AUTHENTICATED_ENTRY" envDefault:"true"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.AccessTTL <= 0 {
		a.AccessTTL = 24 * time.Hour
	}
	if a.RefreshTTL < a.AccessTTL {
		a.RefreshTTL = a.AccessTTL
	}
	if a.IdentityStrategy == "" {
		a.IdentityStrategy = IdentityAuto
	}
	if a.RoleClaim = strings.TrimSpace(a.RoleClaim); a.RoleClaim == "" {
		a.RoleClaim = "role"
	}
	if a.TokenLeeway < 0 {
		a.TokenLeeway = 0
	}
	// a cached identity never outlives the token it was resolved for
	if a.IdentityCacheTTL <= 0 {
		a.IdentityCacheTTL = 5 * time.Minute
	}
	if a.IdentityCacheTTL > a.AccessTTL {
		a.IdentityCacheTTL = a.AccessTTL
	}
	if a.IdentityCacheSize < 1 {
		a.IdentityCacheSize = 1024
	}
	a.EntryPath = normalizePath(a.EntryPath, "/")
	a.HomePath = normalizePath(a.HomePath, "/dashboard")
}

// Validate rejects a home path that would loop back to the entry page and a
// claims-only strategy that could not verify the claims it trusts.
func (a *AuthConfig) Validate() error {
	if a.HomePath == a.EntryPath {
		return fmt.Errorf("AUTH_HOME_PATH must differ from AUTH_ENTRY_PATH (%q)", a.EntryPath)
	}
	if a.IdentityStrategy == IdentityClaims && strings.TrimSpace(a.TokenSecret) == "" {
		return errors.New("AUTH_IDENTITY_STRATEGY=claims requires AUTH_TOKEN_SECRET")
	}
	return nil
}

func normalizePath(p, def string) string {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return def
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
