// Package jwtclaims reads the console identity out of brokerage access tokens.
package jwtclaims

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
)

var (
	// ErrTokenInvalid covers malformed, badly signed or expired tokens.
	ErrTokenInvalid = domainauth.ErrTokenInvalid
	// ErrNoRole is returned when the token carries no recognizable role.
	ErrNoRole = domainauth.ErrNoRole
)

// Config controls how tokens are parsed.
type Config struct {
	// Secret enables HS256 signature verification. Empty means the token is
	// decoded without verification; the remote API remains the authority.
	Secret string
	// RoleClaim names the claim holding the role. Dots address nested objects.
	RoleClaim string
	Leeway    time.Duration
}

// Parser extracts identities from JWT access tokens. It is safe for concurrent use.
type Parser struct {
	secret    []byte
	roleClaim []string
	parser    *jwt.Parser
}

// NewParser builds a Parser from cfg.
func NewParser(cfg Config) *Parser {
	claim := strings.TrimSpace(cfg.RoleClaim)
	if claim == "" {
		claim = "role"
	}
	opts := []jwt.ParserOption{jwt.WithLeeway(cfg.Leeway), jwt.WithExpirationRequired()}
	if cfg.Secret != "" {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	}
	return &Parser{
		secret:    []byte(cfg.Secret),
		roleClaim: strings.Split(claim, "."),
		parser:    jwt.NewParser(opts...),
	}
}

// Verifies reports whether signatures are checked.
func (p *Parser) Verifies() bool { return len(p.secret) > 0 }

// Identity parses token and returns the identity it describes.
func (p *Parser) Identity(token string) (domainauth.Identity, error) {
	claims, err := p.parse(token)
	if err != nil {
		return domainauth.Identity{}, err
	}

	id := domainauth.Identity{
		UserID: firstString(claims, "sub", "user_id", "id"),
		Email:  firstString(claims, "email"),
		Name:   firstString(claims, "name", "full_name"),
	}
	role, ok := roleFrom(lookup(claims, p.roleClaim))
	if !ok {
		return id, ErrNoRole
	}
	id.Role = role
	return id, nil
}

func (p *Parser) parse(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if !p.Verifies() {
		if _, _, err := p.parser.ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
		}
		// ParseUnverified skips validation; expiry still matters for caching.
		exp, err := claims.GetExpirationTime()
		if err != nil || exp == nil || time.Now().After(exp.Time) {
			return nil, fmt.Errorf("%w: expired or missing exp", ErrTokenInvalid)
		}
		return claims, nil
	}

	tok, err := p.parser.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ExpiresAt returns the exp claim without verifying the signature.
func (p *Parser) ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := p.parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func lookup(claims map[string]any, path []string) any {
	var cur any = claims
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// roleFrom accepts a single role string or a list, picking the most privileged valid entry.
func roleFrom(v any) (domainauth.Role, bool) {
	switch t := v.(type) {
	case string:
		r, err := domainauth.ParseRole(t)
		return r, err == nil
	case []any:
		var best domainauth.Role
		for _, item := range t {
			s, _ := item.(string)
			if r, err := domainauth.ParseRole(s); err == nil && r.Rank() > best.Rank() {
				best = r
			}
		}
		return best, best != ""
	default:
		return "", false
	}
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
