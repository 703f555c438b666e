// Package testutil provides testing utilities and helpers for the admin console.
package testutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
)

// DefaultTokenSecret signs tokens built by NewToken.
const DefaultTokenSecret = "test-secret"

// TokenBuilder provides a fluent interface for building signed access tokens for testing.
type TokenBuilder struct {
	claims jwt.MapClaims
	secret string
}

// NewToken creates a TokenBuilder for a MANAGER valid for one hour.
func NewToken() *TokenBuilder {
	return &TokenBuilder{
		claims: jwt.MapClaims{
			"sub":   "user-1",
			"email": "staff@example.com",
			"name":  "Staff Member",
			"role":  string(domainauth.RoleManager),
			"exp":   time.Now().Add(time.Hour).Unix(),
		},
		secret: DefaultTokenSecret,
	}
}

// WithRole sets the role claim.
func (b *TokenBuilder) WithRole(role domainauth.Role) *TokenBuilder {
	b.claims["role"] = string(role)
	return b
}

// WithSubject sets the sub claim.
func (b *TokenBuilder) WithSubject(sub string) *TokenBuilder {
	b.claims["sub"] = sub
	return b
}

// WithClaim sets an arbitrary claim.
func (b *TokenBuilder) WithClaim(name string, value any) *TokenBuilder {
	b.claims[name] = value
	return b
}

// WithoutClaim removes a claim.
func (b *TokenBuilder) WithoutClaim(name string) *TokenBuilder {
	delete(b.claims, name)
	return b
}

// ExpiresIn sets exp relative to now.
func (b *TokenBuilder) ExpiresIn(d time.Duration) *TokenBuilder {
	b.claims["exp"] = time.Now().Add(d).Unix()
	return b
}

// SignedWith sets the HS256 secret.
func (b *TokenBuilder) SignedWith(secret string) *TokenBuilder {
	b.secret = secret
	return b
}

// Build signs the token. It panics on failure, which only happens with invalid claims.
func (b *TokenBuilder) Build() string {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, b.claims).SignedString([]byte(b.secret))
	if err != nil {
		panic(err)
	}
	return s
}

// IdentityFor returns a fixture identity with the given role.
func IdentityFor(role domainauth.Role) domainauth.Identity {
	return domainauth.Identity{
		UserID: "user-" + string(role),
		Email:  "staff@example.com",
		Name:   "Staff Member",
		Role:   role,
	}
}
