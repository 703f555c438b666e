package jwtclaims

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
)

const testSecret = "test-secret"

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestParser_VerifiedIdentity(t *testing.T) {
	p := NewParser(Config{Secret: testSecret})
	require.True(t, p.Verifies())

	tok := sign(t, testSecret, jwt.MapClaims{"sub": "42", "email": "a@b.c", "name": "Ana", "role": "super_admin"})
	id, err := p.Identity(tok)
	require.NoError(t, err)
	assert.Equal(t, domainauth.Identity{UserID: "42", Email: "a@b.c", Name: "Ana", Role: domainauth.RoleSuperAdmin}, id)
}

func TestParser_RejectsBadSignature(t *testing.T) {
	p := NewParser(Config{Secret: testSecret})
	tok := sign(t, "other-secret", jwt.MapClaims{"sub": "1", "role": "MANAGER"})
	_, err := p.Identity(tok)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParser_RejectsExpired(t *testing.T) {
	for _, secret := range []string{testSecret, ""} {
		p := NewParser(Config{Secret: secret})
		tok := sign(t, testSecret, jwt.MapClaims{"sub": "1", "role": "MANAGER", "exp": time.Now().Add(-time.Hour).Unix()})
		_, err := p.Identity(tok)
		require.ErrorIs(t, err, ErrTokenInvalid, "secret=%q", secret)
	}
}

func TestParser_UnverifiedDecodesAnySignature(t *testing.T) {
	p := NewParser(Config{})
	tok := sign(t, "whatever", jwt.MapClaims{"user_id": float64(7), "role": "retention"})
	id, err := p.Identity(tok)
	require.NoError(t, err)
	assert.Equal(t, "7", id.UserID)
	assert.Equal(t, domainauth.RoleRetention, id.Role)
}

func TestParser_RoleClaimShapes(t *testing.T) {
	tests := []struct {
		name   string
		claim  string
		claims jwt.MapClaims
		want   domainauth.Role
		ok     bool
	}{
		{name: "nested", claim: "app.role", claims: jwt.MapClaims{"app": map[string]any{"role": "MANAGER"}}, want: domainauth.RoleManager, ok: true},
		{name: "list picks highest", claim: "roles", claims: jwt.MapClaims{"roles": []any{"USER", "MANAGER", "bogus"}}, want: domainauth.RoleManager, ok: true},
		{name: "unknown", claim: "role", claims: jwt.MapClaims{"role": "owner"}, ok: false},
		{name: "missing", claim: "role", claims: jwt.MapClaims{"sub": "x"}, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(Config{Secret: testSecret, RoleClaim: tt.claim})
			id, err := p.Identity(sign(t, testSecret, tt.claims))
			if !tt.ok {
				require.ErrorIs(t, err, ErrNoRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.Role)
		})
	}
}

func TestParser_Garbage(t *testing.T) {
	_, err := NewParser(Config{}).Identity("opaque-token")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParser_ExpiresAt(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	tok := sign(t, testSecret, jwt.MapClaims{"exp": exp.Unix()})
	got, ok := NewParser(Config{}).ExpiresAt(tok)
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = NewParser(Config{}).ExpiresAt("nope")
	assert.False(t, ok)
}
