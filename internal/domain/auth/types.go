package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoRole is returned when an identity source carries no recognizable role.
var ErrNoRole = errors.New("identity carries no role")

// ErrTokenInvalid is returned for access tokens that are malformed, badly signed or expired.
var ErrTokenInvalid = errors.New("invalid access token")

// Role represents a staff permission level in the console.
// Keep string form so it round-trips through tokens, cookies and JSON unchanged.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleManager    Role = "MANAGER"
	RoleRetention  Role = "RETENTION"
	RoleUser       Role = "USER"
)

// roleRanks orders roles from least to most privileged.
var roleRanks = map[Role]int{
	RoleUser:       0,
	RoleRetention:  1,
	RoleManager:    2,
	RoleSuperAdmin: 3,
}

// Roles returns the closed role set, highest privilege first.
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleManager, RoleRetention, RoleUser}
}

// ParseRole converts a raw value (any case, surrounding spaces allowed) into a Role.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := roleRanks[r]; !ok {
		return "", fmt.Errorf("invalid role: %q", raw)
	}
	return r, nil
}

// Valid reports whether r is part of the closed role set.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the privilege rank of r; unknown roles rank below USER.
func (r Role) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return -1
}

// TokenKind selects one half of a TokenPair.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenPair is the bearer credential pair issued by the remote auth service.
// Both values are opaque; validity is only discovered when the API rejects them.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IsZero reports whether neither token is set.
func (p TokenPair) IsZero() bool { return p.AccessToken == "" && p.RefreshToken == "" }

// Identity is the authenticated principal behind an access token.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// Session is the per-request view of an authenticated user.
// PreviewRole is set when a super-admin is previewing the console as a lower role.
type Session struct {
	Identity
	Tokens      TokenPair
	PreviewRole Role
}

// EffectiveRole returns the role guards should evaluate.
// A preview role only applies when it lowers privilege.
func (s Session) EffectiveRole() Role {
	if s.PreviewRole != "" && s.PreviewRole.Valid() && s.PreviewRole.Rank() < s.Role.Rank() {
		return s.PreviewRole
	}
	return s.Role
}
