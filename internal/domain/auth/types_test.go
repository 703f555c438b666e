package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "SUPER_ADMIN", want: RoleSuperAdmin},
		{in: "manager", want: RoleManager},
		{in: "  Retention ", want: RoleRetention},
		{in: "USER", want: RoleUser},
		{in: "owner", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoles_PrivilegeOrder(t *testing.T) {
	roles := Roles()
	require.Len(t, roles, 4)
	for i := 1; i < len(roles); i++ {
		assert.Greater(t, roles[i-1].Rank(), roles[i].Rank())
	}
	assert.Equal(t, -1, Role("guest").Rank())
	assert.False(t, Role("guest").Valid())
}

func TestSession_EffectiveRole(t *testing.T) {
	s := Session{Identity: Identity{Role: RoleSuperAdmin}}
	assert.Equal(t, RoleSuperAdmin, s.EffectiveRole())

	s.PreviewRole = RoleManager
	assert.Equal(t, RoleManager, s.EffectiveRole())

	// Preview never escalates.
	m := Session{Identity: Identity{Role: RoleRetention}, PreviewRole: RoleSuperAdmin}
	assert.Equal(t, RoleRetention, m.EffectiveRole())

	bogus := Session{Identity: Identity{Role: RoleManager}, PreviewRole: Role("nobody")}
	assert.Equal(t, RoleManager, bogus.EffectiveRole())
}

func TestTokenPair_IsZero(t *testing.T) {
	assert.True(t, TokenPair{}.IsZero())
	assert.False(t, TokenPair{RefreshToken: "r"}.IsZero())
}
