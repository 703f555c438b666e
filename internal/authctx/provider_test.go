package authctx

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
)

func newSession(role domainauth.Role) domainauth.Session {
	return domainauth.Session{Identity: domainauth.Identity{UserID: "u1", Role: role}}
}

func TestProvider_InitialRoleFromSession(t *testing.T) {
	p := NewProvider(newSession(domainauth.RoleRetention))
	assert.Equal(t, domainauth.RoleRetention, p.CurrentRole())
	assert.Equal(t, "u1", p.Identity().UserID)
	assert.False(t, p.Previewing())
}

func TestProvider_PreviewRole(t *testing.T) {
	sess := newSession(domainauth.RoleSuperAdmin)
	sess.PreviewRole = domainauth.RoleManager

	p := NewProvider(sess)
	assert.Equal(t, domainauth.RoleManager, p.CurrentRole())
	assert.Equal(t, domainauth.RoleSuperAdmin, p.Identity().Role)
	assert.True(t, p.Previewing())
}

func TestProvider_SetRoleNotifiesSynchronously(t *testing.T) {
	p := NewProvider(newSession(domainauth.RoleManager))

	var seen []domainauth.Role
	unsubscribe := p.Subscribe(func(r domainauth.Role) { seen = append(seen, r) })

	p.SetRole(domainauth.RoleRetention)
	// observed before SetRole returns
	assert.Equal(t, []domainauth.Role{domainauth.RoleRetention}, seen)
	assert.Equal(t, domainauth.RoleRetention, p.CurrentRole())

	p.SetRole(domainauth.RoleRetention)
	assert.Len(t, seen, 1, "same role must not notify")

	unsubscribe()
	p.SetRole(domainauth.RoleManager)
	assert.Len(t, seen, 1)
}

func TestProvider_SubscriberMayReadRole(t *testing.T) {
	p := NewProvider(newSession(domainauth.RoleManager))
	var got domainauth.Role
	p.Subscribe(func(domainauth.Role) { got = p.CurrentRole() })

	p.SetRole(domainauth.RoleSuperAdmin)
	assert.Equal(t, domainauth.RoleSuperAdmin, got)
}

func TestProvider_ConcurrentAccess(t *testing.T) {
	p := NewProvider(newSession(domainauth.RoleManager))
	roles := domainauth.Roles()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.SetRole(roles[i%len(roles)])
			_ = p.CurrentRole()
		}()
	}
	wg.Wait()
	assert.True(t, p.CurrentRole().Valid())
}

func TestFromContext(t *testing.T) {
	_, err := FromContext(context.Background())
	require.ErrorIs(t, err, ErrOutsideProvider)
	assert.Panics(t, func() { MustFromContext(context.Background()) })
	assert.Equal(t, domainauth.Role(""), RoleFromContext(context.Background()))

	p := NewProvider(newSession(domainauth.RoleManager))
	ctx := WithProvider(context.Background(), p)

	got, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, p, got)
	assert.Equal(t, domainauth.RoleManager, RoleFromContext(ctx))

	assert.Equal(t, context.Background(), WithProvider(context.Background(), nil))
}
