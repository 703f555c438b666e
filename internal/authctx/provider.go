// Package authctx carries the resolved identity and the active console role
// through a request pipeline.
package authctx

import (
	"context"
	"errors"
	"sync"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
)

// ErrOutsideProvider is returned when role context is read from a context without a Provider.
var ErrOutsideProvider = errors.New("auth context accessed outside its provider")

// Provider holds the identity and the active role for one request.
// It is safe for concurrent use.
type Provider struct {
	mu       sync.RWMutex
	identity domainauth.Identity
	role     domainauth.Role
	subs     map[int]func(domainauth.Role)
	nextSub  int
}

// NewProvider creates a Provider whose active role is the session's effective role.
func NewProvider(sess domainauth.Session) *Provider {
	return &Provider{
		identity: sess.Identity,
		role:     sess.EffectiveRole(),
		subs:     make(map[int]func(domainauth.Role)),
	}
}

// CurrentRole returns the active role.
func (p *Provider) CurrentRole() domainauth.Role {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.role
}

// Identity returns the authenticated identity. Its Role is the real role, not a preview.
func (p *Provider) Identity() domainauth.Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity
}

// Previewing reports whether the active role differs from the identity's role.
func (p *Provider) Previewing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.role != p.identity.Role
}

// SetRole replaces the active role and notifies subscribers before returning.
// Setting the current role again is a no-op.
func (p *Provider) SetRole(role domainauth.Role) {
	p.mu.Lock()
	if p.role == role {
		p.mu.Unlock()
		return
	}
	p.role = role
	subs := make([]func(domainauth.Role), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(role)
	}
}

// Subscribe registers fn to be called on every role change and returns a func that removes it.
func (p *Provider) Subscribe(fn func(domainauth.Role)) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subs == nil {
		p.subs = make(map[int]func(domainauth.Role))
	}
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

type providerKey struct{}

// WithProvider returns a child context carrying p.
func WithProvider(ctx context.Context, p *Provider) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, providerKey{}, p)
}

// FromContext returns the Provider carried by ctx.
func FromContext(ctx context.Context) (*Provider, error) {
	if p, ok := ctx.Value(providerKey{}).(*Provider); ok && p != nil {
		return p, nil
	}
	return nil, ErrOutsideProvider
}

// MustFromContext is FromContext for code that only runs below the provider. It panics otherwise.
func MustFromContext(ctx context.Context) *Provider {
	p, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return p
}

// RoleFromContext returns the active role, or "" outside a provider.
func RoleFromContext(ctx context.Context) domainauth.Role {
	p, err := FromContext(ctx)
	if err != nil {
		return ""
	}
	return p.CurrentRole()
}
