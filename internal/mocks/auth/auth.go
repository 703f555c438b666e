package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.TokenStore    = (*MemoryTokenStore)(nil)
	_ ports.IdentityCache = (*MemoryIdentityCache)(nil)
	_ ports.AuthAPI       = (*MockAuthAPI)(nil)
)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryTokenStore is an in-memory TokenStore with an injectable clock.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[domainauth.TokenKind]entry
	Now    func() time.Time

	// SetCalls counts Set invocations for assertions.
	SetCalls int
}

// NewMemoryTokenStore creates an empty store using the wall clock.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[domainauth.TokenKind]entry, 2), Now: time.Now}
}

// NewMemoryTokenStoreWith creates a store pre-populated with pair and long lifetimes.
func NewMemoryTokenStoreWith(pair domainauth.TokenPair) *MemoryTokenStore {
	s := NewMemoryTokenStore()
	s.Set(pair, 24*time.Hour, 7*24*time.Hour)
	s.SetCalls = 0
	return s
}

func (m *MemoryTokenStore) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *MemoryTokenStore) Set(pair domainauth.TokenPair, accessTTL, refreshTTL time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = make(map[domainauth.TokenKind]entry, 2)
	}
	now := m.now()
	m.tokens[domainauth.TokenAccess] = entry{value: pair.AccessToken, expiresAt: now.Add(accessTTL)}
	m.tokens[domainauth.TokenRefresh] = entry{value: pair.RefreshToken, expiresAt: now.Add(refreshTTL)}
	m.SetCalls++
}

func (m *MemoryTokenStore) Get(kind domainauth.TokenKind) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.tokens[kind]
	if !ok || !m.now().Before(e.expiresAt) {
		return ""
	}
	return e.value
}

func (m *MemoryTokenStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.tokens)
}

// MemoryIdentityCache is a map-backed IdentityCache that ignores TTLs.
type MemoryIdentityCache struct {
	mu    sync.Mutex
	items map[string]domainauth.Identity
	Hits  int
}

// NewMemoryIdentityCache creates an empty cache.
func NewMemoryIdentityCache() *MemoryIdentityCache {
	return &MemoryIdentityCache{items: make(map[string]domainauth.Identity)}
}

func (c *MemoryIdentityCache) Get(_ context.Context, fp string) (domainauth.Identity, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.items[fp]
	if ok {
		c.Hits++
	}
	return id, ok, nil
}

func (c *MemoryIdentityCache) Set(_ context.Context, fp string, id domainauth.Identity, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string]domainauth.Identity)
	}
	c.items[fp] = id
	return nil
}

func (c *MemoryIdentityCache) Delete(_ context.Context, fp string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, fp)
	return nil
}

// MockAuthAPI simulates the remote auth endpoints with overridable behavior.
type MockAuthAPI struct {
	LoginFunc   func(ctx context.Context, email, password string) (domainauth.TokenPair, error)
	RefreshFunc func(ctx context.Context, refreshToken string) (domainauth.TokenPair, error)
	LogoutFunc  func(ctx context.Context, store ports.TokenStore) error
	MeFunc      func(ctx context.Context, store ports.TokenStore) (domainauth.Identity, error)

	// Deterministic defaults
	Pair        domainauth.TokenPair
	DefaultUser domainauth.Identity
}

// NewMockAuthAPI creates a MockAuthAPI that accepts any credentials.
func NewMockAuthAPI() *MockAuthAPI {
	return &MockAuthAPI{
		Pair: domainauth.TokenPair{AccessToken: "mock-access", RefreshToken: "mock-refresh"},
		DefaultUser: domainauth.Identity{
			UserID: "mock-user-1",
			Email:  "mock.user@example.com",
			Name:   "Mock User",
			Role:   domainauth.RoleManager,
		},
	}
}

func (m *MockAuthAPI) Login(ctx context.Context, email, password string) (domainauth.TokenPair, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return m.Pair, nil
}

func (m *MockAuthAPI) Refresh(ctx context.Context, refreshToken string) (domainauth.TokenPair, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return m.Pair, nil
}

func (m *MockAuthAPI) Logout(ctx context.Context, store ports.TokenStore) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, store)
	}
	return nil
}

func (m *MockAuthAPI) Me(ctx context.Context, store ports.TokenStore) (domainauth.Identity, error) {
	if m.MeFunc != nil {
		return m.MeFunc(ctx, store)
	}
	return m.DefaultUser, nil
}
