// Package lrucache is the in-process identity cache used when Redis is not configured.
package lrucache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
)

const defaultSize = 1024

type entry struct {
	id        domainauth.Identity
	expiresAt time.Time
}

// IdentityCache is a size-bounded LRU with a ceiling TTL. Per-entry TTLs
// shorter than the ceiling are honored on read.
type IdentityCache struct {
	cache *lru.LRU[string, entry]
	now   func() time.Time
}

// New creates a cache holding at most size entries, none older than maxTTL.
func New(size int, maxTTL time.Duration) *IdentityCache {
	if size <= 0 {
		size = defaultSize
	}
	return &IdentityCache{
		cache: lru.NewLRU[string, entry](size, nil, maxTTL),
		now:   time.Now,
	}
}

func (c *IdentityCache) Get(_ context.Context, fingerprint string) (domainauth.Identity, bool, error) {
	e, ok := c.cache.Get(fingerprint)
	if !ok {
		return domainauth.Identity{}, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		c.cache.Remove(fingerprint)
		return domainauth.Identity{}, false, nil
	}
	return e.id, true, nil
}

func (c *IdentityCache) Set(_ context.Context, fingerprint string, id domainauth.Identity, ttl time.Duration) error {
	if fingerprint == "" || ttl <= 0 {
		return nil
	}
	c.cache.Add(fingerprint, entry{id: id, expiresAt: c.now().Add(ttl)})
	return nil
}

func (c *IdentityCache) Delete(_ context.Context, fingerprint string) error {
	c.cache.Remove(fingerprint)
	return nil
}

// Len reports the number of live entries.
func (c *IdentityCache) Len() int { return c.cache.Len() }
