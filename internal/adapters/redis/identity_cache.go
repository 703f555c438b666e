// Package redis provides Redis-based adapters for the admin console.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
)

// IdentityCache is a Redis-backed identity cache shared by all console replicas.
// Entries expire through Redis TTLs.
type IdentityCache struct {
	client redis.UniversalClient
	prefix string
}

// NewIdentityCache creates a Redis identity cache with the default key prefix.
func NewIdentityCache(client redis.UniversalClient) *IdentityCache {
	return &IdentityCache{
		client: client,
		prefix: "admin:identity:",
	}
}

// NewIdentityCacheWithPrefix creates a Redis identity cache with a custom key prefix.
func NewIdentityCacheWithPrefix(client redis.UniversalClient, prefix string) *IdentityCache {
	return &IdentityCache{
		client: client,
		prefix: prefix,
	}
}

func (c *IdentityCache) Get(ctx context.Context, fingerprint string) (domainauth.Identity, bool, error) {
	if fingerprint == "" {
		return domainauth.Identity{}, false, nil
	}

	data, err := c.client.Get(ctx, c.prefix+fingerprint).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Identity{}, false, nil
		}
		return domainauth.Identity{}, false, fmt.Errorf("redis get: %w", err)
	}

	var id domainauth.Identity
	if unmarshalErr := json.Unmarshal([]byte(data), &id); unmarshalErr != nil {
		return domainauth.Identity{}, false, fmt.Errorf("unmarshal identity: %w", unmarshalErr)
	}
	return id, true, nil
}

func (c *IdentityCache) Set(ctx context.Context, fingerprint string, id domainauth.Identity, ttl time.Duration) error {
	if fingerprint == "" {
		return errors.New("fingerprint cannot be empty")
	}
	if ttl <= 0 {
		// A non-expiring identity would outlive token revocation.
		return errors.New("identity ttl must be positive")
	}

	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	return c.client.Set(ctx, c.prefix+fingerprint, data, ttl).Err()
}

func (c *IdentityCache) Delete(ctx context.Context, fingerprint string) error {
	if fingerprint == "" {
		return nil // Nothing to delete
	}
	return c.client.Del(ctx, c.prefix+fingerprint).Err()
}

// Health pings the Redis connection.
func (c *IdentityCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
