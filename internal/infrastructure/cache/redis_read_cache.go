package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	catalogapp "github.com/ecomt/storefront/internal/application/catalog"
	"github.com/redis/go-redis/v9"
)

const defaultReadCachePrefix = "shop:cache:"

// RedisReadCache implements catalog.ReadCache using Redis.
// Values are stored as JSON so every instance can read them.
type RedisReadCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisReadCacheWithClient creates a read cache with an existing Redis client
func NewRedisReadCacheWithClient(client redis.UniversalClient, keyPrefix string) *RedisReadCache {
	if keyPrefix == "" {
		keyPrefix = defaultReadCachePrefix
	}
	return &RedisReadCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get decodes the cached value into dest
func (c *RedisReadCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key for ttl
func (c *RedisReadCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache key %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// Delete removes the keys
func (c *RedisReadCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.keyPrefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

// Ensure RedisReadCache implements catalog.ReadCache
var _ catalogapp.ReadCache = (*RedisReadCache)(nil)
