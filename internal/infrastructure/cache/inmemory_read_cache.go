package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	catalogapp "github.com/ecomt/storefront/internal/application/catalog"
	gocache "github.com/patrickmn/go-cache"
)

// InMemoryReadCache implements catalog.ReadCache inside the process.
// Values are JSON encoded so callers never share mutable state with the cache.
type InMemoryReadCache struct {
	store *gocache.Cache
}

// NewInMemoryReadCache creates an in-memory read cache.
// Expired entries are purged every cleanupInterval.
func NewInMemoryReadCache(cleanupInterval time.Duration) *InMemoryReadCache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	return &InMemoryReadCache{
		store: gocache.New(catalogapp.DefaultCacheTTL, cleanupInterval),
	}
}

// Get decodes the cached value into dest
func (c *InMemoryReadCache) Get(_ context.Context, key string, dest any) (bool, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(v.([]byte), dest); err != nil {
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key for ttl. A non-positive ttl uses the default expiration.
func (c *InMemoryReadCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache key %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key, raw, ttl)
	return nil
}

// Delete removes the keys
func (c *InMemoryReadCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.store.Delete(k)
	}
	return nil
}

// Len returns the number of cached entries, including expired ones not yet purged
func (c *InMemoryReadCache) Len() int {
	return c.store.ItemCount()
}

// Ensure InMemoryReadCache implements catalog.ReadCache
var _ catalogapp.ReadCache = (*InMemoryReadCache)(nil)
