package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cache keys of the catalog read cache
const (
	CacheKeyCategories = "catalog:categories"
	CacheKeyBrands     = "catalog:brands"

	DefaultCacheTTL = 10 * time.Minute
)

// ReadCache stores serialisable list responses.
// Implemented by the infrastructure layer (Redis, in-memory).
type ReadCache interface {
	// Get decodes the cached value into dest and reports whether it was found
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// cachedList serves a list through the cache. Cache failures are logged and
// the loader result is returned.
func cachedList[T any](ctx context.Context, cache ReadCache, logger *zap.Logger, key string, load func() ([]T, error)) ([]T, error) {
	if cache != nil {
		var cached []T
		found, err := cache.Get(ctx, key, &cached)
		if err != nil {
			logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	items, err := load()
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.Set(ctx, key, items, DefaultCacheTTL); err != nil {
			logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}

func invalidate(ctx context.Context, cache ReadCache, logger *zap.Logger, keys ...string) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, keys...); err != nil {
		logger.Warn("Catalog cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
