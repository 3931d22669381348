package cache

import (
	"context"
	"fmt"
	"time"

	catalogapp "github.com/ecomt/storefront/internal/application/catalog"
	"github.com/ecomt/storefront/internal/infrastructure/auth"
	"github.com/ecomt/storefront/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores groups the Redis backed components shared by the HTTP layer.
// Client is nil when the in-memory fallback is in use.
type Stores struct {
	Client    redis.UniversalClient
	ReadCache catalogapp.ReadCache
	Blacklist auth.TokenBlacklist
}

// Close releases the Redis client, if any
func (s *Stores) Close() error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Close()
}

// InMemory reports whether the stores live in this process only
func (s *Stores) InMemory() bool {
	return s.Client == nil
}

// StoreFactory creates cache and token revocation stores based on configuration
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	pingTimeout           time.Duration
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithPingTimeout bounds the Redis connectivity check
func WithPingTimeout(d time.Duration) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.pingTimeout = d
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		pingTimeout:           5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisStores connects to Redis and builds the Redis backed stores
func (f *StoreFactory) CreateRedisStores(ctx context.Context) (*Stores, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, f.pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return f.storesWithClient(client), nil
}

func (f *StoreFactory) storesWithClient(client redis.UniversalClient) *Stores {
	return &Stores{
		Client:    client,
		ReadCache: NewRedisReadCacheWithClient(client, ""),
		Blacklist: auth.NewRedisTokenBlacklistWithClient(client),
	}
}

// CreateInMemoryStores creates process-local stores.
// WARNING: revoked tokens and cached lists are not shared across instances.
func (f *StoreFactory) CreateInMemoryStores() *Stores {
	return &Stores{
		ReadCache: NewInMemoryReadCache(time.Minute),
		Blacklist: auth.NewInMemoryTokenBlacklist(),
	}
}

// CreateStores uses Redis when it is enabled and reachable and otherwise
// falls back to in-memory stores if the fallback is allowed
func (f *StoreFactory) CreateStores(ctx context.Context) (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory cache and token blacklist")
		return f.CreateInMemoryStores(), nil
	}

	stores, err := f.CreateRedisStores(ctx)
	if err == nil {
		f.logger.Info("Using Redis cache and token blacklist", zap.String("addr", f.redisConfig.Addr()))
		return stores, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Logged out tokens are not revoked across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStores(), nil
}
