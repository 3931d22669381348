package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cartapp "github.com/ecomt/storefront/internal/application/cart"
	catalogapp "github.com/ecomt/storefront/internal/application/catalog"
	chatapp "github.com/ecomt/storefront/internal/application/chat"
	identityapp "github.com/ecomt/storefront/internal/application/identity"
	orderapp "github.com/ecomt/storefront/internal/application/order"
	"github.com/ecomt/storefront/internal/infrastructure/auth"
	"github.com/ecomt/storefront/internal/infrastructure/cache"
	"github.com/ecomt/storefront/internal/infrastructure/config"
	"github.com/ecomt/storefront/internal/infrastructure/event"
	"github.com/ecomt/storefront/internal/infrastructure/gemini"
	"github.com/ecomt/storefront/internal/infrastructure/logger"
	"github.com/ecomt/storefront/internal/infrastructure/persistence"
	"github.com/ecomt/storefront/internal/infrastructure/storage"
	"github.com/ecomt/storefront/internal/infrastructure/telemetry"
	"github.com/ecomt/storefront/internal/interfaces/http/handler"
	"github.com/ecomt/storefront/internal/interfaces/http/middleware"
	"github.com/ecomt/storefront/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/ecomt/storefront/docs"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Storefront API
//	@version		1.0
//	@description	REST API of the storefront: catalog, cart, checkout, orders and the shopping assistant.

//	@contact.name	Storefront Team
//	@contact.url	https://github.com/ecomt/storefront

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry needs a logger before the OTLP log bridge exists, so the
	// application logger is rebuilt once the providers are up.
	bootLog := logger.New(logger.FromAppConfig(cfg.Log))
	providers, err := telemetry.Setup(ctx, cfg.Telemetry, version, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := logger.New(logger.FromAppConfig(cfg.Log), providers.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	defer func() { _ = log.Sync() }()

	log.Info("Starting storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	db := openDatabase(cfg, providers, log)
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	stores, err := cache.NewStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStores(ctx)
	if err != nil {
		log.Fatal("Failed to initialize cache stores", zap.Error(err))
	}
	defer func() { _ = stores.Close() }()

	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:         providers.Meter("storefront"),
		Logger:        log,
		StoreProvider: telemetry.NewGormStoreMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}
	if cfg.Telemetry.MetricsEnabled {
		businessMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval, lowStockThreshold)
	}
	defer businessMetrics.Stop()

	eventBus, closeEvents := newEventBus(cfg.Kafka, log)
	defer closeEvents()

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	brandRepo := persistence.NewGormBrandRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	variantRepo := persistence.NewGormVariantRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	// Object storage: S3 when configured, otherwise images live in process
	// and are served under /media
	objectStorage, media := newObjectStorage(ctx, cfg, log)
	var imageService *catalogapp.ImageService
	if objectStorage != nil {
		imageService = catalogapp.NewImageService(objectStorage, cfg.Storage.MaxUploadSize, log)
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)

	cartService := cartapp.NewCartService(cartRepo, productRepo, log)
	cartService.SetBusinessMetrics(businessMetrics)

	authService := identityapp.NewAuthService(userRepo, cartService, jwtService, stores.Blacklist, eventBus, log)
	userService := identityapp.NewUserService(userRepo)

	productService := catalogapp.NewProductService(productRepo, categoryRepo, brandRepo, imageService, log)
	productService.SetEventPublisher(eventBus)
	categoryService := catalogapp.NewCategoryService(categoryRepo, stores.ReadCache, log)
	brandService := catalogapp.NewBrandService(brandRepo, stores.ReadCache, log)
	variantService := catalogapp.NewVariantService(variantRepo, productRepo)

	orderService := orderapp.NewOrderService(orderRepo, userRepo, persistence.NewGormTransactionScope(db.DB), log)
	orderService.SetEventPublisher(eventBus)
	orderService.SetBusinessMetrics(businessMetrics)

	chatService := chatapp.NewChatService(newAssistant(cfg.Gemini, log), productService, categoryService, brandService, log)
	chatService.SetBusinessMetrics(businessMetrics)

	seedAdmin(ctx, cfg.Seed, userService, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	limiter, authLimiter := newLimiters(cfg.HTTP, stores, log)

	checks := map[string]handler.HealthChecker{
		"database": handler.HealthCheckerFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}
	if stores.Client != nil {
		checks["redis"] = handler.HealthCheckerFunc(func(ctx context.Context) error {
			return stores.Client.Ping(ctx).Err()
		})
	}

	var httpMetrics *middleware.HTTPMetrics
	if cfg.Metrics.Enabled {
		httpMetrics = middleware.NewHTTPMetrics("storefront")
	}

	engine, r := router.NewEngine(router.EngineOptions{
		Logger:  log,
		HTTP:    cfg.HTTP,
		Swagger: cfg.Swagger,
		Metrics: cfg.Metrics,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     providers.TracingEnabled(),
			SkipPaths:   []string{router.HealthPath, cfg.Metrics.Path},
		},
		JWT: middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: stores.Blacklist,
		},
		Limiter:        limiter,
		AuthLimiter:    authLimiter,
		UploadMaxBytes: cfg.Storage.MaxUploadSize,
		HTTPMetrics:    httpMetrics,
		Roles:          userService,
		Handlers: router.Handlers{
			Auth:     handler.NewAuthHandler(authService),
			User:     handler.NewUserHandler(userService),
			Product:  handler.NewProductHandler(productService, imageService),
			Variant:  handler.NewVariantHandler(variantService),
			Category: handler.NewCategoryHandler(categoryService),
			Brand:    handler.NewBrandHandler(brandService),
			Cart:     handler.NewCartHandler(cartService),
			Order:    handler.NewOrderHandler(orderService),
			Chat:     handler.NewChatHandler(chatService),
			Upload:   handler.NewUploadHandler(imageService),
		},
		System: handler.NewSystemHandler(version, checks),
		Media:  media,
	})
	log.Debug("Public routes", zap.Strings("routes", r.PublicRoutes()))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// lowStockThreshold is the stock level reported by the low-stock gauge
const lowStockThreshold = 5

func openDatabase(cfg *config.Config, providers *telemetry.Providers, log *zap.Logger) *persistence.Database {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Postgres schemas are managed by cmd/migrate
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	if providers.TracingEnabled() && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.TraceGorm(db.DB, cfg.Database.DBName, log); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}
	if cfg.Telemetry.MetricsEnabled {
		plugin, err := telemetry.NewDBMetricsPlugin(providers.Meter("storefront.db"), cfg.Telemetry.DBSlowQueryThresh, log)
		if err == nil {
			err = db.DB.Use(plugin)
		}
		if err != nil {
			log.Warn("Failed to enable database metrics", zap.Error(err))
		}
	}
	return db
}

func newObjectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (catalogapp.ObjectStorageService, *handler.MediaHandler) {
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn("Object storage bucket check failed", zap.String("bucket", s3.GetBucket()), zap.Error(err))
		}
		return s3, nil
	}

	base := cfg.Storage.PublicBaseURL
	if base == "" {
		base = "http://localhost:" + cfg.App.Port + strings.TrimSuffix(router.MediaPath, "/*key")
	}
	log.Info("Object storage disabled, keeping images in memory", zap.String("base_url", base))
	mem := storage.NewMemoryObjectStorage(base)
	return mem, handler.NewMediaHandler(mem)
}

// newAssistant returns nil when no API key is configured; chat then answers
// with the fallback message
func newAssistant(cfg config.GeminiConfig, log *zap.Logger) chatapp.Assistant {
	if !cfg.Enabled() {
		log.Info("Chat assistant disabled")
		return nil
	}
	client, err := gemini.NewClient(cfg, gemini.WithLogger(log))
	if err != nil {
		log.Warn("Chat assistant unavailable", zap.Error(err))
		return nil
	}
	return client
}

func newEventBus(cfg config.KafkaConfig, log *zap.Logger) (*event.InMemoryEventBus, func()) {
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewLogEventHandler(log))

	if !cfg.Enabled {
		return bus, func() {}
	}
	producer, err := event.NewKafkaProducer(cfg)
	if err != nil {
		log.Warn("Kafka unavailable, order events stay in process", zap.Error(err))
		return bus, func() {}
	}
	kafkaHandler := event.NewKafkaEventHandler(producer, cfg.Topic, log)
	bus.Subscribe(kafkaHandler)
	log.Info("Publishing order events to Kafka", zap.String("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return bus, func() { kafkaHandler.Close(5 * time.Second) }
}

func newLimiters(cfg config.HTTPConfig, stores *cache.Stores, log *zap.Logger) (middleware.Limiter, middleware.Limiter) {
	build := func(prefix string, limit int, window time.Duration) middleware.Limiter {
		if stores.Client != nil {
			return middleware.NewRedisRateLimiter(stores.Client, prefix, limit, window)
		}
		return middleware.NewRateLimiter(limit, window)
	}

	var limiter, authLimiter middleware.Limiter
	if cfg.RateLimitEnabled {
		limiter = build("ratelimit:api:", cfg.RateLimitRequests, cfg.RateLimitWindow)
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.RateLimitRequests),
			zap.Duration("window", cfg.RateLimitWindow),
		)
	}
	if cfg.AuthRateLimitEnabled {
		authLimiter = build("ratelimit:auth:", cfg.AuthRateLimitRequests, cfg.AuthRateLimitWindow)
	}
	return limiter, authLimiter
}

func seedAdmin(ctx context.Context, cfg config.SeedConfig, users *identityapp.UserService, log *zap.Logger) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	name := cfg.AdminName
	if name == "" {
		name = "Administrator"
	}
	created, err := users.EnsureAdmin(ctx, name, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Error("Failed to seed admin account", zap.Error(err))
		return
	}
	if created {
		log.Info("Admin account created", zap.String("email", cfg.AdminEmail))
	}
}
