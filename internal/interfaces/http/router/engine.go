package router

import (
	"net/http"
	"time"

	"github.com/ecomt/storefront/internal/domain/identity"
	"github.com/ecomt/storefront/internal/infrastructure/config"
	"github.com/ecomt/storefront/internal/infrastructure/logger"
	"github.com/ecomt/storefront/internal/interfaces/http/dto"
	"github.com/ecomt/storefront/internal/interfaces/http/handler"
	"github.com/ecomt/storefront/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// System paths outside /api/v1
const (
	HealthPath  = "/health"
	SwaggerPath = "/swagger/*any"
	MediaPath   = "/media/*key"
)

// EngineOptions carries everything the HTTP engine is assembled from
type EngineOptions struct {
	Logger  *zap.Logger
	HTTP    config.HTTPConfig
	Swagger config.SwaggerConfig
	Metrics config.MetricsConfig
	Tracing middleware.TracingConfig

	// JWT is used as given except for Public, which the engine derives from
	// the route table
	JWT middleware.JWTMiddlewareConfig

	// Limiter and AuthLimiter are optional
	Limiter     middleware.Limiter
	AuthLimiter middleware.Limiter

	// UploadMaxBytes raises the body limit of multipart image routes
	UploadMaxBytes int64

	// Roles, when set, makes the admin guard check the stored account role
	// instead of the role carried by the token
	Roles middleware.RoleLookup

	HTTPMetrics *middleware.HTTPMetrics
	Handlers    Handlers
	System      *handler.SystemHandler
	// Media serves images of the in-process store; nil when S3 is used
	Media *handler.MediaHandler
}

// NewEngine builds the gin engine with the full middleware chain and routes
func NewEngine(opts EngineOptions) (*gin.Engine, *Router) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
			_ = engine.SetTrustedProxies(nil)
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.MarkPublic(http.MethodGet, HealthPath)
	r.MarkPublic(http.MethodGet, SwaggerPath)
	r.MarkPublic(http.MethodGet, MediaPath)

	metricsPath := opts.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	quietPaths := []string{HealthPath, metricsPath}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(opts.Tracing))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, quietPaths...))
	if opts.HTTPMetrics != nil {
		engine.Use(opts.HTTPMetrics.Middleware(quietPaths...))
	}
	if opts.Tracing.Enabled {
		engine.Use(middleware.SpanEnricher())
	}
	engine.Use(middleware.Secure(middleware.DefaultSecurityConfig()))
	engine.Use(middleware.CORSWithConfig(corsConfig(opts.HTTP)))
	engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize, uploadLimit(opts),
		r.BasePath()+"/admin/upload", r.BasePath()+"/admin/products/"))
	if opts.Limiter != nil {
		engine.Use(middleware.RateLimit(opts.Limiter, log))
	}

	jwtCfg := opts.JWT
	jwtCfg.Logger = log
	jwtCfg.Public = r.IsPublic
	engine.Use(middleware.JWTAuthMiddleware(jwtCfg))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Resource not found", middleware.GetRequestID(c)))
	})

	if opts.System != nil {
		engine.GET(HealthPath, opts.System.Health)
	}
	if opts.HTTPMetrics != nil && opts.Metrics.Enabled {
		engine.GET(metricsPath, gin.WrapH(opts.HTTPMetrics.Handler()))
		r.MarkPublic(http.MethodGet, metricsPath)
	}
	engine.GET(SwaggerPath, middleware.SwaggerProtection(opts.Swagger), ginSwagger.WrapHandler(swaggerFiles.Handler))
	if opts.Media != nil {
		engine.GET(MediaPath, opts.Media.Serve)
	}

	var credentials gin.HandlerFunc
	if opts.AuthLimiter != nil {
		credentials = middleware.RateLimit(opts.AuthLimiter, log)
	}
	admin := middleware.RequireRole(log, identity.RoleAdmin)
	if opts.Roles != nil {
		admin = middleware.RequireCurrentRole(opts.Roles, log, identity.RoleAdmin)
	}
	r.Register(StorefrontRoutes(opts.Handlers, Guards{
		Authenticated: middleware.RequireAuth(),
		Admin:         admin,
		Credentials:   credentials,
	})...)
	r.Setup()

	return engine, r
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	cors.MaxAge = 12 * time.Hour
	return cors
}

// uploadLimit leaves room for multipart framing around the image
func uploadLimit(opts EngineOptions) int64 {
	if opts.UploadMaxBytes <= 0 {
		return 0
	}
	return opts.UploadMaxBytes + 1<<20
}
