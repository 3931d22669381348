package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ecomt/storefront/internal/infrastructure/auth"
	"github.com/ecomt/storefront/internal/infrastructure/logger"
	"github.com/ecomt/storefront/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is optional; without it logout cannot revoke tokens
	TokenBlacklist auth.TokenBlacklist
	// Public requests pass through without a token. A token sent anyway is
	// still parsed so handlers can personalise the response.
	Public func(c *gin.Context) bool
	Logger *zap.Logger
}

// JWTAuthMiddleware authenticates the bearer token of every non-public request
func JWTAuthMiddleware(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		public := cfg.Public != nil && cfg.Public(c)

		token, ok := bearerToken(c)
		if !ok {
			if public {
				c.Next()
				return
			}
			abortAuth(c, log, auth.ErrInvalidToken, "Missing bearer token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(token)
		if err == nil {
			err = checkRevoked(c, cfg.TokenBlacklist, claims, log)
		}
		if err != nil {
			if public {
				c.Next()
				return
			}
			abortAuth(c, log, err, "Token rejected")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(logger.GinUserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

// checkRevoked fails open when the blacklist store is unreachable
func checkRevoked(c *gin.Context, bl auth.TokenBlacklist, claims *auth.Claims, log *zap.Logger) error {
	if bl == nil {
		return nil
	}
	ctx := c.Request.Context()

	if claims.ID != "" {
		revoked, err := bl.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			log.Error("Failed to check token blacklist", zap.String("jti", claims.ID), zap.Error(err))
		} else if revoked {
			return auth.ErrTokenBlacklisted
		}
	}

	invalidated, err := bl.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		log.Error("Failed to check user token invalidation", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil
	}
	if invalidated {
		return auth.ErrTokenBlacklisted
	}
	return nil
}

func abortAuth(c *gin.Context, log *zap.Logger, err error, reason string) {
	log.Debug("JWT authentication failed",
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		code, message = dto.ErrCodeTokenRevoked, "Token has been revoked"
	case reason != "Missing bearer token":
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetJWTClaims returns the claims of the authenticated caller, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// PathMatcher builds a Public predicate from exact paths, path prefixes and
// method-qualified prefixes such as "GET /api/v1/products"
func PathMatcher(exact []string, prefixes []string, readOnlyPrefixes []string) func(c *gin.Context) bool {
	exactSet := make(map[string]struct{}, len(exact))
	for _, p := range exact {
		exactSet[p] = struct{}{}
	}
	return func(c *gin.Context) bool {
		path := c.Request.URL.Path
		if _, ok := exactSet[path]; ok {
			return true
		}
		if hasAnyPrefix(path, prefixes) {
			return true
		}
		return c.Request.Method == http.MethodGet && hasAnyPrefix(path, readOnlyPrefixes)
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
