package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/ecomt/storefront/internal/domain/identity"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/ecomt/storefront/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoleLookup reads the role an account holds right now
type RoleLookup interface {
	CurrentRole(ctx context.Context, userID uuid.UUID) (identity.Role, error)
}

// RequireAuth rejects requests that JWTAuthMiddleware let through without claims
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetJWTClaims(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// RequireRole allows callers whose token carries the authority of one of roles
func RequireRole(log *zap.Logger, roles ...identity.Role) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	authorities := make([]string, len(roles))
	for i, r := range roles {
		authorities[i] = identity.Authority(string(r))
	}

	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		for _, a := range authorities {
			if claims.HasAuthority(a) {
				c.Next()
				return
			}
		}

		log.Warn("Role check failed",
			zap.String("user_id", claims.UserID),
			zap.String("role", claims.Role),
			zap.Strings("required_any", authorities),
			zap.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeForbidden, "You do not have permission to access this resource", GetRequestID(c)))
	}
}

// RequireCurrentRole is RequireRole checked against the stored account rather
// than the token, so a role change applies to tokens already handed out.
// A token whose account no longer exists is rejected with 401.
func RequireCurrentRole(lookup RoleLookup, log *zap.Logger, roles ...identity.Role) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		userID, err := claims.GetUserUUID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeTokenInvalid, "Invalid token", GetRequestID(c)))
			return
		}

		current, err := lookup.CurrentRole(c.Request.Context(), userID)
		if errors.Is(err, shared.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Account no longer exists", GetRequestID(c)))
			return
		}
		if err != nil {
			log.Error("Failed to load account role", zap.String("user_id", claims.UserID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInternal, "Failed to verify permissions", GetRequestID(c)))
			return
		}

		for _, r := range roles {
			if current == r {
				c.Next()
				return
			}
		}

		log.Warn("Role check failed",
			zap.String("user_id", claims.UserID),
			zap.String("token_role", claims.Role),
			zap.String("current_role", string(current)),
			zap.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeForbidden, "You do not have permission to access this resource", GetRequestID(c)))
	}
}
