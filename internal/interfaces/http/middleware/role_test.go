package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ecomt/storefront/internal/domain/identity"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/ecomt/storefront/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminRouter(t *testing.T) (*gin.Engine, string, string) {
	t.Helper()
	svc := newTestJWTService(15 * time.Minute)
	userToken, _ := newTestToken(t, svc, "ROLE_USER")
	adminToken, _ := newTestToken(t, svc, "ROLE_ADMIN")

	r := gin.New()
	r.Use(RequestID(), JWTAuthMiddleware(JWTMiddlewareConfig{
		JWTService: svc,
		Public:     PathMatcher([]string{"/open"}, nil, nil),
	}))
	r.GET("/admin", RequireRole(nil, identity.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/open", RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, userToken, adminToken
}

func TestRequireRole(t *testing.T) {
	r, userToken, adminToken := adminRouter(t)

	w := serve(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + adminToken})
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + userToken})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))
}

func TestRequireAuth_OnPublicRoute(t *testing.T) {
	r, userToken, _ := adminRouter(t)

	w := serve(r, http.MethodGet, "/open", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, w))

	w = serve(r, http.MethodGet, "/open", map[string]string{"Authorization": "Bearer " + userToken})
	assert.Equal(t, http.StatusOK, w.Code)
}

type roleTable struct {
	mu    sync.Mutex
	roles map[uuid.UUID]identity.Role
	err   error
}

func (r *roleTable) CurrentRole(_ context.Context, userID uuid.UUID) (identity.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	role, ok := r.roles[userID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return role, nil
}

func (r *roleTable) set(userID uuid.UUID, role identity.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[userID] = role
}

func TestRequireCurrentRole(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	adminToken, adminID := newTestToken(t, svc, "ROLE_ADMIN")
	userToken, userID := newTestToken(t, svc, "ROLE_USER")
	ghostToken, _ := newTestToken(t, svc, "ROLE_ADMIN")

	roles := &roleTable{roles: map[uuid.UUID]identity.Role{
		adminID: identity.RoleAdmin,
		userID:  identity.RoleUser,
	}}
	r := gin.New()
	r.Use(RequestID(), JWTAuthMiddleware(JWTMiddlewareConfig{JWTService: svc}))
	r.GET("/admin", RequireCurrentRole(roles, nil, identity.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	bearer := func(tok string) map[string]string { return map[string]string{"Authorization": "Bearer " + tok} }

	w := serve(r, http.MethodGet, "/admin", bearer(adminToken))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/admin", bearer(userToken))
	assert.Equal(t, http.StatusForbidden, w.Code)

	t.Run("demotion applies to an issued token", func(t *testing.T) {
		roles.set(adminID, identity.RoleUser)
		t.Cleanup(func() { roles.set(adminID, identity.RoleAdmin) })

		w := serve(r, http.MethodGet, "/admin", bearer(adminToken))
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))
	})

	t.Run("promotion applies to an issued token", func(t *testing.T) {
		roles.set(userID, identity.RoleAdmin)
		t.Cleanup(func() { roles.set(userID, identity.RoleUser) })

		w := serve(r, http.MethodGet, "/admin", bearer(userToken))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("deleted account", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/admin", bearer(ghostToken))
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, w))
	})

	t.Run("lookup failure", func(t *testing.T) {
		roles.mu.Lock()
		roles.err = errors.New("db down")
		roles.mu.Unlock()
		t.Cleanup(func() {
			roles.mu.Lock()
			roles.err = nil
			roles.mu.Unlock()
		})

		w := serve(r, http.MethodGet, "/admin", bearer(adminToken))
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, dto.ErrCodeInternal, errorCode(t, w))
	})

	t.Run("anonymous", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/admin", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
