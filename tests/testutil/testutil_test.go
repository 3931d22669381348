package testutil

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomt/storefront/internal/domain/identity"
	"github.com/ecomt/storefront/internal/infrastructure/persistence"
	"github.com/ecomt/storefront/internal/interfaces/http/dto"
	"github.com/ecomt/storefront/internal/interfaces/http/middleware"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)
	defer mockDB.Close()

	assert.NotNil(t, mockDB.DB)
	assert.NotNil(t, mockDB.Mock)
	assert.NotNil(t, mockDB.SqlDB)

	// No expectations set, should pass
	mockDB.ExpectationsWereMet(t)
}

func TestNewSQLiteDB(t *testing.T) {
	db := NewSQLiteDB(t)
	users := persistence.NewGormUserRepository(db)

	u, err := identity.NewUser("Ann", "ann@shop.test", "secret123")
	require.NoError(t, err)
	require.NoError(t, users.Save(t.Context(), u))

	found, err := users.FindByEmail(t.Context(), "ann@shop.test")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}

func TestTestContext(t *testing.T) {
	tc := NewTestContext(t)

	assert.NotNil(t, tc.Engine)
	assert.Equal(t, http.MethodGet, tc.Context.Request.Method)

	tc.SetRequestID("req-123")
	assert.Equal(t, "req-123", middleware.GetRequestID(tc.Context))

	tc.SetHeader("Authorization", "Bearer token")
	assert.Equal(t, "Bearer token", tc.Context.Request.Header.Get("Authorization"))

	tc.Recorder.WriteHeader(http.StatusCreated)
	assert.Equal(t, http.StatusCreated, tc.ResponseCode())
}

func TestTestContext_Authenticate(t *testing.T) {
	tc := NewTestContext(t)
	id := TestUserID()

	tc.Authenticate(id, identity.RoleAdmin)

	claims := middleware.GetJWTClaims(tc.Context)
	require.NotNil(t, claims)
	assert.Equal(t, id.String(), claims.UserID)
	assert.True(t, claims.HasAuthority("ROLE_ADMIN"))
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("test-seed"), NewTestUUID("test-seed"))
	assert.NotEqual(t, NewTestUUID("test-seed"), NewTestUUID("different-seed"))
	assert.NotEqual(t, uuid.Nil, TestUserID())
}

func TestContextWithTimeout(t *testing.T) {
	ctx := ContextWithTimeout(t, 100*time.Millisecond)

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.True(t, deadline.After(time.Now()))
}

func TestWaitForCondition(t *testing.T) {
	t.Run("condition met", func(t *testing.T) {
		done := make(chan struct{})
		go func() {
			time.Sleep(20 * time.Millisecond)
			close(done)
		}()

		AssertEventually(t, func() bool {
			select {
			case <-done:
				return true
			default:
				return false
			}
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("condition not met within timeout", func(t *testing.T) {
		assert.False(t, WaitForCondition(t, func() bool { return false }, 30*time.Millisecond, 10*time.Millisecond))
	})
}

func TestRunHTTPTestCases_RoleGate(t *testing.T) {
	gate := middleware.RequireRole(nil, identity.RoleAdmin)
	handler := func(c *gin.Context) {
		gate(c)
		if c.IsAborted() {
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"ok": true}))
	}

	RunHTTPTestCases(t, handler, []HTTPTestCase{
		{
			Name:           "anonymous",
			ExpectedStatus: http.StatusUnauthorized,
			ExpectedCode:   dto.ErrCodeUnauthorized,
		},
		{
			Name: "user",
			Setup: func(t *testing.T, tc *TestContext) {
				tc.Authenticate(uuid.New(), identity.RoleUser)
			},
			ExpectedStatus: http.StatusForbidden,
			ExpectedCode:   dto.ErrCodeForbidden,
		},
		{
			Name: "admin",
			Setup: func(t *testing.T, tc *TestContext) {
				tc.Authenticate(uuid.New(), identity.RoleAdmin)
			},
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, tc *TestContext) {
				AssertSuccessResponse(t, tc.Recorder)
				assert.Equal(t, map[string]bool{"ok": true}, DataAs[map[string]bool](t, tc.Recorder))
			},
		},
	})
}

func TestPerformRequest(t *testing.T) {
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeInvalidJSON, err.Error()))
			return
		}
		body["auth"] = c.GetHeader("Authorization")
		c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(body, 1, 1, 20))
	})

	w := PerformRequest(t, engine, http.MethodPost, "/echo", "tok", map[string]string{"name": "Ann"})
	require.Equal(t, http.StatusOK, w.Code)

	env := DecodeEnvelope(t, w)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(1), env.Meta.Total)
	assert.Equal(t, map[string]string{"name": "Ann", "auth": "Bearer tok"}, DataAs[map[string]string](t, w))

	w = PerformRequest(t, engine, http.MethodPost, "/echo", "", nil)
	AssertErrorResponse(t, w, dto.ErrCodeInvalidJSON)
}
