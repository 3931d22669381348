package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/ecomt/storefront/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_FixedWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	ok, remaining, err := rl.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	ok, remaining, _ = rl.Allow(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)

	ok, _, _ = rl.Allow(ctx, "a")
	assert.False(t, ok)

	// keys are independent
	ok, _, _ = rl.Allow(ctx, "b")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, remaining, _ = rl.Allow(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.Use(RequestID(), RateLimit(rl, nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = serve(r, http.MethodGet, "/x", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, dto.ErrCodeRateLimited, errorCode(t, w))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, int, error) {
	return false, 0, errors.New("redis down")
}
func (failingLimiter) Limit() int            { return 1 }
func (failingLimiter) Window() time.Duration { return time.Second }

func TestRateLimit_FailsOpen(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(failingLimiter{}, nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
