package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrValue(span sdktrace.ReadOnlySpan, key attribute.Key) (string, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func tracedRouter(t *testing.T) *gin.Engine {
	svc := newTestJWTService(15 * time.Minute)
	r := gin.New()
	r.Use(
		RequestID(),
		Tracing(TracingConfig{ServiceName: "storefront-test", Enabled: true, SkipPaths: []string{"/health"}}),
		SpanEnricher(),
		JWTAuthMiddleware(JWTMiddlewareConfig{
			JWTService: svc,
			Public:     PathMatcher([]string{"/health", "/products"}, nil, nil),
		}),
	)
	r.GET("/products", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/cart", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestTracing_EnrichesSpan(t *testing.T) {
	sr := setupTestTracer(t)
	r := tracedRouter(t)

	w := serve(r, http.MethodGet, "/products", map[string]string{RequestIDHeader: "req-1"})
	require.Equal(t, http.StatusOK, w.Code)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	got, ok := attrValue(spans[0], "request_id")
	assert.True(t, ok)
	assert.Equal(t, "req-1", got)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestTracing_UserIDAndErrorStatus(t *testing.T) {
	sr := setupTestTracer(t)
	r := tracedRouter(t)

	svc := newTestJWTService(15 * time.Minute)
	token, userID := newTestToken(t, svc, "ROLE_USER")
	serve(r, http.MethodGet, "/cart", map[string]string{"Authorization": "Bearer " + token})
	serve(r, http.MethodGet, "/cart", nil)

	spans := sr.Ended()
	require.Len(t, spans, 2)

	got, ok := attrValue(spans[0], "user_id")
	assert.True(t, ok)
	assert.Equal(t, userID.String(), got)

	_, ok = attrValue(spans[1], "user_id")
	assert.False(t, ok)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestTracing_SkipPathsAndDisabled(t *testing.T) {
	sr := setupTestTracer(t)

	serve(tracedRouter(t), http.MethodGet, "/health", nil)
	assert.Empty(t, sr.Ended())

	r := gin.New()
	r.Use(Tracing(TracingConfig{Enabled: false}), SpanEnricher())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := serve(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}
