package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ecomt/storefront/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func swaggerRouter(cfg config.SwaggerConfig) *gin.Engine {
	r := gin.New()
	r.GET("/swagger/*any", SwaggerProtection(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func swaggerRequest(r *gin.Engine, remote string) int {
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.SwaggerConfig
		remote string
		want   int
	}{
		{"disabled", config.SwaggerConfig{Enabled: false}, "10.0.0.1:1234", http.StatusNotFound},
		{"open", config.SwaggerConfig{Enabled: true}, "10.0.0.1:1234", http.StatusOK},
		{"exact ip", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, "10.0.0.1:1234", http.StatusOK},
		{"cidr", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16"}}, "192.168.4.2:1234", http.StatusOK},
		{"outside", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16", "10.0.0.2"}}, "10.0.0.1:1234", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, swaggerRequest(swaggerRouter(tt.cfg), tt.remote))
		})
	}
}
