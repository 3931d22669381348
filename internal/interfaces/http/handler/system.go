package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/ecomt/storefront/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// HealthChecker is a dependency checked by the health endpoint
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheckerFunc adapts a function to HealthChecker
type HealthCheckerFunc func(ctx context.Context) error

// Ping implements HealthChecker
func (f HealthCheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// SystemHandler handles system endpoints
type SystemHandler struct {
	BaseHandler
	version   string
	startTime time.Time
	checks    map[string]HealthChecker
	timeout   time.Duration
}

// NewSystemHandler creates a new SystemHandler probing the given dependencies
func NewSystemHandler(version string, checks map[string]HealthChecker) *SystemHandler {
	return &SystemHandler{
		version:   version,
		startTime: time.Now(),
		checks:    checks,
		timeout:   2 * time.Second,
	}
}

// HealthResponse reports service and dependency status
type HealthResponse struct {
	Status    string            `json:"status" example:"UP"`
	Version   string            `json:"version" example:"1.0.0"`
	GoVersion string            `json:"go_version" example:"go1.25.5"`
	Uptime    string            `json:"uptime" example:"1h30m45s"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health godoc
// @Summary      Service health
// @Description  Checks the database and cache. Any failing dependency answers 503.
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Failure      503 {object} dto.Response{data=HealthResponse}
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "UP",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	status := http.StatusOK
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			resp.Checks[name] = "DOWN: " + err.Error()
			resp.Status = "DOWN"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "UP"
	}

	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}
