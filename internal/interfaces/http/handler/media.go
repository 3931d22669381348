package handler

import (
	"net/http"

	"github.com/ecomt/storefront/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// MediaSource returns stored bytes by key
type MediaSource interface {
	Get(key string) (data []byte, contentType string, ok bool)
}

// MediaHandler serves images kept by the in-process object store
type MediaHandler struct {
	BaseHandler
	source MediaSource
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(source MediaSource) *MediaHandler {
	return &MediaHandler{source: source}
}

// Serve writes the object named by the *key path parameter
func (h *MediaHandler) Serve(c *gin.Context) {
	data, contentType, ok := h.source.Get(objectKey(c))
	if !ok {
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Media not found")
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, contentType, data)
}
