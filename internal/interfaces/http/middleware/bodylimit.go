package middleware

import (
	"net/http"

	"github.com/ecomt/storefront/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit rejects requests declaring a larger body and caps streamed ones.
// Multipart uploads under uploadPrefixes may use uploadMax instead.
func BodyLimit(maxBytes, uploadMax int64, uploadPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if uploadMax > maxBytes && hasAnyPrefix(c.Request.URL.Path, uploadPrefixes) {
			limit = uploadMax
		}

		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				GetRequestID(c),
			))
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
