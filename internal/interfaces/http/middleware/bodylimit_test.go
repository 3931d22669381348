package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ecomt/storefront/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bodyLimitRouter() *gin.Engine {
	r := gin.New()
	r.Use(BodyLimit(10, 100, "/upload"))
	handler := func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, "%d", len(b))
	}
	r.POST("/json", handler)
	r.POST("/upload/image", handler)
	return r
}

func TestBodyLimit_UnderLimit(t *testing.T) {
	w := httptest.NewRecorder()
	bodyLimitRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/json", strings.NewReader("12345")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Body.String())
}

func TestBodyLimit_DeclaredLengthTooLarge(t *testing.T) {
	w := httptest.NewRecorder()
	bodyLimitRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/json", strings.NewReader(strings.Repeat("x", 11))))

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
}

func TestBodyLimit_StreamedBodyCapped(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/json", io.NopCloser(strings.NewReader(strings.Repeat("x", 50))))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	bodyLimitRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestBodyLimit_UploadPrefixUsesLargerLimit(t *testing.T) {
	w := httptest.NewRecorder()
	bodyLimitRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload/image", strings.NewReader(strings.Repeat("x", 50))))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	bodyLimitRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload/image", strings.NewReader(strings.Repeat("x", 101))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
