package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	catalogapp "github.com/ecomt/storefront/internal/application/catalog"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/ecomt/storefront/internal/infrastructure/storage"
	"github.com/ecomt/storefront/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"conflict", shared.NewDomainError("ALREADY_EXISTS", "Email already exists"), http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"field code", shared.NewDomainError("INVALID_PHONE", "bad phone"), http.StatusBadRequest, "INVALID_PHONE"},
		{"stock", shared.ErrInsufficientStock, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h := &BaseHandler{}
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Len(t, c.Errors, 1)
		})
	}
}

func TestBaseHandler_PathID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: "42"}}

	h := &BaseHandler{}
	_, ok := h.pathID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid id", decodeResponse(t, w).Error.Message)
}

func newUploadRouter(images *catalogapp.ImageService, media *MediaHandler) *gin.Engine {
	r := gin.New()
	h := NewUploadHandler(images)
	r.POST("/upload", h.Upload)
	r.DELETE("/upload/*key", h.Delete)
	r.GET("/url/*key", h.URL)
	if media != nil {
		r.GET("/media/*key", media.Serve)
	}
	return r
}

func TestUploadHandler_RoundTrip(t *testing.T) {
	store := storage.NewMemoryObjectStorage("http://cdn.test/media")
	images := catalogapp.NewImageService(store, 1<<20, nil)
	r := newUploadRouter(images, NewMediaHandler(store))

	body, contentType := multipartBody(t, UploadFormField, "shoe.png", pngBytes)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var uploaded struct {
		Data catalogapp.ImageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploaded))
	img := uploaded.Data
	assert.Equal(t, "image/png", img.ContentType)
	assert.Contains(t, img.Key, catalogapp.ImageKeyPrefix)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/"+img.Key, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, w.Body.Bytes())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/upload/"+img.Key, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/"+img.Key, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/upload/"+img.Key, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadHandler_Rejections(t *testing.T) {
	store := storage.NewMemoryObjectStorage("http://cdn.test/media")
	images := catalogapp.NewImageService(store, 32, nil)
	r := newUploadRouter(images, nil)

	send := func(field string, data []byte) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, field, "f.png", data)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send(UploadFormField, pngBytes)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, dto.ErrCodeImageTooLarge, decodeResponse(t, w).Error.Code)

	w = send("other", pngBytes[:16])
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(UploadFormField, []byte("plain text file"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_IMAGE_TYPE", decodeResponse(t, w).Error.Code)
}

func TestUploadHandler_StorageDisabled(t *testing.T) {
	r := newUploadRouter(nil, nil)
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/upload", nil),
		httptest.NewRequest(http.MethodDelete, "/upload/products/a.png", nil),
		httptest.NewRequest(http.MethodGet, "/url/products/a.png", nil),
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, req.Method+" "+req.URL.Path)
	}
}

func TestSystemHandler_Health(t *testing.T) {
	newRouter := func(checks map[string]HealthChecker) *gin.Engine {
		r := gin.New()
		r.GET("/health", NewSystemHandler("1.2.3", checks).Health)
		return r
	}

	t.Run("up", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(map[string]HealthChecker{
			"database": HealthCheckerFunc(func(context.Context) error { return nil }),
		}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Success bool           `json:"success"`
			Data    HealthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "UP", resp.Data.Status)
		assert.Equal(t, "1.2.3", resp.Data.Version)
		assert.Equal(t, "UP", resp.Data.Checks["database"])
	})

	t.Run("down", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(map[string]HealthChecker{
			"redis": HealthCheckerFunc(func(context.Context) error { return errors.New("connection refused") }),
		}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp struct {
			Success bool           `json:"success"`
			Data    HealthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "DOWN", resp.Data.Status)
		assert.Equal(t, "DOWN: connection refused", resp.Data.Checks["redis"])
	})
}
