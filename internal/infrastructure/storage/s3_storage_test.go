package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ecomt/storefront/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func validStorageConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:       "images",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Region:       "us-east-1",
		Endpoint:     endpoint,
		UsePathStyle: true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		cfg := validStorageConfig("")
		cfg.Bucket = ""
		_, err := NewS3ObjectStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		cfg := validStorageConfig("")
		cfg.AccessKey = ""
		_, err := NewS3ObjectStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		cfg := validStorageConfig("")
		cfg.SecretKey = ""
		_, err := NewS3ObjectStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("valid config creates storage", func(t *testing.T) {
		s, err := NewS3ObjectStorage(validStorageConfig("http://localhost:9000"), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "images", s.GetBucket())
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		useSSL bool
		want   string
	}{
		{"", false, "http://localhost:9000"},
		{"localhost:9000", false, "http://localhost:9000"},
		{"s3.example.com", true, "https://s3.example.com"},
		{"https://s3.example.com/", false, "https://s3.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeEndpoint(tt.in, tt.useSSL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestS3ObjectStorage_PublicURL(t *testing.T) {
	t.Run("endpoint and bucket", func(t *testing.T) {
		s, err := NewS3ObjectStorage(validStorageConfig("http://localhost:9000"))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/images/products/a.png", s.PublicURL("products/a.png"))
	})

	t.Run("configured public base", func(t *testing.T) {
		cfg := validStorageConfig("http://localhost:9000")
		cfg.PublicBaseURL = "https://cdn.example.com/"
		s, err := NewS3ObjectStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/products/a.png", s.PublicURL("products/a.png"))
	})

	t.Run("option overrides config", func(t *testing.T) {
		s, err := NewS3ObjectStorage(validStorageConfig("http://localhost:9000"), WithPublicBaseURL("https://img.example.com"))
		require.NoError(t, err)
		assert.Equal(t, "https://img.example.com/products/a.png", s.PublicURL("/products/a.png"))
	})
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	s, err := NewS3ObjectStorage(validStorageConfig("http://localhost:9000"))
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, s.Upload(ctx, "", []byte("x"), "image/png"))
	assert.Error(t, s.DeleteObject(ctx, ""))
	_, err = s.ObjectExists(ctx, "")
	assert.Error(t, err)
}

// fakeS3 serves the subset of the S3 path-style API used by S3ObjectStorage
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]string{}, types: map[string]string{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[path] = string(body)
		f.types[path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := f.objects[path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3ObjectStorage_AgainstFakeServer(t *testing.T) {
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s, err := NewS3ObjectStorage(validStorageConfig(srv.URL))
	require.NoError(t, err)
	ctx := context.Background()
	key := "products/2026/10/shoe.png"

	exists, err := s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Upload(ctx, key, []byte("image-bytes"), "image/png"))

	fake.mu.Lock()
	stored, ok := fake.objects["/images/"+key]
	contentType := fake.types["/images/"+key]
	fake.mu.Unlock()
	require.True(t, ok, "object should be written path-style under the bucket")
	assert.True(t, strings.Contains(stored, "image-bytes"))
	assert.Equal(t, "image/png", contentType)

	exists, err = s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.DeleteObject(ctx, key))
	exists, err = s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}
