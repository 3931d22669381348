package catalog

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStorageService defines the interface for object storage operations.
// Implemented by the infrastructure layer (S3 compatible stores).
type ObjectStorageService interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)

	// PublicURL returns the URL shoppers load the object from
	PublicURL(storageKey string) string
}

// DefaultMaxImageSize is the upload limit for product images
const DefaultMaxImageSize int64 = 5 << 20

// ImageKeyPrefix prefixes every product image key
const ImageKeyPrefix = "products/"

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageService stores product images in object storage
type ImageService struct {
	storage ObjectStorageService
	maxSize int64
	now     func() time.Time
	logger  *zap.Logger
}

// NewImageService creates a new ImageService. maxSize <= 0 uses DefaultMaxImageSize.
func NewImageService(storage ObjectStorageService, maxSize int64, logger *zap.Logger) *ImageService {
	if maxSize <= 0 {
		maxSize = DefaultMaxImageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageService{
		storage: storage,
		maxSize: maxSize,
		now:     time.Now,
		logger:  logger,
	}
}

// MaxSize returns the upload limit in bytes
func (s *ImageService) MaxSize() int64 {
	return s.maxSize
}

// Upload validates and stores an image, returning its key and public URL.
// The declared content type is checked against the sniffed one.
func (s *ImageService) Upload(ctx context.Context, data []byte, filename, contentType string) (*ImageResponse, error) {
	if len(data) == 0 {
		return nil, shared.NewDomainError("INVALID_IMAGE", "Image file is empty")
	}
	if int64(len(data)) > s.maxSize {
		return nil, shared.NewDomainError("IMAGE_TOO_LARGE",
			fmt.Sprintf("Image exceeds the %d MB limit", s.maxSize>>20))
	}

	detected := http.DetectContentType(data)
	ext, ok := imageExtensions[detected]
	if !ok {
		return nil, shared.NewDomainError("INVALID_IMAGE_TYPE", "Only JPEG, PNG, WEBP and GIF images are allowed")
	}
	if declared := normalizeContentType(contentType); declared != "" && declared != "application/octet-stream" && declared != detected {
		s.logger.Debug("Declared image type differs from content",
			zap.String("declared", declared), zap.String("detected", detected), zap.String("filename", filename))
	}

	key := s.newKey(ext)
	if err := s.storage.Upload(ctx, key, data, detected); err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	s.logger.Info("Image uploaded", zap.String("key", key), zap.Int("size", len(data)))
	return &ImageResponse{
		Key:         key,
		URL:         s.storage.PublicURL(key),
		ContentType: detected,
		Size:        int64(len(data)),
	}, nil
}

// Delete removes a stored image
func (s *ImageService) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	exists, err := s.storage.ObjectExists(ctx, key)
	if err != nil {
		return fmt.Errorf("check image: %w", err)
	}
	if !exists {
		return shared.NewDomainError("NOT_FOUND", "Image not found")
	}
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	s.logger.Info("Image deleted", zap.String("key", key))
	return nil
}

// URL returns the public URL of a stored image
func (s *ImageService) URL(key string) (*ImageResponse, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return &ImageResponse{Key: key, URL: s.storage.PublicURL(key)}, nil
}

// deleteQuietly removes an image replaced or orphaned by a catalog change
func (s *ImageService) deleteQuietly(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		s.logger.Warn("Failed to delete replaced image", zap.String("key", key), zap.Error(err))
	}
}

func (s *ImageService) newKey(ext string) string {
	return fmt.Sprintf("%s%s/%s%s", ImageKeyPrefix, s.now().UTC().Format("2006/01"), uuid.New().String(), ext)
}

func normalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

// cleanKey accepts keys under the product image prefix only
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "", shared.NewDomainError("INVALID_INPUT", "Image key is required")
	}
	cleaned := path.Clean(key)
	if cleaned != key || !strings.HasPrefix(cleaned, ImageKeyPrefix) {
		return "", shared.NewDomainError("INVALID_INPUT", "Invalid image key")
	}
	return cleaned, nil
}
