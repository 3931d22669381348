package storage

import (
	"context"
	"errors"
	"strings"
	"sync"

	catalogapp "github.com/ecomt/storefront/internal/application/catalog"
)

// MemoryObjectStorage keeps objects in process memory.
// Used in development and tests when no S3 backend is configured;
// objects are lost on restart.
type MemoryObjectStorage struct {
	// BaseURL prefixes public URLs, e.g. http://localhost:8080/media
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryObjectStorage creates an empty MemoryObjectStorage
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	return &MemoryObjectStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]memoryObject),
	}
}

// Ensure MemoryObjectStorage implements ObjectStorageService
var _ catalogapp.ObjectStorageService = (*MemoryObjectStorage)(nil)

// Upload stores a copy of data
func (s *MemoryObjectStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = memoryObject{data: buf, contentType: contentType}
	return nil
}

// DeleteObject removes the object; missing keys are ignored
func (s *MemoryObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// ObjectExists reports whether the key is stored
func (s *MemoryObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// PublicURL returns BaseURL/key
func (s *MemoryObjectStorage) PublicURL(storageKey string) string {
	return s.BaseURL + "/" + strings.TrimLeft(storageKey, "/")
}

// Get returns the stored bytes and content type
func (s *MemoryObjectStorage) Get(storageKey string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	if !ok {
		return nil, "", false
	}
	return obj.data, obj.contentType, true
}

// Len returns the number of stored objects
func (s *MemoryObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
