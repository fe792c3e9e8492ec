package storage

import (
	"context"
	"strings"
	"sync"

	reimbapp "github.com/reimburse/backend/internal/application/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
)

var _ reimbapp.ObjectStorage = (*MemoryObjectStorage)(nil)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryObjectStorage keeps objects in process memory.
// The server falls back to it when no bucket is configured.
type MemoryObjectStorage struct {
	mu            sync.RWMutex
	objects       map[string]memoryObject
	bucket        string
	publicBaseURL string
}

// NewMemoryObjectStorage creates an empty in-memory store
func NewMemoryObjectStorage(bucket, publicBaseURL string) *MemoryObjectStorage {
	if publicBaseURL == "" {
		publicBaseURL = "https://storage.googleapis.com"
	}
	return &MemoryObjectStorage{
		objects:       make(map[string]memoryObject),
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Upload stores a copy of data under key
func (m *MemoryObjectStorage) Upload(_ context.Context, key, contentType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// Download returns a copy of the object at key
func (m *MemoryObjectStorage) Download(_ context.Context, key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", shared.NewDomainError("NOT_FOUND", "File not found")
	}
	return append([]byte(nil), obj.data...), obj.contentType, nil
}

// PublicURL returns {publicBaseURL}/{bucket}/{key}
func (m *MemoryObjectStorage) PublicURL(key string) string {
	return m.publicBaseURL + "/" + m.bucket + "/" + key
}

// Len returns the number of stored objects
func (m *MemoryObjectStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
