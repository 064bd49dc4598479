package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used when no bucket is configured and
// by tests. Signed URLs are synthetic and not fetchable.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemory() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	body, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: get %s: %w", key, os.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (m *MemoryStore) Put(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), body...)
	return nil
}

func (m *MemoryStore) Head(_ context.Context, key string) (int64, error) {
	m.mu.RLock()
	body, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("storage: head %s: %w", key, os.ErrNotExist)
	}
	return int64(len(body)), nil
}

func (m *MemoryStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("memory://%s?expires=%d", key, time.Now().Add(ttl).Unix()), nil
}

func (m *MemoryStore) UploadURL(_ context.Context, key, _ string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("memory://%s?upload=1&expires=%d", key, time.Now().Add(ttl).Unix()), nil
}
