// internal/store/memory.go
//
// In-memory KV. State is lost when the process restarts.
package store

import (
	"context"
	"sync"
)

type memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory constructs an empty in-memory KV.
func NewMemory() KV {
	return &memory{values: make(map[string]string)}
}

func (m *memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (m *memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memory) Close() error { return nil }
