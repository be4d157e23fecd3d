package storage

import (
	"context"
	"sync"
)

// MemoryBackend is a process-local Backend, used for development and tests.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]string
}

var (
	_ Backend = (*MemoryBackend)(nil)
	_ Batcher = (*MemoryBackend)(nil)
)

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]string)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// SetBatch applies all items under one lock.
func (m *MemoryBackend) SetBatch(_ context.Context, items []KV) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, kv := range items {
		m.data[kv.Key] = kv.Value
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
