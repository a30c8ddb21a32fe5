package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStorage keeps values in process memory. A positive quota bounds the
// total size of keys plus values in bytes.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int
	used   int
}

func NewMemoryStorage(quotaBytes int) *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string), quota: quotaBytes}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	used := m.used
	if old, ok := m.values[key]; ok {
		used -= len(key) + len(old)
	}
	used += len(key) + len(value)
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}
	m.values[key] = value
	m.used = used
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.values[key]; ok {
		m.used -= len(key) + len(old)
		delete(m.values, key)
	}
	return nil
}

func (m *MemoryStorage) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
