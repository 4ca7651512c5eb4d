// ABOUTME: In-memory Backend with an optional capacity limit.
// ABOUTME: Used by tests and as a transient backend; enforces capacity like a browser quota.
package kv

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryBackend keeps keys in a map. A positive capacity caps the total size
// of keys and values, measured with SizeOf.
type MemoryBackend struct {
	mu       sync.RWMutex
	data     map[string]string
	capacity int64
}

// NewMemoryBackend creates an empty backend. capacity <= 0 means unlimited.
func NewMemoryBackend(capacity int64) *MemoryBackend {
	return &MemoryBackend{
		data:     make(map[string]string),
		capacity: capacity,
	}
}

// Get implements Backend.
func (m *MemoryBackend) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements Backend.
func (m *MemoryBackend) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.capacity > 0 {
		used := m.usageLocked()
		if old, ok := m.data[key]; ok {
			used -= SizeOf(key) + SizeOf(old)
		}
		if projected := used + SizeOf(key) + SizeOf(value); projected > m.capacity {
			return fmt.Errorf("%w: %d of %d bytes", ErrQuotaExceeded, projected, m.capacity)
		}
	}
	m.data[key] = value
	return nil
}

// Remove implements Backend.
func (m *MemoryBackend) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys implements Backend. Keys are returned sorted.
func (m *MemoryBackend) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	return nil
}

func (m *MemoryBackend) usageLocked() int64 {
	var total int64
	for k, v := range m.data {
		total += SizeOf(k) + SizeOf(v)
	}
	return total
}
