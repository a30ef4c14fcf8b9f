package slot

import (
	"context"
	"sync"

	"empress-storefront/internal/domain"
)

// MemoryRepository is a process-local Repository.
type MemoryRepository struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemory() *MemoryRepository {
	return &MemoryRepository{slots: make(map[string][]byte)}
}

func (m *MemoryRepository) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	v, ok := m.slots[key]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryRepository) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	m.mu.Lock()
	m.slots[key] = v
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.slots, key)
	m.mu.Unlock()
	return nil
}

// Keys lists stored keys.
func (m *MemoryRepository) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.slots))
	for k := range m.slots {
		keys = append(keys, k)
	}
	return keys
}
