package sessionstore

import (
	"context"
	"sync"
)

// MemoryStorage keeps the session record in memory. Useful for tests and
// for callers that explicitly do not want persistence across restarts.
type MemoryStorage struct {
	mu     sync.Mutex
	record []byte
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Load implements Storage.
func (m *MemoryStorage) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.record == nil {
		return nil, nil
	}
	out := make([]byte, len(m.record))
	copy(out, m.record)
	return out, nil
}

// Save implements Storage.
func (m *MemoryStorage) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = make([]byte, len(data))
	copy(m.record, data)
	return nil
}

// Clear implements Storage.
func (m *MemoryStorage) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = nil
	return nil
}
