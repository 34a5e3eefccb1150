package snapshot

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps the latest snapshot in memory. Saved snapshots are deep
// copied so callers cannot alias stored state.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Save(ctx context.Context, s Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = b
	m.saves++
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(ctx context.Context) (Snapshot, bool, error) {
	m.mu.Lock()
	b := m.data
	m.mu.Unlock()
	if b == nil {
		return Snapshot{}, false, nil
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return Snapshot{}, false, err
	}
	return s, true, nil
}

// Saves counts successful saves.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) Close() error { return nil }
