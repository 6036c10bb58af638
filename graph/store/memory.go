package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemStore is an in-memory Store for tests and single-process demos.
//
// Checkpoints are kept as marshaled JSON, so a Get never aliases the map the
// caller passed to Put, and a Put that fails to marshal leaves the previous
// checkpoint untouched.
//
// MemStore is safe for concurrent use across threads; each thread id maps to
// its own entry.
type MemStore struct {
	mu   sync.RWMutex
	rows map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[string][]byte)}
}

// Get implements Store.
func (m *MemStore) Get(ctx context.Context, threadID string) (Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return Checkpoint{}, err
	}

	m.mu.RLock()
	raw, ok := m.rows[threadID]
	m.mu.RUnlock()

	if !ok {
		return Checkpoint{}, ErrNotFound
	}

	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}

// Put implements Store. The checkpoint is serialized before the map is
// touched, so a marshal failure cannot corrupt the stored row.
func (m *MemStore) Put(ctx context.Context, threadID string, cp Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(cp)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.rows[threadID] = raw
	m.mu.Unlock()
	return nil
}

// Len reports the number of threads with a stored checkpoint.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}
