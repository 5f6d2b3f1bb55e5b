package ledger

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*Transaction
	byHash  map[string]*Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byHash: make(map[string]*Transaction)}
}

func (m *MemoryStore) Append(_ context.Context, tx *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx.BlockNumber = int64(len(m.entries)) + 1
	stored := *tx
	m.entries = append(m.entries, &stored)
	m.byHash[tx.TransactionHash] = &stored
	return nil
}

func (m *MemoryStore) List(_ context.Context, organizationID string, limit int) ([]*Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Transaction
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].OrganizationID == organizationID {
			tx := *m.entries[i]
			out = append(out, &tx)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetByHash(_ context.Context, hash string) (*Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.byHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (m *MemoryStore) Count(_ context.Context, organizationID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, tx := range m.entries {
		if tx.OrganizationID == organizationID {
			n++
		}
	}
	return n, nil
}
