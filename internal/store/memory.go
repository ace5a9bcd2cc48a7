package store

import (
	"context"
	"sync"

	"fjacquet/stmt-ingest/internal/models"
)

// MemoryStore keeps transactions in memory. It is used by tests and dry
// runs.
type MemoryStore struct {
	mu    sync.Mutex
	txs   []models.Transaction
	keys  map[string]bool
	saves int

	// SaveErr, when set, is returned by Save wrapped as a persistence
	// failure.
	SaveErr error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]bool)}
}

// Save keeps transactions whose natural key is not held yet.
func (m *MemoryStore) Save(_ context.Context, txs []models.Transaction) (models.SaveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++
	if m.SaveErr != nil {
		return models.SaveResult{}, fail(DriverMemory, m.SaveErr)
	}
	if m.keys == nil {
		m.keys = make(map[string]bool)
	}

	var res models.SaveResult
	for _, t := range txs {
		if m.keys[t.NaturalKey()] {
			res.Skipped++
			continue
		}
		m.keys[t.NaturalKey()] = true
		m.txs = append(m.txs, t)
		res.Inserted++
	}
	return res, nil
}

// Transactions returns a copy of the stored transactions.
func (m *MemoryStore) Transactions() []models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Transaction, len(m.txs))
	copy(out, m.txs)
	return out
}

// Saves returns how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
