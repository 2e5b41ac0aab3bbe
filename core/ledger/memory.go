package ledger

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	balances map[int64]int64
	entries  map[int64][]Entry
	nextID   int64
}

// NewMemoryStore constructs an in-memory Store implementation for tests and
// development. Unknown users start from a zero balance.
func NewMemoryStore() Store {
	return &memoryStore{
		balances: make(map[int64]int64),
		entries:  make(map[int64][]Entry),
	}
}

// Balance returns the current balance for a user.
func (m *memoryStore) Balance(_ context.Context, userID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[userID], nil
}

// Append stores the entry and the new balance atomically.
func (m *memoryStore) Append(_ context.Context, entry Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	entry.ID = m.nextID
	m.entries[entry.UserID] = append(m.entries[entry.UserID], entry)
	m.balances[entry.UserID] = entry.BalanceAfter
	return entry, nil
}

// LastEntries returns up to limit entries, newest first.
func (m *memoryStore) LastEntries(_ context.Context, userID int64, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.entries[userID]
	if limit > len(all) {
		limit = len(all)
	}
	out := make([]Entry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
