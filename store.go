package transact

import (
	"context"
	"sync"
)

// Store defines the interface for persisting transaction state. The unit of
// persistence is the full set of transactions a Manager owns: Save replaces
// the stored snapshot and Load returns it. Rehydrating a Manager is a Load
// followed by RegisterTransaction per entry; saving is GetAllTransactions
// followed by Save. The round trip is lossless.
type Store interface {
	// Save persists the given transactions, replacing any previous snapshot.
	Save(ctx context.Context, txs []Transaction) error

	// Load retrieves the persisted transactions. An empty store loads as an
	// empty slice, not an error.
	Load(ctx context.Context) ([]Transaction, error)
}

// MemoryStore provides an in-memory implementation of Store for testing or
// scenarios where persistence is not required.
type MemoryStore struct {
	txs []Transaction
	mu  sync.Mutex
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores a copy of the transactions in memory.
func (m *MemoryStore) Save(ctx context.Context, txs []Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txs = cloneTransactions(txs)
	return nil
}

// Load retrieves a copy of the stored transactions.
func (m *MemoryStore) Load(ctx context.Context) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return cloneTransactions(m.txs), nil
}

// cloneTransactions deep-copies a transaction slice so that stored state and
// caller state cannot alias each other.
func cloneTransactions(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i := range txs {
		out[i] = txs[i].Clone()
	}
	return out
}
