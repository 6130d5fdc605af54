package cryptofolio

import (
	"fmt"
	"sync"
)

// Store is the storage collaborator of a Ledger. The ledger validates every
// write before handing it over, so a Store only needs to be durable and to
// apply single-row writes atomically.
type Store interface {
	// Insert persists a new transaction.
	Insert(tx Transaction) error
	// Query returns the transactions of an asset, or all of them when asset
	// is empty.
	Query(asset string) ([]Transaction, error)
	// Update replaces the stored transaction with the same id.
	Update(id TransactionID, tx Transaction) error
}

// AssetStore is implemented by stores that also persist asset declarations.
type AssetStore interface {
	DeclareAsset(a Asset) error
	Assets() ([]Asset, error)
}

// CorrectionStore is implemented by stores that keep the audit trail of
// corrections. The ledger prefers it over Store.Update.
type CorrectionStore interface {
	Correct(rec CorrectionRecord) error
}

// MemoryStore is an in-memory Store, safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	txs    []Transaction
	index  map[TransactionID]int
	assets []Asset
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[TransactionID]int)}
}

func (s *MemoryStore) Insert(tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[tx.ID]; exists {
		return fmt.Errorf("transaction %s already stored", tx.ID)
	}
	s.index[tx.ID] = len(s.txs)
	s.txs = append(s.txs, tx)
	return nil
}

func (s *MemoryStore) Query(asset string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if asset == "" || tx.Asset == asset {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *MemoryStore) Update(id TransactionID, tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("transaction %s not found", id)
	}
	tx.ID = id
	s.txs[i] = tx
	return nil
}

func (s *MemoryStore) DeclareAsset(a Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = append(s.assets, a)
	return nil
}

func (s *MemoryStore) Assets() ([]Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Asset(nil), s.assets...), nil
}
