package ledger

import (
	"context"
	"sync"

	"fincore/internal/domain"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries []domain.LedgerEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) AppendPair(_ context.Context, debit, credit domain.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, debit, credit)
	return nil
}

func (s *InMemoryStore) ListByTransaction(_ context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.LedgerEntry
	for _, entry := range s.entries {
		if entry.TransactionID == transactionID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ExistsForCorrelation(_ context.Context, correlationID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.entries {
		if entry.CorrelationID == correlationID {
			return true, nil
		}
	}
	return false, nil
}
