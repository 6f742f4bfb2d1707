package payout

import (
	"context"
	"sync"

	"fincore/internal/domain"
	"fincore/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu           sync.RWMutex
	payouts      map[string]domain.PayoutRequest
	transactions map[string]domain.Transaction
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		payouts:      make(map[string]domain.PayoutRequest),
		transactions: make(map[string]domain.Transaction),
	}
}

func (s *InMemoryStore) FindPayout(_ context.Context, id string) (*domain.PayoutRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if payout, ok := s.payouts[id]; ok {
		out := payout
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) SavePayout(_ context.Context, payout *domain.PayoutRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payouts[payout.ID] = *payout
	return nil
}

func (s *InMemoryStore) FindTransaction(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tx, ok := s.transactions[id]; ok {
		out := tx
		if tx.Metadata != nil {
			out.Metadata = make(map[string]any, len(tx.Metadata))
			for k, v := range tx.Metadata {
				out.Metadata[k] = v
			}
		}
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) SaveTransaction(_ context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.ID] = *tx
	return nil
}
