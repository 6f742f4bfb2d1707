package client

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"fincore/internal/domain"
	"fincore/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	clients   map[string]domain.Client
	kyc       map[string]domain.KYCRecord // keyed by client id
	documents map[string][]domain.Document

	// FailCreate forces Create to fail; test hook for the orchestrator's
	// ClientCreationFailed path.
	FailCreate bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		clients:   make(map[string]domain.Client),
		kyc:       make(map[string]domain.KYCRecord),
		documents: make(map[string][]domain.Document),
	}
}

func (s *InMemoryStore) Create(_ context.Context, input CreateInput) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate {
		return nil, sentinel.ErrUnavailable
	}
	now := time.Now()
	created := domain.Client{
		ID:           uuid.NewString(),
		CreatorID:    input.CreatorID,
		AccountType:  input.AccountType,
		Country:      input.Country,
		EntityType:   input.EntityType,
		BusinessName: input.BusinessName,
		TaxID:        input.TaxID,
		Address:      input.Address,
		Status:       domain.ClientStatusPending,
		Owners:       append([]domain.Owner{}, input.Owners...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.clients[created.ID] = created
	s.documents[created.ID] = append([]domain.Document{}, input.Documents...)
	s.kyc[created.ID] = domain.KYCRecord{
		ID:        uuid.NewString(),
		ClientID:  created.ID,
		Status:    domain.KYCStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	out := created
	return &out, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.clients[id]; ok {
		out := c
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Activate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.Status = domain.ClientStatusActive
	c.UpdatedAt = time.Now()
	s.clients[id] = c
	return nil
}

func (s *InMemoryStore) ListDocuments(_ context.Context, clientID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Document{}, s.documents[clientID]...), nil
}

func (s *InMemoryStore) SaveKYC(_ context.Context, record *domain.KYCRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.UpdatedAt = time.Now()
	s.kyc[record.ClientID] = *record
	return nil
}

func (s *InMemoryStore) FindKYCByClient(_ context.Context, clientID string) (*domain.KYCRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.kyc[clientID]; ok {
		out := record
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindKYCByVerificationID(_ context.Context, verificationID string) (*domain.KYCRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.kyc {
		if record.ExternalVerificationID == verificationID {
			out := record
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
