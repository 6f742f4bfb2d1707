package risk

import (
	"context"
	"sync"

	"fincore/internal/domain"
	"fincore/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	alerts     []domain.AMLAlert
	wallets    map[string]domain.WalletRisk
	screenings []domain.ScreeningEntry

	// FailAlerts forces InsertAlert to fail; test hook for the best-effort
	// write independence.
	FailAlerts bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{wallets: make(map[string]domain.WalletRisk)}
}

func (s *InMemoryStore) InsertAlert(_ context.Context, alert domain.AMLAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAlerts {
		return sentinel.ErrUnavailable
	}
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *InMemoryStore) ListAlertsByWallet(_ context.Context, address string) ([]domain.AMLAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AMLAlert
	for _, alert := range s.alerts {
		if alert.WalletAddress == address {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (s *InMemoryStore) FindWalletRisk(_ context.Context, address string) (*domain.WalletRisk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if risk, ok := s.wallets[address]; ok {
		out := risk
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) SaveWalletRisk(_ context.Context, risk domain.WalletRisk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[risk.Address] = risk
	return nil
}

func (s *InMemoryStore) InsertScreening(_ context.Context, entry domain.ScreeningEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screenings = append(s.screenings, entry)
	return nil
}

// Screenings returns recorded screening entries; test helper.
func (s *InMemoryStore) Screenings() []domain.ScreeningEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ScreeningEntry{}, s.screenings...)
}
