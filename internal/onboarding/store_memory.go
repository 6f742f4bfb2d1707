package onboarding

import (
	"context"
	"sync"
	"time"

	"fincore/internal/domain"
	"fincore/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions in a map for tests and local runs. It
// intentionally favors clarity over performance.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.OnboardingSession
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]domain.OnboardingSession)}
}

func (s *InMemoryStore) Save(_ context.Context, session *domain.OnboardingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*domain.OnboardingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[id]; ok {
		out := session
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) AbandonExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	closed := 0
	for id, session := range s.sessions {
		if session.IsActive && session.UpdatedAt.Before(cutoff) {
			session.IsActive = false
			s.sessions[id] = session
			closed++
		}
	}
	return closed, nil
}
