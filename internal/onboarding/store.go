package onboarding

import (
	"context"
	"time"

	"fincore/internal/domain"
)

// Store persists onboarding sessions. Implementations return
// sentinel.ErrNotFound when a session id does not resolve.
type Store interface {
	Save(ctx context.Context, session *domain.OnboardingSession) error
	FindByID(ctx context.Context, id string) (*domain.OnboardingSession, error)
	// AbandonExpired closes active sessions untouched since the cutoff and
	// returns how many were closed.
	AbandonExpired(ctx context.Context, cutoff time.Time) (int, error)
}
