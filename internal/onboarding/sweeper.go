package onboarding

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper closes sessions untouched past the expiry window. Shared sub-forms
// hold a session open for 48 hours; after that the attempt is abandoned.
type Sweeper struct {
	sessions Store
	window   time.Duration
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(sessions Store, window time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		sessions: sessions,
		window:   window,
		interval: time.Hour,
		logger:   logger,
	}
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			closed, err := s.sessions.AbandonExpired(ctx, time.Now().Add(-s.window))
			if err != nil {
				s.logger.ErrorContext(ctx, "session sweep failed", "error", err)
				continue
			}
			if closed > 0 {
				s.logger.InfoContext(ctx, "abandoned expired sessions", "count", closed)
			}
		}
	}
}
