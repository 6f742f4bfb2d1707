package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"fincore/internal/domain"
	"fincore/internal/platform/postgres"
	"fincore/pkg/platform/sentinel"
)

// PostgresStore persists sessions with the step accumulator as a JSONB blob.
// The read-merge-write in the service is not wrapped in an optimistic check;
// two concurrent step submissions race and the later write wins.
type PostgresStore struct {
	db *postgres.DB
}

func NewPostgresStore(db *postgres.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, session *domain.OnboardingSession) error {
	data, err := json.Marshal(session.Data)
	if err != nil {
		return fmt.Errorf("marshal session data: %w", err)
	}
	steps, err := json.Marshal(session.CompletedSteps)
	if err != nil {
		return fmt.Errorf("marshal completed steps: %w", err)
	}
	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO onboarding_sessions (id, data, current_step, completed_steps, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			current_step = EXCLUDED.current_step,
			completed_steps = EXCLUDED.completed_steps,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`, session.ID, data, session.CurrentStep, steps, session.IsActive, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*domain.OnboardingSession, error) {
	var (
		session  domain.OnboardingSession
		dataRaw  []byte
		stepsRaw []byte
	)
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, data, current_step, completed_steps, is_active, created_at, updated_at
		FROM onboarding_sessions WHERE id = $1
	`, id).Scan(&session.ID, &dataRaw, &session.CurrentStep, &stepsRaw, &session.IsActive, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if err := json.Unmarshal(dataRaw, &session.Data); err != nil {
		return nil, fmt.Errorf("unmarshal session data: %w", err)
	}
	if err := json.Unmarshal(stepsRaw, &session.CompletedSteps); err != nil {
		return nil, fmt.Errorf("unmarshal completed steps: %w", err)
	}
	return &session, nil
}

func (s *PostgresStore) AbandonExpired(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE onboarding_sessions SET is_active = FALSE, updated_at = now()
		WHERE is_active AND updated_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("abandon expired sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
