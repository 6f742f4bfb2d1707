package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"fincore/internal/platform/postgres"
)

// PostgresStore appends audit events to an immutable table.
type PostgresStore struct {
	db *postgres.DB
}

func NewPostgresStore(db *postgres.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	detail, err := json.Marshal(event.Detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}
	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO audit_events (id, created_at, subject, action, outcome, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID, event.Timestamp, event.Subject, string(event.Action), event.Outcome, detail)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subject string) ([]Event, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, created_at, subject, action, outcome, detail
		FROM audit_events WHERE subject = $1 ORDER BY created_at
	`, subject)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event     Event
			action    string
			detailRaw []byte
		)
		if err := rows.Scan(&event.ID, &event.Timestamp, &event.Subject, &action, &event.Outcome, &detailRaw); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = Action(action)
		if len(detailRaw) > 0 {
			if err := json.Unmarshal(detailRaw, &event.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal audit detail: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
