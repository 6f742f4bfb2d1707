package ledger

import (
	"context"
	"fmt"

	"fincore/internal/domain"
	"fincore/internal/platform/postgres"
)

type PostgresStore struct {
	db *postgres.DB
}

func NewPostgresStore(db *postgres.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) AppendPair(ctx context.Context, debit, credit domain.LedgerEntry) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const insert = `
		INSERT INTO ledger_entries (id, transaction_id, direction, account, amount_minor, currency, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, entry := range []domain.LedgerEntry{debit, credit} {
		if _, err := tx.Exec(ctx, insert,
			entry.ID, entry.TransactionID, string(entry.Direction), entry.Account,
			entry.AmountMinor, entry.Currency, entry.CorrelationID, entry.CreatedAt); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ListByTransaction(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, transaction_id, direction, account, amount_minor, currency, correlation_id, created_at
		FROM ledger_entries WHERE transaction_id = $1 ORDER BY created_at
	`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var (
			entry     domain.LedgerEntry
			direction string
		)
		if err := rows.Scan(&entry.ID, &entry.TransactionID, &direction, &entry.Account,
			&entry.AmountMinor, &entry.Currency, &entry.CorrelationID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entry.Direction = domain.LedgerDirection(direction)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) ExistsForCorrelation(ctx context.Context, correlationID string) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE correlation_id = $1)`, correlationID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ledger correlation: %w", err)
	}
	return exists, nil
}
