// Package ledger persists immutable double-entry records. Entries are written
// in debit/credit pairs and never mutated or deleted.
package ledger

import (
	"context"

	"fincore/internal/domain"
)

type Store interface {
	// AppendPair writes a debit/credit pair atomically. Both entries share
	// the correlation id of the operation that produced them.
	AppendPair(ctx context.Context, debit, credit domain.LedgerEntry) error
	ListByTransaction(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error)
	// ExistsForCorrelation guards replays: a pair already booked for the
	// correlation id must not be booked again.
	ExistsForCorrelation(ctx context.Context, correlationID string) (bool, error)
}
