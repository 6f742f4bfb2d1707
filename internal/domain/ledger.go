package domain

import "time"

// LedgerDirection is one side of a double-entry pair.
type LedgerDirection string

const (
	LedgerDebit  LedgerDirection = "debit"
	LedgerCredit LedgerDirection = "credit"
)

// LedgerEntry is an immutable bookkeeping record tied to a transaction.
// Entries are appended in debit/credit pairs per financial side-effect and are
// never mutated or deleted. Amounts are in minor units.
type LedgerEntry struct {
	ID            string
	TransactionID string
	Direction     LedgerDirection
	Account       string
	AmountMinor   int64
	Currency      string
	// CorrelationID keys the pair to its originating operation (payout id) so
	// replayed dispatches do not double-book.
	CorrelationID string
	CreatedAt     time.Time
}
