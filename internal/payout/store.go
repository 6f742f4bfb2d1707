package payout

import (
	"context"

	"fincore/internal/domain"
)

// Store persists payout requests and their owning transactions.
type Store interface {
	FindPayout(ctx context.Context, id string) (*domain.PayoutRequest, error)
	SavePayout(ctx context.Context, payout *domain.PayoutRequest) error
	FindTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	SaveTransaction(ctx context.Context, tx *domain.Transaction) error
}
