// Package risk handles wallet risk-score events from the transaction
// monitoring provider: significance gating, alert creation, and cached wallet
// risk state.
package risk

import (
	"context"

	"fincore/internal/domain"
)

type Store interface {
	InsertAlert(ctx context.Context, alert domain.AMLAlert) error
	ListAlertsByWallet(ctx context.Context, address string) ([]domain.AMLAlert, error)

	FindWalletRisk(ctx context.Context, address string) (*domain.WalletRisk, error)
	SaveWalletRisk(ctx context.Context, risk domain.WalletRisk) error

	InsertScreening(ctx context.Context, entry domain.ScreeningEntry) error
}
