package risk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fincore/internal/domain"
	"fincore/internal/platform/postgres"
	"fincore/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *postgres.DB
}

func NewPostgresStore(db *postgres.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InsertAlert(ctx context.Context, alert domain.AMLAlert) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO aml_alerts (id, wallet_address, network, alert_type, severity, previous_score, new_score, is_blacklisted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, alert.ID, alert.WalletAddress, alert.Network, string(alert.Type), string(alert.Severity),
		alert.PreviousScore, alert.NewScore, alert.IsBlacklisted, alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAlertsByWallet(ctx context.Context, address string) ([]domain.AMLAlert, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, wallet_address, network, alert_type, severity, previous_score, new_score, is_blacklisted, created_at
		FROM aml_alerts WHERE wallet_address = $1 ORDER BY created_at
	`, address)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.AMLAlert
	for rows.Next() {
		var (
			alert     domain.AMLAlert
			alertType string
			severity  string
		)
		if err := rows.Scan(&alert.ID, &alert.WalletAddress, &alert.Network, &alertType, &severity,
			&alert.PreviousScore, &alert.NewScore, &alert.IsBlacklisted, &alert.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alert.Type = domain.AlertType(alertType)
		alert.Severity = domain.AlertSeverity(severity)
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

func (s *PostgresStore) FindWalletRisk(ctx context.Context, address string) (*domain.WalletRisk, error) {
	var risk domain.WalletRisk
	err := s.db.Pool.QueryRow(ctx, `
		SELECT address, network, risk_score, is_blacklisted, updated_at
		FROM wallet_risk WHERE address = $1
	`, address).Scan(&risk.Address, &risk.Network, &risk.RiskScore, &risk.IsBlacklisted, &risk.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find wallet risk: %w", err)
	}
	return &risk, nil
}

func (s *PostgresStore) SaveWalletRisk(ctx context.Context, risk domain.WalletRisk) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO wallet_risk (address, network, risk_score, is_blacklisted, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO UPDATE SET
			risk_score = EXCLUDED.risk_score,
			is_blacklisted = EXCLUDED.is_blacklisted,
			updated_at = EXCLUDED.updated_at
	`, risk.Address, risk.Network, risk.RiskScore, risk.IsBlacklisted, risk.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save wallet risk: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertScreening(ctx context.Context, entry domain.ScreeningEntry) error {
	signals, err := json.Marshal(entry.Signals)
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}
	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO risk_screenings (id, wallet_address, network, risk_score, signals, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.WalletAddress, entry.Network, entry.RiskScore, signals, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert screening: %w", err)
	}
	return nil
}
