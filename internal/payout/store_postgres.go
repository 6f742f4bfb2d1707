package payout

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

func (s *PostgresStore) FindPayout(ctx context.Context, id string) (*domain.PayoutRequest, error) {
	var (
		payout domain.PayoutRequest
		status string
	)
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, transaction_id, client_id,
			recipient_name, recipient_account, recipient_bank, recipient_bank_code, recipient_country,
			legacy_recipient, amount_minor, currency, status, tracking_id, created_at, updated_at
		FROM payout_requests WHERE id = $1
	`, id).Scan(&payout.ID, &payout.TransactionID, &payout.ClientID,
		&payout.Recipient.Name, &payout.Recipient.Account, &payout.Recipient.Bank,
		&payout.Recipient.BankCode, &payout.Recipient.Country,
		&payout.LegacyRecipient, &payout.AmountMinor, &payout.Currency, &status,
		&payout.TrackingID, &payout.CreatedAt, &payout.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find payout: %w", err)
	}
	payout.Status = domain.PayoutStatus(status)
	return &payout, nil
}

func (s *PostgresStore) SavePayout(ctx context.Context, payout *domain.PayoutRequest) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO payout_requests (id, transaction_id, client_id,
			recipient_name, recipient_account, recipient_bank, recipient_bank_code, recipient_country,
			legacy_recipient, amount_minor, currency, status, tracking_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			tracking_id = EXCLUDED.tracking_id,
			updated_at = EXCLUDED.updated_at
	`, payout.ID, payout.TransactionID, payout.ClientID,
		payout.Recipient.Name, payout.Recipient.Account, payout.Recipient.Bank,
		payout.Recipient.BankCode, payout.Recipient.Country,
		payout.LegacyRecipient, payout.AmountMinor, payout.Currency,
		string(payout.Status), payout.TrackingID, payout.CreatedAt, payout.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save payout: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var (
		tx          domain.Transaction
		status      string
		metadataRaw []byte
	)
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, client_id, status, settlement_asset, amount_minor, metadata, created_at, updated_at
		FROM transactions WHERE id = $1
	`, id).Scan(&tx.ID, &tx.ClientID, &status, &tx.SettlementAsset, &tx.AmountMinor, &metadataRaw, &tx.CreatedAt, &tx.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	tx.Status = domain.TransactionStatus(status)
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &tx.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal transaction metadata: %w", err)
		}
	}
	return &tx, nil
}

func (s *PostgresStore) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	metadata, err := json.Marshal(tx.Metadata)
	if err != nil {
		return fmt.Errorf("marshal transaction metadata: %w", err)
	}
	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO transactions (id, client_id, status, settlement_asset, amount_minor, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`, tx.ID, tx.ClientID, string(tx.Status), tx.SettlementAsset, tx.AmountMinor, metadata, tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	return nil
}
