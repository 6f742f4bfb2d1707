package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
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

// Create inserts the client, its owners, and a pending KYC record in one
// transaction.
func (s *PostgresStore) Create(ctx context.Context, input CreateInput) (*domain.Client, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create client: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	created := domain.Client{
		ID:           uuid.NewString(),
		CreatorID:    input.CreatorID,
		AccountType:  input.AccountType,
		Country:      input.Country,
		EntityType:   input.EntityType,
		BusinessName: input.BusinessName,
		TaxID:        input.TaxID,
		Address:      input.Address,
		Status:       domain.ClientStatusPending,
		Owners:       append([]domain.Owner{}, input.Owners...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	address, err := json.Marshal(input.Address)
	if err != nil {
		return nil, fmt.Errorf("marshal address: %w", err)
	}
	pep, err := json.Marshal(input.PEPScreening)
	if err != nil {
		return nil, fmt.Errorf("marshal pep screening: %w", err)
	}
	metadata, err := json.Marshal(input.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO clients (id, creator_id, account_type, country, entity_type, business_name, tax_id, address, status, pep_screening, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, created.ID, created.CreatorID, string(created.AccountType), created.Country, created.EntityType,
		created.BusinessName, created.TaxID, address, string(created.Status), pep, metadata, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}

	for i := range created.Owners {
		owner := &created.Owners[i]
		if owner.ID == "" {
			owner.ID = uuid.NewString()
		}
		payload, err := json.Marshal(owner)
		if err != nil {
			return nil, fmt.Errorf("marshal owner: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO client_owners (id, client_id, owner_type, ownership_percentage, record, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, owner.ID, created.ID, string(owner.Type), owner.OwnershipPercentage, payload, now)
		if err != nil {
			return nil, fmt.Errorf("insert owner: %w", err)
		}
	}

	for _, doc := range input.Documents {
		_, err = tx.Exec(ctx, `
			INSERT INTO client_documents (id, client_id, doc_type, file_key, file_name, size_bytes, mime_type, owner_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
		`, uuid.NewString(), created.ID, string(doc.Type), doc.FileKey, doc.FileName, doc.Size, doc.MimeType, doc.OwnerID, now)
		if err != nil {
			return nil, fmt.Errorf("insert document: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO kyc_records (id, client_id, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, '[]'::jsonb, $4, $5)
	`, uuid.NewString(), created.ID, string(domain.KYCStatusPending), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert kyc record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create client: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	var (
		c           domain.Client
		accountType string
		status      string
		addressRaw  []byte
	)
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, creator_id, account_type, country, entity_type, business_name, tax_id, address, status, created_at, updated_at
		FROM clients WHERE id = $1
	`, id).Scan(&c.ID, &c.CreatorID, &accountType, &c.Country, &c.EntityType, &c.BusinessName, &c.TaxID, &addressRaw, &status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}
	c.AccountType = domain.AccountType(accountType)
	c.Status = domain.ClientStatus(status)
	if err := json.Unmarshal(addressRaw, &c.Address); err != nil {
		return nil, fmt.Errorf("unmarshal address: %w", err)
	}

	rows, err := s.db.Pool.Query(ctx, `SELECT record FROM client_owners WHERE client_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		var owner domain.Owner
		if err := json.Unmarshal(payload, &owner); err != nil {
			return nil, fmt.Errorf("unmarshal owner: %w", err)
		}
		c.Owners = append(c.Owners, owner)
	}
	return &c, rows.Err()
}

func (s *PostgresStore) ListDocuments(ctx context.Context, clientID string) ([]domain.Document, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT doc_type, file_key, file_name, size_bytes, mime_type, COALESCE(owner_id, '')
		FROM client_documents WHERE client_id = $1 ORDER BY created_at
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var (
			doc     domain.Document
			docType string
		)
		if err := rows.Scan(&docType, &doc.FileKey, &doc.FileName, &doc.Size, &doc.MimeType, &doc.OwnerID); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.Type = domain.DocumentType(docType)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) Activate(ctx context.Context, id string) error {
	tag, err := s.db.Pool.Exec(ctx,
		`UPDATE clients SET status = $1, updated_at = now() WHERE id = $2`,
		string(domain.ClientStatusActive), id)
	if err != nil {
		return fmt.Errorf("activate client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveKYC(ctx context.Context, record *domain.KYCRecord) error {
	notes, err := json.Marshal(record.Notes)
	if err != nil {
		return fmt.Errorf("marshal kyc notes: %w", err)
	}
	_, err = s.db.Pool.Exec(ctx, `
		UPDATE kyc_records SET
			status = $1,
			risk_score = $2,
			external_verification_id = NULLIF($3, ''),
			external_applicant_id = NULLIF($4, ''),
			form_url = NULLIF($5, ''),
			notes = $6,
			updated_at = now()
		WHERE client_id = $7
	`, string(record.Status), record.RiskScore, record.ExternalVerificationID,
		record.ExternalApplicantID, record.FormURL, notes, record.ClientID)
	if err != nil {
		return fmt.Errorf("save kyc record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindKYCByClient(ctx context.Context, clientID string) (*domain.KYCRecord, error) {
	return s.findKYC(ctx, `client_id = $1`, clientID)
}

func (s *PostgresStore) FindKYCByVerificationID(ctx context.Context, verificationID string) (*domain.KYCRecord, error) {
	return s.findKYC(ctx, `external_verification_id = $1`, verificationID)
}

func (s *PostgresStore) findKYC(ctx context.Context, where string, arg any) (*domain.KYCRecord, error) {
	var (
		record         domain.KYCRecord
		status         string
		verificationID *string
		applicantID    *string
		formURL        *string
		notesRaw       []byte
	)
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, client_id, status, risk_score, external_verification_id, external_applicant_id, form_url, notes, created_at, updated_at
		FROM kyc_records WHERE `+where, arg,
	).Scan(&record.ID, &record.ClientID, &status, &record.RiskScore, &verificationID, &applicantID, &formURL, &notesRaw, &record.CreatedAt, &record.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find kyc record: %w", err)
	}
	record.Status = domain.KYCStatus(status)
	if verificationID != nil {
		record.ExternalVerificationID = *verificationID
	}
	if applicantID != nil {
		record.ExternalApplicantID = *applicantID
	}
	if formURL != nil {
		record.FormURL = *formURL
	}
	if err := json.Unmarshal(notesRaw, &record.Notes); err != nil {
		return nil, fmt.Errorf("unmarshal kyc notes: %w", err)
	}
	return &record, nil
}
