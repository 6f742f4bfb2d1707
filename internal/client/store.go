// Package client owns the durable client/KYC records created from finalized
// onboarding sessions.
package client

import (
	"context"

	"fincore/internal/domain"
)

// CreateInput is the single transactional client-creation call. Either the
// client, its owners, and its KYC record all land, or none do.
type CreateInput struct {
	CreatorID    string
	AccountType  domain.AccountType
	Country      string
	EntityType   string
	BusinessName string
	TaxID        string
	Address      domain.Address
	Owners       []domain.Owner
	PEPScreening *domain.PEPResponses
	Documents    []domain.Document
	Metadata     map[string]any
}

type Store interface {
	// Create is atomic at the datastore level so partial client records
	// never exist.
	Create(ctx context.Context, input CreateInput) (*domain.Client, error)
	FindByID(ctx context.Context, id string) (*domain.Client, error)
	// Activate flips the profile to active; called on KYC approval.
	Activate(ctx context.Context, id string) error

	ListDocuments(ctx context.Context, clientID string) ([]domain.Document, error)

	SaveKYC(ctx context.Context, record *domain.KYCRecord) error
	FindKYCByClient(ctx context.Context, clientID string) (*domain.KYCRecord, error)
	FindKYCByVerificationID(ctx context.Context, verificationID string) (*domain.KYCRecord, error)
}
