package domain

import (
	"encoding/json"
	"time"
)

// PayoutStatus states: pending -> sent -> completed, or straight to completed
// when the dispatch degrades to a recorded simulation, or failed.
type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusSent      PayoutStatus = "sent"
	PayoutStatusCompleted PayoutStatus = "completed"
	PayoutStatusFailed    PayoutStatus = "failed"
)

// TransactionStatus mirrors the owning transaction's payout leg.
type TransactionStatus string

const (
	TxStatusPayoutPending   TransactionStatus = "PAYOUT_PENDING"
	TxStatusPayoutSent      TransactionStatus = "PAYOUT_SENT"
	TxStatusPayoutCompleted TransactionStatus = "PAYOUT_COMPLETED"
	TxStatusPayoutFailed    TransactionStatus = "PAYOUT_FAILED"
)

// Recipient is the bank destination for a payout.
type Recipient struct {
	Name     string `json:"name"`
	Account  string `json:"account"`
	Bank     string `json:"bank"`
	BankCode string `json:"bankCode,omitempty"`
	Country  string `json:"country,omitempty"`
}

// PayoutRequest belongs to exactly one transaction. Once status leaves
// pending, recipient and tracking fields are immutable and a matching ledger
// pair exists.
type PayoutRequest struct {
	ID            string
	TransactionID string
	ClientID      string

	// Dedicated recipient columns; first tier of recipient resolution.
	Recipient Recipient

	// LegacyRecipient carries recipient JSON written by the previous schema;
	// second tier of recipient resolution.
	LegacyRecipient json.RawMessage

	AmountMinor int64
	Currency    string
	Status      PayoutStatus
	TrackingID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Transaction is the financial operation a payout settles. Metadata is the
// third tier of recipient resolution and the audit location for simulation
// reasons.
type Transaction struct {
	ID              string
	ClientID        string
	Status          TransactionStatus
	SettlementAsset string
	AmountMinor     int64
	Metadata        map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
