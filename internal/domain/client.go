package domain

import "time"

// ClientStatus tracks the client profile lifecycle. Profiles activate when KYC
// approves.
type ClientStatus string

const (
	ClientStatusPending  ClientStatus = "pending"
	ClientStatusActive   ClientStatus = "active"
	ClientStatusRejected ClientStatus = "rejected"
)

// KYCStatus is the internal verification vocabulary. Provider vocabularies are
// translated into this set at the webhook boundary.
type KYCStatus string

const (
	KYCStatusPending     KYCStatus = "pending"
	KYCStatusUnderReview KYCStatus = "under_review"
	KYCStatusApproved    KYCStatus = "approved"
	KYCStatusRejected    KYCStatus = "rejected"
)

// Client is the durable record created atomically from a finalized session.
type Client struct {
	ID          string
	CreatorID   string
	AccountType AccountType
	Country     string
	EntityType  string
	BusinessName string
	TaxID       string
	Address     Address
	Status      ClientStatus
	Owners      []Owner
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// KYCNote is one entry in the append-only notes log on a KYC record.
type KYCNote struct {
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

// KYCRecord holds verification state for a client. A client owns zero or one.
type KYCRecord struct {
	ID                     string
	ClientID               string
	Status                 KYCStatus
	RiskScore              *int
	ExternalVerificationID string
	ExternalApplicantID    string
	FormURL                string
	Notes                  []KYCNote
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// AppendNote adds to the notes log. Notes are never edited or removed.
func (k *KYCRecord) AppendNote(at time.Time, text string) {
	k.Notes = append(k.Notes, KYCNote{At: at, Text: text})
}
