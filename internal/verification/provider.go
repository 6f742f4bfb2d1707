// Package verification integrates the external identity-verification
// provider: opening verifications for new clients and folding the provider's
// webhook results back into internal KYC state.
package verification

import (
	"context"

	"fincore/internal/domain"
)

// ApplicantPerson is the subset of owner data the provider needs to open an
// applicant record.
type ApplicantPerson struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	DateOfBirth string
	Country     string
}

// ProviderDocument is one document upload.
type ProviderDocument struct {
	Category string
	FileName string
	MimeType string
	Data     []byte
}

// VerificationType selects what the provider checks.
const (
	VerificationTypeDocument = "DOCUMENT"
	VerificationTypeAML      = "AML"
)

// Provider is the external verification API surface. CreateApplicant is keyed
// by externalID (the internal client id) so retries reuse the same applicant.
type Provider interface {
	CreateApplicant(ctx context.Context, externalID string, person ApplicantPerson) (applicantID string, err error)
	UploadDocument(ctx context.Context, applicantID string, doc ProviderDocument) (documentID string, err error)
	CreateVerification(ctx context.Context, applicantID string, types []string) (verificationID string, err error)
	GetKYCFormURL(ctx context.Context, applicantID string) (formURL string, err error)
}

// documentCategories maps internal document types onto the provider's
// recognized categories. Types absent here cannot be verified by the provider
// and are skipped.
var documentCategories = map[domain.DocumentType]string{
	domain.DocTypePassport:       "PASSPORT",
	domain.DocTypeNationalID:     "ID_CARD",
	domain.DocTypeLicenseFront:   "DRIVERS_LICENSE_FRONT",
	domain.DocTypeLicenseBack:    "DRIVERS_LICENSE_BACK",
	domain.DocTypeProofOfAddress: "UTILITY_BILL",
	domain.DocTypeSelfie:         "SELFIE",
}

// RecognizedDocuments filters a document list down to what the provider can
// check. An empty result sends the dispatcher into form mode.
func RecognizedDocuments(docs []domain.Document) []domain.Document {
	var out []domain.Document
	for _, doc := range docs {
		if _, ok := documentCategories[doc.Type]; ok {
			out = append(out, doc)
		}
	}
	return out
}
