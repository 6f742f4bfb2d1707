package verification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"fincore/internal/blob"
	"fincore/internal/domain"
	"fincore/internal/platform/metrics"
)

// Result is returned from every dispatch; the dispatcher never lets an error
// escape its boundary. Callers branch on Success.
type Result struct {
	Success        bool     `json:"success"`
	Mode           string   `json:"mode"`
	ApplicantID    string   `json:"applicantId,omitempty"`
	VerificationID string   `json:"verificationId,omitempty"`
	FormURL        string   `json:"formUrl,omitempty"`
	DocumentIDs    []string `json:"documentIds,omitempty"`
	Error          string   `json:"error,omitempty"`
}

const (
	ModeDocument = "document"
	ModeForm     = "form"
)

// Dispatcher opens verifications against the provider. Document mode uploads
// recognized documents and requests DOCUMENT+AML checks; form mode hands the
// person a hosted form URL to complete out-of-band.
type Dispatcher struct {
	provider Provider
	blobs    blob.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewDispatcher(provider Provider, blobs blob.Store, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{provider: provider, blobs: blobs, logger: logger, metrics: m}
}

// Dispatch opens a verification for the client's primary person. The mode is
// chosen by whether any submitted document maps to a provider-recognized
// category. The applicant is keyed by the internal client id so retries are
// idempotent.
func (d *Dispatcher) Dispatch(ctx context.Context, clientID string, person domain.Owner, docs []domain.Document) Result {
	recognized := RecognizedDocuments(docs)
	if len(recognized) == 0 {
		return d.dispatchForm(ctx, clientID, person)
	}
	return d.dispatchDocuments(ctx, clientID, person, recognized)
}

func (d *Dispatcher) dispatchDocuments(ctx context.Context, clientID string, person domain.Owner, docs []domain.Document) Result {
	applicantID, err := d.provider.CreateApplicant(ctx, clientID, toApplicantPerson(person))
	if err != nil {
		return d.failure(ctx, ModeDocument, fmt.Sprintf("create applicant: %v", err))
	}

	// Uploads are attempted independently; one failure does not abort the
	// others. A failed upload only logs, so the group never cancels.
	var (
		mu          sync.Mutex
		documentIDs []string
	)
	group, groupCtx := errgroup.WithContext(ctx)
	for _, doc := range docs {
		group.Go(func() error {
			docID, err := d.uploadOne(groupCtx, applicantID, doc)
			if err != nil {
				d.logger.WarnContext(groupCtx, "document upload failed",
					"client_id", clientID,
					"doc_type", doc.Type,
					"error", err,
				)
				return nil
			}
			mu.Lock()
			documentIDs = append(documentIDs, docID)
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	// Zero successful uploads means there is nothing for the provider to
	// check; report failure rather than opening an empty verification.
	if len(documentIDs) == 0 {
		return d.failure(ctx, ModeDocument, "no documents could be uploaded")
	}

	verificationID, err := d.provider.CreateVerification(ctx, applicantID, []string{VerificationTypeDocument, VerificationTypeAML})
	if err != nil {
		return d.failure(ctx, ModeDocument, fmt.Sprintf("create verification: %v", err))
	}

	if d.metrics != nil {
		d.metrics.VerificationsOpened.WithLabelValues(ModeDocument).Inc()
	}
	return Result{
		Success:        true,
		Mode:           ModeDocument,
		ApplicantID:    applicantID,
		VerificationID: verificationID,
		DocumentIDs:    documentIDs,
	}
}

func (d *Dispatcher) dispatchForm(ctx context.Context, clientID string, person domain.Owner) Result {
	applicantID, err := d.provider.CreateApplicant(ctx, clientID, toApplicantPerson(person))
	if err != nil {
		return d.failure(ctx, ModeForm, fmt.Sprintf("create applicant: %v", err))
	}
	formURL, err := d.provider.GetKYCFormURL(ctx, applicantID)
	if err != nil {
		return d.failure(ctx, ModeForm, fmt.Sprintf("get form url: %v", err))
	}
	if d.metrics != nil {
		d.metrics.VerificationsOpened.WithLabelValues(ModeForm).Inc()
	}
	return Result{
		Success:     true,
		Mode:        ModeForm,
		ApplicantID: applicantID,
		FormURL:     formURL,
	}
}

func (d *Dispatcher) uploadOne(ctx context.Context, applicantID string, doc domain.Document) (string, error) {
	data, err := d.blobs.Download(ctx, doc.FileKey)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", doc.FileKey, err)
	}
	return d.provider.UploadDocument(ctx, applicantID, ProviderDocument{
		Category: documentCategories[doc.Type],
		FileName: doc.FileName,
		MimeType: doc.MimeType,
		Data:     data,
	})
}

func (d *Dispatcher) failure(ctx context.Context, mode, reason string) Result {
	d.logger.WarnContext(ctx, "verification dispatch failed", "mode", mode, "reason", reason)
	return Result{Mode: mode, Error: reason}
}

func toApplicantPerson(person domain.Owner) ApplicantPerson {
	out := ApplicantPerson{
		FirstName: person.FirstName,
		LastName:  person.LastName,
		Email:     person.Email,
		Phone:     person.Phone,
	}
	if person.DateOfBirth != nil {
		out.DateOfBirth = *person.DateOfBirth
	}
	if person.ResidentialAddress != nil {
		out.Country = person.ResidentialAddress.Country
	}
	return out
}
