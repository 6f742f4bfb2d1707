package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"fincore/internal/audit"
	"fincore/internal/client"
	"fincore/internal/domain"
	"fincore/internal/platform/metrics"
	"fincore/internal/verification"
	"fincore/pkg/apperrors"
	"fincore/pkg/platform/sentinel"
)

var tracer = otel.Tracer("fincore/onboarding")

// Verifier opens identity verifications; finalization treats its failure as
// non-fatal.
type Verifier interface {
	Dispatch(ctx context.Context, clientID string, person domain.Owner, docs []domain.Document) verification.Result
}

// StepPayload carries one step's data. Only the sub-struct for the submitted
// step is read; the rest stay nil.
type StepPayload struct {
	AccountType        domain.AccountType         `json:"accountType,omitempty"`
	BusinessInfo       *domain.BusinessInfo       `json:"businessInfo,omitempty"`
	BusinessDetails    *domain.BusinessDetails    `json:"businessDetails,omitempty"`
	BusinessOperations *domain.BusinessOperations `json:"businessOperations,omitempty"`
	Owners             []domain.Owner             `json:"owners,omitempty"`
	PEPResponses       *domain.PEPResponses       `json:"pepResponses,omitempty"`
	Documents          []domain.Document          `json:"documents,omitempty"`
}

// FinalizeResult is returned from the terminal step for the caller to display.
type FinalizeResult struct {
	ClientID  string   `json:"clientId"`
	NextSteps []string `json:"nextSteps"`
}

// Service runs the onboarding state machine: step processing for 1-7 and the
// terminal submission for step 8.
type Service struct {
	sessions Store
	clients  client.Store
	verifier Verifier
	auditor  *audit.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(sessions Store, clients client.Store, verifier Verifier, auditor *audit.Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		sessions: sessions,
		clients:  clients,
		verifier: verifier,
		auditor:  auditor,
		logger:   logger,
		metrics:  m,
	}
}

// StartSession creates a session from a first step-1 submission.
func (s *Service) StartSession(ctx context.Context, payload StepPayload) (*domain.OnboardingSession, error) {
	if payload.AccountType == "" {
		return nil, apperrors.New(apperrors.CodeBadRequest, "accountType is required")
	}
	if !validAccountType(payload.AccountType) {
		return nil, apperrors.Newf(apperrors.CodeBadRequest, "unknown account type %q", payload.AccountType)
	}
	now := time.Now()
	session := &domain.OnboardingSession{
		ID:          uuid.NewString(),
		Data:        domain.SessionData{AccountType: payload.AccountType},
		CurrentStep: domain.StepBusinessInfo,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	session.MarkCompleted(domain.StepAccountType)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create session", err)
	}
	s.countStep(domain.StepAccountType)
	return session, nil
}

// ProcessStep merges a step payload into the session and marks the step
// complete. Steps are monotonic but re-entrant: an earlier step may be
// resubmitted and edited until finalization. Earlier steps are not
// re-validated here; cross-step validation runs at submission. Owner and
// document steps are validated inline before the merge.
func (s *Service) ProcessStep(ctx context.Context, sessionID string, step int, payload StepPayload) (*domain.OnboardingSession, error) {
	if step < domain.StepAccountType || step >= domain.StepSubmit {
		return nil, apperrors.Newf(apperrors.CodeBadRequest, "step must be between 1 and 7, got %d", step)
	}

	session, err := s.loadActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.validateStepInline(session, step, payload); err != nil {
		return nil, err
	}

	mergeStep(&session.Data, step, payload)
	session.MarkCompleted(step)
	if step+1 > session.CurrentStep {
		session.CurrentStep = step + 1
	}
	session.UpdatedAt = time.Now()

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to persist step", err)
	}
	s.countStep(step)
	return session, nil
}

// GetSession returns the current session state.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.OnboardingSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apperrors.New(apperrors.CodeSessionNotFound, "session not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load session", err)
	}
	return session, nil
}

// Abandon closes a session explicitly before its expiry window.
func (s *Service) Abandon(ctx context.Context, sessionID string) error {
	session, err := s.loadActive(ctx, sessionID)
	if err != nil {
		return err
	}
	session.IsActive = false
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to abandon session", err)
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Subject: sessionID,
		Action:  audit.ActionSessionAbandoned,
		Outcome: "closed",
	})
	return nil
}

// Finalize executes step 8, the irreversible terminal transition: validate
// completeness, create the durable client records in one transaction, open
// verification best-effort, audit, and close the session. A closed session
// cannot be re-entered.
func (s *Service) Finalize(ctx context.Context, sessionID string) (*FinalizeResult, error) {
	ctx, span := tracer.Start(ctx, "onboarding.Finalize")
	defer span.End()

	session, err := s.loadActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if missing := session.MissingSteps(); len(missing) > 0 {
		s.countRejected("incomplete")
		return nil, apperrors.New(apperrors.CodeSessionIncomplete, "session has incomplete steps").
			WithDetail(map[string]any{"missingSteps": missing})
	}

	// Cross-field invariants hold at the terminal transition even if the
	// inline step checks were bypassed by an older client.
	if result := ValidateOwnership(session.Data.Owners); !result.Valid {
		s.countRejected("ownership")
		return nil, apperrors.New(apperrors.CodeOwnershipInvalid, ownershipSummary(result)).
			WithDetail(result.Errors)
	}
	if check := CheckDocuments(session.Data.AccountType, session.Data.Documents); !check.Satisfied {
		s.countRejected("documents")
		return nil, apperrors.New(apperrors.CodeDocumentsMissing, "required documents are missing").
			WithDetail(map[string]any{"missing": check.Missing})
	}

	// Blank date strings would be rejected by date columns; null them out.
	owners := make([]domain.Owner, len(session.Data.Owners))
	copy(owners, session.Data.Owners)
	for i := range owners {
		owners[i].Normalize()
	}

	created, err := s.clients.Create(ctx, buildCreateInput(session, owners))
	if err != nil {
		s.countRejected("client_creation")
		return nil, apperrors.Wrap(apperrors.CodeClientCreation, "failed to create client", err)
	}
	span.SetAttributes(attribute.String("client.id", created.ID))

	nextSteps := []string{"Verification results will arrive by email."}
	if formURL := s.dispatchVerification(ctx, created, session); formURL != "" {
		nextSteps = append(nextSteps, "Complete identity verification: "+formURL)
	}

	_ = s.auditor.Emit(ctx, audit.Event{
		Subject: created.ID,
		Action:  audit.ActionSubmissionFinalized,
		Outcome: "created",
		Detail: map[string]any{
			"sessionId":   session.ID,
			"accountType": session.Data.AccountType,
			"ownerCount":  len(owners),
		},
	})

	// Irreversible close. After this the step processor rejects the session.
	session.IsActive = false
	session.MarkCompleted(domain.StepSubmit)
	session.CurrentStep = domain.StepSubmit
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, session); err != nil {
		// The client exists; failing the whole call now would invite a
		// duplicate submission. Log and continue.
		s.logger.ErrorContext(ctx, "failed to close session after client creation",
			"session_id", session.ID,
			"client_id", created.ID,
			"error", err,
		)
	}

	if s.metrics != nil {
		s.metrics.SubmissionsFinalized.Inc()
	}
	return &FinalizeResult{ClientID: created.ID, NextSteps: nextSteps}, nil
}

// dispatchVerification is best-effort: any failure is logged and audited but
// never rolls back client creation. KYC can be retried via the admin action.
func (s *Service) dispatchVerification(ctx context.Context, created *domain.Client, session *domain.OnboardingSession) (formURL string) {
	person, ok := domain.PrimaryPerson(session.Data.Owners)
	if !ok {
		s.logger.WarnContext(ctx, "no person owner; skipping verification",
			"client_id", created.ID)
		return ""
	}

	result := s.verifier.Dispatch(ctx, created.ID, person, session.Data.Documents)
	if !result.Success {
		_ = s.auditor.Emit(ctx, audit.Event{
			Subject: created.ID,
			Action:  audit.ActionVerificationFailed,
			Outcome: "non_fatal",
			Detail:  map[string]any{"mode": result.Mode, "error": result.Error},
		})
		s.logger.WarnContext(ctx, "verification dispatch failed; client created without KYC",
			"client_id", created.ID,
			"mode", result.Mode,
			"error", result.Error,
		)
		return ""
	}

	record, err := s.clients.FindKYCByClient(ctx, created.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "kyc record missing after client creation",
			"client_id", created.ID, "error", err)
		return result.FormURL
	}
	record.ExternalApplicantID = result.ApplicantID
	record.ExternalVerificationID = result.VerificationID
	record.FormURL = result.FormURL
	record.AppendNote(time.Now(), fmt.Sprintf("verification opened in %s mode", result.Mode))
	if err := s.clients.SaveKYC(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist verification ids",
			"client_id", created.ID, "error", err)
	}

	_ = s.auditor.Emit(ctx, audit.Event{
		Subject: created.ID,
		Action:  audit.ActionVerificationOpened,
		Outcome: result.Mode,
		Detail:  map[string]any{"verificationId": result.VerificationID},
	})
	return result.FormURL
}

func (s *Service) loadActive(ctx context.Context, sessionID string) (*domain.OnboardingSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apperrors.New(apperrors.CodeSessionNotFound, "session not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load session", err)
	}
	if !session.IsActive {
		return nil, apperrors.New(apperrors.CodeSessionClosed, "session is closed")
	}
	return session, nil
}

func (s *Service) validateStepInline(session *domain.OnboardingSession, step int, payload StepPayload) error {
	switch step {
	case domain.StepOwners:
		if result := ValidateOwnership(payload.Owners); !result.Valid {
			return apperrors.New(apperrors.CodeOwnershipInvalid, ownershipSummary(result)).
				WithDetail(result.Errors)
		}
	case domain.StepDocuments:
		if check := CheckDocuments(session.Data.AccountType, payload.Documents); !check.Satisfied {
			return apperrors.New(apperrors.CodeDocumentsMissing, "required documents are missing").
				WithDetail(map[string]any{"missing": check.Missing})
		}
	}
	return nil
}

// mergeStep overwrites the step's slot wholesale; array fields are replaced,
// not appended.
func mergeStep(data *domain.SessionData, step int, payload StepPayload) {
	switch step {
	case domain.StepAccountType:
		if payload.AccountType != "" {
			data.AccountType = payload.AccountType
		}
	case domain.StepBusinessInfo:
		data.BusinessInfo = payload.BusinessInfo
	case domain.StepBusinessDetails:
		data.BusinessDetails = payload.BusinessDetails
	case domain.StepBusinessOperations:
		data.BusinessOperations = payload.BusinessOperations
	case domain.StepOwners:
		data.Owners = payload.Owners
	case domain.StepPEP:
		data.PEPResponses = payload.PEPResponses
	case domain.StepDocuments:
		data.Documents = payload.Documents
	}
}

func buildCreateInput(session *domain.OnboardingSession, owners []domain.Owner) client.CreateInput {
	input := client.CreateInput{
		CreatorID:    session.ID,
		AccountType:  session.Data.AccountType,
		Owners:       owners,
		PEPScreening: session.Data.PEPResponses,
		Documents:    session.Data.Documents,
		Metadata:     map[string]any{"onboardingSessionId": session.ID},
	}
	if info := session.Data.BusinessInfo; info != nil {
		input.BusinessName = info.LegalName
		input.Country = info.Country
		input.EntityType = info.EntityType
		input.TaxID = info.TaxID
	}
	if details := session.Data.BusinessDetails; details != nil {
		input.Address = details.Address
	}
	return input
}

func ownershipSummary(result OwnershipResult) string {
	for _, e := range result.Errors {
		if e.OwnerIndex == -1 {
			return e.Message
		}
	}
	return "owner records failed validation"
}

func validAccountType(t domain.AccountType) bool {
	switch t {
	case domain.AccountTypePersonal, domain.AccountTypeBusiness, domain.AccountTypeFintech:
		return true
	}
	return false
}

func (s *Service) countStep(step int) {
	if s.metrics != nil {
		s.metrics.StepsProcessed.WithLabelValues(strconv.Itoa(step)).Inc()
	}
}

func (s *Service) countRejected(reason string) {
	if s.metrics != nil {
		s.metrics.SubmissionsRejected.WithLabelValues(reason).Inc()
	}
}
