package onboarding

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fincore/internal/audit"
	"fincore/internal/client"
	"fincore/internal/domain"
	"fincore/internal/verification"
	"fincore/pkg/apperrors"
)

// stubVerifier records dispatch calls and returns a canned result.
type stubVerifier struct {
	result verification.Result
	calls  int
}

func (v *stubVerifier) Dispatch(_ context.Context, _ string, _ domain.Owner, _ []domain.Document) verification.Result {
	v.calls++
	return v.result
}

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	sessions *InMemoryStore
	clients  *client.InMemoryStore
	verifier *stubVerifier
	audits   *audit.InMemoryStore
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.sessions = NewInMemoryStore()
	s.clients = client.NewInMemoryStore()
	s.verifier = &stubVerifier{result: verification.Result{Success: true, Mode: verification.ModeDocument, VerificationID: "ver_1", ApplicantID: "app_1"}}
	s.audits = audit.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(s.sessions, s.clients, s.verifier, audit.NewPublisher(s.audits, nil), logger, nil)
}

// completeSession drives a personal-account session through steps 1-7.
func (s *ServiceSuite) completeSession() *domain.OnboardingSession {
	session, err := s.service.StartSession(s.ctx, StepPayload{AccountType: domain.AccountTypePersonal})
	require.NoError(s.T(), err)

	steps := map[int]StepPayload{
		domain.StepBusinessInfo:       {BusinessInfo: &domain.BusinessInfo{LegalName: "Ada Sow", Country: "US"}},
		domain.StepBusinessDetails:    {BusinessDetails: &domain.BusinessDetails{Address: domain.Address{Line1: "1 Main St", City: "Austin", Country: "US"}}},
		domain.StepBusinessOperations: {BusinessOperations: &domain.BusinessOperations{Industry: "software"}},
		domain.StepOwners:             {Owners: []domain.Owner{person(100)}},
		domain.StepPEP:                {PEPResponses: &domain.PEPResponses{AnyPEP: false}},
		domain.StepDocuments: {Documents: docs(
			domain.DocTypePassport, domain.DocTypeProofOfAddress, domain.DocTypeSelfie)},
	}
	for step := domain.StepBusinessInfo; step <= domain.StepDocuments; step++ {
		session, err = s.service.ProcessStep(s.ctx, session.ID, step, steps[step])
		require.NoError(s.T(), err)
	}
	return session
}

func (s *ServiceSuite) TestStartSessionRequiresAccountType() {
	_, err := s.service.StartSession(s.ctx, StepPayload{})
	assert.True(s.T(), apperrors.Is(err, apperrors.CodeBadRequest))

	_, err = s.service.StartSession(s.ctx, StepPayload{AccountType: "charity"})
	assert.True(s.T(), apperrors.Is(err, apperrors.CodeBadRequest))
}

func (s *ServiceSuite) TestStartSessionMarksStepOne() {
	session, err := s.service.StartSession(s.ctx, StepPayload{AccountType: domain.AccountTypePersonal})
	require.NoError(s.T(), err)

	assert.True(s.T(), session.IsActive)
	assert.True(s.T(), session.HasCompleted(domain.StepAccountType))
	assert.Equal(s.T(), domain.StepBusinessInfo, session.CurrentStep)
}

func (s *ServiceSuite) TestProcessStepRejectsOutOfRange() {
	session, _ := s.service.StartSession(s.ctx, StepPayload{AccountType: domain.AccountTypePersonal})

	_, err := s.service.ProcessStep(s.ctx, session.ID, 0, StepPayload{})
	assert.True(s.T(), apperrors.Is(err, apperrors.CodeBadRequest))
	_, err = s.service.ProcessStep(s.ctx, session.ID, domain.StepSubmit, StepPayload{})
	assert.True(s.T(), apperrors.Is(err, apperrors.CodeBadRequest))
}

func (s *ServiceSuite) TestProcessStepUnknownSession() {
	_, err := s.service.ProcessStep(s.ctx, "missing", domain.StepBusinessInfo, StepPayload{})
	assert.True(s.T(), apperrors.Is(err, apperrors.CodeSessionNotFound))
}

func (s *ServiceSuite) TestStepIsReentrant() {
	session := s.completeSession()

	// Resubmitting an earlier step replaces its slot wholesale and does not
	// regress the current step.
	updated, err := s.service.ProcessStep(s.ctx, session.ID, domain.StepOwners,
		StepPayload{Owners: []domain.Owner{person(60), entity(40)}})
	require.NoError(s.T(), err)
	assert.Len(s.T(), updated.Data.Owners, 2)
	assert.Equal(s.T(), domain.StepSubmit, updated.CurrentStep)
}

func (s *ServiceSuite) TestInlineOwnershipValidation() {
	session, _ := s.service.StartSession(s.ctx, StepPayload{AccountType: domain.AccountTypePersonal})

	_, err := s.service.ProcessStep(s.ctx, session.ID, domain.StepOwners,
		StepPayload{Owners: []domain.Owner{person(60), entity(30)}})
	assert.True(s.T(), apperrors.Is(err, apperrors.CodeOwnershipInvalid))
}

func (s *ServiceSuite) TestFinalizeReportsExactMissingSteps() {
	session, _ := s.service.StartSession(s.ctx, StepPayload{AccountType: domain.AccountTypePersonal})
	_, err := s.service.ProcessStep(s.ctx, session.ID, domain.StepBusinessInfo,
		StepPayload{BusinessInfo: &domain.BusinessInfo{LegalName: "Ada Sow"}})
	require.NoError(s.T(), err)

	_, err = s.service.Finalize(s.ctx, session.ID)
	require.True(s.T(), apperrors.Is(err, apperrors.CodeSessionIncomplete))

	var appErr *apperrors.Error
	require.ErrorAs(s.T(), err, &appErr)
	detail := appErr.Detail.(map[string]any)
	assert.Equal(s.T(), []int{3, 4, 5, 6, 7}, detail["missingSteps"])

	// No client record may exist after a rejected submission.
	_, findErr := s.clients.FindByID(s.ctx, session.ID)
	assert.Error(s.T(), findErr)
	assert.Zero(s.T(), s.verifier.calls)
}

func (s *ServiceSuite) TestFinalizeCreatesClientAndClosesSession() {
	session := s.completeSession()

	result, err := s.service.Finalize(s.ctx, session.ID)
	require.NoError(s.T(), err)
	require.NotEmpty(s.T(), result.ClientID)

	created, err := s.clients.FindByID(s.ctx, result.ClientID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.ClientStatusPending, created.Status)
	assert.Equal(s.T(), domain.AccountTypePersonal, created.AccountType)

	closed, err := s.sessions.FindByID(s.ctx, session.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), closed.IsActive)
	assert.True(s.T(), closed.HasCompleted(domain.StepSubmit))

	record, err := s.clients.FindKYCByClient(s.ctx, result.ClientID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "ver_1", record.ExternalVerificationID)
	assert.Equal(s.T(), "app_1", record.ExternalApplicantID)

	events, err := s.audits.ListBySubject(s.ctx, result.ClientID)
	require.NoError(s.T(), err)
	actions := make([]audit.Action, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	assert.Contains(s.T(), actions, audit.ActionSubmissionFinalized)
	assert.Contains(s.T(), actions, audit.ActionVerificationOpened)
}

func (s *ServiceSuite) TestResubmitClosedSessionCreatesNoDuplicate() {
	session := s.completeSession()
	_, err := s.service.Finalize(s.ctx, session.ID)
	require.NoError(s.T(), err)

	_, err = s.service.Finalize(s.ctx, session.ID)
	assert.True(s.T(), apperrors.Is(err, apperrors.CodeSessionClosed))
	assert.Equal(s.T(), 1, s.verifier.calls)
}

func (s *ServiceSuite) TestVerificationFailureIsNonFatal() {
	s.verifier.result = verification.Result{Success: false, Mode: verification.ModeDocument, Error: "provider unavailable"}
	session := s.completeSession()

	result, err := s.service.Finalize(s.ctx, session.ID)
	require.NoError(s.T(), err)

	record, err := s.clients.FindKYCByClient(s.ctx, result.ClientID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.KYCStatusPending, record.Status)
	assert.Empty(s.T(), record.ExternalVerificationID)

	events, _ := s.audits.ListBySubject(s.ctx, result.ClientID)
	actions := make([]audit.Action, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	assert.Contains(s.T(), actions, audit.ActionVerificationFailed)
}

func (s *ServiceSuite) TestFormVerificationSurfacesURL() {
	s.verifier.result = verification.Result{Success: true, Mode: verification.ModeForm, FormURL: "https://verify.example.com/f/abc"}
	session := s.completeSession()

	result, err := s.service.Finalize(s.ctx, session.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), result.NextSteps, 2)
	assert.Contains(s.T(), result.NextSteps[1], "https://verify.example.com/f/abc")
}

func (s *ServiceSuite) TestClientCreationFailureLeavesSessionOpen() {
	s.clients.FailCreate = true
	session := s.completeSession()

	_, err := s.service.Finalize(s.ctx, session.ID)
	require.True(s.T(), apperrors.Is(err, apperrors.CodeClientCreation))

	// The session survives the failed attempt and can be resubmitted.
	still, findErr := s.sessions.FindByID(s.ctx, session.ID)
	require.NoError(s.T(), findErr)
	assert.True(s.T(), still.IsActive)
}

func (s *ServiceSuite) TestAbandonClosesSession() {
	session, _ := s.service.StartSession(s.ctx, StepPayload{AccountType: domain.AccountTypePersonal})

	require.NoError(s.T(), s.service.Abandon(s.ctx, session.ID))

	_, err := s.service.ProcessStep(s.ctx, session.ID, domain.StepBusinessInfo, StepPayload{})
	assert.True(s.T(), apperrors.Is(err, apperrors.CodeSessionClosed))
}
