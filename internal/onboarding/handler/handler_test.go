package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fincore/internal/audit"
	"fincore/internal/client"
	"fincore/internal/domain"
	"fincore/internal/onboarding"
	"fincore/internal/verification"
	"fincore/pkg/testutil"
)

type stubVerifier struct{}

func (stubVerifier) Dispatch(context.Context, string, domain.Owner, []domain.Document) verification.Result {
	return verification.Result{Success: true, Mode: verification.ModeDocument, VerificationID: "ver_1"}
}

type HandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := onboarding.NewService(
		onboarding.NewInMemoryStore(),
		client.NewInMemoryStore(),
		stubVerifier{},
		audit.NewPublisher(audit.NewInMemoryStore(), nil),
		logger,
		nil,
	)
	s.router = chi.NewRouter()
	New(service, logger, nil).Register(s.router)
}

func (s *HandlerSuite) startSession() string {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/onboarding/sessions",
		map[string]string{"accountType": "personal"})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	view := testutil.UnmarshalResponse[sessionView](s.T(), rr)
	require.NotEmpty(s.T(), view.ID)
	return view.ID
}

func (s *HandlerSuite) TestStartSession() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/onboarding/sessions",
		map[string]string{"accountType": "business"})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	view := testutil.UnmarshalResponse[sessionView](s.T(), rr)
	assert.Equal(s.T(), 2, view.CurrentStep)
	assert.Equal(s.T(), []int{1}, view.CompletedSteps)
	assert.True(s.T(), view.IsActive)
}

func (s *HandlerSuite) TestStartSessionRejectsUnknownType() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/onboarding/sessions",
		map[string]string{"accountType": "charity"})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertErrorCode(s.T(), rr, "bad_request")
}

func (s *HandlerSuite) TestProcessStepAndFetch() {
	id := s.startSession()

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/onboarding/sessions/"+id+"/steps/2",
		map[string]any{"businessInfo": map[string]string{"legalName": "Ada Sow", "country": "US"}})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/onboarding/sessions/"+id, nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	view := testutil.UnmarshalResponse[sessionView](s.T(), rr)
	require.NotNil(s.T(), view.Data.BusinessInfo)
	assert.Equal(s.T(), "Ada Sow", view.Data.BusinessInfo.LegalName)
	assert.ElementsMatch(s.T(), []int{1, 2}, view.CompletedSteps)
}

func (s *HandlerSuite) TestStepMustBeNumeric() {
	id := s.startSession()
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/onboarding/sessions/"+id+"/steps/two", map[string]any{})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlerSuite) TestSubmitIncompleteReturns422() {
	id := s.startSession()

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/onboarding/sessions/"+id+"/submit", nil))

	testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
	testutil.AssertErrorCode(s.T(), rr, "session_incomplete")
}

func (s *HandlerSuite) TestUnknownSessionReturns404() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/onboarding/sessions/missing", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	testutil.AssertErrorCode(s.T(), rr, "session_not_found")
}

// TestFullPersonalFlow drives a personal account through every step over HTTP
// and submits it.
func TestFullPersonalFlow(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clients := client.NewInMemoryStore()
	service := onboarding.NewService(
		onboarding.NewInMemoryStore(),
		clients,
		stubVerifier{},
		audit.NewPublisher(audit.NewInMemoryStore(), nil),
		logger,
		nil,
	)
	router := chi.NewRouter()
	New(service, logger, nil).Register(router)

	var sessionID string
	testutil.Given(t, "a session with all seven steps completed", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/onboarding/sessions",
			map[string]any{"accountType": "personal"}))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		sessionID = testutil.UnmarshalResponse[sessionView](t, rr).ID

		steps := map[int]map[string]any{
			2: {"businessInfo": map[string]any{
				"legalName": "Ada Lovelace", "country": "GB", "entityType": "sole_trader", "taxId": "GB42",
			}},
			3: {"businessDetails": map[string]any{
				"registrationNumber": "n/a",
				"address": map[string]any{
					"line1": "1 Analytical Way", "city": "London", "postalCode": "EC1", "country": "GB",
				},
			}},
			4: {"businessOperations": map[string]any{
				"industry": "software", "monthlyVolumeUsd": 5000,
				"operatingCountries": []string{"GB"}, "sourceOfFunds": "salary",
			}},
			5: {"owners": []map[string]any{{
				"type": "person", "firstName": "Ada", "lastName": "Lovelace",
				"email": "ada@example.com", "phone": "+44 20 0000 0000",
				"ownershipPercentage": 100,
			}}},
			6: {"pepResponses": map[string]any{"anyPep": false, "anySanctions": false}},
			7: {"documents": []map[string]any{
				{"type": "passport", "fileKey": "k1", "size": 100, "mimeType": "image/png"},
				{"type": "proof_of_address", "fileKey": "k2", "size": 100, "mimeType": "application/pdf"},
				{"type": "selfie", "fileKey": "k3", "size": 100, "mimeType": "image/png"},
			}},
		}
		for step := 2; step <= 7; step++ {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
				fmt.Sprintf("/onboarding/sessions/%s/steps/%d", sessionID, step), steps[step]))
			testutil.AssertStatus(t, rr, http.StatusOK)
		}
	})

	var clientID string
	testutil.When(t, "the session is submitted", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
			"/onboarding/sessions/"+sessionID+"/submit", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
		result := testutil.UnmarshalResponse[onboarding.FinalizeResult](t, rr)
		clientID = result.ClientID
		require.NotEmpty(t, clientID)
	})

	testutil.Then(t, "a client record exists and the session is closed", func(t *testing.T) {
		created, err := clients.FindByID(context.Background(), clientID)
		require.NoError(t, err)
		assert.Equal(t, domain.AccountTypePersonal, created.AccountType)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
			"/onboarding/sessions/"+sessionID+"/submit", nil))
		testutil.AssertStatus(t, rr, http.StatusConflict)
		testutil.AssertErrorCode(t, rr, "session_closed")
	})
}

func (s *HandlerSuite) TestAbandonThenStepReturnsConflict() {
	id := s.startSession()

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/onboarding/sessions/"+id+"/abandon", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/onboarding/sessions/"+id+"/steps/2", map[string]any{})
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusConflict)
	testutil.AssertErrorCode(s.T(), rr, "session_closed")
}
