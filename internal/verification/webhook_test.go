package verification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fincore/internal/audit"
	"fincore/internal/client"
	"fincore/internal/domain"
	"fincore/internal/platform/dedup"
)

type WebhookSuite struct {
	suite.Suite
	ctx     context.Context
	clients *client.InMemoryStore
	audits  *audit.InMemoryStore
	handler *WebhookHandler
}

func TestWebhookSuite(t *testing.T) {
	suite.Run(t, new(WebhookSuite))
}

func (s *WebhookSuite) SetupTest() {
	s.ctx = context.Background()
	s.clients = client.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.audits = audit.NewInMemoryStore()
	s.handler = NewWebhookHandler(s.clients, dedup.NewMemoryDeduper(),
		audit.NewPublisher(s.audits, nil), "topsecret", true, logger, nil)
}

// seedClient creates a client whose KYC record carries the verification id
// the webhook will reference.
func (s *WebhookSuite) seedClient(verificationID string) string {
	created, err := s.clients.Create(s.ctx, client.CreateInput{
		CreatorID:   "session_1",
		AccountType: domain.AccountTypePersonal,
		Owners:      []domain.Owner{{Type: domain.OwnerTypePerson, FirstName: "Ada"}},
	})
	require.NoError(s.T(), err)

	record, err := s.clients.FindKYCByClient(s.ctx, created.ID)
	require.NoError(s.T(), err)
	record.ExternalVerificationID = verificationID
	require.NoError(s.T(), s.clients.SaveKYC(s.ctx, record))
	return created.ID
}

func (s *WebhookSuite) deliver(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/verification", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *WebhookSuite) TestCompletedVerifiedActivatesClient() {
	clientID := s.seedClient("ver_100")

	w := s.deliver(`{"id":"evt_1","event":"verification.completed","data":{"verification_id":"ver_100","status":"completed","result":"clear","verified":true,"risk_score":12}}`)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	record, err := s.clients.FindKYCByClient(s.ctx, clientID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.KYCStatusApproved, record.Status)
	require.NotNil(s.T(), record.RiskScore)
	assert.Equal(s.T(), 12, *record.RiskScore)
	assert.NotEmpty(s.T(), record.Notes)

	created, err := s.clients.FindByID(s.ctx, clientID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.ClientStatusActive, created.Status)
}

func (s *WebhookSuite) TestVerifiedTrueWinsOverContradictoryResult() {
	clientID := s.seedClient("ver_101")

	s.deliver(`{"id":"evt_2","event":"verification.completed","data":{"verification_id":"ver_101","status":"completed","result":"declined","verified":true}}`)

	record, err := s.clients.FindKYCByClient(s.ctx, clientID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.KYCStatusApproved, record.Status)
}

func (s *WebhookSuite) TestUpdatedReviewDoesNotActivate() {
	clientID := s.seedClient("ver_102")

	s.deliver(`{"id":"evt_3","event":"verification.updated","data":{"verification_id":"ver_102","status":"in_review"}}`)

	record, err := s.clients.FindKYCByClient(s.ctx, clientID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.KYCStatusUnderReview, record.Status)

	created, err := s.clients.FindByID(s.ctx, clientID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.ClientStatusPending, created.Status)
}

func (s *WebhookSuite) TestFailedForcesRejection() {
	clientID := s.seedClient("ver_103")

	s.deliver(`{"id":"evt_4","event":"verification.failed","data":{"verification_id":"ver_103","status":"failed"}}`)

	record, err := s.clients.FindKYCByClient(s.ctx, clientID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.KYCStatusRejected, record.Status)
}

func (s *WebhookSuite) TestUnknownVerificationIDStillAcks() {
	w := s.deliver(`{"id":"evt_5","event":"verification.completed","data":{"verification_id":"ver_unknown","status":"completed"}}`)
	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *WebhookSuite) TestStructurallyInvalidPayloadRejected() {
	assert.Equal(s.T(), http.StatusBadRequest, s.deliver(`not json`).Code)
	assert.Equal(s.T(), http.StatusBadRequest, s.deliver(`{"event":"verification.completed","data":{}}`).Code)
}

func (s *WebhookSuite) TestDuplicateDeliveryProcessedOnce() {
	clientID := s.seedClient("ver_104")
	payload := `{"id":"evt_6","event":"verification.completed","data":{"verification_id":"ver_104","status":"completed","verified":true}}`

	assert.Equal(s.T(), http.StatusOK, s.deliver(payload).Code)
	assert.Equal(s.T(), http.StatusOK, s.deliver(payload).Code)

	record, err := s.clients.FindKYCByClient(s.ctx, clientID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), record.Notes, 1)
}

func (s *WebhookSuite) TestSignatureRequiredOutsideDev() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	strict := NewWebhookHandler(s.clients, dedup.NewMemoryDeduper(), nil, "topsecret", false, logger, nil)
	body := []byte(`{"id":"evt_7","event":"verification.completed","data":{"verification_id":"ver_105","status":"completed"}}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/verification", bytes.NewReader(body))
	w := httptest.NewRecorder()
	strict.ServeHTTP(w, req)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(body)
	signed := httptest.NewRequest(http.MethodPost, "/webhooks/verification", bytes.NewReader(body))
	signed.Header.Set("X-Verification-Signature", hex.EncodeToString(mac.Sum(nil)))
	w = httptest.NewRecorder()
	strict.ServeHTTP(w, signed)
	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *WebhookSuite) TestStatusChangeLeavesAuditTrail() {
	clientID := s.seedClient("ver_107")

	s.deliver(`{"id":"evt_8","event":"verification.completed","data":{"verification_id":"ver_107","status":"completed","verified":true}}`)

	events, err := s.audits.ListBySubject(s.ctx, clientID)
	require.NoError(s.T(), err)
	require.Len(s.T(), events, 1)
	assert.Equal(s.T(), audit.ActionVerificationUpdated, events[0].Action)
	assert.Equal(s.T(), string(domain.KYCStatusApproved), events[0].Outcome)
}

func (s *WebhookSuite) TestDedupFallsBackToCompositeKey() {
	// Without an event id, replays of the same (id, event, status) triple
	// still collapse to one processing pass.
	clientID := s.seedClient("ver_106")
	payload := `{"event":"verification.updated","data":{"verification_id":"ver_106","status":"in_review"}}`

	for i := 0; i < 3; i++ {
		require.Equal(s.T(), http.StatusOK, s.deliver(payload).Code, fmt.Sprintf("delivery %d", i))
	}

	record, err := s.clients.FindKYCByClient(s.ctx, clientID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), record.Notes, 1)
}
