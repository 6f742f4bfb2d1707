package payout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fincore/internal/audit"
	"fincore/internal/domain"
	"fincore/internal/ledger"
	"fincore/pkg/apperrors"
)

// stubRail returns a canned response or error.
type stubRail struct {
	resp  RailResponse
	err   error
	calls int
}

func (r *stubRail) CreatePayout(_ context.Context, _ int64, _ string, _ domain.Recipient) (RailResponse, error) {
	r.calls++
	return r.resp, r.err
}

type DispatcherSuite struct {
	suite.Suite
	ctx     context.Context
	store   *InMemoryStore
	ledgers *ledger.InMemoryStore
	rail    *stubRail
	audits  *audit.InMemoryStore
	d       *Dispatcher
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	s.ledgers = ledger.NewInMemoryStore()
	s.rail = &stubRail{resp: RailResponse{ID: "pay_1", Status: "accepted", TrackingNumber: "TRK-1"}}
	s.audits = audit.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.d = NewDispatcher(s.store, s.ledgers, s.rail, audit.NewPublisher(s.audits, nil), logger, nil)
}

// seedPayout stores a pending payout and its transaction, returning the
// payout id.
func (s *DispatcherSuite) seedPayout(recipient domain.Recipient) string {
	now := time.Now()
	tx := &domain.Transaction{
		ID:              "tx_1",
		ClientID:        "client_1",
		Status:          domain.TxStatusPayoutPending,
		SettlementAsset: "USDC",
		AmountMinor:     250_00,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(s.T(), s.store.SaveTransaction(s.ctx, tx))

	payout := &domain.PayoutRequest{
		ID:            "po_1",
		TransactionID: tx.ID,
		ClientID:      tx.ClientID,
		Recipient:     recipient,
		AmountMinor:   tx.AmountMinor,
		Status:        domain.PayoutStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(s.T(), s.store.SavePayout(s.ctx, payout))
	return payout.ID
}

func fullRecipient() domain.Recipient {
	return domain.Recipient{Name: "Ada Sow", Account: "111", Bank: "First Bank", Country: "US"}
}

func (s *DispatcherSuite) ledgerPair(txID string) []domain.LedgerEntry {
	entries, err := s.ledgers.ListByTransaction(s.ctx, txID)
	require.NoError(s.T(), err)
	return entries
}

func (s *DispatcherSuite) TestGenuineDispatchEndsSent() {
	id := s.seedPayout(fullRecipient())

	result, err := s.d.Dispatch(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.PayoutStatusSent, result.Status)
	assert.False(s.T(), result.Simulated)
	assert.Equal(s.T(), "TRK-1", result.TrackingID)

	payout, err := s.store.FindPayout(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.PayoutStatusSent, payout.Status)
	require.NotNil(s.T(), payout.TrackingID)
	assert.Equal(s.T(), "TRK-1", *payout.TrackingID)

	tx, err := s.store.FindTransaction(s.ctx, payout.TransactionID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.TxStatusPayoutSent, tx.Status)

	entries := s.ledgerPair(tx.ID)
	require.Len(s.T(), entries, 2)
	assert.Equal(s.T(), domain.LedgerDebit, entries[0].Direction)
	assert.Equal(s.T(), "client_wallet:client_1", entries[0].Account)
	assert.Equal(s.T(), domain.LedgerCredit, entries[1].Direction)
	assert.Equal(s.T(), "payout_clearing", entries[1].Account)
	assert.Equal(s.T(), "USD", entries[0].Currency)
}

func (s *DispatcherSuite) TestMissingBankSimulatesCompletion() {
	id := s.seedPayout(domain.Recipient{Name: "Ada Sow", Account: "111"}) // no bank

	result, err := s.d.Dispatch(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.PayoutStatusCompleted, result.Status)
	assert.True(s.T(), result.Simulated)
	assert.Equal(s.T(), "recipient data incomplete", result.Reason)
	assert.Zero(s.T(), s.rail.calls)

	tx, err := s.store.FindTransaction(s.ctx, "tx_1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.TxStatusPayoutCompleted, tx.Status)
	assert.Equal(s.T(), true, tx.Metadata["payoutSimulated"])
	assert.Equal(s.T(), "recipient data incomplete", tx.Metadata["payoutSimulationReason"])

	// Exactly one debit/credit pair, never zero and never double-booked.
	assert.Len(s.T(), s.ledgerPair(tx.ID), 2)
}

func (s *DispatcherSuite) TestRailErrorSimulatesCompletion() {
	s.rail.err = errors.New("connection refused")
	id := s.seedPayout(fullRecipient())

	result, err := s.d.Dispatch(s.ctx, id)
	require.NoError(s.T(), err)
	assert.True(s.T(), result.Simulated)
	assert.Contains(s.T(), result.Reason, "rail call failed")

	payout, _ := s.store.FindPayout(s.ctx, id)
	assert.Equal(s.T(), domain.PayoutStatusCompleted, payout.Status)
	assert.Len(s.T(), s.ledgerPair("tx_1"), 2)
}

func (s *DispatcherSuite) TestSimPrefixedRailIDSimulatesCompletion() {
	s.rail.resp = RailResponse{ID: "SIM-42", Status: "accepted", TrackingNumber: "SIM-TRK"}
	id := s.seedPayout(fullRecipient())

	result, err := s.d.Dispatch(s.ctx, id)
	require.NoError(s.T(), err)
	assert.True(s.T(), result.Simulated)
	assert.Contains(s.T(), result.Reason, "SIM-42")

	payout, _ := s.store.FindPayout(s.ctx, id)
	require.NotNil(s.T(), payout.TrackingID)
	assert.Equal(s.T(), "SIM-TRK", *payout.TrackingID)
}

func (s *DispatcherSuite) TestRedispatchRejectsAlreadyProcessed() {
	id := s.seedPayout(fullRecipient())
	_, err := s.d.Dispatch(s.ctx, id)
	require.NoError(s.T(), err)

	_, err = s.d.Dispatch(s.ctx, id)
	assert.True(s.T(), apperrors.Is(err, apperrors.CodeAlreadyProcessed))
	assert.Equal(s.T(), 1, s.rail.calls)
	// Still exactly one ledger pair.
	assert.Len(s.T(), s.ledgerPair("tx_1"), 2)
}

func (s *DispatcherSuite) TestUnknownPayout() {
	_, err := s.d.Dispatch(s.ctx, "missing")
	assert.True(s.T(), apperrors.Is(err, apperrors.CodeNotFound))
}

func (s *DispatcherSuite) TestSimulationEmitsAudit() {
	id := s.seedPayout(domain.Recipient{})

	_, err := s.d.Dispatch(s.ctx, id)
	require.NoError(s.T(), err)

	events, err := s.audits.ListBySubject(s.ctx, "client_1")
	require.NoError(s.T(), err)
	require.Len(s.T(), events, 1)
	assert.Equal(s.T(), audit.ActionPayoutSimulated, events[0].Action)
}
