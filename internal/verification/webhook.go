package verification

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"fincore/internal/audit"
	"fincore/internal/client"
	"fincore/internal/domain"
	"fincore/internal/platform/dedup"
	"fincore/internal/platform/metrics"
)

const (
	webhookSignatureHeader = "X-Verification-Signature"
	dedupWindow            = 24 * time.Hour
)

// WebhookEvent is the provider's callback payload.
type WebhookEvent struct {
	ID    string `json:"id"`
	Event string `json:"event"`
	Data  struct {
		VerificationID string `json:"verification_id"`
		ApplicantID    string `json:"applicant_id"`
		Status         string `json:"status"`
		Result         string `json:"result"`
		Verified       *bool  `json:"verified"`
		RiskScore      *int   `json:"risk_score"`
	} `json:"data"`
}

// WebhookHandler receives asynchronous verification results. It is stateless:
// each event is keyed by external verification id onto a KYC record. Once a
// payload is structurally valid the handler answers 200 even if internal
// processing fails, to avoid provider retry storms.
type WebhookHandler struct {
	clients client.Store
	deduper dedup.Deduper
	auditor *audit.Publisher
	secret  string
	devMode bool
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewWebhookHandler(clients client.Store, deduper dedup.Deduper, auditor *audit.Publisher, secret string, devMode bool, logger *slog.Logger, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{
		clients: clients,
		deduper: deduper,
		auditor: auditor,
		secret:  secret,
		devMode: devMode,
		logger:  logger,
		metrics: m,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"bad_request"}`, http.StatusBadRequest)
		return
	}

	// Signature verification is mandatory outside local development.
	if !h.devMode {
		if !verifySignature(h.secret, body, r.Header.Get(webhookSignatureHeader)) {
			h.count("rejected_signature")
			h.logger.WarnContext(ctx, "verification webhook signature rejected")
			http.Error(w, `{"error":"webhook_unverified_signature"}`, http.StatusUnauthorized)
			return
		}
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil || event.Data.VerificationID == "" {
		http.Error(w, `{"error":"bad_request"}`, http.StatusBadRequest)
		return
	}

	// From here on the payload is structurally valid: always acknowledge.
	defer func() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"received":true}`))
	}()

	if h.deduper != nil {
		seen, err := h.deduper.Seen(ctx, dedupKey(event), dedupWindow)
		if err != nil {
			h.logger.WarnContext(ctx, "webhook dedup check failed, processing anyway", "error", err)
		} else if seen {
			h.count("duplicate")
			return
		}
	}

	if err := h.process(r.Context(), event); err != nil {
		// Logged server-side only; the provider still gets its 200.
		h.count("process_error")
		h.logger.ErrorContext(ctx, "verification webhook processing failed",
			"event", event.Event,
			"verification_id", event.Data.VerificationID,
			"error", err,
		)
		return
	}
	h.count("processed")
}

func (h *WebhookHandler) process(ctx context.Context, event WebhookEvent) error {
	record, err := h.clients.FindKYCByVerificationID(ctx, event.Data.VerificationID)
	if err != nil {
		// Unknown verification ids are acknowledged but not processed, so
		// the provider does not retry-storm on records we cannot find.
		h.count("unknown_id")
		h.logger.Warn("verification webhook for unknown verification id",
			"verification_id", event.Data.VerificationID)
		return nil
	}

	now := time.Now()
	switch event.Event {
	case "verification.completed", "verification.updated":
		status := MapStatus(event.Data.Status, event.Data.Verified, event.Data.Result)
		record.Status = status
		if event.Data.RiskScore != nil {
			record.RiskScore = event.Data.RiskScore
		}
		record.AppendNote(now, fmt.Sprintf("%s: status=%s result=%s -> %s",
			event.Event, event.Data.Status, event.Data.Result, status))
		if err := h.clients.SaveKYC(ctx, record); err != nil {
			return fmt.Errorf("save kyc: %w", err)
		}
		if status == domain.KYCStatusApproved {
			if err := h.clients.Activate(ctx, record.ClientID); err != nil {
				return fmt.Errorf("activate client: %w", err)
			}
		}
		h.emit(ctx, record.ClientID, string(status), event)
	case "verification.failed":
		// Forced terminal rejection regardless of prior state.
		record.Status = domain.KYCStatusRejected
		record.AppendNote(now, "verification.failed: provider reported failure")
		if err := h.clients.SaveKYC(ctx, record); err != nil {
			return fmt.Errorf("save kyc: %w", err)
		}
		h.emit(ctx, record.ClientID, string(domain.KYCStatusRejected), event)
	default:
		h.logger.Warn("ignoring unrecognized verification event", "event", event.Event)
	}
	return nil
}

func (h *WebhookHandler) emit(ctx context.Context, clientID, outcome string, event WebhookEvent) {
	if h.auditor == nil {
		return
	}
	if err := h.auditor.Emit(ctx, audit.Event{
		Subject: clientID,
		Action:  audit.ActionVerificationUpdated,
		Outcome: outcome,
		Detail: map[string]any{
			"event":          event.Event,
			"verificationId": event.Data.VerificationID,
		},
	}); err != nil {
		h.logger.WarnContext(ctx, "audit emit failed", "error", err)
	}
}

func (h *WebhookHandler) count(disposition string) {
	if h.metrics != nil {
		h.metrics.WebhooksReceived.WithLabelValues("verification", disposition).Inc()
	}
}

func dedupKey(event WebhookEvent) string {
	if event.ID != "" {
		return "verification:" + event.ID
	}
	return "verification:" + event.Data.VerificationID + ":" + event.Event + ":" + event.Data.Status
}

func verifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
