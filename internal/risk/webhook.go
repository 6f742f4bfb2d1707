package risk

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fincore/internal/audit"
	"fincore/internal/domain"
	"fincore/internal/platform/dedup"
	"fincore/internal/platform/metrics"
	"fincore/pkg/platform/sentinel"
)

const (
	signatureHeader = "X-Amlbot-Check"
	tonceHeader     = "X-Amlbot-Tonce"
	dedupWindow     = 24 * time.Hour

	// A score movement below this many points is noise, not an alert.
	significantDelta = 10
)

// WebhookEvent is the monitoring provider's wallet risk callback.
type WebhookEvent struct {
	Address           string             `json:"address"`
	Network           string             `json:"network"`
	RiskScore         int                `json:"riskScore"`
	PreviousRiskScore *int               `json:"previousRiskScore"`
	Signals           map[string]float64 `json:"signals"`
	IsBlacklisted     bool               `json:"isBlacklisted"`
	UID               string             `json:"uid"`
}

// WebhookHandler receives wallet risk-score changes and decides whether the
// transition warrants an AML alert. The alert insert, the wallet risk update,
// and the screening entry are independent best-effort writes: a failure in
// one never blocks the others.
type WebhookHandler struct {
	store   Store
	cache   Cache
	deduper dedup.Deduper
	auditor *audit.Publisher
	secret  string
	devMode bool

	// alertThreshold is the absolute score at or above which every reading
	// is significant.
	alertThreshold int

	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewWebhookHandler(store Store, cache Cache, deduper dedup.Deduper, auditor *audit.Publisher, secret string, devMode bool, threshold int, logger *slog.Logger, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{
		store:          store,
		cache:          cache,
		deduper:        deduper,
		auditor:        auditor,
		secret:         secret,
		devMode:        devMode,
		alertThreshold: threshold,
		logger:         logger,
		metrics:        m,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"bad_request"}`, http.StatusBadRequest)
		return
	}

	if !h.devMode {
		if !verifySignedBody(h.secret, r.Header.Get(tonceHeader), body, r.Header.Get(signatureHeader)) {
			h.count("rejected_signature")
			h.logger.WarnContext(ctx, "risk webhook signature rejected")
			http.Error(w, `{"error":"webhook_unverified_signature"}`, http.StatusUnauthorized)
			return
		}
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil || event.Address == "" {
		http.Error(w, `{"error":"bad_request"}`, http.StatusBadRequest)
		return
	}

	// Structurally valid from here on: the provider always gets its 200.
	defer func() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"received":true}`))
	}()

	if h.deduper != nil && event.UID != "" {
		seen, err := h.deduper.Seen(ctx, "risk:"+event.UID, dedupWindow)
		if err != nil {
			h.logger.WarnContext(ctx, "webhook dedup check failed, processing anyway", "error", err)
		} else if seen {
			h.count("duplicate")
			return
		}
	}

	h.process(ctx, event)
	h.count("processed")
}

// process applies one risk reading. Each write logs its own failure and the
// remaining writes still run.
func (h *WebhookHandler) process(ctx context.Context, event WebhookEvent) {
	now := time.Now()
	previous := h.previousScore(ctx, event)

	if alertType, significant := classify(event, previous, h.alertThreshold); significant {
		alert := domain.AMLAlert{
			ID:            uuid.NewString(),
			WalletAddress: event.Address,
			Network:       event.Network,
			Type:          alertType,
			Severity:      severity(event.RiskScore, event.IsBlacklisted, h.alertThreshold),
			PreviousScore: previous,
			NewScore:      event.RiskScore,
			IsBlacklisted: event.IsBlacklisted,
			CreatedAt:     now,
		}
		if err := h.store.InsertAlert(ctx, alert); err != nil {
			h.logger.ErrorContext(ctx, "alert insert failed",
				"wallet", event.Address, "type", alertType, "error", err)
		} else {
			if h.metrics != nil {
				h.metrics.AlertsCreated.WithLabelValues(string(alertType)).Inc()
			}
			if h.auditor != nil {
				_ = h.auditor.Emit(ctx, audit.Event{
					Subject: event.Address,
					Action:  audit.ActionAlertCreated,
					Outcome: "created",
					Detail: map[string]any{
						"type":           string(alertType),
						"previous_score": previous,
						"new_score":      event.RiskScore,
					},
				})
			}
		}
	}

	risk := domain.WalletRisk{
		Address:       event.Address,
		Network:       event.Network,
		RiskScore:     event.RiskScore,
		IsBlacklisted: event.IsBlacklisted,
		UpdatedAt:     now,
	}
	if err := h.store.SaveWalletRisk(ctx, risk); err != nil {
		h.logger.ErrorContext(ctx, "wallet risk update failed", "wallet", event.Address, "error", err)
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, risk); err != nil {
			h.logger.WarnContext(ctx, "wallet risk cache update failed", "wallet", event.Address, "error", err)
		}
	}

	if err := h.store.InsertScreening(ctx, domain.ScreeningEntry{
		ID:            uuid.NewString(),
		WalletAddress: event.Address,
		Network:       event.Network,
		RiskScore:     event.RiskScore,
		Signals:       event.Signals,
		CreatedAt:     now,
	}); err != nil {
		h.logger.ErrorContext(ctx, "screening insert failed", "wallet", event.Address, "error", err)
	}
}

// previousScore prefers the provider's own previous reading, then the cache,
// then the durable store. Returns the current score when no prior reading
// exists so a first sighting never trips the delta rule.
func (h *WebhookHandler) previousScore(ctx context.Context, event WebhookEvent) int {
	if event.PreviousRiskScore != nil {
		return *event.PreviousRiskScore
	}
	if h.cache != nil {
		if risk, err := h.cache.Get(ctx, event.Address); err == nil {
			return risk.RiskScore
		}
	}
	risk, err := h.store.FindWalletRisk(ctx, event.Address)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			h.logger.WarnContext(ctx, "wallet risk lookup failed", "wallet", event.Address, "error", err)
		}
		return event.RiskScore
	}
	return risk.RiskScore
}

// classify decides whether a reading is significant and, if so, which single
// alert type applies. Blacklisting outranks the absolute threshold, which
// outranks a large delta.
func classify(event WebhookEvent, previous, threshold int) (domain.AlertType, bool) {
	switch {
	case event.IsBlacklisted:
		return domain.AlertTypeBlacklisted, true
	case event.RiskScore >= threshold:
		return domain.AlertTypeThresholdExceeded, true
	case event.RiskScore-previous >= significantDelta:
		return domain.AlertTypeRiskIncrease, true
	default:
		return "", false
	}
}

func severity(score int, blacklisted bool, threshold int) domain.AlertSeverity {
	switch {
	case blacklisted:
		return domain.SeverityCritical
	case score >= 90:
		return domain.SeverityCritical
	case score >= threshold:
		return domain.SeverityHigh
	case score >= 50:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func (h *WebhookHandler) count(disposition string) {
	if h.metrics != nil {
		h.metrics.WebhooksReceived.WithLabelValues("risk", disposition).Inc()
	}
}

// verifySignedBody checks the provider's nonce-bound HMAC: the signature is
// hex(HMAC-SHA256(secret, tonce || body)).
func verifySignedBody(secret, tonce string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(tonce))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
