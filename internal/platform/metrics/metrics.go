package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	StepsProcessed       *prometheus.CounterVec
	SubmissionsFinalized prometheus.Counter
	SubmissionsRejected  *prometheus.CounterVec
	VerificationsOpened  *prometheus.CounterVec
	PayoutsDispatched    *prometheus.CounterVec
	WebhooksReceived     *prometheus.CounterVec
	AlertsCreated        *prometheus.CounterVec
	RequestLatency       *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		StepsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fincore_onboarding_steps_processed_total",
			Help: "Onboarding steps processed, labeled by step number.",
		}, []string{"step"}),
		SubmissionsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fincore_onboarding_submissions_finalized_total",
			Help: "Onboarding sessions finalized into client records.",
		}),
		SubmissionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fincore_onboarding_submissions_rejected_total",
			Help: "Final submissions rejected, labeled by reason.",
		}, []string{"reason"}),
		VerificationsOpened: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fincore_verifications_opened_total",
			Help: "Verifications opened against the provider, labeled by mode.",
		}, []string{"mode"}),
		PayoutsDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fincore_payouts_dispatched_total",
			Help: "Payout dispatch outcomes, labeled by result (sent, simulated, rejected).",
		}, []string{"result"}),
		WebhooksReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fincore_webhooks_received_total",
			Help: "Webhook deliveries, labeled by provider and disposition.",
		}, []string{"provider", "disposition"}),
		AlertsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fincore_aml_alerts_created_total",
			Help: "AML alerts created, labeled by alert type.",
		}, []string{"type"}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fincore_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
