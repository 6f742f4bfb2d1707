// Package httptransport assembles the public HTTP surface: feature routers,
// webhook callbacks, health and metrics endpoints, and the shared middleware
// chain.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fincore/internal/platform/metrics"
	"fincore/internal/platform/middleware"
	"fincore/internal/transport/http/shared"
)

// HealthChecker reports readiness of a backing resource.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Registrar mounts a feature's routes onto the shared router.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router mounts. Nil health checkers and webhook
// handlers are skipped so tests and partial deployments can wire subsets.
type Deps struct {
	Onboarding   Registrar
	Payouts      Registrar
	Verification Registrar

	VerificationWebhook http.Handler
	RiskWebhook         http.Handler

	Postgres HealthChecker
	Redis    HealthChecker

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// NewRouter wires the middleware chain and mounts all endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.LatencyMiddleware(deps.Metrics))

	r.Get("/healthz", healthHandler(deps))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(30 * time.Second))
		api.Use(middleware.ContentTypeJSON)

		for _, reg := range []Registrar{deps.Onboarding, deps.Payouts, deps.Verification} {
			if reg != nil {
				reg.Register(api)
			}
		}

		if deps.VerificationWebhook != nil {
			api.Method(http.MethodPost, "/webhooks/verification", deps.VerificationWebhook)
		}
		if deps.RiskWebhook != nil {
			api.Method(http.MethodPost, "/webhooks/risk", deps.RiskWebhook)
		}
	})

	return r
}

func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		for name, checker := range map[string]HealthChecker{
			"postgres": deps.Postgres,
			"redis":    deps.Redis,
		} {
			if checker == nil {
				continue
			}
			if err := checker.Health(ctx); err != nil {
				checks[name] = "unhealthy"
				healthy = false
				continue
			}
			checks[name] = "ok"
		}

		status := http.StatusOK
		state := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		shared.WriteJSON(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	}
}
