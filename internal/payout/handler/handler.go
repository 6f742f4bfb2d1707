package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fincore/internal/payout"
	"fincore/internal/platform/metrics"
	"fincore/internal/platform/middleware"
	"fincore/internal/transport/http/shared"
)

// Handler exposes the payout dispatch endpoint.
type Handler struct {
	dispatcher *payout.Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	validator  middleware.JWTValidator
}

func New(dispatcher *payout.Dispatcher, logger *slog.Logger, m *metrics.Metrics, validator middleware.JWTValidator) *Handler {
	return &Handler{dispatcher: dispatcher, logger: logger, metrics: m, validator: validator}
}

// Register mounts the payout routes. Dispatch moves money, so it sits behind
// operator auth.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(g chi.Router) {
		g.Use(middleware.RequireAuth(h.validator, h.logger))
		g.Post("/payouts/{payoutID}/dispatch", h.handleDispatch)
	})
}

func (h *Handler) handleDispatch(w http.ResponseWriter, r *http.Request) {
	result, err := h.dispatcher.Dispatch(r.Context(), chi.URLParam(r, "payoutID"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "payout dispatch rejected",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}
