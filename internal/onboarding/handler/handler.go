package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fincore/internal/domain"
	"fincore/internal/onboarding"
	"fincore/internal/platform/metrics"
	"fincore/internal/platform/middleware"
	"fincore/internal/transport/http/shared"
	"fincore/pkg/apperrors"
)

// Handler exposes the onboarding session endpoints.
type Handler struct {
	service *onboarding.Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(service *onboarding.Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{service: service, logger: logger, metrics: m}
}

// Register mounts the onboarding routes. The sessions flow is unauthenticated
// by design: applicants have no credentials yet.
func (h *Handler) Register(r chi.Router) {
	r.Post("/onboarding/sessions", h.handleStart)
	r.Get("/onboarding/sessions/{sessionID}", h.handleGet)
	r.Post("/onboarding/sessions/{sessionID}/steps/{step}", h.handleStep)
	r.Post("/onboarding/sessions/{sessionID}/submit", h.handleSubmit)
	r.Post("/onboarding/sessions/{sessionID}/abandon", h.handleAbandon)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var payload onboarding.StepPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		shared.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "invalid request body"))
		return
	}
	session, err := h.service.StartSession(r.Context(), payload)
	if err != nil {
		h.warn(r, "start session rejected", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, sessionResponse(session))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sessionResponse(session))
}

func (h *Handler) handleStep(w http.ResponseWriter, r *http.Request) {
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		shared.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "step must be a number"))
		return
	}
	var payload onboarding.StepPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		shared.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "invalid request body"))
		return
	}
	session, err := h.service.ProcessStep(r.Context(), chi.URLParam(r, "sessionID"), step, payload)
	if err != nil {
		h.warn(r, "step rejected", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sessionResponse(session))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Finalize(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.warn(r, "submission rejected", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Abandon(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"abandoned": true})
}

func (h *Handler) warn(r *http.Request, msg string, err error) {
	h.logger.WarnContext(r.Context(), msg,
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err.Error(),
	)
}

type sessionView struct {
	ID             string             `json:"id"`
	CurrentStep    int                `json:"currentStep"`
	CompletedSteps []int              `json:"completedSteps"`
	IsActive       bool               `json:"isActive"`
	Data           domain.SessionData `json:"data"`
}

func sessionResponse(session *domain.OnboardingSession) sessionView {
	return sessionView{
		ID:             session.ID,
		CurrentStep:    session.CurrentStep,
		CompletedSteps: session.CompletedSteps,
		IsActive:       session.IsActive,
		Data:           session.Data,
	}
}
