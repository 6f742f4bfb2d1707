package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fincore/internal/client"
	"fincore/internal/domain"
	"fincore/internal/platform/middleware"
	"fincore/internal/transport/http/shared"
	"fincore/internal/verification"
	"fincore/pkg/apperrors"
	"fincore/pkg/platform/sentinel"
)

// Dispatcher is the surface of verification.Dispatcher the handler needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, clientID string, person domain.Owner, docs []domain.Document) verification.Result
}

// Handler exposes the admin KYC retry endpoint. Finalization treats
// verification as best-effort; this is the operator path for re-running it.
type Handler struct {
	clients    client.Store
	dispatcher Dispatcher
	logger     *slog.Logger
	validator  middleware.JWTValidator
}

func New(clients client.Store, dispatcher Dispatcher, logger *slog.Logger, validator middleware.JWTValidator) *Handler {
	return &Handler{clients: clients, dispatcher: dispatcher, logger: logger, validator: validator}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(g chi.Router) {
		g.Use(middleware.RequireAuth(h.validator, h.logger))
		g.Post("/admin/kyc/{clientID}/retry", h.handleRetry)
	})
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := chi.URLParam(r, "clientID")

	record, err := h.clients.FindKYCByClient(ctx, clientID)
	if errors.Is(err, sentinel.ErrNotFound) {
		shared.WriteError(w, apperrors.New(apperrors.CodeNotFound, "no KYC record for client"))
		return
	}
	if err != nil {
		shared.WriteError(w, apperrors.Wrap(apperrors.CodeInternal, "load kyc record", err))
		return
	}
	if record.Status == domain.KYCStatusApproved {
		shared.WriteError(w, apperrors.New(apperrors.CodeConflict, "client already approved"))
		return
	}

	created, err := h.clients.FindByID(ctx, clientID)
	if err != nil {
		shared.WriteError(w, apperrors.Wrap(apperrors.CodeInternal, "load client", err))
		return
	}
	person, ok := domain.PrimaryPerson(created.Owners)
	if !ok {
		shared.WriteError(w, apperrors.New(apperrors.CodeConflict, "client has no person owner to verify"))
		return
	}
	docs, err := h.clients.ListDocuments(ctx, clientID)
	if err != nil {
		shared.WriteError(w, apperrors.Wrap(apperrors.CodeInternal, "load documents", err))
		return
	}

	result := h.dispatcher.Dispatch(ctx, clientID, person, docs)
	if result.Success {
		record.ExternalApplicantID = result.ApplicantID
		record.ExternalVerificationID = result.VerificationID
		record.FormURL = result.FormURL
		record.AppendNote(time.Now(), "verification retried by "+middleware.GetSubject(ctx))
		if err := h.clients.SaveKYC(ctx, record); err != nil {
			h.logger.ErrorContext(ctx, "failed to persist retried verification",
				"client_id", clientID,
				"error", err,
			)
		}
	}
	shared.WriteJSON(w, http.StatusOK, result)
}
