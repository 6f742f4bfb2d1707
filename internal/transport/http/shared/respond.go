// Package shared centralizes JSON response envelopes so every handler renders
// errors the same way.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"fincore/pkg/apperrors"
)

// WriteJSON renders a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Detail  any    `json:"detail,omitempty"`
}

// WriteError translates domain errors to HTTP responses. Unknown errors
// collapse to a bare 500 so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		WriteJSON(w, apperrors.ToHTTPStatus(appErr.Code), errorBody{
			Error:   string(appErr.Code),
			Message: appErr.Message,
			Detail:  appErr.Detail,
		})
		return
	}
	WriteJSON(w, http.StatusInternalServerError, errorBody{Error: string(apperrors.CodeInternal)})
}
