// Package apperrors defines coded domain errors shared across features.
//
// Services return *Error values for anything a caller can act on; the HTTP
// layer translates codes to status codes in one place. Infra facts (missing
// rows, conflicts) use pkg/platform/sentinel instead and get wrapped here at
// the service boundary.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category stable enough to appear in API responses.
type Code string

const (
	CodeBadRequest        Code = "bad_request"
	CodeUnauthorized      Code = "unauthorized"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeSessionNotFound   Code = "session_not_found"
	CodeSessionIncomplete Code = "session_incomplete"
	CodeSessionClosed     Code = "session_closed"
	CodeOwnershipInvalid  Code = "ownership_invalid"
	CodeDocumentsMissing  Code = "documents_missing"
	CodeClientCreation    Code = "client_creation_failed"
	CodeAlreadyProcessed  Code = "already_processed"
	CodeWebhookUnverified Code = "webhook_unverified_signature"
	CodeInternal          Code = "internal"
)

// Error carries a code, a human-readable message, and optional field-level
// detail (missing steps, per-owner validation errors).
type Error struct {
	Code    Code
	Message string
	Detail  any
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with a message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause so errors.Is/As keep working through the boundary.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithDetail returns a copy carrying structured detail for the response body.
func (e *Error) WithDetail(detail any) *Error {
	out := *e
	out.Detail = detail
	return &out
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// ToHTTPStatus maps codes onto HTTP statuses for the transport layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeOwnershipInvalid, CodeDocumentsMissing:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeWebhookUnverified:
		return http.StatusUnauthorized
	case CodeNotFound, CodeSessionNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeSessionClosed, CodeAlreadyProcessed:
		return http.StatusConflict
	case CodeSessionIncomplete:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
