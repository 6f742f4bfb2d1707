package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and provider clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: write conflicts with existing state
// - ErrExpired: session has passed its expiry window
// - ErrAlreadyProcessed: operation already reached a terminal state
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: external rail or provider temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/apperrors directly.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrExpired          = errors.New("expired")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrInvalidState     = errors.New("invalid state")
	ErrUnavailable      = errors.New("unavailable")
)
