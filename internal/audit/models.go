package audit

import "time"

// Action names the audited operation.
type Action string

const (
	ActionSubmissionFinalized  Action = "onboarding.submission_finalized"
	ActionVerificationOpened   Action = "kyc.verification_opened"
	ActionVerificationFailed   Action = "kyc.verification_failed"
	ActionVerificationUpdated  Action = "kyc.verification_updated"
	ActionPayoutSent           Action = "payout.sent"
	ActionPayoutSimulated      Action = "payout.simulated_completion"
	ActionAlertCreated         Action = "aml.alert_created"
	ActionSessionAbandoned     Action = "onboarding.session_abandoned"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Timestamp time.Time
	Subject   string
	Action    Action
	Outcome   string
	Detail    map[string]any
}
