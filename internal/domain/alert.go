package domain

import "time"

// AlertType classifies why a risk transition was significant, in priority
// order: blacklisted > threshold exceeded > risk increase.
type AlertType string

const (
	AlertTypeBlacklisted       AlertType = "blacklisted"
	AlertTypeThresholdExceeded AlertType = "threshold_exceeded"
	AlertTypeRiskIncrease      AlertType = "risk_increase"
)

// AlertSeverity grades an alert for triage.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// AMLAlert records a significant wallet risk transition. Append-only.
type AMLAlert struct {
	ID            string
	WalletAddress string
	Network       string
	Type          AlertType
	Severity      AlertSeverity
	PreviousScore int
	NewScore      int
	IsBlacklisted bool
	CreatedAt     time.Time
}

// WalletRisk is the cached risk state for a monitored wallet.
type WalletRisk struct {
	Address       string
	Network       string
	RiskScore     int
	IsBlacklisted bool
	UpdatedAt     time.Time
}

// ScreeningEntry records that a risk reading was processed, independent of
// whether it produced an alert.
type ScreeningEntry struct {
	ID            string
	WalletAddress string
	Network       string
	RiskScore     int
	Signals       map[string]float64
	CreatedAt     time.Time
}
