package domain

import (
	"time"
)

// Onboarding walks eight sequential steps. Steps 1-7 collect data; step 8 is
// the terminal submission that creates the client record.
const (
	StepAccountType        = 1
	StepBusinessInfo       = 2
	StepBusinessDetails    = 3
	StepBusinessOperations = 4
	StepOwners             = 5
	StepPEP                = 6
	StepDocuments          = 7
	StepSubmit             = 8
)

// AccountType selects which document requirements and review path apply.
type AccountType string

const (
	AccountTypePersonal AccountType = "personal"
	AccountTypeBusiness AccountType = "business"
	AccountTypeFintech  AccountType = "fintech"
)

// BusinessInfo is collected at step 2.
type BusinessInfo struct {
	LegalName   string `json:"legalName"`
	TradingName string `json:"tradingName,omitempty"`
	Country     string `json:"country"`
	EntityType  string `json:"entityType"`
	TaxID       string `json:"taxId"`
}

// BusinessDetails is collected at step 3.
type BusinessDetails struct {
	RegistrationNumber string  `json:"registrationNumber"`
	IncorporationDate  *string `json:"incorporationDate,omitempty"`
	Website            string  `json:"website,omitempty"`
	Address            Address `json:"address"`
}

// BusinessOperations is collected at step 4.
type BusinessOperations struct {
	Industry              string   `json:"industry"`
	MonthlyVolumeUSD      int64    `json:"monthlyVolumeUsd"`
	OperatingCountries    []string `json:"operatingCountries"`
	SourceOfFunds         string   `json:"sourceOfFunds"`
	AnticipatedCurrencies []string `json:"anticipatedCurrencies,omitempty"`
}

// PEPResponses captures the politically-exposed-person questionnaire at step 6.
type PEPResponses struct {
	AnyPEP       bool   `json:"anyPep"`
	PEPDetails   string `json:"pepDetails,omitempty"`
	AnySanctions bool   `json:"anySanctions"`
}

// Address is shared by business and residential records.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// SessionData is the typed accumulator for all step payloads. One optional
// sub-struct per step keeps the shape stable across resubmissions instead of
// letting a free-form map drift between steps.
type SessionData struct {
	AccountType        AccountType         `json:"accountType,omitempty"`
	BusinessInfo       *BusinessInfo       `json:"businessInfo,omitempty"`
	BusinessDetails    *BusinessDetails    `json:"businessDetails,omitempty"`
	BusinessOperations *BusinessOperations `json:"businessOperations,omitempty"`
	Owners             []Owner             `json:"owners,omitempty"`
	PEPResponses       *PEPResponses       `json:"pepResponses,omitempty"`
	Documents          []Document          `json:"documents,omitempty"`
}

// OnboardingSession is a persisted, in-progress onboarding attempt. The JSON
// data blob is written whole on every step; last writer wins on concurrent
// edits (a single end-user drives one session sequentially).
type OnboardingSession struct {
	ID             string
	Data           SessionData
	CurrentStep    int
	CompletedSteps []int
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasCompleted reports whether the step has been completed at least once.
func (s *OnboardingSession) HasCompleted(step int) bool {
	for _, done := range s.CompletedSteps {
		if done == step {
			return true
		}
	}
	return false
}

// MarkCompleted records a step completion, keeping the set free of duplicates.
func (s *OnboardingSession) MarkCompleted(step int) {
	if !s.HasCompleted(step) {
		s.CompletedSteps = append(s.CompletedSteps, step)
	}
}

// MissingSteps returns the steps in {1..7} not yet completed, in order.
// A session may only be finalized when this is empty.
func (s *OnboardingSession) MissingSteps() []int {
	var missing []int
	for step := StepAccountType; step < StepSubmit; step++ {
		if !s.HasCompleted(step) {
			missing = append(missing, step)
		}
	}
	return missing
}

// Expired reports whether an untouched session has passed the abandonment window.
func (s *OnboardingSession) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(s.UpdatedAt) > window
}
