package onboarding

import (
	"fmt"
	"math"

	"fincore/internal/domain"
)

// ownershipTolerance absorbs floating-point drift when percentages are summed.
const ownershipTolerance = 0.01

// OwnerError is one itemized validation failure, addressed by owner index.
type OwnerError struct {
	OwnerIndex int    `json:"ownerIndex"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

// OwnershipResult is always returned, never panicked: callers branch on Valid
// and surface Errors with field-level detail.
type OwnershipResult struct {
	Valid  bool         `json:"valid"`
	Total  float64      `json:"total"`
	Errors []OwnerError `json:"errors,omitempty"`
}

// ValidateOwnership checks that ownership percentages allocate exactly 100%
// and that each owner carries the required fields for its variant.
func ValidateOwnership(owners []domain.Owner) OwnershipResult {
	result := OwnershipResult{}

	var total float64
	for i, owner := range owners {
		total += owner.OwnershipPercentage
		result.Errors = append(result.Errors, validateOwnerFields(i, owner)...)
	}
	// Round to 2 decimals before comparing so 33.33*3 style inputs behave.
	total = math.Round(total*100) / 100
	result.Total = total

	switch {
	case len(owners) == 0 || total == 0:
		result.Errors = append(result.Errors, OwnerError{
			OwnerIndex: -1,
			Field:      "ownershipPercentage",
			Message:    "total ownership cannot be zero",
		})
	case total < 100-ownershipTolerance:
		result.Errors = append(result.Errors, OwnerError{
			OwnerIndex: -1,
			Field:      "ownershipPercentage",
			Message:    fmt.Sprintf("total ownership is %.2f%%; %.2f%% remaining to allocate", total, 100-total),
		})
	case total > 100+ownershipTolerance:
		result.Errors = append(result.Errors, OwnerError{
			OwnerIndex: -1,
			Field:      "ownershipPercentage",
			Message:    fmt.Sprintf("total ownership is %.2f%%; exceeds 100%% by %.2f%%", total, total-100),
		})
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func validateOwnerFields(index int, owner domain.Owner) []OwnerError {
	var errs []OwnerError
	add := func(field, message string) {
		errs = append(errs, OwnerError{OwnerIndex: index, Field: field, Message: message})
	}

	if owner.OwnershipPercentage < 0 || owner.OwnershipPercentage > 100 {
		add("ownershipPercentage", "must be between 0 and 100")
	}

	switch owner.Type {
	case domain.OwnerTypePerson:
		if owner.FirstName == "" && owner.LastName == "" {
			add("name", "person owner requires a name")
		}
		if owner.Email == "" {
			add("email", "person owner requires an email")
		}
		if owner.Phone == "" {
			add("phone", "person owner requires a phone number")
		}
	case domain.OwnerTypeEntity:
		if owner.EntityName == "" {
			add("entityName", "entity owner requires a name")
		}
		if owner.IncorporationCountry == "" {
			add("incorporationCountry", "entity owner requires an incorporation country")
		}
		if owner.EntityType == "" {
			add("entityType", "entity owner requires an entity type")
		}
		if owner.RegistrationNumber == "" {
			add("registrationNumber", "entity owner requires a registration number")
		}
	default:
		add("type", "owner type must be person or entity")
	}
	return errs
}
