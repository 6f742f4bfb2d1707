package verification

import "fincore/internal/domain"

// MapStatus translates the provider's (status, verified, result) triple into
// the internal KYC vocabulary. Precedence is fixed: an explicit verified flag
// wins over the result enum, which wins over the coarse status enum. Keeping
// the whole vendor vocabulary behind this one function keeps the webhook core
// vendor-agnostic.
func MapStatus(status string, verified *bool, result string) domain.KYCStatus {
	if verified != nil {
		if *verified {
			return domain.KYCStatusApproved
		}
		return domain.KYCStatusRejected
	}

	switch result {
	case "clear", "approved", "passed":
		return domain.KYCStatusApproved
	case "consider", "declined", "failed":
		return domain.KYCStatusRejected
	case "review":
		return domain.KYCStatusUnderReview
	}

	switch status {
	case "completed", "approved":
		return domain.KYCStatusApproved
	case "failed", "rejected", "expired":
		return domain.KYCStatusRejected
	case "in_review", "processing":
		return domain.KYCStatusUnderReview
	default:
		return domain.KYCStatusPending
	}
}
