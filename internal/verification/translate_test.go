package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fincore/internal/domain"
)

func boolPtr(b bool) *bool { return &b }

func TestMapStatus_VerifiedFlagWins(t *testing.T) {
	// An explicit verified flag overrides whatever the result field claims.
	assert.Equal(t, domain.KYCStatusApproved, MapStatus("failed", boolPtr(true), "declined"))
	assert.Equal(t, domain.KYCStatusApproved, MapStatus("completed", boolPtr(true), ""))
	assert.Equal(t, domain.KYCStatusRejected, MapStatus("completed", boolPtr(false), "clear"))
}

func TestMapStatus_ResultVocabulary(t *testing.T) {
	tests := []struct {
		result string
		want   domain.KYCStatus
	}{
		{"clear", domain.KYCStatusApproved},
		{"approved", domain.KYCStatusApproved},
		{"passed", domain.KYCStatusApproved},
		{"consider", domain.KYCStatusRejected},
		{"declined", domain.KYCStatusRejected},
		{"failed", domain.KYCStatusRejected},
		{"review", domain.KYCStatusUnderReview},
	}
	for _, tt := range tests {
		t.Run(tt.result, func(t *testing.T) {
			// The coarse status field contradicts the result on purpose.
			assert.Equal(t, tt.want, MapStatus("pending", nil, tt.result))
		})
	}
}

func TestMapStatus_FallsBackToStatus(t *testing.T) {
	tests := []struct {
		status string
		want   domain.KYCStatus
	}{
		{"completed", domain.KYCStatusApproved},
		{"approved", domain.KYCStatusApproved},
		{"failed", domain.KYCStatusRejected},
		{"rejected", domain.KYCStatusRejected},
		{"expired", domain.KYCStatusRejected},
		{"in_review", domain.KYCStatusUnderReview},
		{"processing", domain.KYCStatusUnderReview},
		{"something_new", domain.KYCStatusPending},
		{"", domain.KYCStatusPending},
	}
	for _, tt := range tests {
		t.Run("status_"+tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, MapStatus(tt.status, nil, ""))
		})
	}
}
