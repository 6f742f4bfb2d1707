package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fincore/internal/domain"
)

func docs(types ...domain.DocumentType) []domain.Document {
	out := make([]domain.Document, len(types))
	for i, t := range types {
		out[i] = domain.Document{Type: t, FileKey: "blob/" + string(t)}
	}
	return out
}

func TestCheckDocuments_Personal(t *testing.T) {
	tests := []struct {
		name      string
		docs      []domain.Document
		satisfied bool
	}{
		{
			"passport plus address and selfie",
			docs(domain.DocTypePassport, domain.DocTypeProofOfAddress, domain.DocTypeSelfie),
			true,
		},
		{
			"national id plus address and selfie",
			docs(domain.DocTypeNationalID, domain.DocTypeProofOfAddress, domain.DocTypeSelfie),
			true,
		},
		{
			"license front and back plus address and selfie",
			docs(domain.DocTypeLicenseFront, domain.DocTypeLicenseBack, domain.DocTypeProofOfAddress, domain.DocTypeSelfie),
			true,
		},
		{
			"license front only is not an identity proof",
			docs(domain.DocTypeLicenseFront, domain.DocTypeProofOfAddress, domain.DocTypeSelfie),
			false,
		},
		{
			"missing selfie",
			docs(domain.DocTypePassport, domain.DocTypeProofOfAddress),
			false,
		},
		{
			"missing proof of address",
			docs(domain.DocTypePassport, domain.DocTypeSelfie),
			false,
		},
		{"no documents", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := CheckDocuments(domain.AccountTypePersonal, tt.docs)
			assert.Equal(t, tt.satisfied, check.Satisfied, "missing: %v", check.Missing)
		})
	}
}

func TestCheckDocuments_Business(t *testing.T) {
	complete := docs(domain.DocTypeIncorporationCert, domain.DocTypeOwnershipChart, domain.DocTypeProofOfAddress)
	assert.True(t, CheckDocuments(domain.AccountTypeBusiness, complete).Satisfied)

	check := CheckDocuments(domain.AccountTypeBusiness, docs(domain.DocTypeIncorporationCert))
	assert.False(t, check.Satisfied)
	assert.ElementsMatch(t,
		[]domain.DocumentType{domain.DocTypeOwnershipChart, domain.DocTypeProofOfAddress},
		check.Missing)
}

func TestCheckDocuments_FintechRequiresCompliancePack(t *testing.T) {
	businessSet := docs(domain.DocTypeIncorporationCert, domain.DocTypeOwnershipChart, domain.DocTypeProofOfAddress)

	check := CheckDocuments(domain.AccountTypeFintech, businessSet)
	assert.False(t, check.Satisfied)
	assert.ElementsMatch(t,
		[]domain.DocumentType{domain.DocTypeAMLPolicy, domain.DocTypeOperatingLicense},
		check.Missing)

	full := append(businessSet, docs(domain.DocTypeAMLPolicy, domain.DocTypeOperatingLicense)...)
	assert.True(t, CheckDocuments(domain.AccountTypeFintech, full).Satisfied)
}

func TestCheckDocuments_DuplicatesDoNotSubstitute(t *testing.T) {
	// Two copies of the same document still satisfy only one requirement.
	check := CheckDocuments(domain.AccountTypeBusiness,
		docs(domain.DocTypeIncorporationCert, domain.DocTypeIncorporationCert))
	assert.False(t, check.Satisfied)
}
