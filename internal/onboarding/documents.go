package onboarding

import (
	"fincore/internal/domain"
)

// requiredBusinessDocs maps each account type onto the document types that
// must all be present before submission. Personal accounts follow a
// combination rule instead (see CheckDocuments).
var requiredBusinessDocs = map[domain.AccountType][]domain.DocumentType{
	domain.AccountTypeBusiness: {
		domain.DocTypeIncorporationCert,
		domain.DocTypeOwnershipChart,
		domain.DocTypeProofOfAddress,
	},
	domain.AccountTypeFintech: {
		domain.DocTypeIncorporationCert,
		domain.DocTypeOwnershipChart,
		domain.DocTypeProofOfAddress,
		domain.DocTypeAMLPolicy,
		domain.DocTypeOperatingLicense,
	},
}

// DocumentCheck reports whether a submitted document list satisfies the
// account type's requirements, naming what is missing.
type DocumentCheck struct {
	Satisfied bool                  `json:"satisfied"`
	Missing   []domain.DocumentType `json:"missing,omitempty"`
}

// CheckDocuments is a pure lookup with no side effects.
//
// Personal accounts are satisfied by (one identity proof OR a front+back
// license pair) AND a proof of address AND a selfie. Business and fintech
// accounts require every type in their configured set.
func CheckDocuments(accountType domain.AccountType, docs []domain.Document) DocumentCheck {
	present := map[domain.DocumentType]bool{}
	for _, doc := range docs {
		present[doc.Type] = true
	}

	if accountType == domain.AccountTypePersonal {
		return checkPersonal(present)
	}

	check := DocumentCheck{Satisfied: true}
	for _, required := range requiredBusinessDocs[accountType] {
		if !present[required] {
			check.Satisfied = false
			check.Missing = append(check.Missing, required)
		}
	}
	return check
}

func checkPersonal(present map[domain.DocumentType]bool) DocumentCheck {
	identity := present[domain.DocTypePassport] || present[domain.DocTypeNationalID] ||
		(present[domain.DocTypeLicenseFront] && present[domain.DocTypeLicenseBack])

	check := DocumentCheck{Satisfied: true}
	if !identity {
		check.Satisfied = false
		check.Missing = append(check.Missing, domain.DocTypePassport)
	}
	if !present[domain.DocTypeProofOfAddress] {
		check.Satisfied = false
		check.Missing = append(check.Missing, domain.DocTypeProofOfAddress)
	}
	if !present[domain.DocTypeSelfie] {
		check.Satisfied = false
		check.Missing = append(check.Missing, domain.DocTypeSelfie)
	}
	return check
}
