package domain

// DocumentType enumerates the documents collected during onboarding. Which
// ones are required depends on the account type.
type DocumentType string

const (
	DocTypePassport           DocumentType = "passport"
	DocTypeNationalID         DocumentType = "national_id"
	DocTypeLicenseFront       DocumentType = "license_front"
	DocTypeLicenseBack        DocumentType = "license_back"
	DocTypeProofOfAddress     DocumentType = "proof_of_address"
	DocTypeSelfie             DocumentType = "selfie"
	DocTypeIncorporationCert  DocumentType = "incorporation_certificate"
	DocTypeArticles           DocumentType = "articles_of_association"
	DocTypeOwnershipChart     DocumentType = "ownership_chart"
	DocTypeBankStatement      DocumentType = "bank_statement"
	DocTypeAMLPolicy          DocumentType = "aml_policy"
	DocTypeOperatingLicense   DocumentType = "operating_license"
)

// Document references an uploaded file in the blob store. Business-level
// documents carry no OwnerID; owner documents link to a specific owner.
type Document struct {
	Type     DocumentType `json:"type"`
	FileKey  string       `json:"fileKey"`
	FileName string       `json:"fileName,omitempty"`
	Size     int64        `json:"size"`
	MimeType string       `json:"mimeType"`
	OwnerID  string       `json:"ownerId,omitempty"`
}
