package domain

// OwnerType tags the beneficial-owner union.
type OwnerType string

const (
	OwnerTypePerson OwnerType = "person"
	OwnerTypeEntity OwnerType = "entity"
)

// Owner is a beneficial owner or authorized representative. Person and entity
// variants share the struct with a type tag; only the fields for the tagged
// variant are populated.
type Owner struct {
	ID   string    `json:"id,omitempty"`
	Type OwnerType `json:"type"`

	// Person fields.
	FirstName          string   `json:"firstName,omitempty"`
	LastName           string   `json:"lastName,omitempty"`
	Email              string   `json:"email,omitempty"`
	Phone              string   `json:"phone,omitempty"`
	DateOfBirth        *string  `json:"dateOfBirth,omitempty"`
	ResidentialAddress *Address `json:"residentialAddress,omitempty"`
	IDDocumentRef      string   `json:"idDocumentRef,omitempty"`
	Occupation         string   `json:"occupation,omitempty"`
	SourceOfWealth     string   `json:"sourceOfWealth,omitempty"`
	IsAuthorizedSigner bool     `json:"isAuthorizedSigner,omitempty"`

	// Entity fields.
	EntityName           string  `json:"entityName,omitempty"`
	IncorporationCountry string  `json:"incorporationCountry,omitempty"`
	EntityType           string  `json:"entityType,omitempty"`
	RegistrationNumber   string  `json:"registrationNumber,omitempty"`
	IncorporationDate    *string `json:"incorporationDate,omitempty"`

	OwnershipPercentage float64 `json:"ownershipPercentage"`
}

// FullName renders a display name for either variant.
func (o Owner) FullName() string {
	if o.Type == OwnerTypeEntity {
		return o.EntityName
	}
	if o.FirstName == "" {
		return o.LastName
	}
	if o.LastName == "" {
		return o.FirstName
	}
	return o.FirstName + " " + o.LastName
}

// Normalize clears blank date strings so storage never sees "" where a date
// column expects NULL.
func (o *Owner) Normalize() {
	if o.DateOfBirth != nil && *o.DateOfBirth == "" {
		o.DateOfBirth = nil
	}
	if o.IncorporationDate != nil && *o.IncorporationDate == "" {
		o.IncorporationDate = nil
	}
}

// PrimaryPerson returns the first person-typed owner, if any. Verification is
// always opened against a natural person.
func PrimaryPerson(owners []Owner) (Owner, bool) {
	for _, owner := range owners {
		if owner.Type == OwnerTypePerson {
			return owner, true
		}
	}
	return Owner{}, false
}
