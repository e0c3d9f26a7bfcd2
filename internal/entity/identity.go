package entity

// IdentityDocument is the decoded result for driving licences and passports.
// When structured decoding fails only RawResponse is populated.
type IdentityDocument struct {
	Surname        string `json:"surname,omitempty"`
	Forename       string `json:"forename,omitempty"`
	Address        string `json:"address,omitempty"`
	DateOfBirth    string `json:"dateOfBirth,omitempty"`
	ExpiryDate     string `json:"expiryDate,omitempty"`
	LicenceNumber  string `json:"licenceNumber,omitempty"`
	PassportNumber string `json:"passportNumber,omitempty"`
	RawResponse    string `json:"rawResponse,omitempty"`
}

// IsFallback reports whether this is the raw-text variant.
func (d IdentityDocument) IsFallback() bool {
	return d.RawResponse != "" && !d.HasDetails()
}

// HasDetails reports whether any structured field is populated.
func (d IdentityDocument) HasDetails() bool {
	return d.Surname != "" || d.Forename != "" || d.Address != "" ||
		d.DateOfBirth != "" || d.ExpiryDate != "" ||
		d.LicenceNumber != "" || d.PassportNumber != ""
}

func (d IdentityDocument) DocumentNumber() string {
	if d.LicenceNumber != "" {
		return d.LicenceNumber
	}
	return d.PassportNumber
}
