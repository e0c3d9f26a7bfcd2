package constants

import "strings"

// DocumentType selects the processing path for an upload.
type DocumentType string

const (
	Statement      DocumentType = "statement"
	DrivingLicense DocumentType = "driving_license"
	Passport       DocumentType = "passport"
)

var allDocumentTypes = []DocumentType{Statement, DrivingLicense, Passport}

// ParseDocumentType accepts the canonical names plus a few spellings seen from upload forms.
func ParseDocumentType(s string) (DocumentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "statement", "bank_statement", "bank-statement":
		return Statement, true
	case "driving_license", "driving_licence", "driving-license", "driving-licence", "licence", "license", "dl":
		return DrivingLicense, true
	case "passport":
		return Passport, true
	}
	return "", false
}

// IsIdentity reports whether the type decodes into an IdentityDocument.
func (t DocumentType) IsIdentity() bool {
	return t == DrivingLicense || t == Passport
}

func (t DocumentType) Valid() bool {
	for _, d := range allDocumentTypes {
		if d == t {
			return true
		}
	}
	return false
}
