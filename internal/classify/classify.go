// Package classify picks the processing path for an upload from its filename and
// declared content type. Every input maps to one of the three document types.
package classify

import (
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/statement-insights/constants"
)

// Decision is the chosen type plus the rule that produced it, for logging.
type Decision struct {
	Type   constants.DocumentType
	Reason string
}

// licence keywords match whole tokens so "dl" does not hit "handle.png".
var licenceKeyword = regexp.MustCompile(`(?i)(^|[^a-z])(licen[cs]e|driving|dl)([^a-z]|$)`)

// Classify returns the document type for filename/contentType.
func Classify(filename, contentType string) constants.DocumentType {
	return Explain(filename, contentType).Type
}

// Explain is Classify with the reason attached. Rules, first match wins:
//   - PDF by MIME type or by extension is a statement, even when the other signal
//     says image.
//   - Images (image/* or .jpg/.jpeg/.png) are driving licences; passports only
//     arrive through an explicit declared type.
//   - Anything else is treated as a statement.
func Explain(filename, contentType string) Decision {
	mt := mediaType(contentType)
	ext := constants.MapExtToFormat(filepath.Ext(filename))

	switch {
	case mt == "application/pdf":
		return Decision{Type: constants.Statement, Reason: "pdf"}
	case ext == constants.PDF:
		return Decision{Type: constants.Statement, Reason: "pdf extension"}
	case strings.HasPrefix(mt, "image/") || ext == constants.IMAGE:
		if licenceKeyword.MatchString(filepath.Base(filename)) {
			return Decision{Type: constants.DrivingLicense, Reason: "image with licence keyword"}
		}
		return Decision{Type: constants.DrivingLicense, Reason: "image default"}
	}
	return Decision{Type: constants.Statement, Reason: "default"}
}

// Resolve honours a declared type when it parses, otherwise falls back to Explain.
func Resolve(filename, contentType, declared string) Decision {
	if declared != "" {
		if t, ok := constants.ParseDocumentType(declared); ok {
			return Decision{Type: t, Reason: "declared"}
		}
	}
	return Explain(filename, contentType)
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
