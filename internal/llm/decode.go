package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/statement-insights/constants"
	"github.com/joseph-ayodele/statement-insights/internal/common"
	"github.com/joseph-ayodele/statement-insights/internal/entity"
)

// Decoder turns sanitized model output into entities. It holds only compiled
// schemas and is safe for concurrent use.
type Decoder struct {
	statementSchema *jsonschema.Schema
	identitySchema  *jsonschema.Schema
	logger          *slog.Logger
}

func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{
		statementSchema: mustCompileSchema(BuildStatementJSONSchema()),
		identitySchema:  mustCompileSchema(BuildIdentityJSONSchema()),
		logger:          logger,
	}
}

// DecodeStatement parses a statement summary strictly. Any failure is a DecodeError.
func (d *Decoder) DecodeStatement(raw string) (*entity.StatementSummary, error) {
	text := Sanitize(raw)
	if text == "" {
		return nil, common.NewDecodeError("empty model response", nil)
	}
	data := []byte(text)

	if err := CheckDuplicateKeys(data); err != nil {
		var dup *DuplicateKeyError
		if errors.As(err, &dup) {
			d.logger.Warn("llm.decode.duplicate_key", "path", dup.Path, "key", dup.Key)
			return nil, common.NewDecodeError("statement contains duplicate keys", err)
		}
		return nil, common.NewDecodeError("statement is not valid JSON", err)
	}

	normalized, _, err := NormalizeStatementJSON(data, d.logger)
	if err != nil {
		return nil, common.NewDecodeError("statement is not a single JSON object", err)
	}
	if err := ValidateWithSchema(d.statementSchema, normalized); err != nil {
		d.logger.Error("llm.decode.schema_validation_failed", "doc_type", constants.Statement, "error", err)
		return nil, common.NewDecodeError("statement does not match schema", err)
	}

	var out entity.StatementSummary
	if err := json.Unmarshal(normalized, &out); err != nil {
		return nil, common.NewDecodeError("unmarshal statement", err)
	}
	out.EnsureCollections()
	if err := checkPrecision(&out); err != nil {
		d.logger.Error("llm.decode.amount_precision", "error", err)
		return nil, common.NewDecodeError("statement amount has more than two decimal places", err)
	}
	d.warnNegatives("income", out.IncomeByCategory())
	d.warnNegatives("outgoings", out.OutgoingsByCategory())

	d.logger.Debug("llm.decode.statement_ok",
		"income_categories", len(out.IncomeByCategory()),
		"outgoings_categories", len(out.OutgoingsByCategory()),
		"red_flags", len(out.RedFlags),
	)
	return &out, nil
}

// DecodeIdentity extracts the first balanced {...} span and parses it, then retries
// with the whole sanitized text. When both fail it returns the raw-text fallback
// document together with the DecodeError; callers treat that as a partial success.
func (d *Decoder) DecodeIdentity(raw string, docType constants.DocumentType) (entity.IdentityDocument, error) {
	text := Sanitize(raw)

	candidates := make([]string, 0, 2)
	if span, ok := ExtractJSONObject(text); ok {
		candidates = append(candidates, span)
	}
	if len(candidates) == 0 || candidates[0] != text {
		candidates = append(candidates, text)
	}

	var lastErr error
	for i, c := range candidates {
		doc, err := d.parseIdentity(c, docType)
		if err == nil {
			if i > 0 {
				d.logger.Info("llm.decode.identity_whole_text", "doc_type", docType)
			}
			return doc, nil
		}
		lastErr = err
	}

	d.logger.Warn("llm.decode.fallback", "doc_type", docType, "error", lastErr, "raw_len", len(raw))
	return entity.IdentityDocument{RawResponse: raw}, common.NewDecodeError("identity document not parseable", lastErr)
}

func (d *Decoder) parseIdentity(candidate string, docType constants.DocumentType) (entity.IdentityDocument, error) {
	data := []byte(candidate)
	if err := CheckDuplicateKeys(data); err != nil {
		return entity.IdentityDocument{}, err
	}
	normalized, _, err := NormalizeIdentityJSON(data, numberFieldFor(docType), d.logger)
	if err != nil {
		return entity.IdentityDocument{}, err
	}
	if err := ValidateWithSchema(d.identitySchema, normalized); err != nil {
		return entity.IdentityDocument{}, err
	}
	var doc entity.IdentityDocument
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return entity.IdentityDocument{}, err
	}
	if !doc.HasDetails() {
		return entity.IdentityDocument{}, errors.New("no identity fields at top level")
	}
	d.reconcileNumber(&doc, docType)
	return doc, nil
}

// reconcileNumber keeps only the number field that matches the document type.
func (d *Decoder) reconcileNumber(doc *entity.IdentityDocument, docType constants.DocumentType) {
	switch docType {
	case constants.DrivingLicense:
		if doc.PassportNumber == "" {
			return
		}
		if doc.LicenceNumber == "" {
			doc.LicenceNumber = doc.PassportNumber
		}
		doc.PassportNumber = ""
	case constants.Passport:
		if doc.LicenceNumber == "" {
			return
		}
		if doc.PassportNumber == "" {
			doc.PassportNumber = doc.LicenceNumber
		}
		doc.LicenceNumber = ""
	default:
		return
	}
	d.logger.Warn("llm.decode.number_field_mismatch", "doc_type", docType)
}

func (d *Decoder) warnNegatives(section string, amounts entity.CategoryAmounts) {
	for label, v := range amounts {
		if v.IsNegative() {
			d.logger.Warn("llm.decode.negative_amount", "section", section, "category", label, "amount", v.String())
		}
	}
}

// checkPrecision rejects amounts that would be rounded when written out. Totals are
// summed from the exact values, so every figure shown must already be exact to the penny.
func checkPrecision(s *entity.StatementSummary) error {
	sections := []struct {
		name    string
		amounts entity.CategoryAmounts
	}{
		{"income", s.IncomeByCategory()},
		{"outgoings", s.OutgoingsByCategory()},
	}
	for _, sec := range sections {
		for label, v := range sec.amounts {
			if !v.IsWholePennies() {
				return fmt.Errorf("%s %q: %s", sec.name, label, v.Decimal.String())
			}
		}
	}
	pi := s.PersonalInformation
	for name, v := range map[string]*entity.Money{
		"statementStartingBalance":  pi.StatementStartingBalance,
		"statementFinishingBalance": pi.StatementFinishingBalance,
	} {
		if v != nil && !v.IsWholePennies() {
			return fmt.Errorf("%s: %s", name, v.Decimal.String())
		}
	}
	return nil
}

func numberFieldFor(docType constants.DocumentType) string {
	if docType == constants.Passport {
		return "passportNumber"
	}
	return "licenceNumber"
}
