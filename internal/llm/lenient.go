package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// NormalizeStatementJSON
// - Trims personal-information strings
// - Strips thousands separators and currency symbols from numeric strings
// - Drops null category amounts
// - Replaces null commentary/lists with empty ones
// Category keys are never renamed. Non-numeric amount strings are left as-is so
// schema validation rejects them.
func NormalizeStatementJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := decodeObject(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("normalize: decode: %w", err)
	}

	changed := make([]string, 0, 4)

	if pi, ok := m[KeyPersonalInformation].(map[string]any); ok {
		for _, k := range []string{"name", "address", "accountNumber", "sortCode"} {
			switch v := pi[k].(type) {
			case string:
				pi[k] = strings.TrimSpace(v)
			case json.Number:
				// account numbers sometimes arrive unquoted
				pi[k] = v.String()
				changed = append(changed, KeyPersonalInformation+"."+k+"(number)")
			}
		}
		for _, k := range []string{"statementStartingBalance", "statementFinishingBalance"} {
			if s, ok := pi[k].(string); ok {
				cleaned := cleanAmount(s)
				if cleaned == "" {
					pi[k] = nil
					changed = append(changed, KeyPersonalInformation+"."+k+"(empty)")
				} else if cleaned != s {
					pi[k] = cleaned
					changed = append(changed, KeyPersonalInformation+"."+k)
				}
			}
		}
	}

	if sec, ok := m[KeyIncomeAndOutgoings].(map[string]any); ok {
		for _, side := range []string{"income", "outgoings"} {
			if sec[side] == nil {
				if _, present := sec[side]; present {
					sec[side] = map[string]any{}
					changed = append(changed, side+"(null)")
				}
				continue
			}
			cats, ok := sec[side].(map[string]any)
			if !ok {
				continue
			}
			for label, v := range cats {
				switch t := v.(type) {
				case nil:
					delete(cats, label)
					changed = append(changed, side+"."+label+"(null)")
				case string:
					cleaned := cleanAmount(t)
					if cleaned == "" {
						delete(cats, label)
						changed = append(changed, side+"."+label+"(empty)")
					} else if cleaned != t {
						cats[label] = cleaned
						changed = append(changed, side+"."+label)
					}
				}
			}
		}
	}

	if v, present := m[KeyCommentary]; present && v == nil {
		m[KeyCommentary] = map[string]any{}
		changed = append(changed, KeyCommentary+"(null)")
	}
	for _, k := range []string{KeyRedFlags, KeyRecommendations} {
		if v, present := m[k]; present && v == nil {
			m[k] = []any{}
			changed = append(changed, k+"(null)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("normalize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Warn("llm.decode.normalize_statement", "changed", changed)
	}
	return out, changed, nil
}

var identitySynonyms = []struct{ from, to string }{
	{"licenseNumber", "licenceNumber"},
	{"drivingLicenceNumber", "licenceNumber"},
	{"drivingLicenseNumber", "licenceNumber"},
	{"driverNumber", "licenceNumber"},
	{"passportNo", "passportNumber"},
	{"documentNumber", ""}, // resolved by document type
	{"firstName", "forename"},
	{"firstNames", "forename"},
	{"givenName", "forename"},
	{"givenNames", "forename"},
	{"forenames", "forename"},
	{"lastName", "surname"},
	{"familyName", "surname"},
	{"dob", "dateOfBirth"},
	{"birthDate", "dateOfBirth"},
	{"expirationDate", "expiryDate"},
	{"dateOfExpiry", "expiryDate"},
	{"expiry", "expiryDate"},
}

var identityFields = []string{
	"surname", "forename", "address", "dateOfBirth", "expiryDate", "licenceNumber", "passportNumber",
}

// NormalizeIdentityJSON renames field synonyms, splits fullName when no separate
// name parts exist, and drops null or empty values. numberField is the key a generic
// "documentNumber" is moved to.
func NormalizeIdentityJSON(raw []byte, numberField string, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := decodeObject(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("normalize: decode: %w", err)
	}

	changed := make([]string, 0, 4)
	rename := func(from, to string) {
		v, ok := m[from]
		if !ok {
			return
		}
		if _, exists := m[to]; !exists && v != nil {
			m[to] = v
		}
		delete(m, from)
		changed = append(changed, from+"->"+to)
	}
	for _, s := range identitySynonyms {
		to := s.to
		if to == "" {
			to = numberField
		}
		if to != "" {
			rename(s.from, to)
		}
	}

	if full, ok := m["fullName"].(string); ok {
		_, hasSurname := m["surname"]
		_, hasForename := m["forename"]
		if !hasSurname && !hasForename {
			forename, surname := splitFullName(full)
			if surname != "" {
				m["surname"] = surname
			}
			if forename != "" {
				m["forename"] = forename
			}
			changed = append(changed, "fullName->forename+surname")
		}
		delete(m, "fullName")
	}

	for _, k := range identityFields {
		v, present := m[k]
		if !present {
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
			changed = append(changed, k+"(null)")
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") {
				delete(m, k)
				changed = append(changed, k+"(empty)")
			} else {
				m[k] = s
			}
		case json.Number:
			m[k] = t.String()
		case []any:
			// multi-line addresses
			parts := make([]string, 0, len(t))
			for _, p := range t {
				if ps, ok := p.(string); ok && strings.TrimSpace(ps) != "" {
					parts = append(parts, strings.TrimSpace(ps))
				}
			}
			m[k] = strings.Join(parts, ", ")
			changed = append(changed, k+"(list)")
		default:
			delete(m, k)
			changed = append(changed, k+"(type)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("normalize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Debug("llm.decode.normalize_identity", "changed", changed)
	}
	return out, changed, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	v, err := decodeSingleValue(raw)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level value is %T, want object", v)
	}
	return m, nil
}

// cleanAmount turns "£1,250.00", " 12.50 " and "(40.00)" into plain decimal strings.
func cleanAmount(s string) string {
	v := strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		neg = true
		v = v[1 : len(v)-1]
	}
	v = strings.NewReplacer(",", "", "£", "", "$", "", "€", "", " ", "").Replace(v)
	if neg && v != "" && !strings.HasPrefix(v, "-") {
		v = "-" + v
	}
	return v
}

func splitFullName(full string) (forename, surname string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return "", fields[0]
	}
	// "SMITH, JOHN" style
	if strings.HasSuffix(fields[0], ",") {
		return strings.Join(fields[1:], " "), strings.TrimSuffix(fields[0], ",")
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}
