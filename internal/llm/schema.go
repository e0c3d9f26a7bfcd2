package llm

// Top-level keys of the statement summary object.
const (
	KeyPersonalInformation = "personalInformation"
	KeyIncomeAndOutgoings  = "summaryOfIncomeAndOutgoings"
	KeyCommentary          = "generalSummaryAndFinancialHealthCommentary"
	KeyRedFlags            = "potentialRedFlagsAndConcerns"
	KeyRecommendations     = "recommendations"
)

// BuildStatementJSONSchema returns the JSON-Schema the statement summary is validated
// against. Category keys are open; only the value shape is constrained.
func BuildStatementJSONSchema() map[string]any {
	stringOrNull := map[string]any{"type": []string{"string", "null"}}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			KeyPersonalInformation: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":                      stringOrNull,
					"address":                   stringOrNull,
					"accountNumber":             stringOrNull,
					"sortCode":                  stringOrNull,
					"statementStartingBalance":  amountProp(true),
					"statementFinishingBalance": amountProp(true),
				},
			},
			KeyIncomeAndOutgoings: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"income":    categoryMapProp(),
					"outgoings": categoryMapProp(),
				},
			},
			KeyCommentary: map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
			KeyRedFlags:        stringListProp(),
			KeyRecommendations: stringListProp(),
		},
		"required": []string{
			KeyPersonalInformation,
			KeyIncomeAndOutgoings,
			KeyCommentary,
			KeyRedFlags,
			KeyRecommendations,
		},
	}
}

// BuildIdentityJSONSchema tolerates extra fields such as issueDate or nationality,
// which are ignored on decode, but at least one known field must be present.
func BuildIdentityJSONSchema() map[string]any {
	str := map[string]any{"type": "string"}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"surname":        str,
			"forename":       str,
			"address":        str,
			"dateOfBirth":    str,
			"expiryDate":     str,
			"licenceNumber":  str,
			"passportNumber": str,
		},
		"anyOf": requireOneOf(identityFields),
	}
}

// requireOneOf builds an anyOf list that is satisfied when at least one of keys is present.
func requireOneOf(keys []string) []any {
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, map[string]any{"required": []string{k}})
	}
	return out
}

func categoryMapProp() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": amountProp(false),
	}
}

func stringListProp() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

// amountProp accepts JSON numbers or numeric strings; negatives are allowed here and
// reported by the decoder.
func amountProp(nullable bool) map[string]any {
	types := []string{"number", "string"}
	if nullable {
		types = append(types, "null")
	}
	return map[string]any{
		"type":    types,
		"pattern": `^-?\d+(\.\d+)?$`,
	}
}
