package entity

// PersonalInformation is the account-holder block of a statement summary.
type PersonalInformation struct {
	Name                      string `json:"name"`
	Address                   string `json:"address"`
	AccountNumber             string `json:"accountNumber"`
	SortCode                  string `json:"sortCode"`
	StatementStartingBalance  *Money `json:"statementStartingBalance"`
	StatementFinishingBalance *Money `json:"statementFinishingBalance"`
}

// CategoryAmounts maps an open set of category labels to amounts.
type CategoryAmounts map[string]Money

type IncomeAndOutgoings struct {
	Income    CategoryAmounts `json:"income"`
	Outgoings CategoryAmounts `json:"outgoings"`
}

// StatementSummary mirrors the JSON object the model is asked to produce for bank
// statements. Field names are the UI contract.
type StatementSummary struct {
	PersonalInformation PersonalInformation `json:"personalInformation"`
	IncomeAndOutgoings  IncomeAndOutgoings  `json:"summaryOfIncomeAndOutgoings"`
	Commentary          map[string]string   `json:"generalSummaryAndFinancialHealthCommentary"`
	RedFlags            []string            `json:"potentialRedFlagsAndConcerns"`
	Recommendations     []string            `json:"recommendations"`
}

func (s *StatementSummary) IncomeByCategory() CategoryAmounts {
	return s.IncomeAndOutgoings.Income
}

func (s *StatementSummary) OutgoingsByCategory() CategoryAmounts {
	return s.IncomeAndOutgoings.Outgoings
}

// EnsureCollections replaces absent sections with empty ones so encoders never emit null.
func (s *StatementSummary) EnsureCollections() {
	if s.IncomeAndOutgoings.Income == nil {
		s.IncomeAndOutgoings.Income = CategoryAmounts{}
	}
	if s.IncomeAndOutgoings.Outgoings == nil {
		s.IncomeAndOutgoings.Outgoings = CategoryAmounts{}
	}
	if s.Commentary == nil {
		s.Commentary = map[string]string{}
	}
	if s.RedFlags == nil {
		s.RedFlags = []string{}
	}
	if s.Recommendations == nil {
		s.Recommendations = []string{}
	}
}

// Totals are always recomputed locally from the category mappings.
type Totals struct {
	TotalIncome    Money `json:"totalIncome"`
	TotalOutgoings Money `json:"totalOutgoings"`
	NetBalance     Money `json:"netBalance"`
}
