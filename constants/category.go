package constants

// Category labels the model is prompted with. The list is advisory only: decoded
// summaries keep whatever labels the model returns.
type Category string

const (
	EssentialHome             Category = "Essential Home - Rent/Mortgage"
	EssentialHousehold        Category = "Essential Household"
	NonEssentialHousehold     Category = "Non-Essential Household"
	Salary                    Category = "Salary"
	NonEssentialEntertainment Category = "Non-Essential Entertainment"
	Gambling                  Category = "Gambling"
	CashWithdrawal            Category = "Cash Withdrawal"
	BankTransfer              Category = "Bank Transfer"
	Unknown                   Category = "Unknown"
)

var knownCategories = []Category{
	EssentialHome,
	EssentialHousehold,
	NonEssentialHousehold,
	Salary,
	NonEssentialEntertainment,
	Gambling,
	CashWithdrawal,
	BankTransfer,
	Unknown,
}

func AsStringSlice() []string {
	result := make([]string, len(knownCategories))
	for i, cat := range knownCategories {
		result[i] = string(cat)
	}
	return result
}

// IsKnown is used for UI grouping; it never rejects a label.
func IsKnown(label string) bool {
	for _, c := range knownCategories {
		if string(c) == label {
			return true
		}
	}
	return false
}
