package llm

import (
	"strings"

	"github.com/joseph-ayodele/statement-insights/constants"
)

// BuildPrompt returns the instruction sent alongside the document for each path.
func BuildPrompt(docType constants.DocumentType) string {
	switch docType {
	case constants.DrivingLicense:
		return drivingLicencePrompt
	case constants.Passport:
		return passportPrompt
	default:
		return BuildStatementPrompt(constants.AsStringSlice())
	}
}

// BuildStatementPrompt composes the statement summary prompt with the category list.
// The categories guide the model; decoded summaries may still contain other labels.
func BuildStatementPrompt(categories []string) string {
	parts := []string{
		"You are an expert at summarising financial transactions.",
		"Read every transaction in the attached bank statement, then summarise money in and money out category by category.",
		"Assign each transaction to one of these categories, inferred from its description: " + strings.Join(categories, "; ") + ".",
		"Give a general commentary on financial health, any red flags or concerns, and recommendations.",
		"Amounts are plain numbers with up to two decimal places, no currency symbols and no thousands separators.",
		"Do NOT include totals; they are calculated separately.",
		"Every category key must appear at most once in each of income and outgoings.",
		"Return ONLY a single JSON object with exactly this structure:",
		statementExample,
	}
	return strings.Join(parts, "\n")
}

const statementExample = `{
  "personalInformation": {
    "name": "John Smith",
    "address": "123 Example Street, Example Town, EX1 1EX",
    "accountNumber": "12345678",
    "sortCode": "12-34-56",
    "statementStartingBalance": 8233.65,
    "statementFinishingBalance": 6174.17
  },
  "summaryOfIncomeAndOutgoings": {
    "income": {
      "Salary": 2400.00,
      "Bank Transfer": 145.99
    },
    "outgoings": {
      "Essential Household": 760.64,
      "Non-Essential Household": 33.00,
      "Unknown": 2898.84
    }
  },
  "generalSummaryAndFinancialHealthCommentary": {
    "overallBalance": "The balance decreased during the statement period.",
    "transfers": "Frequent transfers between own accounts."
  },
  "potentialRedFlagsAndConcerns": [
    "High 'Unknown' category spending."
  ],
  "recommendations": [
    "Categorise all 'Unknown' items."
  ]
}`

const drivingLicencePrompt = `Analyse this driving licence image and extract the holder's details.
Return ONLY a JSON object in this format:
{
  "surname": "SMITH",
  "forename": "JOHN JAMES",
  "dateOfBirth": "01-01-1980",
  "expiryDate": "01-01-2030",
  "address": "123 Example Street, Example Town, EX1 1EX",
  "licenceNumber": "SMITH801010JJ9AB"
}
Dates use dd-mm-yyyy. If a field cannot be determined, use null. Do not include any text outside the JSON.`

const passportPrompt = `Analyse this passport image and extract the holder's details.
Return ONLY a JSON object in this format:
{
  "surname": "SMITH",
  "forename": "JOHN JAMES",
  "dateOfBirth": "01-01-1980",
  "expiryDate": "01-01-2030",
  "passportNumber": "123456789"
}
Dates use dd-mm-yyyy. If a field cannot be determined, use null. Do not include any text outside the JSON.`

// BuildTransactionsPrompt asks for the raw transaction list used by the roll-up path.
func BuildTransactionsPrompt(categories []string) string {
	return strings.Join([]string{
		"Parse the attached bank statement and return CSV only, no headers and no commentary.",
		"One row per transaction: Date (dd-mm-yyyy),Description,Amount,Direction (paid in or withdrawn),Balance,Category",
		"Category must be one of: " + strings.Join(categories, "; ") + ".",
		"Negative or overdrawn balances are written as negative numbers.",
		"If the statement has no transactions, return nothing.",
	}, "\n")
}
