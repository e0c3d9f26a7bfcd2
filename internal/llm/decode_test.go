package llm

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/statement-insights/constants"
	"github.com/joseph-ayodele/statement-insights/internal/common"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const wellFormedStatement = "```json\n" + `{
  "personalInformation": {
    "name": "Jane Doe",
    "address": "1 High Street, Leeds",
    "accountNumber": "12345678",
    "sortCode": "12-34-56",
    "statementStartingBalance": 8233.65,
    "statementFinishingBalance": "6,174.17"
  },
  "summaryOfIncomeAndOutgoings": {
    "income": {
      "Bank Transfer": 4825.00,
      "Essential Home - Rent/Mortgage": "1250.00"
    },
    "outgoings": {
      "Unknown": 3903.45,
      "Bank Transfer": 1340.00,
      "Crypto Exchange": 0.10
    }
  },
  "generalSummaryAndFinancialHealthCommentary": {
    "overallBalance": "The balance decreased."
  },
  "potentialRedFlagsAndConcerns": ["High Unknown spending"],
  "recommendations": ["Categorise Unknown items", "Build a budget"]
}` + "\n```"

func TestDecodeStatementWellFormed(t *testing.T) {
	d := NewDecoder(testLogger())
	s, err := d.DecodeStatement(wellFormedStatement)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", s.PersonalInformation.Name)
	require.NotNil(t, s.PersonalInformation.StatementFinishingBalance)
	assert.True(t, s.PersonalInformation.StatementFinishingBalance.Equal(decimal.RequireFromString("6174.17")))

	income := s.IncomeByCategory()
	assert.Len(t, income, 2)
	assert.Contains(t, income, "Bank Transfer")
	assert.Contains(t, income, "Essential Home - Rent/Mortgage")
	assert.True(t, income["Essential Home - Rent/Mortgage"].Equal(decimal.RequireFromString("1250")))

	outgoings := s.OutgoingsByCategory()
	assert.Len(t, outgoings, 3)
	assert.Contains(t, outgoings, "Crypto Exchange", "model-introduced labels are kept")

	assert.Equal(t, "The balance decreased.", s.Commentary["overallBalance"])
	assert.Equal(t, []string{"High Unknown spending"}, s.RedFlags)
	assert.Len(t, s.Recommendations, 2)
}

func TestDecodeStatementEmptyMappings(t *testing.T) {
	d := NewDecoder(testLogger())
	s, err := d.DecodeStatement(`{
		"personalInformation": {},
		"summaryOfIncomeAndOutgoings": {"income": null},
		"generalSummaryAndFinancialHealthCommentary": {},
		"potentialRedFlagsAndConcerns": null,
		"recommendations": []
	}`)
	require.NoError(t, err)
	assert.NotNil(t, s.IncomeByCategory())
	assert.NotNil(t, s.OutgoingsByCategory())
	assert.Empty(t, s.IncomeByCategory())
	assert.NotNil(t, s.RedFlags)
	assert.Nil(t, s.PersonalInformation.StatementStartingBalance)
}

func TestDecodeStatementNegativeOutgoingsPreserved(t *testing.T) {
	d := NewDecoder(testLogger())
	s, err := d.DecodeStatement(`{
		"personalInformation": {},
		"summaryOfIncomeAndOutgoings": {"income": {}, "outgoings": {"Refund": -12.50}},
		"generalSummaryAndFinancialHealthCommentary": {},
		"potentialRedFlagsAndConcerns": [],
		"recommendations": []
	}`)
	require.NoError(t, err)
	assert.True(t, s.OutgoingsByCategory()["Refund"].Equal(decimal.RequireFromString("-12.50")))
}

func TestDecodeStatementFailures(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"unterminated", `{"personalInformation": {"name": "x"},`},
		{"empty", "   "},
		{"trailing prose", `{"personalInformation":{},"summaryOfIncomeAndOutgoings":{},"generalSummaryAndFinancialHealthCommentary":{},"potentialRedFlagsAndConcerns":[],"recommendations":[]} Hope this helps!`},
		{"missing section", `{"personalInformation":{},"summaryOfIncomeAndOutgoings":{},"potentialRedFlagsAndConcerns":[],"recommendations":[]}`},
		{"duplicate category", `{"personalInformation":{},"summaryOfIncomeAndOutgoings":{"income":{"Salary":1,"Salary":2}},"generalSummaryAndFinancialHealthCommentary":{},"potentialRedFlagsAndConcerns":[],"recommendations":[]}`},
		{"duplicate conflicting types", `{"personalInformation":{},"personalInformation":[],"summaryOfIncomeAndOutgoings":{},"generalSummaryAndFinancialHealthCommentary":{},"potentialRedFlagsAndConcerns":[],"recommendations":[]}`},
		{"non numeric amount", `{"personalInformation":{},"summaryOfIncomeAndOutgoings":{"income":{"Salary":"about 2k"}},"generalSummaryAndFinancialHealthCommentary":{},"potentialRedFlagsAndConcerns":[],"recommendations":[]}`},
		{"sub-penny amounts", `{"personalInformation":{},"summaryOfIncomeAndOutgoings":{"income":{"A":0.005,"B":0.005}},"generalSummaryAndFinancialHealthCommentary":{},"potentialRedFlagsAndConcerns":[],"recommendations":[]}`},
		{"sub-penny string amount", `{"personalInformation":{},"summaryOfIncomeAndOutgoings":{"outgoings":{"Fees":"1.239"}},"generalSummaryAndFinancialHealthCommentary":{},"potentialRedFlagsAndConcerns":[],"recommendations":[]}`},
		{"sub-penny balance", `{"personalInformation":{"statementFinishingBalance":10.001},"summaryOfIncomeAndOutgoings":{},"generalSummaryAndFinancialHealthCommentary":{},"potentialRedFlagsAndConcerns":[],"recommendations":[]}`},
		{"array top level", `[1,2,3]`},
		{"prose only", "I could not read this statement."},
	}
	d := NewDecoder(testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := d.DecodeStatement(tt.in)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, common.IsDecodeError(err), "got %v", err)
		})
	}
}

func TestDecodeStatementTrailingZerosAccepted(t *testing.T) {
	raw := `{"personalInformation":{},"summaryOfIncomeAndOutgoings":{"income":{"Salary":2400.500,"Refund":"0.10000"}},"generalSummaryAndFinancialHealthCommentary":{},"potentialRedFlagsAndConcerns":[],"recommendations":[]}`
	s, err := NewDecoder(testLogger()).DecodeStatement(raw)
	require.NoError(t, err)
	assert.Equal(t, "2400.50", s.IncomeByCategory()["Salary"].String())
	assert.Equal(t, "0.10", s.IncomeByCategory()["Refund"].String())
}

func TestDecodeIdentity(t *testing.T) {
	d := NewDecoder(testLogger())

	t.Run("prose around object", func(t *testing.T) {
		raw := "Here are the extracted details:\n```json\n" +
			`{"surname":"SMITH","forename":"JOHN","dateOfBirth":"01-01-1980","expiryDate":"01-01-2030","licenceNumber":"SMITH801010JJ9AB"}` +
			"\n```\nLet me know if you need anything else."
		doc, err := d.DecodeIdentity(raw, constants.DrivingLicense)
		require.NoError(t, err)
		assert.False(t, doc.IsFallback())
		assert.Equal(t, "SMITH", doc.Surname)
		assert.Equal(t, "JOHN", doc.Forename)
		assert.Equal(t, "SMITH801010JJ9AB", doc.LicenceNumber)
		assert.Empty(t, doc.PassportNumber)
	})

	t.Run("synonyms and full name", func(t *testing.T) {
		raw := `{"fullName":"John James Smith","dob":"01-01-1980","licenseNumber":"ABC123","address":null}`
		doc, err := d.DecodeIdentity(raw, constants.DrivingLicense)
		require.NoError(t, err)
		assert.Equal(t, "Smith", doc.Surname)
		assert.Equal(t, "John James", doc.Forename)
		assert.Equal(t, "01-01-1980", doc.DateOfBirth)
		assert.Equal(t, "ABC123", doc.LicenceNumber)
		assert.Empty(t, doc.Address)
	})

	t.Run("passport keeps passport number only", func(t *testing.T) {
		raw := `{"surname":"DOE","forename":"JANE","documentNumber":"123456789"}`
		doc, err := d.DecodeIdentity(raw, constants.Passport)
		require.NoError(t, err)
		assert.Equal(t, "123456789", doc.PassportNumber)
		assert.Empty(t, doc.LicenceNumber)
	})

	t.Run("mismatched number field moved", func(t *testing.T) {
		doc, err := d.DecodeIdentity(`{"surname":"DOE","passportNumber":"X1"}`, constants.DrivingLicense)
		require.NoError(t, err)
		assert.Equal(t, "X1", doc.LicenceNumber)
		assert.Empty(t, doc.PassportNumber)
	})

	t.Run("pure prose falls back", func(t *testing.T) {
		raw := "Sorry, the image is too blurry to read."
		doc, err := d.DecodeIdentity(raw, constants.DrivingLicense)
		require.Error(t, err)
		assert.True(t, common.IsDecodeError(err))
		assert.True(t, doc.IsFallback())
		assert.Equal(t, raw, doc.RawResponse)
	})

	t.Run("all nulls falls back", func(t *testing.T) {
		raw := `{"surname":null,"forename":null}`
		doc, err := d.DecodeIdentity(raw, constants.Passport)
		require.Error(t, err)
		assert.Equal(t, raw, doc.RawResponse)
	})

	t.Run("nested fields fall back", func(t *testing.T) {
		raw := `{"drivingLicence":{"surname":"SMITH","forename":"JOHN","licenceNumber":"SMITH801010JJ9AB"}}`
		doc, err := d.DecodeIdentity(raw, constants.DrivingLicense)
		require.Error(t, err)
		assert.True(t, common.IsDecodeError(err))
		assert.True(t, doc.IsFallback())
		assert.Equal(t, raw, doc.RawResponse)
	})

	t.Run("only unknown fields fall back", func(t *testing.T) {
		raw := `{"issueDate":"01-01-2020","nationality":"GBR"}`
		doc, err := d.DecodeIdentity(raw, constants.Passport)
		require.Error(t, err)
		assert.True(t, doc.IsFallback())
		assert.Equal(t, raw, doc.RawResponse)
	})

	t.Run("duplicate keys fall back", func(t *testing.T) {
		raw := `{"surname":"A","surname":"B"}`
		doc, err := d.DecodeIdentity(raw, constants.Passport)
		require.Error(t, err)
		assert.True(t, doc.IsFallback())
	})
}
