package llm

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

func TestStatementSchema(t *testing.T) {
	schema := BuildStatementJSONSchema()

	ok := []byte(`{"personalInformation":{"statementStartingBalance":null},"summaryOfIncomeAndOutgoings":{"income":{"A":"1.50","B":2}},"generalSummaryAndFinancialHealthCommentary":{"x":"y"},"potentialRedFlagsAndConcerns":[],"recommendations":["r"]}`)
	require.NoError(t, ValidateJSONAgainstSchema(schema, ok))

	badAmount := []byte(`{"personalInformation":{},"summaryOfIncomeAndOutgoings":{"income":{"A":"1.5.0"}},"generalSummaryAndFinancialHealthCommentary":{},"potentialRedFlagsAndConcerns":[],"recommendations":[]}`)
	assert.Error(t, ValidateJSONAgainstSchema(schema, badAmount))

	badList := []byte(`{"personalInformation":{},"summaryOfIncomeAndOutgoings":{},"generalSummaryAndFinancialHealthCommentary":{},"potentialRedFlagsAndConcerns":[1],"recommendations":[]}`)
	assert.Error(t, ValidateJSONAgainstSchema(schema, badList))
}

func TestIdentitySchema(t *testing.T) {
	schema := BuildIdentityJSONSchema()
	require.NoError(t, ValidateJSONAgainstSchema(schema, []byte(`{"surname":"X","issueDate":"01-01-2020"}`)))
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(`{}`)))
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(`{"issueDate":"01-01-2020","nationality":"GBR"}`)))
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(`{"drivingLicence":{"surname":"SMITH"}}`)))
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(`{"surname":1}`)))
}

func TestBuildPrompt(t *testing.T) {
	assert.Contains(t, BuildStatementPrompt([]string{"Salary"}), "summaryOfIncomeAndOutgoings")
	assert.Contains(t, BuildStatementPrompt([]string{"Salary"}), "Salary")
	assert.Contains(t, BuildPrompt("driving_license"), "licenceNumber")
	assert.Contains(t, BuildPrompt("passport"), "passportNumber")
}
