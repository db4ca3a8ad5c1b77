package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseApplicants(t *testing.T) {
	content := `Full Name,Amount,Purpose,Sex,DOB,Annual Income,Employment Status,Notes
John Doe,30000,personal,male,1980-01-01,80000,employed,returning
,,,,,,,
Sarah,150000,business,female,1997-03-02,75000,self-employed,
`

	rows, errs := NewCSVParser().ParseApplicants(content)
	require.Empty(t, errs)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, map[string]string{
		"fullName":    "John Doe",
		"loanAmount":  "30000",
		"loanPurpose": "personal",
		"gender":      "male",
		"dateOfBirth": "1980-01-01",
		"income":      "80000",
		"employment":  "employed",
		"Notes":       "returning",
	}, rows[0].Fields)
	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, "self-employed", rows[1].Fields["employment"])
}

func TestParseApplicants_AgeColumnSatisfiesDOB(t *testing.T) {
	rows, errs := NewCSVParser().ParseApplicants("amount,purpose,gender,age,income,employment\n5000,medical,female,30,40000,employed\n")
	require.Empty(t, errs)
	assert.Equal(t, "30", rows[0].Fields["age"])
}

func TestParseApplicants_Errors(t *testing.T) {
	_, errs := NewCSVParser().ParseApplicants("  ")
	assert.ErrorIs(t, errs[0], ErrEmptyCSV)

	_, errs = NewCSVParser().ParseApplicants("amount,gender\n1,male\n")
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrMissingColumns)
	assert.Contains(t, errs[0].Error(), "loanPurpose")
	assert.Contains(t, errs[0].Error(), "dateOfBirth")

	_, errs = NewCSVParser().ParseApplicants("amount,purpose,gender,age,income,employment\n")
	assert.ErrorIs(t, errs[0], ErrNoDataRows)
}

func TestParseApplicants_BadQuoteIsRowError(t *testing.T) {
	content := "amount,purpose,gender,age,income,employment\n" +
		"5000,\"medical,female,30,40000,employed\n"

	rows, errs := NewCSVParser().ParseApplicants(content)
	assert.Empty(t, rows)
	assert.ErrorIs(t, errs[0], ErrNoDataRows)
}
