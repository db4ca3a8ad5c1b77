package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-application-engine/internal/models"
)

var fixedNow = time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)

func newTestBuilder() *Builder {
	return NewBuilderWithClock(func() time.Time { return fixedNow })
}

func validSubmission() map[string]string {
	return map[string]string{
		"fullName":    "John Doe",
		"email":       "john@example.com",
		"dateOfBirth": "1980-01-01",
		"phone":       "555-0100",
		"loanAmount":  "30000",
		"loanTerm":    "36",
		"employment":  "employed",
		"income":      "80000",
		"loanPurpose": "personal",
		"gender":      "male",
	}
}

func TestBuild_ValidSubmission(t *testing.T) {
	p, err := newTestBuilder().Build(validSubmission())
	require.NoError(t, err)

	assert.Equal(t, float64(30000), p.Amount)
	assert.Equal(t, models.PurposePersonal, p.Purpose)
	assert.Equal(t, 45, p.Age)
	assert.Equal(t, models.GenderMale, p.Gender)
	assert.Equal(t, float64(80000), p.Income)
	assert.Equal(t, models.EmploymentEmployed, p.Employment)
	assert.Nil(t, p.CreditScore)
}

func TestBuild_NormalizesValues(t *testing.T) {
	raw := validSubmission()
	raw["loanAmount"] = "$150,000"
	raw["employment"] = "Self Employed"
	raw["loanPurpose"] = "Debt Consolidation"
	raw["gender"] = "F"
	raw["creditScore"] = "712"

	p, err := newTestBuilder().Build(raw)
	require.NoError(t, err)

	assert.Equal(t, float64(150000), p.Amount)
	assert.Equal(t, models.EmploymentSelfEmployed, p.Employment)
	assert.Equal(t, models.PurposeDebtConsolidation, p.Purpose)
	assert.Equal(t, models.GenderFemale, p.Gender)
	require.NotNil(t, p.CreditScore)
	assert.Equal(t, float64(712), *p.CreditScore)
}

func TestBuild_UnknownPurposeBecomesOther(t *testing.T) {
	raw := validSubmission()
	raw["loanPurpose"] = "vacation"

	p, err := newTestBuilder().Build(raw)
	require.NoError(t, err)
	assert.Equal(t, models.PurposeOther, p.Purpose)
}

func TestBuild_AgeFieldWithoutDateOfBirth(t *testing.T) {
	raw := validSubmission()
	delete(raw, "dateOfBirth")
	raw["age"] = "28"

	p, err := newTestBuilder().Build(raw)
	require.NoError(t, err)
	assert.Equal(t, 28, p.Age)
}

func TestBuild_RejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(map[string]string)
		field string
	}{
		{"missing amount", func(m map[string]string) { delete(m, "loanAmount") }, "loanAmount"},
		{"non-numeric amount", func(m map[string]string) { m["loanAmount"] = "lots" }, "loanAmount"},
		{"NaN amount", func(m map[string]string) { m["loanAmount"] = "NaN" }, "loanAmount"},
		{"zero amount", func(m map[string]string) { m["loanAmount"] = "0" }, "loanAmount"},
		{"blank purpose", func(m map[string]string) { m["loanPurpose"] = "   " }, "loanPurpose"},
		{"missing date and age", func(m map[string]string) { delete(m, "dateOfBirth") }, "dateOfBirth"},
		{"bad date", func(m map[string]string) { m["dateOfBirth"] = "yesterday" }, "dateOfBirth"},
		{"date before 1900", func(m map[string]string) { m["dateOfBirth"] = "1650-03-01" }, "dateOfBirth"},
		{"future date", func(m map[string]string) { m["dateOfBirth"] = "2030-01-01" }, "dateOfBirth"},
		{"missing gender", func(m map[string]string) { delete(m, "gender") }, "gender"},
		{"unknown gender", func(m map[string]string) { m["gender"] = "robot" }, "gender"},
		{"non-numeric income", func(m map[string]string) { m["income"] = "eighty" }, "income"},
		{"negative income", func(m map[string]string) { m["income"] = "-1" }, "income"},
		{"unknown employment", func(m map[string]string) { m["employment"] = "astronaut" }, "employment"},
		{"bad credit score", func(m map[string]string) { m["creditScore"] = "good" }, "creditScore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validSubmission()
			tt.edit(raw)

			p, err := newTestBuilder().Build(raw)
			assert.Nil(t, p)
			require.ErrorIs(t, err, models.ErrInvalidProfile)

			var perr *models.ProfileError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}

func TestBuild_DateOfBirthBounds(t *testing.T) {
	raw := validSubmission()
	raw["dateOfBirth"] = "1900-01-01"

	p, err := newTestBuilder().Build(raw)
	require.NoError(t, err)
	assert.Equal(t, AgeFromDateOfBirth(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), fixedNow), p.Age)
	assert.Greater(t, p.Age, 120)

	raw["dateOfBirth"] = fixedNow.Format("2006-01-02")
	p, err = newTestBuilder().Build(raw)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Age)
}

func TestBuild_NegativeAgeField(t *testing.T) {
	raw := validSubmission()
	delete(raw, "dateOfBirth")
	raw["age"] = "-3"

	_, err := newTestBuilder().Build(raw)
	assert.ErrorIs(t, err, models.ErrInvalidProfile)
}

func TestAgeFromDateOfBirth(t *testing.T) {
	tests := []struct {
		name string
		born time.Time
		want int
	}{
		{"mid-year", time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC), 45},
		{"young adult", time.Date(1997, 3, 1, 0, 0, 0, 0, time.UTC), 28},
		{"newborn", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 0},
		{"future date is mirrored", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeFromDateOfBirth(tt.born, fixedNow))
		})
	}
}
