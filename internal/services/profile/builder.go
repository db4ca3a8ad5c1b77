// Package profile turns raw submitted fields into a normalized applicant profile.
package profile

import (
	"math"
	"strconv"
	"strings"
	"time"

	"loan-application-engine/internal/models"
)

// Field keys accepted in a raw submission, in lookup order.
var (
	amountKeys      = []string{"loanAmount", "amount"}
	purposeKeys     = []string{"loanPurpose", "purpose"}
	genderKeys      = []string{"gender"}
	incomeKeys      = []string{"income", "annualIncome"}
	employmentKeys  = []string{"employment", "employmentStatus"}
	creditScoreKeys = []string{"creditScore"}
)

// dateLayouts are the accepted date-of-birth formats.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// earliestDateOfBirth keeps now.Sub(born) well inside the range of time.Duration.
var earliestDateOfBirth = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Builder normalizes raw submissions. It has no side effects.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a builder using the wall clock.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// NewBuilderWithClock creates a builder with a fixed notion of "now", for tests and replays.
func NewBuilderWithClock(now func() time.Time) *Builder {
	return &Builder{now: now}
}

// Build returns a complete profile or a *models.ProfileError naming the first bad field.
func (b *Builder) Build(raw map[string]string) (*models.ApplicantProfile, error) {
	amountKey, amountText := lookup(raw, amountKeys)
	if amountText == "" {
		return nil, models.MissingField(amountKeys[0])
	}
	amount, err := parseNumber(amountKey, amountText)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, &models.ProfileError{Field: amountKey, Reason: "must be positive"}
	}

	purposeKey, purposeText := lookup(raw, purposeKeys)
	if purposeText == "" {
		return nil, models.MissingField(purposeKeys[0])
	}
	purpose := models.NormalizePurpose(purposeText)
	if !purpose.IsValid() {
		return nil, &models.ProfileError{Field: purposeKey, Reason: "is not a recognised purpose"}
	}

	age, err := b.age(raw)
	if err != nil {
		return nil, err
	}

	genderKey, genderText := lookup(raw, genderKeys)
	if genderText == "" {
		return nil, models.MissingField(genderKeys[0])
	}
	gender := models.NormalizeGender(genderText)
	if !gender.IsValid() {
		return nil, &models.ProfileError{Field: genderKey, Reason: "must be male, female or other"}
	}

	incomeKey, incomeText := lookup(raw, incomeKeys)
	if incomeText == "" {
		return nil, models.MissingField(incomeKeys[0])
	}
	income, err := parseNumber(incomeKey, incomeText)
	if err != nil {
		return nil, err
	}
	if income < 0 {
		return nil, &models.ProfileError{Field: incomeKey, Reason: "cannot be negative"}
	}

	employmentKey, employmentText := lookup(raw, employmentKeys)
	if employmentText == "" {
		return nil, models.MissingField(employmentKeys[0])
	}
	employment := models.NormalizeEmploymentType(employmentText)
	if !employment.IsValid() {
		return nil, &models.ProfileError{Field: employmentKey, Reason: "is not a recognised employment type"}
	}

	profile := &models.ApplicantProfile{
		Amount:     amount,
		Purpose:    purpose,
		Age:        age,
		Gender:     gender,
		Income:     income,
		Employment: employment,
	}

	if key, text := lookup(raw, creditScoreKeys); text != "" {
		score, err := parseNumber(key, text)
		if err != nil {
			return nil, err
		}
		if score < 0 {
			return nil, &models.ProfileError{Field: key, Reason: "cannot be negative"}
		}
		profile.CreditScore = &score
	}

	return profile, nil
}

// age prefers dateOfBirth and falls back to an explicit age field.
func (b *Builder) age(raw map[string]string) (int, error) {
	if dob := strings.TrimSpace(raw["dateOfBirth"]); dob != "" {
		born, err := parseDate(dob)
		if err != nil {
			return 0, &models.ProfileError{Field: "dateOfBirth", Reason: "is not a valid date"}
		}
		now := b.now()
		if born.Before(earliestDateOfBirth) {
			return 0, &models.ProfileError{Field: "dateOfBirth", Reason: "must not be before 1900"}
		}
		if born.After(now) {
			return 0, &models.ProfileError{Field: "dateOfBirth", Reason: "cannot be in the future"}
		}
		return AgeFromDateOfBirth(born, now), nil
	}

	text := strings.TrimSpace(raw["age"])
	if text == "" {
		return 0, models.MissingField("dateOfBirth")
	}
	age, err := strconv.Atoi(text)
	if err != nil {
		return 0, &models.ProfileError{Field: "age", Reason: "must be a whole number"}
	}
	if age < 0 {
		return 0, &models.ProfileError{Field: "age", Reason: "cannot be negative"}
	}
	return age, nil
}

// AgeFromDateOfBirth adds the elapsed time since birth to the Unix epoch and
// reads off the year difference. Leap days are not accounted for.
func AgeFromDateOfBirth(born, now time.Time) int {
	epoch := time.Unix(0, 0).UTC()
	years := epoch.Add(now.Sub(born)).Year() - epoch.Year()
	if years < 0 {
		return -years
	}
	return years
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseNumber accepts plain numbers with optional thousands separators and a leading currency sign.
func parseNumber(field, s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &models.ProfileError{Field: field, Reason: "must be a number"}
	}
	return v, nil
}

func lookup(raw map[string]string, keys []string) (string, string) {
	for _, k := range keys {
		if v := strings.TrimSpace(raw[k]); v != "" {
			return k, v
		}
	}
	return keys[0], ""
}
