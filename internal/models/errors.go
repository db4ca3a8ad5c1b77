// Package models defines the data structures for the loan application engine.
package models

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrInvalidProfile         = errors.New("invalid applicant profile")
	ErrRiskAssessmentDegraded = errors.New("risk assessment degraded")
	ErrEmptyCatalog           = errors.New("loan product catalog is empty")
	ErrInvalidProduct         = errors.New("invalid loan product")
	ErrApplicationNotFound    = errors.New("application not found")
)

// ProfileError names the submitted field that could not be normalized.
type ProfileError struct {
	Field  string
	Reason string
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidProfile, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidProfile.
func (e *ProfileError) Unwrap() error {
	return ErrInvalidProfile
}

// MissingField returns a ProfileError for a required field that was absent or blank.
func MissingField(field string) *ProfileError {
	return &ProfileError{Field: field, Reason: "is required"}
}
