// Package models defines the data structures for the loan application engine.
package models

import (
	"strings"
)

// Purpose is the declared use of the requested loan.
type Purpose string

const (
	PurposePersonal          Purpose = "personal"
	PurposeBusiness          Purpose = "business"
	PurposeEducation         Purpose = "education"
	PurposeHomePurchase      Purpose = "home_purchase"
	PurposeDebtConsolidation Purpose = "debt_consolidation"
	PurposeMedical           Purpose = "medical"
	PurposeEquipment         Purpose = "equipment"
	PurposeOther             Purpose = "other"
)

// Gender of the applicant, as submitted.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// EmploymentType represents the employment situation of an applicant.
type EmploymentType string

const (
	EmploymentEmployed      EmploymentType = "employed"
	EmploymentSelfEmployed  EmploymentType = "self-employed"
	EmploymentBusinessOwner EmploymentType = "business_owner"
	EmploymentStudent       EmploymentType = "student"
	EmploymentRetired       EmploymentType = "retired"
)

// ValidPurposes returns all accepted purpose values.
func ValidPurposes() []Purpose {
	return []Purpose{
		PurposePersonal,
		PurposeBusiness,
		PurposeEducation,
		PurposeHomePurchase,
		PurposeDebtConsolidation,
		PurposeMedical,
		PurposeEquipment,
		PurposeOther,
	}
}

// IsValid checks if the purpose is one of the known values.
func (p Purpose) IsValid() bool {
	for _, valid := range ValidPurposes() {
		if p == valid {
			return true
		}
	}
	return false
}

// IsValid checks if the gender is one of the known values.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// ValidEmploymentTypes returns all accepted employment values.
func ValidEmploymentTypes() []EmploymentType {
	return []EmploymentType{
		EmploymentEmployed,
		EmploymentSelfEmployed,
		EmploymentBusinessOwner,
		EmploymentStudent,
		EmploymentRetired,
	}
}

// IsValid checks if the employment type is one of the known values.
func (e EmploymentType) IsValid() bool {
	for _, valid := range ValidEmploymentTypes() {
		if e == valid {
			return true
		}
	}
	return false
}

// ApplicantProfile is the canonical, normalized view of a submission used for scoring.
// A profile is never partially built.
type ApplicantProfile struct {
	Amount      float64        `json:"amount"`
	Purpose     Purpose        `json:"purpose"`
	Age         int            `json:"age"`
	Gender      Gender         `json:"gender"`
	Income      float64        `json:"income"`
	Employment  EmploymentType `json:"employment"`
	CreditScore *float64       `json:"creditScore,omitempty"`
}

// normalizeToken lowercases and maps spaces and hyphens to underscores.
func normalizeToken(s string) string {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	return normalized
}

// NormalizeEmploymentType converts various employment formats to standard values.
func NormalizeEmploymentType(raw string) EmploymentType {
	employmentMap := map[string]EmploymentType{
		"employed":        EmploymentEmployed,
		"salaried":        EmploymentEmployed,
		"full_time":       EmploymentEmployed,
		"fulltime":        EmploymentEmployed,
		"part_time":       EmploymentEmployed,
		"parttime":        EmploymentEmployed,
		"self_employed":   EmploymentSelfEmployed,
		"selfemployed":    EmploymentSelfEmployed,
		"self_employment": EmploymentSelfEmployed,
		"freelancer":      EmploymentSelfEmployed,
		"business_owner":  EmploymentBusinessOwner,
		"businessowner":   EmploymentBusinessOwner,
		"entrepreneur":    EmploymentBusinessOwner,
		"student":         EmploymentStudent,
		"studying":        EmploymentStudent,
		"retired":         EmploymentRetired,
		"pensioner":       EmploymentRetired,
	}

	normalized := normalizeToken(raw)
	if mapped, ok := employmentMap[normalized]; ok {
		return mapped
	}

	// Returned as-is; fails IsValid
	return EmploymentType(normalized)
}

// NormalizePurpose converts a submitted purpose to a standard value.
// Unrecognised but non-empty purposes become PurposeOther.
func NormalizePurpose(raw string) Purpose {
	normalized := normalizeToken(raw)
	if normalized == "" {
		return ""
	}

	aliases := map[string]Purpose{
		"home":          PurposeHomePurchase,
		"house":         PurposeHomePurchase,
		"mortgage":      PurposeHomePurchase,
		"debt":          PurposeDebtConsolidation,
		"consolidation": PurposeDebtConsolidation,
		"tuition":       PurposeEducation,
		"school":        PurposeEducation,
		"health":        PurposeMedical,
	}
	if mapped, ok := aliases[normalized]; ok {
		return mapped
	}

	if p := Purpose(normalized); p.IsValid() {
		return p
	}
	return PurposeOther
}

// NormalizeGender converts a submitted gender to a standard value.
func NormalizeGender(raw string) Gender {
	switch normalizeToken(raw) {
	case "male", "m", "man":
		return GenderMale
	case "female", "f", "woman":
		return GenderFemale
	case "other", "non_binary", "nonbinary":
		return GenderOther
	}
	return Gender(normalizeToken(raw))
}
