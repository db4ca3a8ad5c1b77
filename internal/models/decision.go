// Package models defines the data structures for the loan application engine.
package models

import (
	"strconv"
	"strings"
	"time"
)

// Recommendation is the risk model's verdict on an application.
type Recommendation string

const (
	RecommendationApproved Recommendation = "Approved"
	RecommendationDenied   Recommendation = "Denied"
	RecommendationPending  Recommendation = "Pending"
)

// NormalizeRecommendation maps any value outside Approved/Denied/Pending to Pending.
func NormalizeRecommendation(raw string) Recommendation {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved":
		return RecommendationApproved
	case "denied":
		return RecommendationDenied
	default:
		return RecommendationPending
	}
}

// RiskVerdict is the normalized result of the external risk assessment.
type RiskVerdict struct {
	RiskScore      float64        `json:"riskScore"`
	Recommendation Recommendation `json:"recommendation"`
	Reasoning      string         `json:"reasoning"`
	Degraded       bool           `json:"degraded,omitempty"`
}

// YesNo renders a flag the way stored records expect it.
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// EligibilityDecision is the combined outcome of one submission.
type EligibilityDecision struct {
	Eligible           bool        `json:"eligible"`
	EligibilityScore   int         `json:"eligibility_score"`
	EligibilityReasons string      `json:"eligibility_reasons"`
	BestProductName    string      `json:"best_product"`
	ProductEligible    bool        `json:"eligible_product"`
	RiskEligible       bool        `json:"gemini_eligible"`
	Verdict            RiskVerdict `json:"verdict"`
}

// Fields flattens the decision into the column names used by stored records.
func (d *EligibilityDecision) Fields() map[string]string {
	return map[string]string{
		"gemini_score":          strconv.FormatFloat(d.Verdict.RiskScore, 'f', -1, 64),
		"gemini_recommendation": string(d.Verdict.Recommendation),
		"gemini_reasoning":      d.Verdict.Reasoning,
		"gemini_eligible":       YesNo(d.RiskEligible),
		"eligible_product":      YesNo(d.ProductEligible),
		"eligibility_score":     strconv.Itoa(d.EligibilityScore),
		"eligibility_reasons":   d.EligibilityReasons,
		"best_product":          d.BestProductName,
		"eligible":              strconv.FormatBool(d.Eligible),
	}
}

// ApplicationRecord is a stored submission together with its decision.
type ApplicationRecord struct {
	ID        string              `json:"id" db:"id"`
	Submitted map[string]string   `json:"submitted" db:"submitted"`
	Decision  EligibilityDecision `json:"decision"`
	CreatedAt time.Time           `json:"created_at" db:"created_at"`
}

// Fields merges the submitted fields with the decision fields.
// Decision fields win on key collisions.
func (r *ApplicationRecord) Fields() map[string]string {
	out := make(map[string]string, len(r.Submitted)+10)
	for k, v := range r.Submitted {
		out[k] = v
	}
	for k, v := range r.Decision.Fields() {
		out[k] = v
	}
	out["id"] = r.ID
	return out
}
