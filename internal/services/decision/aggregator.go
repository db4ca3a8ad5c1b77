// Package decision combines the risk verdict and the best product match into one outcome.
package decision

import (
	"fmt"
	"strconv"
	"strings"

	"loan-application-engine/internal/models"
)

// Policy controls how the product and risk flags combine into the final decision.
type Policy string

const (
	// PolicyAny accepts a submission when either side approves.
	PolicyAny Policy = "any"
	// PolicyAll requires both sides to approve.
	PolicyAll Policy = "all"
)

// ReasonNoProducts is recorded when the catalog had nothing to match against.
const ReasonNoProducts = "No loan products configured"

// ParsePolicy converts a config value into a Policy. Empty means PolicyAny.
func ParsePolicy(raw string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "any", "or":
		return PolicyAny, nil
	case "all", "and":
		return PolicyAll, nil
	default:
		return "", fmt.Errorf("unknown eligibility policy %q", raw)
	}
}

// Aggregator produces EligibilityDecisions.
type Aggregator struct {
	policy Policy
}

// NewAggregator creates an aggregator with the given policy.
func NewAggregator(policy Policy) *Aggregator {
	if policy != PolicyAll {
		policy = PolicyAny
	}
	return &Aggregator{policy: policy}
}

// Policy returns the configured policy.
func (a *Aggregator) Policy() Policy {
	return a.policy
}

// Aggregate never fails. A nil best match yields a product-side "No" and a zero score.
func (a *Aggregator) Aggregate(verdict models.RiskVerdict, best *models.ProductMatch, amount float64) models.EligibilityDecision {
	d := models.EligibilityDecision{
		RiskEligible: verdict.Recommendation == models.RecommendationApproved,
		Verdict:      verdict,
	}

	if best == nil || best.Product == nil {
		d.EligibilityReasons = ReasonNoProducts
		d.Eligible = a.combine(false, d.RiskEligible)
		return d
	}

	d.BestProductName = best.Product.Name
	d.EligibilityScore = best.Score
	d.ProductEligible = best.Eligible && best.Product.AmountWithinBounds(amount)

	reasons := append([]string(nil), best.Reasons...)
	if !d.ProductEligible {
		if note := boundsNote(best.Product, amount); note != "" {
			reasons = append(reasons, note)
		}
	}
	d.EligibilityReasons = strings.Join(reasons, "; ")
	d.Eligible = a.combine(d.ProductEligible, d.RiskEligible)

	return d
}

func (a *Aggregator) combine(product, risk bool) bool {
	if a.policy == PolicyAll {
		return product && risk
	}
	return product || risk
}

func boundsNote(p *models.LoanProduct, amount float64) string {
	switch {
	case amount < p.MinAmount:
		return fmt.Sprintf("Requested amount %s is below the minimum of %s for %s",
			formatAmount(amount), formatAmount(p.MinAmount), p.Name)
	case amount > p.MaxAmount:
		return fmt.Sprintf("Requested amount %s is above the maximum of %s for %s",
			formatAmount(amount), formatAmount(p.MaxAmount), p.Name)
	default:
		return ""
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
