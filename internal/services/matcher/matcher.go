// Package matcher scores an applicant profile against every product in the catalog.
package matcher

import (
	"sort"

	"go.uber.org/zap"

	"loan-application-engine/internal/catalog"
	"loan-application-engine/internal/models"
	"loan-application-engine/internal/utils"
)

// Check weights. A product passing every hard check scores 85, plus 5 for a listed purpose.
const (
	WeightAmount     = 30
	WeightGender     = 20
	WeightAge        = 20
	WeightIncome     = 15
	WeightEmployment = 10
	WeightPurpose    = 5
)

// Reason strings, in check order.
const (
	ReasonAmountOK          = "Amount within range"
	ReasonAmountOutOfRange  = "Amount out of range"
	ReasonGenderOK          = "Gender OK"
	ReasonGenderNotOK       = "Gender not OK"
	ReasonAgeOK             = "Age OK"
	ReasonAgeNotOK          = "Age not OK"
	ReasonIncomeOK          = "Income OK"
	ReasonIncomeTooLow      = "Income too low"
	ReasonEmploymentOK      = "Employment OK"
	ReasonEmploymentBlocked = "Employment type not accepted"
	ReasonPurposeMatches    = "Purpose matches"
)

// check is one scoring criterion. Hard checks clear eligibility when they fail.
type check struct {
	weight int
	hard   bool
	pass   string
	fail   string
	test   func(p *models.ApplicantProfile, product *models.LoanProduct) bool
}

var checks = []check{
	{
		weight: WeightAmount, hard: true, pass: ReasonAmountOK, fail: ReasonAmountOutOfRange,
		test: func(p *models.ApplicantProfile, product *models.LoanProduct) bool {
			return product.AmountWithinBounds(p.Amount)
		},
	},
	{
		weight: WeightGender, hard: true, pass: ReasonGenderOK, fail: ReasonGenderNotOK,
		test: func(p *models.ApplicantProfile, product *models.LoanProduct) bool {
			return product.AcceptsGender(p.Gender)
		},
	},
	{
		weight: WeightAge, hard: true, pass: ReasonAgeOK, fail: ReasonAgeNotOK,
		test: func(p *models.ApplicantProfile, product *models.LoanProduct) bool {
			return p.Age >= product.AgeMin && p.Age <= product.AgeMax
		},
	},
	{
		weight: WeightIncome, hard: true, pass: ReasonIncomeOK, fail: ReasonIncomeTooLow,
		test: func(p *models.ApplicantProfile, product *models.LoanProduct) bool {
			return p.Income >= product.MinIncome
		},
	},
	{
		weight: WeightEmployment, hard: true, pass: ReasonEmploymentOK, fail: ReasonEmploymentBlocked,
		test: func(p *models.ApplicantProfile, product *models.LoanProduct) bool {
			return product.AcceptsEmployment(p.Employment)
		},
	},
	{
		// Bonus only; a miss adds no reason
		weight: WeightPurpose, hard: false, pass: ReasonPurposeMatches,
		test: func(p *models.ApplicantProfile, product *models.LoanProduct) bool {
			return product.AcceptsPurpose(p.Purpose)
		},
	},
}

// Matcher evaluates profiles against a fixed catalog.
type Matcher struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewMatcher creates a matcher over the given catalog.
func NewMatcher(c *catalog.Catalog, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Matcher{catalog: c, logger: logger}
}

// Catalog returns the catalog the matcher scores against.
func (m *Matcher) Catalog() *catalog.Catalog {
	return m.catalog
}

// Match returns one ProductMatch per catalog product, eligible first, then by
// descending score. Ties keep catalog order.
func (m *Matcher) Match(profile *models.ApplicantProfile) []models.ProductMatch {
	products := m.catalog.Products()
	matches := make([]models.ProductMatch, len(products))

	for i := range products {
		matches[i] = ScoreProduct(profile, &products[i])
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Eligible != matches[j].Eligible {
			return matches[i].Eligible
		}
		return matches[i].Score > matches[j].Score
	})

	m.logger.Debug("Scored profile against catalog",
		zap.Int("products", len(matches)),
		zap.Int("eligible", CountEligible(matches)),
	)

	return matches
}

// ScoreProduct runs every check against one product. All checks run; none short-circuit.
func ScoreProduct(profile *models.ApplicantProfile, product *models.LoanProduct) models.ProductMatch {
	match := models.ProductMatch{
		Product:  product,
		Eligible: true,
		Reasons:  make([]string, 0, len(checks)),
	}

	for _, c := range checks {
		if c.test(profile, product) {
			match.Score += c.weight
			match.Reasons = append(match.Reasons, c.pass)
			continue
		}
		if c.hard {
			match.Eligible = false
		}
		if c.fail != "" {
			match.Reasons = append(match.Reasons, c.fail)
		}
	}

	return match
}

// SelectBest returns the highest-scoring eligible match whose amount also fits the
// product bounds. With none eligible it returns the highest-scoring match overall.
// It returns nil only for an empty slice.
func SelectBest(matches []models.ProductMatch, amount float64) *models.ProductMatch {
	var best, closest *models.ProductMatch

	for i := range matches {
		m := &matches[i]
		if closest == nil || m.Score > closest.Score {
			closest = m
		}
		if !m.Eligible || !m.Product.AmountWithinBounds(amount) {
			continue
		}
		if best == nil || m.Score > best.Score {
			best = m
		}
	}

	if best != nil {
		return best
	}
	return closest
}

// CountEligible returns how many matches passed every hard check.
func CountEligible(matches []models.ProductMatch) int {
	n := 0
	for _, m := range matches {
		if m.Eligible {
			n++
		}
	}
	return n
}
