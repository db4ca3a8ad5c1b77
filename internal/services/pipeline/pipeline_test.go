package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loan-application-engine/internal/catalog"
	"loan-application-engine/internal/models"
	"loan-application-engine/internal/services/decision"
	"loan-application-engine/internal/services/matcher"
	"loan-application-engine/internal/services/profile"
	"loan-application-engine/internal/services/risk"
)

type fakeAssessor struct {
	verdict models.RiskVerdict
	calls   int
	mu      sync.Mutex
}

func (f *fakeAssessor) Assess(ctx context.Context, p *models.ApplicantProfile) models.RiskVerdict {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.verdict
}

type fakeStore struct {
	saved []*models.ApplicationRecord
	err   error
}

func (f *fakeStore) CreateApplication(ctx context.Context, r *models.ApplicationRecord) (*models.ApplicationRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, r)
	return r, nil
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) SendDecision(ctx context.Context, to string, r *models.ApplicationRecord) error {
	f.sent = append(f.sent, to)
	return f.err
}

func fixedNow() time.Time {
	return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
}

func newPipeline(t *testing.T, assessor RiskAssessor, store Store, notifier Notifier, products []models.LoanProduct) *Pipeline {
	var c *catalog.Catalog
	var err error
	if products == nil {
		c, err = catalog.Default()
	} else {
		c, err = catalog.New(1, products)
	}
	require.NoError(t, err)

	return New(Config{
		Builder:    profile.NewBuilderWithClock(fixedNow),
		Assessor:   assessor,
		Matcher:    matcher.NewMatcher(c, zap.NewNop()),
		Aggregator: decision.NewAggregator(decision.PolicyAny),
		Store:      store,
		Notifier:   notifier,
		Logger:     zap.NewNop(),
	})
}

func johnSubmission() map[string]string {
	return map[string]string{
		"fullName":    "John Doe",
		"email":       "john@example.com",
		"dateOfBirth": "1980-01-01",
		"phone":       "555-0100",
		"gender":      "male",
		"loanAmount":  "30000",
		"loanTerm":    "36",
		"employment":  "employed",
		"income":      "80000",
		"loanPurpose": "personal",
	}
}

func TestEvaluate_Scenario1(t *testing.T) {
	assessor := &fakeAssessor{verdict: models.RiskVerdict{RiskScore: 20, Recommendation: models.RecommendationApproved, Reasoning: "fine"}}
	p := newPipeline(t, assessor, nil, nil, nil)

	res, err := p.Evaluate(context.Background(), johnSubmission())
	require.NoError(t, err)

	assert.Equal(t, 45, res.Profile.Age)
	assert.Len(t, res.Matches, 3)
	require.NotNil(t, res.Best)
	assert.Equal(t, "personal-basic", res.Best.Product.ID)
	assert.Equal(t, 95, res.Decision.EligibilityScore)
	assert.True(t, res.Decision.ProductEligible)
	assert.True(t, res.Decision.RiskEligible)
	assert.True(t, res.Decision.Eligible)
	assert.Equal(t, 1, assessor.calls)
}

func TestEvaluate_InvalidProfileSkipsScoring(t *testing.T) {
	assessor := &fakeAssessor{}
	p := newPipeline(t, assessor, nil, nil, nil)

	raw := johnSubmission()
	raw["income"] = "lots"

	_, err := p.Evaluate(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, IsInvalidProfile(err))

	var pe *models.ProfileError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "income", pe.Field)
	assert.Equal(t, 0, assessor.calls)
}

func TestEvaluate_EmptyCatalog(t *testing.T) {
	assessor := &fakeAssessor{verdict: models.RiskVerdict{RiskScore: 10, Recommendation: models.RecommendationApproved}}
	p := newPipeline(t, assessor, nil, nil, []models.LoanProduct{})

	res, err := p.Evaluate(context.Background(), johnSubmission())
	require.NoError(t, err)

	assert.Empty(t, res.Matches)
	assert.Nil(t, res.Best)
	assert.False(t, res.Decision.ProductEligible)
	assert.Equal(t, 0, res.Decision.EligibilityScore)
	assert.True(t, res.Decision.Eligible)
}

func TestEvaluate_FallbackVerdict(t *testing.T) {
	p := newPipeline(t, &fakeAssessor{verdict: risk.Fallback(risk.FallbackReasoningFailed)}, nil, nil, nil)

	raw := johnSubmission()
	raw["loanAmount"] = "150000"

	res, err := p.Evaluate(context.Background(), raw)
	require.NoError(t, err)

	fields := res.Decision.Fields()
	assert.Equal(t, "50", fields["gemini_score"])
	assert.Equal(t, "Pending", fields["gemini_recommendation"])
	assert.Equal(t, "No", fields["gemini_eligible"])
	assert.Equal(t, "No", fields["eligible_product"])
	assert.Equal(t, "false", fields["eligible"])
}

func TestSubmit_StoresAndNotifies(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	p := newPipeline(t, &fakeAssessor{verdict: models.RiskVerdict{Recommendation: models.RecommendationDenied}}, store, notifier, nil)

	rec, err := p.Submit(context.Background(), johnSubmission())
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	require.Len(t, store.saved, 1)
	assert.Equal(t, rec.ID, store.saved[0].ID)
	assert.Equal(t, []string{"john@example.com"}, notifier.sent)

	fields := rec.Fields()
	assert.Equal(t, "John Doe", fields["fullName"])
	assert.Equal(t, "Personal Loan Basic", fields["best_product"])
	assert.Equal(t, "Yes", fields["eligible_product"])
	assert.Equal(t, "true", fields["eligible"])
	assert.Equal(t, rec.ID, fields["id"])
}

func TestSubmit_MissingField(t *testing.T) {
	store := &fakeStore{}
	p := newPipeline(t, &fakeAssessor{}, store, nil, nil)

	for _, key := range RequiredFields {
		raw := johnSubmission()
		raw[key] = "   "

		_, err := p.Submit(context.Background(), raw)
		var pe *models.ProfileError
		require.ErrorAs(t, err, &pe, key)
		assert.Equal(t, key, pe.Field)
	}
	assert.Empty(t, store.saved)
}

func TestSubmit_StoreFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	notifier := &fakeNotifier{}
	p := newPipeline(t, &fakeAssessor{}, &fakeStore{err: storeErr}, notifier, nil)

	_, err := p.Submit(context.Background(), johnSubmission())
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, IsInvalidProfile(err))
	assert.Empty(t, notifier.sent)
}

func TestSubmit_NotifierFailureIsNotFatal(t *testing.T) {
	p := newPipeline(t, &fakeAssessor{}, &fakeStore{}, &fakeNotifier{err: errors.New("ses throttled")}, nil)

	rec, err := p.Submit(context.Background(), johnSubmission())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
}

func TestSubmit_DoesNotAliasInput(t *testing.T) {
	p := newPipeline(t, &fakeAssessor{}, nil, nil, nil)

	raw := johnSubmission()
	rec, err := p.Submit(context.Background(), raw)
	require.NoError(t, err)

	raw["fullName"] = "Changed"
	assert.Equal(t, "John Doe", rec.Submitted["fullName"])
}

type panickingMatcher struct{}

func (panickingMatcher) Match(p *models.ApplicantProfile) []models.ProductMatch {
	panic("catalog index corrupted")
}

func TestEvaluate_FailingStageIsReported(t *testing.T) {
	store := &fakeStore{}
	p := New(Config{
		Builder:  profile.NewBuilderWithClock(fixedNow),
		Assessor: &fakeAssessor{verdict: risk.Fallback("unused")},
		Matcher:  panickingMatcher{},
		Store:    store,
		Logger:   zap.NewNop(),
	})

	res, err := p.Evaluate(context.Background(), johnSubmission())
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrStageFailed)
	assert.Contains(t, err.Error(), "matching")
	assert.False(t, IsInvalidProfile(err))

	_, err = p.Submit(context.Background(), johnSubmission())
	require.ErrorIs(t, err, ErrStageFailed)
	assert.Empty(t, store.saved)
}
