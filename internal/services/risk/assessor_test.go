package risk

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"loan-application-engine/internal/models"
)

type fakeGenerator struct {
	calls   atomic.Int32
	replies []string
	errs    []error
	delay   time.Duration
	panics  bool
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	i := int(f.calls.Add(1)) - 1
	if f.panics {
		panic("boom")
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	reply := ""
	if i < len(f.replies) {
		reply = f.replies[i]
	}
	return reply, err
}

func testProfile() *models.ApplicantProfile {
	return &models.ApplicantProfile{
		Amount:     30000,
		Purpose:    models.PurposePersonal,
		Age:        45,
		Gender:     models.GenderMale,
		Income:     80000,
		Employment: models.EmploymentEmployed,
	}
}

const approvedReply = "```json\n{\"riskScore\": 18, \"recommendation\": \"Approved\", \"reasoning\": \"Low debt ratio\"}\n```"

func TestAssess_ReturnsParsedVerdict(t *testing.T) {
	gen := &fakeGenerator{replies: []string{approvedReply}}
	a := NewAssessor(gen, Options{}, zap.NewNop())

	v := a.Assess(context.Background(), testProfile())
	assert.Equal(t, float64(18), v.RiskScore)
	assert.Equal(t, models.RecommendationApproved, v.Recommendation)
	assert.Equal(t, "Low debt ratio", v.Reasoning)
	assert.False(t, v.Degraded)
}

func TestAssess_FallbackOnCallFailure(t *testing.T) {
	gen := &fakeGenerator{errs: []error{errors.New("connection refused")}}
	v := NewAssessor(gen, Options{}, zap.NewNop()).Assess(context.Background(), testProfile())

	assert.Equal(t, float64(50), v.RiskScore)
	assert.Equal(t, models.RecommendationPending, v.Recommendation)
	assert.Equal(t, FallbackReasoningFailed, v.Reasoning)
	assert.True(t, v.Degraded)
}

func TestAssess_FallbackOnUnparseable(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"I cannot help with that."}}
	v := NewAssessor(gen, Options{}, zap.NewNop()).Assess(context.Background(), testProfile())

	assert.Equal(t, Fallback(FallbackReasoningUnparseable), v)
	assert.NotEmpty(t, v.Reasoning)
}

func TestAssess_FallbackOnTimeout(t *testing.T) {
	gen := &fakeGenerator{replies: []string{approvedReply}, delay: 500 * time.Millisecond}
	a := NewAssessor(gen, Options{Timeout: 20 * time.Millisecond}, zap.NewNop())

	start := time.Now()
	v := a.Assess(context.Background(), testProfile())

	assert.Less(t, time.Since(start), 400*time.Millisecond)
	assert.Equal(t, Fallback(FallbackReasoningFailed), v)
}

func TestAssess_FallbackOnPanic(t *testing.T) {
	gen := &fakeGenerator{panics: true}

	assert.NotPanics(t, func() {
		v := NewAssessor(gen, Options{}, zap.NewNop()).Assess(context.Background(), testProfile())
		assert.Equal(t, models.RecommendationPending, v.Recommendation)
	})
}

func TestAssess_NilGenerator(t *testing.T) {
	v := NewAssessor(nil, Options{}, zap.NewNop()).Assess(context.Background(), testProfile())
	assert.Equal(t, Fallback(FallbackReasoningFailed), v)
}

func TestAssess_NoRetryByDefault(t *testing.T) {
	gen := &fakeGenerator{errs: []error{errors.New("503")}, replies: []string{"", approvedReply}}
	v := NewAssessor(gen, Options{}, zap.NewNop()).Assess(context.Background(), testProfile())

	assert.Equal(t, int32(1), gen.calls.Load())
	assert.True(t, v.Degraded)
}

func TestAssess_OneBoundedRetry(t *testing.T) {
	gen := &fakeGenerator{errs: []error{errors.New("503")}, replies: []string{"", approvedReply}}
	v := NewAssessor(gen, Options{MaxAttempts: 5}, zap.NewNop()).Assess(context.Background(), testProfile())

	assert.Equal(t, int32(2), gen.calls.Load())
	assert.Equal(t, models.RecommendationApproved, v.Recommendation)
}

func TestAssess_UsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	defer client.Close()
	cache := NewRedisCache(client, time.Hour)

	gen := &fakeGenerator{replies: []string{approvedReply}}
	a := NewAssessor(gen, Options{Cache: cache}, zap.NewNop())

	first := a.Assess(context.Background(), testProfile())
	second := a.Assess(context.Background(), testProfile())

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.True(t, mr.Exists(cacheKeyPrefix+Fingerprint(testProfile())))
}

func TestAssess_DoesNotCacheFallback(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	defer client.Close()

	gen := &fakeGenerator{errs: []error{errors.New("down")}}
	a := NewAssessor(gen, Options{Cache: NewRedisCache(client, time.Hour)}, zap.NewNop())

	a.Assess(context.Background(), testProfile())
	assert.False(t, mr.Exists(cacheKeyPrefix+Fingerprint(testProfile())))
}

func TestAssess_CacheOutageIsNotFatal(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	defer client.Close()
	mr.Close()

	gen := &fakeGenerator{replies: []string{approvedReply}}
	a := NewAssessor(gen, Options{Cache: NewRedisCache(client, time.Hour)}, zap.NewNop())

	v := a.Assess(context.Background(), testProfile())
	assert.Equal(t, models.RecommendationApproved, v.Recommendation)
}

func TestFingerprint_Stable(t *testing.T) {
	assert.Equal(t, Fingerprint(testProfile()), Fingerprint(testProfile()))

	other := testProfile()
	other.Amount++
	assert.NotEqual(t, Fingerprint(testProfile()), Fingerprint(other))
}
