// Package risk obtains an externally computed risk verdict for an applicant profile.
//
// Assess never returns an error: call failures, timeouts and malformed replies all
// degrade to a fixed fallback verdict.
package risk

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"loan-application-engine/internal/metrics"
	"loan-application-engine/internal/models"
	"loan-application-engine/internal/utils"
)

// Fallback verdict values.
const (
	FallbackRiskScore            = 50
	FallbackReasoningFailed      = "Risk assessment failed; manual review required"
	FallbackReasoningUnparseable = "Risk assessment response was unparseable; manual review required"
)

const (
	defaultTimeout = 15 * time.Second
	maxAttempts    = 2
)

// Fallback returns the degraded verdict used when the model cannot be consulted.
func Fallback(reasoning string) models.RiskVerdict {
	return models.RiskVerdict{
		RiskScore:      FallbackRiskScore,
		Recommendation: models.RecommendationPending,
		Reasoning:      reasoning,
		Degraded:       true,
	}
}

// Options tune the assessor.
type Options struct {
	// Timeout bounds each model call.
	Timeout time.Duration
	// MaxAttempts is 1 (no retry) or 2 (one retry).
	MaxAttempts int
	// Cache is optional.
	Cache VerdictCache
}

// Assessor adapts a Generator into a risk verdict source.
type Assessor struct {
	generator   Generator
	cache       VerdictCache
	timeout     time.Duration
	maxAttempts int
	logger      *zap.Logger
}

// NewAssessor creates an assessor. A nil generator always yields the fallback verdict.
func NewAssessor(generator Generator, opts Options, logger *zap.Logger) *Assessor {
	if logger == nil {
		logger = utils.GetLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.MaxAttempts > maxAttempts {
		opts.MaxAttempts = maxAttempts
	}

	return &Assessor{
		generator:   generator,
		cache:       opts.Cache,
		timeout:     opts.Timeout,
		maxAttempts: opts.MaxAttempts,
		logger:      logger,
	}
}

// Assess returns the model's verdict for profile, or the fallback verdict.
func (a *Assessor) Assess(ctx context.Context, profile *models.ApplicantProfile) models.RiskVerdict {
	start := time.Now()
	defer func() {
		metrics.RiskAssessmentDuration.Observe(time.Since(start).Seconds())
	}()

	key := Fingerprint(profile)
	if verdict, ok := a.cached(ctx, key); ok {
		metrics.RiskAssessmentsTotal.WithLabelValues(metrics.RiskResultCached).Inc()
		return verdict
	}

	if a.generator == nil {
		metrics.RiskAssessmentsTotal.WithLabelValues(metrics.RiskResultFailed).Inc()
		return Fallback(FallbackReasoningFailed)
	}

	prompt, err := BuildPrompt(profile)
	if err != nil {
		a.logger.Warn("Failed to build risk prompt", zap.Error(err))
		metrics.RiskAssessmentsTotal.WithLabelValues(metrics.RiskResultFailed).Inc()
		return Fallback(FallbackReasoningFailed)
	}

	var lastErr error
	unparseable := false
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		text, err := a.generate(ctx, prompt)
		if err != nil {
			lastErr, unparseable = err, false
			a.logger.Warn("Risk assessment call failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		verdict, err := ParseVerdict(text)
		if err != nil {
			lastErr, unparseable = err, true
			a.logger.Warn("Risk assessment response unparseable",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		metrics.RiskAssessmentsTotal.WithLabelValues(metrics.RiskResultOK).Inc()
		a.store(ctx, key, verdict)
		return verdict
	}

	a.logger.Warn("Using fallback risk verdict", zap.Error(lastErr))
	if unparseable {
		metrics.RiskAssessmentsTotal.WithLabelValues(metrics.RiskResultUnparseable).Inc()
		return Fallback(FallbackReasoningUnparseable)
	}
	metrics.RiskAssessmentsTotal.WithLabelValues(metrics.RiskResultFailed).Inc()
	return Fallback(FallbackReasoningFailed)
}

// generate calls the model under the per-attempt timeout. A generator that ignores
// its context is abandoned once the timeout fires; panics become errors.
func (a *Assessor) generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: generator panicked: %v", models.ErrRiskAssessmentDegraded, r)}
			}
		}()
		text, err := a.generator.GenerateContent(callCtx, prompt)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-callCtx.Done():
		return "", fmt.Errorf("%w: %v", models.ErrRiskAssessmentDegraded, callCtx.Err())
	}
}

func (a *Assessor) cached(ctx context.Context, key string) (models.RiskVerdict, bool) {
	if a.cache == nil {
		return models.RiskVerdict{}, false
	}
	verdict, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.Warn("Verdict cache lookup failed", zap.Error(err))
		return models.RiskVerdict{}, false
	}
	if !ok {
		return models.RiskVerdict{}, false
	}
	return *verdict, true
}

func (a *Assessor) store(ctx context.Context, key string, verdict models.RiskVerdict) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, key, verdict); err != nil {
		a.logger.Warn("Failed to cache verdict", zap.Error(err))
	}
}
