// Package pipeline runs one submission through profile building, risk assessment,
// product matching and decision aggregation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"loan-application-engine/internal/metrics"
	"loan-application-engine/internal/models"
	"loan-application-engine/internal/services/decision"
	"loan-application-engine/internal/services/matcher"
	"loan-application-engine/internal/utils"
)

// ErrStageFailed is returned when a concurrent evaluation stage fails.
var ErrStageFailed = errors.New("evaluation stage failed")

// RequiredFields must be present and non-blank on a form submission.
var RequiredFields = []string{
	"fullName", "email", "dateOfBirth", "phone",
	"loanAmount", "loanTerm", "employment", "income", "loanPurpose",
}

// ProfileBuilder normalizes raw fields.
type ProfileBuilder interface {
	Build(raw map[string]string) (*models.ApplicantProfile, error)
}

// RiskAssessor returns a verdict for a profile. It must not fail.
type RiskAssessor interface {
	Assess(ctx context.Context, profile *models.ApplicantProfile) models.RiskVerdict
}

// ProductMatcher scores a profile against the catalog.
type ProductMatcher interface {
	Match(profile *models.ApplicantProfile) []models.ProductMatch
}

// Store persists a decided application.
type Store interface {
	CreateApplication(ctx context.Context, record *models.ApplicationRecord) (*models.ApplicationRecord, error)
}

// Notifier tells the applicant about their decision.
type Notifier interface {
	SendDecision(ctx context.Context, to string, record *models.ApplicationRecord) error
}

// Result is the outcome of evaluating one profile.
type Result struct {
	Profile  *models.ApplicantProfile    `json:"profile"`
	Matches  []models.ProductMatch       `json:"matches"`
	Best     *models.ProductMatch        `json:"best,omitempty"`
	Decision models.EligibilityDecision `json:"decision"`
}

// Pipeline wires the pipeline stages together.
type Pipeline struct {
	builder    ProfileBuilder
	assessor   RiskAssessor
	matcher    ProductMatcher
	aggregator *decision.Aggregator
	store      Store
	notifier   Notifier
	logger     *zap.Logger
}

// Config holds the pipeline collaborators. Store and Notifier are optional.
type Config struct {
	Builder    ProfileBuilder
	Assessor   RiskAssessor
	Matcher    ProductMatcher
	Aggregator *decision.Aggregator
	Store      Store
	Notifier   Notifier
	Logger     *zap.Logger
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = utils.GetLogger()
	}
	aggregator := cfg.Aggregator
	if aggregator == nil {
		aggregator = decision.NewAggregator(decision.PolicyAny)
	}

	return &Pipeline{
		builder:    cfg.Builder,
		assessor:   cfg.Assessor,
		matcher:    cfg.Matcher,
		aggregator: aggregator,
		store:      cfg.Store,
		notifier:   cfg.Notifier,
		logger:     logger,
	}
}

// Evaluate builds the profile and decides it without persisting anything.
// Risk failures degrade to the fallback verdict. Errors are an invalid profile
// or ErrStageFailed when a stage panics.
func (p *Pipeline) Evaluate(ctx context.Context, raw map[string]string) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	profile, err := p.builder.Build(raw)
	if err != nil {
		return nil, err
	}

	var (
		verdict models.RiskVerdict
		matches []models.ProductMatch
	)

	// Risk assessment and matching share no data; run them side by side.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runStage("risk assessment", func() {
			verdict = p.assessor.Assess(gctx, profile)
		})
	})
	g.Go(func() error {
		return runStage("matching", func() {
			matches = p.matcher.Match(profile)
		})
	})
	if err := g.Wait(); err != nil {
		p.logger.Error("Evaluation stage failed", zap.Error(err))
		return nil, err
	}

	best := matcher.SelectBest(matches, profile.Amount)
	d := p.aggregator.Aggregate(verdict, best, profile.Amount)

	metrics.DecisionsTotal.WithLabelValues(
		strconv.FormatBool(d.Eligible),
		strconv.FormatBool(d.ProductEligible),
		strconv.FormatBool(d.RiskEligible),
	).Inc()

	return &Result{
		Profile:  profile,
		Matches:  matches,
		Best:     best,
		Decision: d,
	}, nil
}

// Submit validates a form submission, decides it and stores the record.
func (p *Pipeline) Submit(ctx context.Context, raw map[string]string) (*models.ApplicationRecord, error) {
	if err := ValidateRequired(raw); err != nil {
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeInvalidProfile).Inc()
		return nil, err
	}

	result, err := p.Evaluate(ctx, raw)
	if err != nil {
		outcome := metrics.OutcomeEvaluationFailed
		if IsInvalidProfile(err) {
			outcome = metrics.OutcomeInvalidProfile
		}
		metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}

	record := &models.ApplicationRecord{
		ID:        uuid.New().String(),
		Submitted: copyFields(raw),
		Decision:  result.Decision,
		CreatedAt: time.Now().UTC(),
	}

	log := p.logger.With(zap.String("application_id", record.ID))
	log.Info("Application decided",
		zap.Bool("eligible", record.Decision.Eligible),
		zap.Bool("product_eligible", record.Decision.ProductEligible),
		zap.Bool("risk_eligible", record.Decision.RiskEligible),
		zap.String("best_product", record.Decision.BestProductName),
		zap.Int("score", record.Decision.EligibilityScore),
		zap.Bool("risk_degraded", record.Decision.Verdict.Degraded),
	)

	if p.store != nil {
		stored, err := p.store.CreateApplication(ctx, record)
		if err != nil {
			metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeStoreFailed).Inc()
			log.Error("Failed to save application", zap.Error(err))
			return nil, fmt.Errorf("failed to save application: %w", err)
		}
		record = stored
	}

	metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	p.notify(ctx, log, record)

	return record, nil
}

// notify is best effort; a failed email never fails the submission.
func (p *Pipeline) notify(ctx context.Context, log *zap.Logger, record *models.ApplicationRecord) {
	if p.notifier == nil {
		return
	}
	to := strings.TrimSpace(record.Submitted["email"])
	if to == "" {
		return
	}
	if err := p.notifier.SendDecision(ctx, to, record); err != nil {
		log.Warn("Failed to send decision email", zap.Error(err))
	}
}

// runStage turns a panic in fn into an error.
func runStage(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s panicked: %v", ErrStageFailed, name, r)
		}
	}()
	fn()
	return nil
}

// ValidateRequired returns a *models.ProfileError for the first blank required field.
func ValidateRequired(raw map[string]string) error {
	for _, key := range RequiredFields {
		if strings.TrimSpace(raw[key]) == "" {
			return models.MissingField(key)
		}
	}
	return nil
}

// IsInvalidProfile reports whether err is a user-facing validation failure.
func IsInvalidProfile(err error) bool {
	return errors.Is(err, models.ErrInvalidProfile)
}

func copyFields(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}
