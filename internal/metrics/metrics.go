// Package metrics exposes Prometheus collectors for the application pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_submissions_total",
			Help: "Total number of loan submissions by outcome",
		},
		[]string{"outcome"},
	)

	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_decisions_total",
			Help: "Total number of eligibility decisions",
		},
		[]string{"eligible", "product_eligible", "risk_eligible"},
	)

	RiskAssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_risk_assessments_total",
			Help: "Total number of risk assessments by result",
		},
		[]string{"result"},
	)

	RiskAssessmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loan_risk_assessment_duration_seconds",
			Help:    "Duration of risk assessment calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loan_pipeline_duration_seconds",
			Help:    "Duration of the eligibility pipeline in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Risk assessment result labels.
const (
	RiskResultOK          = "ok"
	RiskResultCached      = "cached"
	RiskResultFailed      = "fallback_failed"
	RiskResultUnparseable = "fallback_unparseable"
)

// Submission outcome labels.
const (
	OutcomeAccepted         = "accepted"
	OutcomeInvalidProfile   = "invalid_profile"
	OutcomeStoreFailed      = "store_failed"
	OutcomeEvaluationFailed = "evaluation_failed"
)
