package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-application-engine/internal/models"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence without newline", "```json{\"a\":1}```", `{"a":1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\":1}\n```\n ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestParseVerdict_Valid(t *testing.T) {
	text := "```json\n{\"riskScore\": 22, \"recommendation\": \"Approved\", \"reasoning\": \"Stable income\"}\n```"

	v, err := ParseVerdict(text)
	require.NoError(t, err)
	assert.Equal(t, float64(22), v.RiskScore)
	assert.Equal(t, models.RecommendationApproved, v.Recommendation)
	assert.Equal(t, "Stable income", v.Reasoning)
	assert.False(t, v.Degraded)
}

func TestParseVerdict_NormalizesRecommendation(t *testing.T) {
	tests := map[string]models.Recommendation{
		"approved":  models.RecommendationApproved,
		"DENIED":    models.RecommendationDenied,
		"Pending":   models.RecommendationPending,
		"Maybe":     models.RecommendationPending,
		"":          models.RecommendationPending,
		"Approved!": models.RecommendationPending,
	}

	for rec, want := range tests {
		v, err := ParseVerdict(`{"riskScore": 40, "recommendation": "` + rec + `", "reasoning": "x"}`)
		require.NoError(t, err, rec)
		assert.Equal(t, want, v.Recommendation, rec)
	}
}

func TestParseVerdict_ClampsScore(t *testing.T) {
	v, err := ParseVerdict(`{"riskScore": 140, "recommendation": "Denied", "reasoning": "x"}`)
	require.NoError(t, err)
	assert.Equal(t, float64(100), v.RiskScore)

	v, err = ParseVerdict(`{"riskScore": -3, "recommendation": "Denied", "reasoning": "x"}`)
	require.NoError(t, err)
	assert.Equal(t, float64(0), v.RiskScore)
}

func TestParseVerdict_Rejects(t *testing.T) {
	tests := map[string]string{
		"empty":             "",
		"prose":             "The applicant looks fine to me.",
		"missing fields":    `{"riskScore": 10}`,
		"string score":      `{"riskScore": "low", "recommendation": "Approved", "reasoning": "x"}`,
		"array":             `[1,2,3]`,
		"truncated":         `{"riskScore": 10, "recommendation": "Appr`,
		"numeric reasoning": `{"riskScore": 10, "recommendation": "Approved", "reasoning": 5}`,
	}

	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseVerdict(text)
			assert.ErrorIs(t, err, models.ErrRiskAssessmentDegraded)
		})
	}
}
