package risk

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"loan-application-engine/internal/models"
)

const verdictSchemaJSON = `{
  "type": "object",
  "required": ["riskScore", "recommendation", "reasoning"],
  "properties": {
    "riskScore": {"type": "number"},
    "recommendation": {"type": "string"},
    "reasoning": {"type": "string"}
  }
}`

var (
	verdictSchema = mustSchema(verdictSchemaJSON)

	leadingFence  = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?```$")
)

func mustSchema(doc string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("invalid verdict schema: %v", err))
	}
	return schema
}

type rawVerdict struct {
	RiskScore      float64 `json:"riskScore"`
	Recommendation string  `json:"recommendation"`
	Reasoning      string  `json:"reasoning"`
}

// StripCodeFences removes a leading ```lang line and a trailing ``` marker.
func StripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = leadingFence.ReplaceAllString(cleaned, "")
	cleaned = trailingFence.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// ParseVerdict decodes the model's reply into a normalized verdict.
// The reply must be a JSON object with riskScore, recommendation and reasoning.
func ParseVerdict(text string) (models.RiskVerdict, error) {
	cleaned := StripCodeFences(text)
	if cleaned == "" {
		return models.RiskVerdict{}, fmt.Errorf("%w: empty response", models.ErrRiskAssessmentDegraded)
	}

	result, err := verdictSchema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return models.RiskVerdict{}, fmt.Errorf("%w: response is not JSON: %v", models.ErrRiskAssessmentDegraded, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return models.RiskVerdict{}, fmt.Errorf("%w: %s", models.ErrRiskAssessmentDegraded, strings.Join(problems, "; "))
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return models.RiskVerdict{}, fmt.Errorf("%w: %v", models.ErrRiskAssessmentDegraded, err)
	}

	return models.RiskVerdict{
		RiskScore:      clampScore(raw.RiskScore),
		Recommendation: models.NormalizeRecommendation(raw.Recommendation),
		Reasoning:      strings.TrimSpace(raw.Reasoning),
	}, nil
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
