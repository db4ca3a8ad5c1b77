package risk

import (
	"encoding/json"
	"fmt"

	"loan-application-engine/internal/models"
)

// BuildPrompt embeds the profile as JSON and asks for a strict verdict object.
func BuildPrompt(profile *models.ApplicantProfile) (string, error) {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}

	return fmt.Sprintf(`You are a loan risk analyst. Assess the credit risk of this loan applicant.

APPLICANT PROFILE:
%s

Respond ONLY with valid JSON in this exact format:
{
  "riskScore": number between 0 (lowest risk) and 100 (highest risk),
  "recommendation": "Approved" | "Denied" | "Pending",
  "reasoning": "Brief explanation"
}

Consider:
1. Is the requested amount reasonable relative to income?
2. Does the employment situation support repayment?
3. Does the stated purpose carry additional risk?
4. Overall likelihood of repayment`, string(data)), nil
}
