// Package intent turns a free-text loan request into raw submission fields.
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"loan-application-engine/internal/services/risk"
	"loan-application-engine/internal/utils"
)

// ErrExtractionFailed is returned when the model reply cannot be read as loan fields.
var ErrExtractionFailed = errors.New("failed to extract intent")

// Extractor asks the generative model to pull loan fields out of text.
type Extractor struct {
	generator risk.Generator
	logger    *zap.Logger
}

// NewExtractor creates an extractor backed by generator.
func NewExtractor(generator risk.Generator, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Extractor{generator: generator, logger: logger}
}

// Extract returns the fields found in text keyed the way the profile builder reads them
// (amount, purpose, age, gender, income, employment, creditScore). Null values are omitted.
func (e *Extractor) Extract(ctx context.Context, text string) (map[string]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrExtractionFailed)
	}
	if e.generator == nil {
		return nil, fmt.Errorf("%w: no model configured", ErrExtractionFailed)
	}

	reply, err := e.generator.GenerateContent(ctx, buildPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	fields, err := parseFields(reply)
	if err != nil {
		e.logger.Warn("Unreadable intent reply", zap.Error(err))
		return nil, err
	}

	e.logger.Debug("Extracted intent", zap.Int("fields", len(fields)))
	return fields, nil
}

func buildPrompt(text string) string {
	quoted, _ := json.Marshal(text)
	return fmt.Sprintf(`Extract loan information from this text and return ONLY valid JSON:

{
  "amount": number,
  "purpose": "personal|business|education|home_purchase|home_improvement|debt_consolidation|medical|equipment",
  "age": number,
  "gender": "male|female|other",
  "income": number,
  "employment": "employed|self-employed|business_owner|student|retired",
  "creditScore": number or null
}

Text: %s

JSON:`, string(quoted))
}

func parseFields(reply string) (map[string]string, error) {
	cleaned := risk.StripCodeFences(reply)

	var raw map[string]interface{}
	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	fields := make(map[string]string, len(raw))
	for key, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			fields[key] = strings.TrimSpace(val)
		case json.Number:
			fields[key] = val.String()
		case bool:
			fields[key] = strconv.FormatBool(val)
		default:
			return nil, fmt.Errorf("%w: field %s has unsupported type %T", ErrExtractionFailed, key, v)
		}
	}
	return fields, nil
}
