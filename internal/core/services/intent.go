package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/core/ports/driven"
	"github.com/agrichat/agrichat/internal/logger"
	"github.com/agrichat/agrichat/internal/prompts"
)

// ConfidenceThreshold is the minimum model confidence below which the
// model verdict is discarded in favour of the rule engine.
const ConfidenceThreshold = 0.7

// IntentClassifier decides whether a query needs retrieval, is small
// talk, or is off-topic. The primary path asks a language model for a
// structured judgment; a deterministic rule engine serves as fallback
// and as a keyword override layer on top of confident verdicts.
//
// Classification is a pure function of the query: no state persists
// across calls, and a model failure never reaches the caller.
type IntentClassifier struct {
	llm driven.LLMService
}

// NewIntentClassifier creates a classifier. The llm parameter is
// optional; when nil, every query goes through the rule engine.
func NewIntentClassifier(llm driven.LLMService) *IntentClassifier {
	return &IntentClassifier{llm: llm}
}

// Classify determines the intent of a query. It never returns an error:
// any model failure, malformed output, or low confidence falls through
// to the rule engine.
func (c *IntentClassifier) Classify(ctx context.Context, query string) domain.Intent {
	if c.llm == nil {
		return ruleClassify(query)
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: prompts.IntentSystem},
		{Role: "user", Content: query},
	}
	raw, err := c.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: 0.0, MaxTokens: 500})
	if err != nil {
		logger.Warn("Intent classification model call failed: %v (using rule engine)", err)
		return ruleClassify(query)
	}

	intent, err := parseIntent(raw)
	if err != nil {
		logger.Warn("Intent classification output unparseable: %v (using rule engine)", err)
		return ruleClassify(query)
	}

	if intent.Confidence < ConfidenceThreshold {
		logger.Debug("Model confidence %.2f below threshold, using rule engine", intent.Confidence)
		return ruleClassify(query)
	}

	intent.Reason = "LLM分類 - " + intent.Reason
	return applyOverrides(query, intent)
}

// parseIntent extracts the structured judgment from model output.
// Models wrap JSON in fenced code blocks often enough that we locate
// the outermost braces instead of trusting the raw string.
func parseIntent(raw string) (domain.Intent, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return domain.Intent{}, domain.ErrInvalidInput
	}

	parsed := struct {
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
		Reason     string  `json:"reason"`
	}{Confidence: 0.8}

	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return domain.Intent{}, err
	}

	intentType := domain.IntentType(strings.ToUpper(strings.TrimSpace(parsed.Type)))
	if !intentType.IsValid() {
		return domain.Intent{}, domain.ErrInvalidInput
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		return domain.Intent{}, domain.ErrInvalidInput
	}

	return domain.Intent{
		Type:       intentType,
		Confidence: parsed.Confidence,
		Reason:     parsed.Reason,
	}, nil
}
