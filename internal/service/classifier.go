// Package service implements the agent's domain logic: intent
// classification, scripted tools, retrieval, response synthesis,
// escalation policy and the turn orchestrator.
package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/port"
)

var tracer = otel.Tracer("service")

// Classifier turns a free-form message into a validated IntentJudgment.
type Classifier struct {
	completion port.CompletionClient
	logger     *zap.Logger
}

// NewClassifier creates an intent classifier.
func NewClassifier(completion port.CompletionClient, logger *zap.Logger) *Classifier {
	return &Classifier{completion: completion, logger: logger}
}

// rawJudgment is the unvalidated model output. It never crosses the
// classifier boundary: Classify returns either a validated judgment or
// the default one.
type rawJudgment struct {
	Intent     string            `json:"intent"`
	Confidence *float64          `json:"confidence"`
	Entities   map[string]string `json:"entities"`
}

// Classify asks the completion service for an intent judgment.
// A transport failure is returned as an error; a malformed or
// out-of-schema reply degrades to the default judgment instead.
func (c *Classifier) Classify(ctx context.Context, message string) (*domain.IntentJudgment, error) {
	ctx, span := tracer.Start(ctx, "service.Classify")
	defer span.End()

	reply, err := c.completion.Complete(ctx, intentClassifierPrompt, message)
	if err != nil {
		return nil, err
	}

	judgment, ok := parseJudgment(reply)
	if !ok {
		c.logger.Warn("intent classification returned malformed output, using default",
			zap.String("reply", truncate(reply, 200)),
		)
		return domain.DefaultJudgment(), nil
	}
	return judgment, nil
}

// parseJudgment strips markdown fences, decodes and validates the model
// reply. ok is false when the reply cannot yield a schema-valid judgment.
func parseJudgment(reply string) (*domain.IntentJudgment, bool) {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var raw rawJudgment
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, false
	}
	if raw.Intent == "" || raw.Confidence == nil {
		return nil, false
	}
	if !domain.KnownIntent(raw.Intent) {
		return nil, false
	}
	if *raw.Confidence < 0 || *raw.Confidence > 1 {
		return nil, false
	}

	entities := raw.Entities
	if entities == nil {
		entities = map[string]string{}
	}
	return &domain.IntentJudgment{
		Intent:     domain.Intent(raw.Intent),
		Confidence: *raw.Confidence,
		Entities:   entities,
	}, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
