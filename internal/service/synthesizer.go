package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/port"
)

// Synthesizer generates the reply text, either grounded in retrieved
// knowledge or from general banking knowledge.
type Synthesizer struct {
	completion port.CompletionClient
	logger     *zap.Logger
}

// NewSynthesizer creates a response synthesizer.
func NewSynthesizer(completion port.CompletionClient, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{completion: completion, logger: logger}
}

// Grounded builds the reply from the retrieved entries. Returned
// sources carry one "FAQ: <category>" marker per entry, in rank order.
func (s *Synthesizer) Grounded(ctx context.Context, message string, entries []domain.KnowledgeEntry, lang domain.Language) (string, []string, error) {
	ctx, span := tracer.Start(ctx, "service.SynthesizeGrounded")
	defer span.End()

	blocks := make([]string, 0, len(entries))
	sources := make([]string, 0, len(entries))
	for _, entry := range entries {
		blocks = append(blocks, fmt.Sprintf("Question: %s\nAnswer: %s", entry.Question, entry.Answer))
		category := entry.Category
		if category == "" {
			category = "general"
		}
		sources = append(sources, fmt.Sprintf("FAQ: %s", category))
	}
	contextText := strings.Join(blocks, "\n\n")

	reply, err := s.completion.Complete(ctx, groundedPrompt(lang, contextText), message)
	if err != nil {
		return "", nil, err
	}
	return reply, sources, nil
}

// Ungrounded builds the reply from general banking knowledge, without
// retrieved context. Sources are always empty on this path.
func (s *Synthesizer) Ungrounded(ctx context.Context, message string, lang domain.Language) (string, error) {
	ctx, span := tracer.Start(ctx, "service.SynthesizeUngrounded")
	defer span.End()

	return s.completion.Complete(ctx, generalPrompt(lang), message)
}
