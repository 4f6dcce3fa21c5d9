package completion

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/infra/resilience"
)

// Embedder turns retrieval queries into vectors. The knowledge base was
// indexed with text-embedding-3-small, so queries must use the same model.
type Embedder struct {
	api    *openai.Client
	model  string
	cb     *gobreaker.CircuitBreaker
	cfg    resilience.Config
	logger *zap.Logger
}

// NewEmbedder creates an embeddings client for the given provider.
func NewEmbedder(apiKey, baseURL, model string, httpClient *http.Client, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Embedder {
	apiCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		apiCfg.BaseURL = baseURL
	}
	if httpClient != nil {
		apiCfg.HTTPClient = httpClient
	}

	return &Embedder{
		api:    openai.NewClientWithConfig(apiCfg),
		model:  model,
		cb:     cb,
		cfg:    cfg,
		logger: logger,
	}
}

// Embed returns the vector representation of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := tracer.Start(ctx, "Completion.Embed")
	defer span.End()
	span.SetAttributes(attribute.String("embedding.model", e.model))

	var vector []float32

	_, err := e.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, e.cfg, func() error {
			resp, err := e.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Input: []string{text},
				Model: openai.EmbeddingModel(e.model),
			})
			if err != nil {
				return fmt.Errorf("create embedding: %w", err)
			}
			if len(resp.Data) != 1 {
				return fmt.Errorf("expected 1 embedding, got %d", len(resp.Data))
			}

			vector = resp.Data[0].Embedding
			return nil
		})
	})

	if err != nil {
		e.logger.Error("embedding call failed",
			zap.String("model", e.model),
			zap.Error(err),
		)
		return nil, &domain.ErrExternalService{Service: "embeddings", Err: err}
	}

	return vector, nil
}
