// Package completion wraps the external text-completion service.
// Groq exposes an OpenAI-compatible wire, so the client is built on
// go-openai with the base URL overridden.
package completion

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/infra/observability"
	"github.com/securebank-mz/support-agent-go/internal/infra/resilience"
)

var tracer = otel.Tracer("completion")

const (
	defaultTemperature = 0.3
	defaultMaxTokens   = 1000
)

// Client calls the Groq chat-completions API.
type Client struct {
	api     *openai.Client
	model   string
	cb      *gobreaker.CircuitBreaker
	cfg     resilience.Config
	metrics *observability.Metrics
	logger  *zap.Logger
}

// Options configures the completion client.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	// HTTPClient bounds every call with its Timeout; required per the
	// orchestration contract (no unbounded external calls).
	HTTPClient *http.Client
}

// NewClient creates a Groq completion client.
func NewClient(opts Options, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	apiCfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		apiCfg.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		apiCfg.HTTPClient = opts.HTTPClient
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   opts.Model,
		cb:      cb,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Complete sends a system instruction plus a user message and returns the
// generated text. Transport failures, timeouts and non-2xx responses come
// back as ErrExternalService after the retry budget is exhausted.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, span := tracer.Start(ctx, "Completion.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.model))

	var content string

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model: c.model,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleSystem, Content: system},
					{Role: openai.ChatMessageRoleUser, Content: user},
				},
				Temperature: defaultTemperature,
				MaxTokens:   defaultMaxTokens,
			})
			if err != nil {
				return fmt.Errorf("chat completion: %w", err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("chat completion: empty choices")
			}

			c.metrics.RecordTokens(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
			content = resp.Choices[0].Message.Content
			return nil
		})
	})

	if err != nil {
		c.logger.Error("completion call failed",
			zap.String("model", c.model),
			zap.Error(err),
		)
		c.metrics.IncrExternalError("completion")
		return "", &domain.ErrExternalService{Service: "completion", Err: err}
	}

	return content, nil
}

// Ping verifies connectivity to the completion service. Used by the
// status endpoint; a single non-retried call.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Completion.Ping")
	defer span.End()

	if _, err := c.api.ListModels(ctx); err != nil {
		return &domain.ErrExternalService{Service: "completion", Err: err}
	}
	return nil
}
