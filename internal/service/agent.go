package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/infra/observability"
	"github.com/securebank-mz/support-agent-go/internal/infra/resilience"
	"github.com/securebank-mz/support-agent-go/internal/port"
)

// logWriteTimeout bounds the fire-and-forget interaction log write,
// which outlives the request context.
const logWriteTimeout = 5 * time.Second

// Agent orchestrates one chat turn: classify, dispatch or retrieve,
// synthesize, apply escalation policy, log. It always produces an
// AgentResponse; upstream failures degrade into localized fallbacks
// instead of propagating.
type Agent struct {
	classifier *Classifier
	tools      *ToolDispatcher
	retriever  *Retriever
	synth      *Synthesizer
	store      port.InteractionStore
	metrics    *observability.Metrics
	bulkhead   *resilience.Bulkhead

	retrievalThreshold float64
	completionTimeout  time.Duration
	logger             *zap.Logger
}

// AgentOptions collects the orchestrator's collaborators.
type AgentOptions struct {
	Classifier         *Classifier
	Tools              *ToolDispatcher
	Retriever          *Retriever
	Synthesizer        *Synthesizer
	Store              port.InteractionStore
	Metrics            *observability.Metrics
	Bulkhead           *resilience.Bulkhead
	RetrievalThreshold float64
	CompletionTimeout  time.Duration
	Logger             *zap.Logger
}

// NewAgent creates the turn orchestrator.
func NewAgent(opts AgentOptions) *Agent {
	return &Agent{
		classifier:         opts.Classifier,
		tools:              opts.Tools,
		retriever:          opts.Retriever,
		synth:              opts.Synthesizer,
		store:              opts.Store,
		metrics:            opts.Metrics,
		bulkhead:           opts.Bulkhead,
		retrievalThreshold: opts.RetrievalThreshold,
		completionTimeout:  opts.CompletionTimeout,
		logger:             opts.Logger,
	}
}

// ProcessTurn handles one inbound message end to end. The input is
// assumed validated (non-empty user and message, message within limit,
// language resolved). The returned response is final: even when every
// upstream collaborator fails the caller gets a 200-shaped payload with
// escalate=true and low confidence.
func (a *Agent) ProcessTurn(ctx context.Context, turn *domain.ChatTurn) *domain.AgentResponse {
	ctx, span := tracer.Start(ctx, "service.ProcessTurn")
	defer span.End()

	start := time.Now()
	defer func() {
		a.metrics.RecordRequestDuration("process_turn", time.Since(start))
	}()

	if err := a.bulkhead.Acquire(ctx); err != nil {
		a.logger.Warn("turn rejected by bulkhead", zap.Error(err))
		return a.failTurn(turn, classificationFallback(turn.Language), 0.1)
	}
	defer a.bulkhead.Release()

	judgment, err := a.classify(ctx, turn.Message)
	if err != nil {
		a.logger.Error("intent classification unavailable", zap.Error(err))
		return a.failTurn(turn, classificationFallback(turn.Language), 0.1)
	}
	a.metrics.IncrIntent(string(judgment.Intent))

	var resp *domain.AgentResponse
	if ToolFor(judgment.Intent) != "" {
		resp, err = a.tools.Dispatch(ctx, judgment.Intent, turn.Language)
		if err != nil {
			a.logger.Error("tool dispatch failed",
				zap.String("intent", string(judgment.Intent)),
				zap.Error(err),
			)
			return a.failTurn(turn, classificationFallback(turn.Language), 0.1)
		}
		a.metrics.IncrTool(resp.ToolUsed)
	} else {
		var failed bool
		resp, failed = a.answer(ctx, turn, judgment)
		if failed {
			// failTurn already accounted and logged this turn.
			return resp
		}
	}

	if resp.Escalate {
		a.metrics.IncrEscalation()
	}
	a.metrics.IncrTurn("success")
	a.logInteraction(turn, resp)

	a.logger.Info("turn processed",
		zap.String("user_id", turn.UserID),
		zap.String("intent", string(judgment.Intent)),
		zap.String("tool", resp.ToolUsed),
		zap.Bool("escalate", resp.Escalate),
		zap.Float64("confidence", resp.Confidence),
	)
	return resp
}

// answer runs the retrieval-augmented path: grounded synthesis when the
// best hit clears the similarity threshold, general synthesis otherwise.
// failed is true when the response is a fallback from failTurn, which is
// terminal: the caller must not account or log the turn again.
func (a *Agent) answer(ctx context.Context, turn *domain.ChatTurn, judgment *domain.IntentJudgment) (resp *domain.AgentResponse, failed bool) {
	retrCtx, cancelRetrieve := context.WithTimeout(ctx, a.completionTimeout)
	entries := a.retriever.Retrieve(retrCtx, turn.Message)
	cancelRetrieve()
	grounded := len(entries) > 0 && entries[0].SimilarityScore > a.retrievalThreshold

	var (
		text    string
		sources []string
		err     error
	)
	synthCtx, cancel := context.WithTimeout(ctx, a.completionTimeout)
	defer cancel()
	if grounded {
		text, sources, err = a.synth.Grounded(synthCtx, turn.Message, entries, turn.Language)
	} else {
		sources = []string{}
		text, err = a.synth.Ungrounded(synthCtx, turn.Message, turn.Language)
	}
	if err != nil {
		a.logger.Error("response synthesis unavailable",
			zap.Bool("grounded", grounded),
			zap.Error(err),
		)
		return a.failTurn(turn, synthesisFallback(turn.Message, turn.Language), 0.2), true
	}

	confidence := AdjustConfidence(judgment.Confidence, grounded, text)
	return &domain.AgentResponse{
		Response:   text,
		Sources:    sources,
		Escalate:   ShouldEscalate(turn.Message, confidence),
		Confidence: confidence,
	}, false
}

func (a *Agent) classify(ctx context.Context, message string) (*domain.IntentJudgment, error) {
	ctx, cancel := context.WithTimeout(ctx, a.completionTimeout)
	defer cancel()
	return a.classifier.Classify(ctx, message)
}

// failTurn builds the degraded response for an unrecoverable turn and
// accounts for it. Fallbacks always escalate.
func (a *Agent) failTurn(turn *domain.ChatTurn, text string, confidence float64) *domain.AgentResponse {
	resp := &domain.AgentResponse{
		Response:   text,
		Sources:    []string{},
		Escalate:   true,
		Confidence: clampConfidence(confidence),
	}
	a.metrics.IncrTurn("failed")
	a.metrics.IncrEscalation()
	a.logInteraction(turn, resp)
	return resp
}

// logInteraction appends the turn to the interaction log without
// blocking the response. The write uses a fresh context so it survives
// the request ending, and its failure is logged but never surfaced.
func (a *Agent) logInteraction(turn *domain.ChatTurn, resp *domain.AgentResponse) {
	rec := &domain.InteractionRecord{
		UserID:     turn.UserID,
		Message:    turn.Message,
		Response:   resp.Response,
		ToolUsed:   resp.ToolUsed,
		Confidence: resp.Confidence,
		Escalate:   resp.Escalate,
		Language:   turn.Language,
		Timestamp:  time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), logWriteTimeout)
		defer cancel()
		if err := a.store.InsertInteraction(ctx, rec); err != nil {
			a.logger.Warn("interaction log write failed",
				zap.String("user_id", rec.UserID),
				zap.Error(err),
			)
		}
	}()
}
