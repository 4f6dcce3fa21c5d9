package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/infra/observability"
	"github.com/securebank-mz/support-agent-go/internal/infra/resilience"
)

// scriptedCompletion returns canned replies in order. The first call is
// the classification, subsequent calls are synthesis.
type scriptedCompletion struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   int
}

func (s *scriptedCompletion) Complete(ctx context.Context, system, user string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	var reply string
	var err error
	if i < len(s.replies) {
		reply = s.replies[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return reply, err
}

func (s *scriptedCompletion) Ping(ctx context.Context) error { return nil }

type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type mockSearcher struct {
	entries []domain.KnowledgeEntry
	err     error
}

func (m *mockSearcher) MatchDocuments(ctx context.Context, embedding []float32, k int) ([]domain.KnowledgeEntry, error) {
	return m.entries, m.err
}

// recordingStore captures interaction log writes and signals each one.
type recordingStore struct {
	mu      sync.Mutex
	records []*domain.InteractionRecord
	wrote   chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{wrote: make(chan struct{}, 10)}
}

func (r *recordingStore) InsertInteraction(ctx context.Context, rec *domain.InteractionRecord) error {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
	r.wrote <- struct{}{}
	return nil
}

func (r *recordingStore) ListRecentInteractions(ctx context.Context, since time.Time, limit int) ([]domain.InteractionRecord, error) {
	return nil, nil
}

func (r *recordingStore) Ping(ctx context.Context) error { return nil }

func (r *recordingStore) waitForWrite(t *testing.T) *domain.InteractionRecord {
	t.Helper()
	select {
	case <-r.wrote:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for interaction log write")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[len(r.records)-1]
}

func newTestAgent(completion *scriptedCompletion, searcher *mockSearcher, store *recordingStore) *Agent {
	logger := zap.NewNop()
	return NewAgent(AgentOptions{
		Classifier:         NewClassifier(completion, logger),
		Tools:              NewToolDispatcher(0, logger),
		Retriever:          NewRetriever(&mockEmbedder{}, searcher, 3, logger),
		Synthesizer:        NewSynthesizer(completion, logger),
		Store:              store,
		Metrics:            observability.NewMetrics(),
		Bulkhead:           resilience.NewBulkhead(10),
		RetrievalThreshold: 0.7,
		CompletionTimeout:  5 * time.Second,
		Logger:             logger,
	})
}

// midLengthReply is long enough to dodge the short-reply penalty and
// short enough to dodge the long-reply bonus.
var midLengthReply = strings.Repeat("O seu banco está sempre disponível. ", 3)

func TestProcessTurnToolPath(t *testing.T) {
	completion := &scriptedCompletion{
		replies: []string{`{"intent":"account_balance","confidence":0.95,"entities":{}}`},
	}
	store := newRecordingStore()
	agent := newTestAgent(completion, &mockSearcher{}, store)

	resp := agent.ProcessTurn(context.Background(), &domain.ChatTurn{
		UserID:   "u1",
		Message:  "Qual é o meu saldo?",
		Language: domain.LanguagePT,
	})

	if resp.ToolUsed != ToolCheckBalance {
		t.Errorf("expected tool_used=check_balance, got %q", resp.ToolUsed)
	}
	if resp.Escalate {
		t.Error("tool path must not escalate")
	}
	if resp.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %f", resp.Confidence)
	}

	rec := store.waitForWrite(t)
	if rec.UserID != "u1" || rec.ToolUsed != ToolCheckBalance {
		t.Errorf("unexpected log record: %+v", rec)
	}
	if rec.Timestamp.IsZero() {
		t.Error("log record missing timestamp")
	}
}

func TestProcessTurnEscalationKeyword(t *testing.T) {
	completion := &scriptedCompletion{
		replies: []string{
			`{"intent":"general_question","confidence":0.8,"entities":{}}`,
			midLengthReply,
		},
	}
	store := newRecordingStore()
	agent := newTestAgent(completion, &mockSearcher{}, store)

	resp := agent.ProcessTurn(context.Background(), &domain.ChatTurn{
		UserID:   "u1",
		Message:  "quero falar com um gerente",
		Language: domain.LanguagePT,
	})

	if !resp.Escalate {
		t.Error("explicit request for a manager must escalate")
	}
	rec := store.waitForWrite(t)
	if !rec.Escalate {
		t.Error("log record must carry the escalation flag")
	}
}

func TestProcessTurnClassificationUnavailable(t *testing.T) {
	completion := &scriptedCompletion{
		errs: []error{&domain.ErrExternalService{Service: "completion", Err: errors.New("down")}},
	}
	store := newRecordingStore()
	agent := newTestAgent(completion, &mockSearcher{}, store)

	resp := agent.ProcessTurn(context.Background(), &domain.ChatTurn{
		UserID:   "u1",
		Message:  "Qualquer coisa",
		Language: domain.LanguagePT,
	})

	if resp.Response != classificationFallback(domain.LanguagePT) {
		t.Errorf("expected classification fallback, got %q", resp.Response)
	}
	if !resp.Escalate {
		t.Error("fallback must escalate")
	}
	if resp.Confidence > 0.2 {
		t.Errorf("fallback confidence must be low, got %f", resp.Confidence)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("fallback carries no sources, got %v", resp.Sources)
	}
	store.waitForWrite(t)
}

func TestProcessTurnBelowThresholdUsesUngroundedPath(t *testing.T) {
	completion := &scriptedCompletion{
		replies: []string{
			`{"intent":"general_question","confidence":0.9,"entities":{}}`,
			midLengthReply,
		},
	}
	searcher := &mockSearcher{entries: []domain.KnowledgeEntry{
		{ID: "1", Question: "q", Answer: "a", Category: "accounts", SimilarityScore: 0.55},
	}}
	store := newRecordingStore()
	agent := newTestAgent(completion, searcher, store)

	resp := agent.ProcessTurn(context.Background(), &domain.ChatTurn{
		UserID:   "u1",
		Message:  "Como abro uma conta poupança?",
		Language: domain.LanguagePT,
	})

	if math.Abs(resp.Confidence-0.7) > 1e-9 {
		t.Errorf("expected confidence 0.7 (0.9 - 0.2), got %f", resp.Confidence)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("ungrounded path must return empty sources, got %v", resp.Sources)
	}
	store.waitForWrite(t)
}

func TestProcessTurnGroundedPath(t *testing.T) {
	completion := &scriptedCompletion{
		replies: []string{
			`{"intent":"general_question","confidence":0.7,"entities":{}}`,
			midLengthReply,
		},
	}
	searcher := &mockSearcher{entries: []domain.KnowledgeEntry{
		{ID: "1", Question: "q1", Answer: "a1", Category: "cards", SimilarityScore: 0.92},
		{ID: "2", Question: "q2", Answer: "a2", Category: "", SimilarityScore: 0.81},
	}}
	store := newRecordingStore()
	agent := newTestAgent(completion, searcher, store)

	resp := agent.ProcessTurn(context.Background(), &domain.ChatTurn{
		UserID:   "u1",
		Message:  "Como activo o meu cartão?",
		Language: domain.LanguagePT,
	})

	if math.Abs(resp.Confidence-0.9) > 1e-9 {
		t.Errorf("expected confidence 0.9 (0.7 + 0.2), got %f", resp.Confidence)
	}
	want := []string{"FAQ: cards", "FAQ: general"}
	if len(resp.Sources) != len(want) {
		t.Fatalf("expected %d sources, got %v", len(want), resp.Sources)
	}
	for i, s := range want {
		if resp.Sources[i] != s {
			t.Errorf("source[%d] = %q, want %q", i, resp.Sources[i], s)
		}
	}
	store.waitForWrite(t)
}

func TestProcessTurnSynthesisUnavailable(t *testing.T) {
	completion := &scriptedCompletion{
		replies: []string{`{"intent":"general_question","confidence":0.9,"entities":{}}`, ""},
		errs:    []error{nil, &domain.ErrExternalService{Service: "completion", Err: errors.New("down")}},
	}
	store := newRecordingStore()
	agent := newTestAgent(completion, &mockSearcher{}, store)

	resp := agent.ProcessTurn(context.Background(), &domain.ChatTurn{
		UserID:   "u1",
		Message:  "qual é o meu saldo disponível na conta",
		Language: domain.LanguagePT,
	})

	if !resp.Escalate {
		t.Error("synthesis fallback must escalate")
	}
	if math.Abs(resp.Confidence-0.2) > 1e-9 {
		t.Errorf("expected fallback confidence 0.2, got %f", resp.Confidence)
	}
	if !strings.Contains(resp.Response, "21 481 200") {
		t.Errorf("fallback copy should point at phone support, got %q", resp.Response)
	}
	// Message mentions the account, so the account-flavoured copy wins.
	if !strings.Contains(strings.ToLower(resp.Response), "conta") {
		t.Errorf("expected account-flavoured fallback, got %q", resp.Response)
	}
	store.waitForWrite(t)
}

func TestProcessTurnSynthesisFailureAccountedOnce(t *testing.T) {
	completion := &scriptedCompletion{
		replies: []string{`{"intent":"general_question","confidence":0.9,"entities":{}}`, ""},
		errs:    []error{nil, &domain.ErrExternalService{Service: "completion", Err: errors.New("down")}},
	}
	store := newRecordingStore()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	agent := NewAgent(AgentOptions{
		Classifier:         NewClassifier(completion, logger),
		Tools:              NewToolDispatcher(0, logger),
		Retriever:          NewRetriever(&mockEmbedder{}, &mockSearcher{}, 3, logger),
		Synthesizer:        NewSynthesizer(completion, logger),
		Store:              store,
		Metrics:            metrics,
		Bulkhead:           resilience.NewBulkhead(10),
		RetrievalThreshold: 0.7,
		CompletionTimeout:  5 * time.Second,
		Logger:             logger,
	})

	agent.ProcessTurn(context.Background(), &domain.ChatTurn{
		UserID:   "u1",
		Message:  "Quais são as taxas?",
		Language: domain.LanguagePT,
	})

	// Exactly one interaction-log write per turn, even on the fallback path.
	store.waitForWrite(t)
	select {
	case <-store.wrote:
		t.Fatal("fallback turn was logged twice")
	case <-time.After(200 * time.Millisecond):
	}
	store.mu.Lock()
	if len(store.records) != 1 {
		t.Errorf("expected 1 logged interaction, got %d", len(store.records))
	}
	store.mu.Unlock()

	// And counted once: one failed turn, one escalation, no success.
	snap := metrics.GetAgentSnapshot()
	if snap.TotalTurns != 1 {
		t.Errorf("expected 1 total turn, got %d", snap.TotalTurns)
	}
	if snap.ErrorRate != 1.0 {
		t.Errorf("expected error rate 1.0, got %f", snap.ErrorRate)
	}
	if snap.EscalationRate != 1.0 {
		t.Errorf("expected escalation rate 1.0, got %f", snap.EscalationRate)
	}
}

func TestProcessTurnRetrievalFailureDegradesToUngrounded(t *testing.T) {
	completion := &scriptedCompletion{
		replies: []string{
			`{"intent":"general_question","confidence":0.8,"entities":{}}`,
			midLengthReply,
		},
	}
	searcher := &mockSearcher{err: errors.New("vector store down")}
	store := newRecordingStore()
	agent := newTestAgent(completion, searcher, store)

	resp := agent.ProcessTurn(context.Background(), &domain.ChatTurn{
		UserID:   "u1",
		Message:  "Quais são as taxas de transferência?",
		Language: domain.LanguagePT,
	})

	if resp.Response != midLengthReply {
		t.Errorf("expected ungrounded reply, got %q", resp.Response)
	}
	if math.Abs(resp.Confidence-0.6) > 1e-9 {
		t.Errorf("expected confidence 0.6 (0.8 - 0.2), got %f", resp.Confidence)
	}
	store.waitForWrite(t)
}
