package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/infra/cache"
	"github.com/securebank-mz/support-agent-go/internal/infra/observability"
	"github.com/securebank-mz/support-agent-go/internal/infra/resilience"
	"github.com/securebank-mz/support-agent-go/internal/infra/views"
	"github.com/securebank-mz/support-agent-go/internal/service"
)

// ------------------------------------------------------------
// Test fixtures: stub ports wired into real services
// ------------------------------------------------------------

type stubCompletion struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (s *stubCompletion) Complete(ctx context.Context, system, user string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.reply, s.err
}

func (s *stubCompletion) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubCompletion) Ping(ctx context.Context) error { return s.err }

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.5}, nil
}

type stubSearcher struct {
	entries []domain.KnowledgeEntry
}

func (s *stubSearcher) MatchDocuments(ctx context.Context, embedding []float32, k int) ([]domain.KnowledgeEntry, error) {
	return s.entries, nil
}

type stubStore struct {
	records []domain.InteractionRecord
}

func (s *stubStore) InsertInteraction(ctx context.Context, rec *domain.InteractionRecord) error {
	return nil
}

func (s *stubStore) ListRecentInteractions(ctx context.Context, since time.Time, limit int) ([]domain.InteractionRecord, error) {
	return s.records, nil
}

func (s *stubStore) Ping(ctx context.Context) error { return nil }

type stubFAQStore struct {
	faqs []domain.FAQ
}

func (s *stubFAQStore) ListFAQs(ctx context.Context) ([]domain.FAQ, error) {
	return s.faqs, nil
}

func newTestRouter(completion *stubCompletion) http.Handler {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := &stubStore{}

	agent := service.NewAgent(service.AgentOptions{
		Classifier:         service.NewClassifier(completion, logger),
		Tools:              service.NewToolDispatcher(0, logger),
		Retriever:          service.NewRetriever(stubEmbedder{}, &stubSearcher{}, 3, logger),
		Synthesizer:        service.NewSynthesizer(completion, logger),
		Store:              store,
		Metrics:            metrics,
		Bulkhead:           resilience.NewBulkhead(10),
		RetrievalThreshold: 0.7,
		CompletionTimeout:  5 * time.Second,
		Logger:             logger,
	})

	faqSvc := service.NewFAQService(
		&stubFAQStore{faqs: []domain.FAQ{
			{ID: "f1", QuestionPT: "Pergunta", QuestionEN: "Question", AnswerPT: "Resposta", AnswerEN: "Answer", Category: "accounts", Views: 2},
		}},
		views.NewInMemoryCounter(map[string]int{"f1": 2}),
		cache.New[[]domain.FAQ](time.Minute),
		metrics,
		logger,
	)

	statusSvc := service.NewStatusService(completion, store, logger)
	return NewRouter(agent, faqSvc, statusSvc, metrics, logger)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&stubCompletion{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&stubCompletion{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAgentMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&stubCompletion{})

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/agent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	router := newTestRouter(&stubCompletion{})

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestListFAQs(t *testing.T) {
	router := newTestRouter(&stubCompletion{})

	req := httptest.NewRequest(http.MethodGet, "/v1/faqs?category=accounts&language=en", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestFAQViewLifecycle(t *testing.T) {
	router := newTestRouter(&stubCompletion{})

	req := httptest.NewRequest(http.MethodPost, "/v1/faqs/f1/view", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/faqs/f1/view", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestFAQViewUnknownID(t *testing.T) {
	router := newTestRouter(&stubCompletion{})

	req := httptest.NewRequest(http.MethodPost, "/v1/faqs/nope/view", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
