package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/config"
	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/handler"
	"github.com/securebank-mz/support-agent-go/internal/infra/cache"
	"github.com/securebank-mz/support-agent-go/internal/infra/completion"
	"github.com/securebank-mz/support-agent-go/internal/infra/observability"
	"github.com/securebank-mz/support-agent-go/internal/infra/resilience"
	"github.com/securebank-mz/support-agent-go/internal/infra/supabase"
	"github.com/securebank-mz/support-agent-go/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("completion_model", cfg.CompletionModel),
		zap.String("embedding_model", cfg.EmbeddingModel),
		zap.Int("retrieval_top_k", cfg.RetrievalTopK),
		zap.Float64("retrieval_threshold", cfg.RetrievalThreshold),
		zap.Duration("completion_timeout", cfg.CompletionTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
	)

	if !cfg.UseSupabase || cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required: the knowledge base and interaction log live in Supabase")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "support-agent")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	faqCache := cache.New[[]domain.FAQ](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	completionCB := resilience.NewCircuitBreaker("completion")
	embeddingCB := resilience.NewCircuitBreaker("embeddings")
	supabaseCB := resilience.NewCircuitBreaker("supabase")
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.CompletionTimeout}

	completionClient := completion.NewClient(completion.Options{
		APIKey:     cfg.GroqAPIKey,
		BaseURL:    cfg.GroqBaseURL,
		Model:      cfg.CompletionModel,
		HTTPClient: httpClient,
	}, completionCB, resilienceCfg, metrics, logger)

	embedder := completion.NewEmbedder(
		cfg.EmbeddingAPIKey,
		cfg.EmbeddingBaseURL,
		cfg.EmbeddingModel,
		httpClient,
		embeddingCB,
		resilienceCfg,
		logger,
	)

	supabaseClient := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		supabaseCB,
		resilienceCfg,
		logger,
	)
	viewCounter := supabase.NewFAQViewCounter(supabaseClient, logger)

	// --- Services ---
	agent := service.NewAgent(service.AgentOptions{
		Classifier:         service.NewClassifier(completionClient, logger),
		Tools:              service.NewToolDispatcher(500*time.Millisecond, logger),
		Retriever:          service.NewRetriever(embedder, supabaseClient, cfg.RetrievalTopK, logger),
		Synthesizer:        service.NewSynthesizer(completionClient, logger),
		Store:              supabaseClient,
		Metrics:            metrics,
		Bulkhead:           bulkhead,
		RetrievalThreshold: cfg.RetrievalThreshold,
		CompletionTimeout:  cfg.CompletionTimeout,
		Logger:             logger,
	})
	faqSvc := service.NewFAQService(supabaseClient, viewCounter, faqCache, metrics, logger)
	statusSvc := service.NewStatusService(completionClient, supabaseClient, logger)

	// --- Router ---
	router := handler.NewRouter(agent, faqSvc, statusSvc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
