// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/securebank-mz/support-agent-go/internal/domain"
)

// CompletionClient sends a system instruction plus a user message to the
// text-completion service and returns the generated text.
type CompletionClient interface {
	Complete(ctx context.Context, system, user string) (string, error)

	// Ping checks connectivity to the completion service (used by /v1/status).
	Ping(ctx context.Context) error
}

// Embedder turns a query string into its vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher runs a k-NN search over the knowledge base given a
// query embedding. Results are ranked descending by similarity.
type VectorSearcher interface {
	MatchDocuments(ctx context.Context, embedding []float32, k int) ([]domain.KnowledgeEntry, error)
}

// InteractionStore persists interaction records and serves the rolling
// window used by the status endpoint.
type InteractionStore interface {
	InsertInteraction(ctx context.Context, rec *domain.InteractionRecord) error
	ListRecentInteractions(ctx context.Context, since time.Time, limit int) ([]domain.InteractionRecord, error)
	Ping(ctx context.Context) error
}

// FAQStore reads the knowledge-base entries for browsing.
type FAQStore interface {
	ListFAQs(ctx context.Context) ([]domain.FAQ, error)
}

// ViewCounter tracks per-FAQ view counts. Implementations decide the
// persistence contract (in-memory for tests, durable store for production).
type ViewCounter interface {
	Increment(ctx context.Context, faqID string) (int, error)
	Get(ctx context.Context, faqID string) (int, error)

	// Counts returns all known counts in one call; listings use this
	// instead of one Get per FAQ.
	Counts(ctx context.Context) (map[string]int, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
