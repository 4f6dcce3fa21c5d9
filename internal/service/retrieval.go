package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/port"
)

// Retriever embeds the message and searches the knowledge base.
// Retrieval is best-effort: any failure yields an empty result set so
// the turn falls through to the ungrounded path instead of erroring.
type Retriever struct {
	embedder port.Embedder
	searcher port.VectorSearcher
	topK     int
	logger   *zap.Logger
}

// NewRetriever creates a retriever with the given fan-out.
func NewRetriever(embedder port.Embedder, searcher port.VectorSearcher, topK int, logger *zap.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		searcher: searcher,
		topK:     topK,
		logger:   logger,
	}
}

// Retrieve returns up to topK knowledge entries ranked descending by
// similarity. An empty slice means no usable context.
func (r *Retriever) Retrieve(ctx context.Context, message string) []domain.KnowledgeEntry {
	ctx, span := tracer.Start(ctx, "service.Retrieve")
	defer span.End()

	embedding, err := r.embedder.Embed(ctx, message)
	if err != nil {
		r.logger.Warn("embedding failed, skipping retrieval", zap.Error(err))
		return nil
	}

	entries, err := r.searcher.MatchDocuments(ctx, embedding, r.topK)
	if err != nil {
		r.logger.Warn("knowledge search failed, skipping retrieval", zap.Error(err))
		return nil
	}

	// The store returns ranked results but the ordering invariant is
	// ours to guarantee.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SimilarityScore > entries[j].SimilarityScore
	})
	return entries
}
