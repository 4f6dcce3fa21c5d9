package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/infra/resilience"
)

// matchDocumentsRow mirrors one row returned by the match_documents
// Postgres function. Content packs question and answer into one text
// column so the same index serves both retrieval and embedding.
type matchDocumentsRow struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	Category   string  `json:"category"`
	Similarity float64 `json:"similarity"`
}

// MatchDocuments runs a k-NN search over the knowledge base via the
// match_documents RPC. Results come back ranked descending by similarity.
func (c *Client) MatchDocuments(ctx context.Context, embedding []float32, k int) ([]domain.KnowledgeEntry, error) {
	ctx, span := tracer.Start(ctx, "supabase.MatchDocuments")
	defer span.End()

	args := map[string]any{
		"query_embedding": embedding,
		"match_count":     k,
	}

	var body []byte
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			b, rpcErr := c.doRPC(ctx, "match_documents", args)
			if rpcErr != nil {
				return rpcErr
			}
			body = b
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase", Err: err}
	}
	if body == nil {
		return nil, nil
	}

	var rows []matchDocumentsRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decoding match_documents response: %w", err)
	}

	entries := make([]domain.KnowledgeEntry, 0, len(rows))
	for _, row := range rows {
		question, answer := splitContent(row.Content)
		entries = append(entries, domain.KnowledgeEntry{
			ID:              row.ID,
			Question:        question,
			Answer:          answer,
			Category:        row.Category,
			SimilarityScore: row.Similarity,
		})
	}
	return entries, nil
}

// splitContent unpacks the "Question: ...\nAnswer: ..." content column.
// Content that does not follow the convention lands whole in the answer.
func splitContent(content string) (question, answer string) {
	const (
		qPrefix = "Question: "
		aPrefix = "Answer: "
	)
	q, a, found := strings.Cut(content, "\n"+aPrefix)
	if !found {
		return "", content
	}
	return strings.TrimPrefix(q, qPrefix), a
}
