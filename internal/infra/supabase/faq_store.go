package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/infra/resilience"
)

// ListFAQs fetches all knowledge-base entries, together with their view
// counts, ordered by category.
func (c *Client) ListFAQs(ctx context.Context) ([]domain.FAQ, error) {
	ctx, span := tracer.Start(ctx, "supabase.ListFAQs")
	defer span.End()

	var body []byte
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			b, reqErr := c.doRequest(ctx, "GET", "faqs?select=*&order=category.asc")
			if reqErr != nil {
				return reqErr
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

	var faqs []domain.FAQ
	if err := json.Unmarshal(body, &faqs); err != nil {
		return nil, fmt.Errorf("decoding faqs: %w", err)
	}
	return faqs, nil
}

// FAQViewCounter persists per-FAQ view counts in the faqs table.
// PostgREST has no atomic increment, so Increment is read-modify-write;
// under concurrent views a count may lag by one, which is acceptable
// for a popularity signal.
type FAQViewCounter struct {
	c      *Client
	logger *zap.Logger
}

// NewFAQViewCounter creates a durable view counter backed by client.
func NewFAQViewCounter(client *Client, logger *zap.Logger) *FAQViewCounter {
	return &FAQViewCounter{c: client, logger: logger}
}

// Get returns the current view count for faqID.
func (v *FAQViewCounter) Get(ctx context.Context, faqID string) (int, error) {
	path := fmt.Sprintf("faqs?id=eq.%s&select=views", url.QueryEscape(faqID))
	body, err := v.c.doRequest(ctx, "GET", path)
	if err != nil {
		return 0, &domain.ErrExternalService{Service: "supabase", Err: err}
	}

	var rows []struct {
		Views int `json:"views"`
	}
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return 0, fmt.Errorf("decoding view count: %w", err)
		}
	}
	if len(rows) == 0 {
		return 0, &domain.ErrNotFound{Resource: "faq", ID: faqID}
	}
	return rows[0].Views, nil
}

// Counts fetches all view counts in a single query.
func (v *FAQViewCounter) Counts(ctx context.Context) (map[string]int, error) {
	body, err := v.c.doRequest(ctx, "GET", "faqs?select=id,views")
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase", Err: err}
	}

	var rows []struct {
		ID    string `json:"id"`
		Views int    `json:"views"`
	}
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decoding view counts: %w", err)
		}
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.Views
	}
	return counts, nil
}

// Increment bumps the view count for faqID and returns the new value.
func (v *FAQViewCounter) Increment(ctx context.Context, faqID string) (int, error) {
	current, err := v.Get(ctx, faqID)
	if err != nil {
		return 0, err
	}

	next := current + 1
	path := fmt.Sprintf("faqs?id=eq.%s", url.QueryEscape(faqID))
	if err := v.c.doUpdate(ctx, path, map[string]int{"views": next}); err != nil {
		v.logger.Warn("failed to persist view count",
			zap.String("faq_id", faqID),
			zap.Error(err),
		)
		return 0, &domain.ErrExternalService{Service: "supabase", Err: err}
	}
	return next, nil
}
