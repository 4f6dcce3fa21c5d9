package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/infra/resilience"
)

// InsertInteraction appends one record to chat_logs. Runs exactly once:
// the write is not retried, since the caller treats failures as non-fatal.
func (c *Client) InsertInteraction(ctx context.Context, rec *domain.InteractionRecord) error {
	ctx, span := tracer.Start(ctx, "supabase.InsertInteraction")
	defer span.End()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	if err := c.doInsert(ctx, "chat_logs", rec); err != nil {
		c.logger.Warn("failed to insert interaction record",
			zap.String("user_id", rec.UserID),
			zap.Error(err),
		)
		return &domain.ErrExternalService{Service: "supabase", Err: err}
	}
	return nil
}

// ListRecentInteractions returns records with timestamp >= since, newest
// first, capped at limit. Backs the /v1/status 24h aggregates.
func (c *Client) ListRecentInteractions(ctx context.Context, since time.Time, limit int) ([]domain.InteractionRecord, error) {
	ctx, span := tracer.Start(ctx, "supabase.ListRecentInteractions")
	defer span.End()

	path := fmt.Sprintf("chat_logs?timestamp=gte.%s&order=timestamp.desc&limit=%d",
		since.UTC().Format(time.RFC3339), limit)

	var body []byte
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			b, reqErr := c.doRequest(ctx, "GET", path)
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

	var records []domain.InteractionRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decoding interaction records: %w", err)
	}
	return records, nil
}

// Ping verifies the log store is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "chat_logs?select=id&limit=1")
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase", Err: err}
	}
	return nil
}
