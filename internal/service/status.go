package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/port"
)

const (
	statsWindow  = 24 * time.Hour
	statsScanCap = 100
	probeTimeout = 5 * time.Second
)

// StatusService reports component liveness and rolling usage stats.
type StatusService struct {
	completion port.CompletionClient
	store      port.InteractionStore
	logger     *zap.Logger
}

// NewStatusService creates the status reporter.
func NewStatusService(completion port.CompletionClient, store port.InteractionStore, logger *zap.Logger) *StatusService {
	return &StatusService{completion: completion, store: store, logger: logger}
}

// Check probes the completion service and the log store concurrently
// and aggregates the last 24 hours of interactions. Probe failures
// degrade the overall status but never fail the call.
func (s *StatusService) Check(ctx context.Context) *domain.AgentStatus {
	ctx, span := tracer.Start(ctx, "service.StatusCheck")
	defer span.End()

	components := make([]domain.ServiceHealth, 2)
	var stats domain.UsageStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		components[0] = s.probe(gctx, "completion", s.completion.Ping)
		return nil
	})
	g.Go(func() error {
		components[1] = s.probe(gctx, "log_store", s.store.Ping)
		return nil
	})
	g.Go(func() error {
		stats = s.usageStats(gctx)
		return nil
	})
	_ = g.Wait() // probes report errors through components, not the group

	status := "operational"
	for _, c := range components {
		if c.Status != "operational" {
			status = "degraded"
			break
		}
	}

	return &domain.AgentStatus{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Status:     status,
		Components: components,
		Stats:      stats,
	}
}

// probe runs one dependency ping under its own timeout.
func (s *StatusService) probe(ctx context.Context, name string, ping func(context.Context) error) domain.ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := ping(ctx)
	health := domain.ServiceHealth{
		Name:        name,
		Status:      "operational",
		LatencyMs:   time.Since(start).Milliseconds(),
		LastChecked: time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		health.Status = "degraded"
		health.Error = err.Error()
		s.logger.Warn("status probe failed", zap.String("component", name), zap.Error(err))
	}
	return health
}

// usageStats scans the most recent interactions inside the 24h window.
// A scan failure yields zeroed stats.
func (s *StatusService) usageStats(ctx context.Context) domain.UsageStats {
	since := time.Now().Add(-statsWindow)
	records, err := s.store.ListRecentInteractions(ctx, since, statsScanCap)
	if err != nil {
		s.logger.Warn("usage stats scan failed", zap.Error(err))
		return domain.UsageStats{}
	}
	if len(records) == 0 {
		return domain.UsageStats{}
	}

	var confidenceSum float64
	var escalated int
	for _, rec := range records {
		confidenceSum += rec.Confidence
		if rec.Escalate {
			escalated++
		}
	}
	n := float64(len(records))
	return domain.UsageStats{
		Turns24h:       len(records),
		AvgConfidence:  confidenceSum / n,
		EscalationRate: float64(escalated) / n,
	}
}
