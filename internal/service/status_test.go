package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
)

type mockInteractionStore struct {
	records []domain.InteractionRecord
	listErr error
	pingErr error
}

func (m *mockInteractionStore) InsertInteraction(ctx context.Context, rec *domain.InteractionRecord) error {
	return nil
}

func (m *mockInteractionStore) ListRecentInteractions(ctx context.Context, since time.Time, limit int) ([]domain.InteractionRecord, error) {
	return m.records, m.listErr
}

func (m *mockInteractionStore) Ping(ctx context.Context) error { return m.pingErr }

func TestStatusAllOperational(t *testing.T) {
	store := &mockInteractionStore{records: []domain.InteractionRecord{
		{Confidence: 0.9, Escalate: false},
		{Confidence: 0.7, Escalate: true},
		{Confidence: 0.8, Escalate: false},
		{Confidence: 0.6, Escalate: true},
	}}
	svc := NewStatusService(&mockCompletion{}, store, zap.NewNop())

	status := svc.Check(context.Background())
	if status.Status != "operational" {
		t.Errorf("expected operational, got %s", status.Status)
	}
	if len(status.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(status.Components))
	}

	if status.Stats.Turns24h != 4 {
		t.Errorf("expected 4 turns, got %d", status.Stats.Turns24h)
	}
	if math.Abs(status.Stats.AvgConfidence-0.75) > 1e-9 {
		t.Errorf("expected avg confidence 0.75, got %f", status.Stats.AvgConfidence)
	}
	if math.Abs(status.Stats.EscalationRate-0.5) > 1e-9 {
		t.Errorf("expected escalation rate 0.5, got %f", status.Stats.EscalationRate)
	}
}

func TestStatusDegradedWhenCompletionDown(t *testing.T) {
	svc := NewStatusService(
		&mockCompletion{err: errors.New("groq unreachable")},
		&mockInteractionStore{},
		zap.NewNop(),
	)

	status := svc.Check(context.Background())
	if status.Status != "degraded" {
		t.Errorf("expected degraded, got %s", status.Status)
	}

	var completionHealth *domain.ServiceHealth
	for i := range status.Components {
		if status.Components[i].Name == "completion" {
			completionHealth = &status.Components[i]
		}
	}
	if completionHealth == nil {
		t.Fatal("missing completion component")
	}
	if completionHealth.Status != "degraded" || completionHealth.Error == "" {
		t.Errorf("expected degraded completion with error, got %+v", completionHealth)
	}
}

func TestStatusStatsScanFailureYieldsZeroStats(t *testing.T) {
	store := &mockInteractionStore{listErr: errors.New("scan failed")}
	svc := NewStatusService(&mockCompletion{}, store, zap.NewNop())

	status := svc.Check(context.Background())
	if status.Stats.Turns24h != 0 || status.Stats.AvgConfidence != 0 || status.Stats.EscalationRate != 0 {
		t.Errorf("expected zeroed stats, got %+v", status.Stats)
	}
	// Ping succeeded, so a stats failure alone does not degrade status.
	if status.Status != "operational" {
		t.Errorf("expected operational, got %s", status.Status)
	}
}
