package service

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
)

func TestToolFor(t *testing.T) {
	cases := []struct {
		intent domain.Intent
		want   string
	}{
		{domain.IntentAccountBalance, ToolCheckBalance},
		{domain.IntentCardIssue, ToolBlockCard},
		{domain.IntentTransfer, ToolReportFraud},
		{domain.IntentGeneralQuestion, ""},
		{domain.IntentLoanInquiry, ""},
		{domain.IntentEscalate, ""},
	}
	for _, tc := range cases {
		if got := ToolFor(tc.intent); got != tc.want {
			t.Errorf("ToolFor(%s) = %q, want %q", tc.intent, got, tc.want)
		}
	}
}

func TestDispatchBalance(t *testing.T) {
	d := NewToolDispatcher(0, zap.NewNop())

	resp, err := d.Dispatch(context.Background(), domain.IntentAccountBalance, domain.LanguagePT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ToolUsed != ToolCheckBalance {
		t.Errorf("expected tool check_balance, got %s", resp.ToolUsed)
	}
	if resp.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %f", resp.Confidence)
	}
	if resp.Escalate {
		t.Error("tool responses never escalate")
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "Tool: check_balance" {
		t.Errorf("unexpected sources: %v", resp.Sources)
	}
	if !strings.Contains(resp.Response, "15.750,00 MT") {
		t.Errorf("expected PT balance copy, got %q", resp.Response)
	}
}

func TestDispatchBlockCardSequentialReferences(t *testing.T) {
	d := NewToolDispatcher(0, zap.NewNop())

	first, err := d.Dispatch(context.Background(), domain.IntentCardIssue, domain.LanguageEN)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(first.Response, "#CB2024001234") {
		t.Errorf("expected first reference #CB2024001234, got %q", first.Response)
	}

	second, err := d.Dispatch(context.Background(), domain.IntentCardIssue, domain.LanguageEN)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(second.Response, "#CB2024001235") {
		t.Errorf("expected second reference #CB2024001235, got %q", second.Response)
	}
}

func TestDispatchFraudProtocol(t *testing.T) {
	d := NewToolDispatcher(0, zap.NewNop())

	resp, err := d.Dispatch(context.Background(), domain.IntentTransfer, domain.LanguagePT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ToolUsed != ToolReportFraud {
		t.Errorf("expected tool report_fraud, got %s", resp.ToolUsed)
	}
	if !strings.Contains(resp.Response, "#FR2024005678") {
		t.Errorf("expected protocol #FR2024005678, got %q", resp.Response)
	}
}

func TestDispatchNonToolIntent(t *testing.T) {
	d := NewToolDispatcher(0, zap.NewNop())
	if _, err := d.Dispatch(context.Background(), domain.IntentGeneralQuestion, domain.LanguagePT); err == nil {
		t.Error("expected error for intent without a tool")
	}
}

func TestDispatchRespectsCancelledContext(t *testing.T) {
	d := NewToolDispatcher(0, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Dispatch(ctx, domain.IntentAccountBalance, domain.LanguagePT); err == nil {
		t.Error("expected error for cancelled context")
	}
}
