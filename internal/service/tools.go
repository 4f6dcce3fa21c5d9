package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
)

// Tool names as they appear in tool_used and the Tool: source marker.
const (
	ToolCheckBalance = "check_balance"
	ToolBlockCard    = "block_card"
	ToolReportFraud  = "report_fraud"
)

// toolConfidence is the fixed confidence of any tool-path response.
const toolConfidence = 0.9

// ToolDispatcher executes the scripted banking actions. The actions are
// simulated: each sleeps for a multiple of delayUnit to mimic a core
// banking call, then returns canned localized copy. Reference numbers
// are sequential per process.
type ToolDispatcher struct {
	delayUnit time.Duration
	logger    *zap.Logger

	cardBlockSeq int64
	fraudSeq     int64
}

// NewToolDispatcher creates a dispatcher. Tests pass delayUnit 0 to
// skip the simulated latency.
func NewToolDispatcher(delayUnit time.Duration, logger *zap.Logger) *ToolDispatcher {
	return &ToolDispatcher{
		delayUnit:    delayUnit,
		logger:       logger,
		cardBlockSeq: 1233, // first issued reference is #CB2024001234
		fraudSeq:     5677, // first issued protocol is #FR2024005678
	}
}

// ToolFor maps an intent to its tool name, or "" when the intent does
// not trigger a tool.
func ToolFor(intent domain.Intent) string {
	switch intent {
	case domain.IntentAccountBalance:
		return ToolCheckBalance
	case domain.IntentCardIssue:
		return ToolBlockCard
	case domain.IntentTransfer:
		return ToolReportFraud
	}
	return ""
}

// Dispatch runs the tool for the given intent and builds the complete
// response. Runs exactly once per turn, never retried.
func (d *ToolDispatcher) Dispatch(ctx context.Context, intent domain.Intent, lang domain.Language) (*domain.AgentResponse, error) {
	ctx, span := tracer.Start(ctx, "service.DispatchTool")
	defer span.End()

	tool := ToolFor(intent)
	var text string
	var err error

	switch tool {
	case ToolCheckBalance:
		text, err = d.checkBalance(ctx, lang)
	case ToolBlockCard:
		text, err = d.blockCard(ctx, lang)
	case ToolReportFraud:
		text, err = d.reportFraud(ctx, lang)
	default:
		return nil, fmt.Errorf("intent %q has no tool", intent)
	}
	if err != nil {
		return nil, err
	}

	d.logger.Info("tool dispatched",
		zap.String("tool", tool),
		zap.String("language", string(lang)),
	)

	return &domain.AgentResponse{
		Response:   text,
		Sources:    []string{fmt.Sprintf("Tool: %s", tool)},
		Escalate:   false,
		Confidence: toolConfidence,
		ToolUsed:   tool,
	}, nil
}

// simulateLatency waits for units*delayUnit or until ctx is done.
func (d *ToolDispatcher) simulateLatency(ctx context.Context, units int) error {
	wait := time.Duration(units) * d.delayUnit
	if wait <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func (d *ToolDispatcher) checkBalance(ctx context.Context, lang domain.Language) (string, error) {
	if err := d.simulateLatency(ctx, 2); err != nil {
		return "", err
	}
	if lang == domain.LanguageEN {
		return "Your current balance is 15,750.00 MT. Last transaction: Deposit of 2,500.00 MT on 25/12/2024. For more details, access NETPlus or visit a branch.", nil
	}
	return "Seu saldo atual é de 15.750,00 MT. Última transação: Depósito de 2.500,00 MT em 25/12/2024. Para mais detalhes, acesse o NETPlus ou visite uma agência.", nil
}

func (d *ToolDispatcher) blockCard(ctx context.Context, lang domain.Language) (string, error) {
	if err := d.simulateLatency(ctx, 3); err != nil {
		return "", err
	}
	ref := fmt.Sprintf("#CB2024%06d", atomic.AddInt64(&d.cardBlockSeq, 1))
	if lang == domain.LanguageEN {
		return fmt.Sprintf("Your card has been successfully blocked for security reasons. A new card will be sent to your address in 3-5 business days. Reference number: %s", ref), nil
	}
	return fmt.Sprintf("Seu cartão foi bloqueado com sucesso por motivos de segurança. Um novo cartão será enviado para seu endereço em 3-5 dias úteis. Número de referência: %s", ref), nil
}

func (d *ToolDispatcher) reportFraud(ctx context.Context, lang domain.Language) (string, error) {
	if err := d.simulateLatency(ctx, 4); err != nil {
		return "", err
	}
	protocol := fmt.Sprintf("#FR2024%06d", atomic.AddInt64(&d.fraudSeq, 1))
	if lang == domain.LanguageEN {
		return fmt.Sprintf("Fraud report registered. Your account has been temporarily protected. Our security team will contact you within 2 hours. Protocol: %s", protocol), nil
	}
	return fmt.Sprintf("Relatório de fraude registrado. Sua conta foi temporariamente protegida. Nossa equipe de segurança entrará em contato em até 2 horas. Protocolo: %s", protocol), nil
}
