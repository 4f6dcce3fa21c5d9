package service

import (
	"fmt"
	"strings"

	"github.com/securebank-mz/support-agent-go/internal/domain"
)

// System prompts and fallback copy for the agent, per language.
// Word lists and templates live here as data so locale additions never
// touch orchestration logic.

const intentClassifierPrompt = `
You are an intent classifier for SecureBank Mozambique.

TASK: Analyze the user message and classify the banking intent.

AVAILABLE INTENTS:
- account_balance: Questions about account balance, statements, transactions
- card_issue: Card problems, blocking, activation, lost/stolen cards
- loan_inquiry: Loan applications, credit information, payment schedules
- transfer: Money transfers, payments, M-Pesa, international transfers
- general_question: General banking questions, products, services
- escalate: Requests for human agent, complex issues, complaints

RESPONSE FORMAT (JSON only):
{
  "intent": "intent_name",
  "confidence": 0.85,
  "entities": {
    "amount": "value_if_mentioned",
    "account_type": "type_if_mentioned",
    "urgency": "high/medium/low"
  }
}

Analyze this message and respond with JSON only:
`

const groundedPromptPT = `Você é um assistente bancário especializado do SecureBank Moçambique.

INSTRUÇÕES:
- Use APENAS o contexto fornecido para responder
- Mantenha respostas concisas e precisas
- Seja profissional e amigável
- Se a informação não estiver no contexto, diga claramente que precisa verificar com um especialista
- Use valores em Meticais (MT) para Moçambique
- Mencione canais digitais: NETPlus App, NETPlus Web, QuiQ (USSD)

CONTEXTO: %s

Responda à pergunta do cliente de forma útil e precisa.`

const groundedPromptEN = `You are a specialized banking assistant for SecureBank Mozambique.

INSTRUCTIONS:
- Use ONLY the provided context to answer
- Keep responses concise and accurate
- Be professional and friendly
- If information is not in context, clearly state you need to check with a specialist
- Use Meticais (MT) values for Mozambique
- Mention digital channels: NETPlus App, NETPlus Web, QuiQ (USSD)

CONTEXT: %s

Answer the customer's question helpfully and accurately.`

const generalPromptPT = `Você é um assistente bancário do SecureBank Moçambique.

INSTRUÇÕES:
- Responda sobre serviços bancários gerais em Moçambique
- Use informações sobre produtos bancários comuns
- Seja conciso e direto
- Se não tiver certeza sobre algo específico, sugira contato com agência ou +258 21 123 4567
- Mencione sempre os canais digitais disponíveis
- Use valores em Meticais (MT)

Responda de forma útil sobre serviços bancários gerais.`

const generalPromptEN = `You are a banking assistant for SecureBank Mozambique.

INSTRUCTIONS:
- Respond about general banking services in Mozambique
- Use information about common banking products
- Be concise and direct
- If unsure about something specific, suggest contacting a branch or +258 21 123 4567
- Always mention available digital channels
- Use Meticais (MT) values

Respond helpfully about general banking services.`

// groundedPrompt builds the grounded system prompt with the retrieved
// context interpolated.
func groundedPrompt(lang domain.Language, context string) string {
	if lang == domain.LanguageEN {
		return fmt.Sprintf(groundedPromptEN, context)
	}
	return fmt.Sprintf(groundedPromptPT, context)
}

func generalPrompt(lang domain.Language) string {
	if lang == domain.LanguageEN {
		return generalPromptEN
	}
	return generalPromptPT
}

// classificationFallback is the fixed copy returned when classification
// itself fails.
func classificationFallback(lang domain.Language) string {
	if lang == domain.LanguageEN {
		return "Sorry, an error occurred. Please try again or contact our support."
	}
	return "Desculpe, ocorreu um erro. Por favor, tente novamente ou entre em contato com nosso suporte."
}

// fallbackCategory buckets a message for synthesis-failure copy selection.
// Pure substring checks over a lowered copy of the message.
type fallbackCategory int

const (
	fallbackGeneric fallbackCategory = iota
	fallbackGreeting
	fallbackAccount
	fallbackCard
)

var fallbackMarkers = []struct {
	category fallbackCategory
	words    []string
}{
	{fallbackGreeting, []string{"olá", "ola", "bom dia", "boa tarde", "boa noite", "hello", "hi ", "good morning", "good afternoon"}},
	{fallbackAccount, []string{"saldo", "conta", "extrato", "balance", "account", "statement"}},
	{fallbackCard, []string{"cartão", "cartao", "card"}},
}

func categorizeFallback(message string) fallbackCategory {
	lowered := strings.ToLower(message)
	for _, marker := range fallbackMarkers {
		for _, word := range marker.words {
			if strings.Contains(lowered, word) {
				return marker.category
			}
		}
	}
	return fallbackGeneric
}

// synthesisFallback returns the localized copy for a completion failure
// during response generation, selected by message category.
func synthesisFallback(message string, lang domain.Language) string {
	switch categorizeFallback(message) {
	case fallbackGreeting:
		if lang == domain.LanguageEN {
			return "Hello! I'm having technical difficulties at the moment. For immediate assistance, call 21 481 200 or visit a SecureBank branch."
		}
		return "Olá! Estou com dificuldades técnicas no momento. Para assistência imediata, ligue para 21 481 200 ou visite uma agência SecureBank."
	case fallbackAccount:
		if lang == domain.LanguageEN {
			return "Sorry, I can't check account information right now. Please access NETPlus or call 21 481 200 for your balance and statements."
		}
		return "Desculpe, não consigo verificar informações da conta agora. Por favor, acesse o NETPlus ou ligue para 21 481 200 para saldo e extratos."
	case fallbackCard:
		if lang == domain.LanguageEN {
			return "Sorry, I can't handle card requests right now. To block a card urgently, call 21 481 200 (24h)."
		}
		return "Desculpe, não consigo tratar de pedidos de cartão agora. Para bloquear um cartão com urgência, ligue para 21 481 200 (24h)."
	}
	if lang == domain.LanguageEN {
		return "Sorry, I'm having technical difficulties at the moment. For immediate assistance, call 21 481 200 or visit a SecureBank branch. We're here to help!"
	}
	return "Desculpe, estou com dificuldades técnicas no momento. Para assistência imediata, ligue para 21 481 200 ou visite uma agência SecureBank. Estamos aqui para ajudar!"
}

// escalationKeywords are matched whole-word, per locale, against the
// lowered message.
var escalationKeywords = map[domain.Language][]string{
	domain.LanguagePT: {"humano", "pessoa", "agente", "representante", "gerente"},
	domain.LanguageEN: {"human", "person", "agent", "representative", "manager"},
}
