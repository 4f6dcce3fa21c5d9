// Package domain holds the core types of the support agent:
// chat turns, intent judgments, knowledge entries and agent responses.
// Pure data — no external dependencies.
package domain

import "time"

// Language identifies one of the two supported response languages.
type Language string

const (
	LanguagePT Language = "pt"
	LanguageEN Language = "en"
)

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	return l == LanguagePT || l == LanguageEN
}

// MaxMessageLength is the hard limit on an inbound chat message.
const MaxMessageLength = 1000

// ChatTurn is one inbound request: who said what, in which language.
// Immutable after construction; persisted only in derived form (InteractionRecord).
type ChatTurn struct {
	UserID   string   `json:"user_id"`
	Message  string   `json:"message"`
	Language Language `json:"language"`
}

// Intent is the closed set of banking intents the classifier may emit.
type Intent string

const (
	IntentAccountBalance  Intent = "account_balance"
	IntentCardIssue       Intent = "card_issue"
	IntentLoanInquiry     Intent = "loan_inquiry"
	IntentTransfer        Intent = "transfer"
	IntentGeneralQuestion Intent = "general_question"
	IntentEscalate        Intent = "escalate"
)

// KnownIntent reports whether s is a recognized intent value.
func KnownIntent(s string) bool {
	switch Intent(s) {
	case IntentAccountBalance, IntentCardIssue, IntentLoanInquiry,
		IntentTransfer, IntentGeneralQuestion, IntentEscalate:
		return true
	}
	return false
}

// IntentJudgment is the validated output of the intent classifier.
// Never leaves the classifier boundary un-validated: either the parsed
// model output passed the schema check, or this is the default judgment.
type IntentJudgment struct {
	Intent     Intent            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities"`
}

// DefaultJudgment is what the classifier returns when the model output
// is malformed or names an unknown intent.
func DefaultJudgment() *IntentJudgment {
	return &IntentJudgment{
		Intent:     IntentGeneralQuestion,
		Confidence: 0.5,
		Entities:   map[string]string{},
	}
}

// KnowledgeEntry is one knowledge-base hit returned by similarity search.
// SimilarityScore is in [0,1]; results are ranked descending by it.
type KnowledgeEntry struct {
	ID              string  `json:"id"`
	Question        string  `json:"question"`
	Answer          string  `json:"answer"`
	Category        string  `json:"category"`
	SimilarityScore float64 `json:"similarity_score"`
}

// AgentResponse is the sole externally visible output of one turn.
// Constructed once by the orchestrator, never mutated after return.
type AgentResponse struct {
	Response   string   `json:"response"`
	Sources    []string `json:"sources"`
	Escalate   bool     `json:"escalate"`
	Confidence float64  `json:"confidence"`
	ToolUsed   string   `json:"tool_used,omitempty"`
}

// InteractionRecord is the append-only log row derived from one turn.
// Write failures are non-fatal and must never alter the AgentResponse.
type InteractionRecord struct {
	ID         string    `json:"id,omitempty"`
	UserID     string    `json:"user_id"`
	Message    string    `json:"message"`
	Response   string    `json:"response"`
	ToolUsed   string    `json:"tool_used,omitempty"`
	Confidence float64   `json:"confidence"`
	Escalate   bool      `json:"escalate"`
	Language   Language  `json:"language"`
	Timestamp  time.Time `json:"timestamp"`
}
