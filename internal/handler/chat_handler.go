package handler

import (
	"encoding/json"
	"net/http"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/service"
)

// ============================================================
// Chat — POST /v1/chat
// ============================================================

type chatRequest struct {
	UserID   string `json:"user_id"`
	Message  string `json:"message"`
	Language string `json:"language"`
}

type chatResponse struct {
	Response   string   `json:"response"`
	Sources    []string `json:"sources"`
	Escalate   bool     `json:"escalate"`
	Confidence float64  `json:"confidence"`
	ToolUsed   string   `json:"tool_used,omitempty"`
	Timestamp  string   `json:"timestamp"`
}

func chatHandler(agent *service.Agent, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat")
		defer span.End()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		// All input validation happens before any model call.
		if req.UserID == "" || req.Message == "" {
			writeError(w, http.StatusBadRequest, "missing required fields: user_id, message")
			return
		}
		if utf8.RuneCountInString(req.Message) > domain.MaxMessageLength {
			writeError(w, http.StatusBadRequest, "message exceeds maximum length of 1000 characters")
			return
		}
		lang := domain.Language(req.Language)
		if req.Language == "" {
			lang = domain.LanguagePT
		}
		if !lang.Valid() {
			writeError(w, http.StatusBadRequest, "language must be 'pt' or 'en'")
			return
		}

		span.SetAttributes(
			attribute.String("user.id", req.UserID),
			attribute.String("chat.language", string(lang)),
		)

		result := agent.ProcessTurn(ctx, &domain.ChatTurn{
			UserID:   req.UserID,
			Message:  req.Message,
			Language: lang,
		})

		writeJSON(w, http.StatusOK, chatResponse{
			Response:   result.Response,
			Sources:    result.Sources,
			Escalate:   result.Escalate,
			Confidence: result.Confidence,
			ToolUsed:   result.ToolUsed,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		})
	}
}
