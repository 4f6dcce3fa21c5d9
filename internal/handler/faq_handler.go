package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/service"
)

// ============================================================
// FAQ browsing — GET /v1/faqs, GET/POST /v1/faqs/{faqId}/view
// ============================================================

func listFAQsHandler(svc *service.FAQService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/faqs")
		defer span.End()

		q := r.URL.Query()
		lang := domain.Language(q.Get("language"))
		if q.Get("language") != "" && !lang.Valid() {
			writeError(w, http.StatusBadRequest, "language must be 'pt' or 'en'")
			return
		}

		list, err := svc.List(ctx, service.FAQFilter{
			Category: q.Get("category"),
			Search:   q.Get("search"),
			Language: lang,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

type faqViewResponse struct {
	FAQID string `json:"faq_id"`
	Views int    `json:"views"`
}

func recordFAQViewHandler(svc *service.FAQService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/faqs/{faqId}/view")
		defer span.End()

		faqID := chi.URLParam(r, "faqId")
		views, err := svc.RecordView(ctx, faqID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, faqViewResponse{FAQID: faqID, Views: views})
	}
}

func getFAQViewsHandler(svc *service.FAQService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/faqs/{faqId}/view")
		defer span.End()

		faqID := chi.URLParam(r, "faqId")
		views, err := svc.ViewCount(ctx, faqID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, faqViewResponse{FAQID: faqID, Views: views})
	}
}
