// Package handler exposes the HTTP surface of the support agent.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/infra/observability"
	"github.com/securebank-mz/support-agent-go/internal/service"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(agent *service.Agent, faqSvc *service.FAQService, statusSvc *service.StatusService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(statusSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		// Chat
		r.Post("/chat", chatHandler(agent, logger))

		// Component status + rolling usage stats
		r.Get("/status", statusHandler(statusSvc, logger))

		// Agent metrics snapshot
		r.Get("/metrics/agent", agentMetricsHandler(metrics, logger))

		// FAQ browsing
		r.Get("/faqs", listFAQsHandler(faqSvc, logger))
		r.Get("/faqs/{faqId}/view", getFAQViewsHandler(faqSvc, logger))
		r.Post("/faqs/{faqId}/view", recordFAQViewHandler(faqSvc, logger))
	})

	return r
}
