package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/infra/observability"
	"github.com/securebank-mz/support-agent-go/internal/service"
)

// ============================================================
// Operational endpoints — /healthz, /readyz, /v1/status,
// /v1/metrics/agent
// ============================================================

func healthzHandler(svc *service.StatusService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := svc.Check(r.Context())

		overall := "healthy"
		code := http.StatusOK
		if status.Status != "operational" {
			overall = "degraded"
		}
		writeJSON(w, code, domain.HealthStatus{
			Status:   overall,
			Services: status.Components,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ready",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func statusHandler(svc *service.StatusService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/status")
		defer span.End()

		writeJSON(w, http.StatusOK, svc.Check(ctx))
	}
}

func agentMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetAgentSnapshot())
	}
}
