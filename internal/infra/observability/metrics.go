package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/securebank-mz/support-agent-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the support agent.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	turnsTotal      *prometheus.CounterVec
	intentsTotal    *prometheus.CounterVec
	toolsTotal      *prometheus.CounterVec
	escalations     prometheus.Counter
	externalErrors  *prometheus.CounterVec
	tokensUsed      *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_turns_total",
				Help: "Total chat turns processed.",
			},
			[]string{"status"},
		),
		intentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_intents_total",
				Help: "Total classified intents.",
			},
			[]string{"intent"},
		),
		toolsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_tool_calls_total",
				Help: "Total scripted tool dispatches.",
			},
			[]string{"tool"},
		),
		escalations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "agent_escalations_total",
				Help: "Total turns flagged for human follow-up.",
			},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_llm_tokens_total",
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrTurn increments the turn counter with a status label.
func (m *Metrics) IncrTurn(status string) {
	m.turnsTotal.WithLabelValues(status).Inc()
}

// IncrIntent increments the intent counter.
func (m *Metrics) IncrIntent(intent string) {
	m.intentsTotal.WithLabelValues(intent).Inc()
}

// IncrTool increments the tool dispatch counter.
func (m *Metrics) IncrTool(tool string) {
	m.toolsTotal.WithLabelValues(tool).Inc()
}

// IncrEscalation increments the escalation counter.
func (m *Metrics) IncrEscalation() {
	m.escalations.Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// GetAgentSnapshot returns a snapshot of agent metrics suitable for the
// GET /v1/metrics/agent endpoint.
func (m *Metrics) GetAgentSnapshot() *domain.AgentMetrics {
	// Gather current values from Prometheus counters.
	// Note: Prometheus counters expose cumulative values.
	ok := getCounterValue(m.turnsTotal, "success")
	failed := getCounterValue(m.turnsTotal, "failed")
	total := ok + failed
	escalated := counterValue(m.escalations)
	tokens := getCounterValue(m.tokensUsed, "prompt") + getCounterValue(m.tokensUsed, "completion")
	cacheHits := getCounterValue(m.cacheHits, "faqs")
	cacheMisses := getCounterValue(m.cacheMisses, "faqs")

	escalationRate := float64(0)
	errorRate := float64(0)
	if total > 0 {
		escalationRate = escalated / total
		errorRate = failed / total
	}
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	toolUsage := make(map[string]int64, 3)
	for _, tool := range []string{"check_balance", "block_card", "report_fraud"} {
		if v := getCounterValue(m.toolsTotal, tool); v > 0 {
			toolUsage[tool] = int64(v)
		}
	}

	return &domain.AgentMetrics{
		TotalTurns:     int64(total),
		EscalationRate: escalationRate,
		ErrorRate:      errorRate,
		ToolUsage:      toolUsage,
		TotalTokens:    tokens,
		CacheHitRate:   cacheHitRate,
		Period:         "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return counterValue(cv.WithLabelValues(label))
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
