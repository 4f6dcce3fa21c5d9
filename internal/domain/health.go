package domain

// ============================================================
// Health & Status API responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth is the probe result for one dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}

// AgentStatus is returned by GET /v1/status: component liveness plus
// rolling 24h aggregates scanned from the interaction log.
type AgentStatus struct {
	Timestamp  string          `json:"timestamp"`
	Status     string          `json:"status"`
	Components []ServiceHealth `json:"components"`
	Stats      UsageStats      `json:"stats"`
}

// UsageStats are the rolling 24-hour interaction aggregates.
type UsageStats struct {
	Turns24h       int     `json:"total_turns_24h"`
	AvgConfidence  float64 `json:"avg_confidence"`
	EscalationRate float64 `json:"escalation_rate"`
}

// AgentMetrics is the JSON snapshot served by GET /v1/metrics/agent.
type AgentMetrics struct {
	TotalTurns     int64            `json:"totalTurns"`
	EscalationRate float64          `json:"escalationRate"`
	ErrorRate      float64          `json:"errorRate"`
	ToolUsage      map[string]int64 `json:"toolUsage"`
	TotalTokens    float64          `json:"totalTokens"`
	CacheHitRate   float64          `json:"cacheHitRate"`
	Period         string           `json:"period"`
}
