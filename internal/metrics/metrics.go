// Package metrics defines the Prometheus metrics exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tool call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the server's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequests   *prometheus.CounterVec   // by route, method, status
	TurnDuration   *prometheus.HistogramVec // by agent, result
	ToolCalls      *prometheus.CounterVec   // by agent, tool, outcome
	ModelTokens    *prometheus.CounterVec   // by agent, kind (prompt, candidates)
	ActiveSessions prometheus.Gauge
	CatalogReloads *prometheus.CounterVec // by result

	gatherer prometheus.Gatherer
}

// New creates and registers all collectors on reg. When reg is also a
// Gatherer, Handler serves from it.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentdesk_http_requests_total",
			Help: "HTTP requests handled, by route, method and status code",
		}, []string{"route", "method", "status"}),
		TurnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentdesk_turn_duration_seconds",
			Help:    "Duration of agent turns",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"agent", "result"}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentdesk_tool_calls_total",
			Help: "Tool calls made by agents, by outcome",
		}, []string{"agent", "tool", "outcome"}),
		ModelTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentdesk_model_tokens_total",
			Help: "Model tokens consumed, by kind",
		}, []string{"agent", "kind"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agentdesk_active_sessions",
			Help: "Sessions currently held by the session index",
		}),
		CatalogReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentdesk_catalog_reloads_total",
			Help: "Agent catalog rebuilds from the agents file",
		}, []string{"result"}),
	}

	reg.MustRegister(m.HTTPRequests)
	reg.MustRegister(m.TurnDuration)
	reg.MustRegister(m.ToolCalls)
	reg.MustRegister(m.ModelTokens)
	reg.MustRegister(m.ActiveSessions)
	reg.MustRegister(m.CatalogReloads)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveTurn records a finished turn.
func (m *Metrics) ObserveTurn(agent string, seconds float64, err error) {
	if m == nil {
		return
	}
	result := OutcomeSuccess
	if err != nil {
		result = OutcomeError
	}
	m.TurnDuration.WithLabelValues(agent, result).Observe(seconds)
}

// ToolCall records a tool invocation.
func (m *Metrics) ToolCall(agent, tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(agent, tool, outcome).Inc()
}

// Tokens records token usage reported by the model.
func (m *Metrics) Tokens(agent string, prompt, candidates int32) {
	if m == nil {
		return
	}
	if prompt > 0 {
		m.ModelTokens.WithLabelValues(agent, "prompt").Add(float64(prompt))
	}
	if candidates > 0 {
		m.ModelTokens.WithLabelValues(agent, "candidates").Add(float64(candidates))
	}
}

// SetActiveSessions updates the session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// Request records an HTTP request.
func (m *Metrics) Request(route, method string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, statusLabel(status)).Inc()
}

// Reload records a catalog rebuild.
func (m *Metrics) Reload(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.CatalogReloads.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.CatalogReloads.WithLabelValues(OutcomeSuccess).Inc()
}

func statusLabel(status int) string {
	if status < 100 || status > 999 {
		return "unknown"
	}
	return strconv.Itoa(status)
}
