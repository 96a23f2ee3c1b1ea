package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Request("/api/{agent}", http.MethodPost, 200)
	m.Request("/api/{agent}", http.MethodPost, 200)
	m.ToolCall("MultiToolAgent", "get_weather", OutcomeSuccess)
	m.Tokens("MultiToolAgent", 12, 5)
	m.SetActiveSessions(3)
	m.ObserveTurn("MultiToolAgent", 0.4, nil)
	m.Reload(errors.New("bad"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/{agent}", "POST", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("MultiToolAgent", "get_weather", "success")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.ModelTokens.WithLabelValues("MultiToolAgent", "prompt")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ModelTokens.WithLabelValues("MultiToolAgent", "candidates")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogReloads.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TurnDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Request("/", "GET", 200)
	m.ToolCall("a", "b", OutcomeError)
	m.Tokens("a", 1, 1)
	m.SetActiveSessions(1)
	m.ObserveTurn("a", 1, nil)
	m.Reload(nil)
	assert.NotNil(t, m.Handler())
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.SetActiveSessions(7)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agentdesk_active_sessions 7")
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "404", statusLabel(404))
	assert.Equal(t, "unknown", statusLabel(42))
}
