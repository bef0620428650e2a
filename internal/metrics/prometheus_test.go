package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_Singleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}

func TestHandler_Exposition(t *testing.T) {
	m := Get()

	m.IncSamples()
	m.IncSampleErrors("node-1")
	m.IncScalingEvent("scale_up", "success")
	m.IncSelection("node-1")
	m.IncFailure("node-2")
	m.SetActiveNodes(3)
	m.SetNodeHealth("node-1", 87.5)
	m.SetNodeConnections("node-1", 4)
	m.SetFleetCPU(61.2)
	m.SetFleetMemory(48.7)
	m.SetCircuitBreakerState("sampler", 1)
	m.SetSampleLatency(12 * time.Millisecond)
	m.SetCycleLatency(34 * time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "qnet_samples_total 1")
	assert.Contains(t, body, `qnet_sample_errors_total{node_id="node-1"} 1`)
	assert.Contains(t, body, "qnet_scaling_events_total")
	assert.Contains(t, body, `qnet_selections_total{node_id="node-1"} 1`)
	assert.Contains(t, body, `qnet_node_failures_total{node_id="node-2"} 1`)
	assert.Contains(t, body, "qnet_active_nodes 3")
	assert.Contains(t, body, `qnet_node_health_score{node_id="node-1"} 87.5`)
	assert.Contains(t, body, `qnet_node_connections{node_id="node-1"} 4`)
	assert.Contains(t, body, "qnet_fleet_cpu_percent 61.2")
	assert.Contains(t, body, "qnet_fleet_memory_percent 48.7")
	assert.Contains(t, body, `qnet_circuit_breaker_state{name="sampler"} 1`)
	assert.Contains(t, body, "qnet_sample_latency_ms 12")
	assert.Contains(t, body, "qnet_cycle_latency_ms 34")
}

func TestForgetNode(t *testing.T) {
	m := Get()

	m.SetNodeHealth("departing", 90)
	m.SetNodeConnections("departing", 2)
	m.ForgetNode("departing")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.NotContains(t, w.Body.String(), "departing")
}
