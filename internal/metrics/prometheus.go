package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/qnetlabs/qnet-fleet/internal/logger"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	samplesTotal       int64
	sampleErrors       map[string]int64            // node -> count
	scalingEventsTotal map[string]map[string]int64 // action -> outcome -> count
	selectionsTotal    map[string]int64            // node -> count
	failuresTotal      map[string]int64            // node -> count

	// Gauges
	activeNodes         int
	nodeHealth          map[string]float64
	nodeConnections     map[string]int
	fleetCPU            float64
	fleetMemory         float64
	circuitBreakerState map[string]int // 0=closed, 1=open, 2=half-open

	// Histograms (simplified - just track last values)
	sampleLatency time.Duration
	cycleLatency  time.Duration
}

var (
	instance *Metrics
	once     sync.Once
)

func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			sampleErrors:        make(map[string]int64),
			scalingEventsTotal:  make(map[string]map[string]int64),
			selectionsTotal:     make(map[string]int64),
			failuresTotal:       make(map[string]int64),
			nodeHealth:          make(map[string]float64),
			nodeConnections:     make(map[string]int),
			circuitBreakerState: make(map[string]int),
		}
	})
	return instance
}

func (m *Metrics) IncSamples() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samplesTotal++
}

func (m *Metrics) IncSampleErrors(nodeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sampleErrors[nodeID]++
}

func (m *Metrics) IncScalingEvent(action, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scalingEventsTotal[action] == nil {
		m.scalingEventsTotal[action] = make(map[string]int64)
	}
	m.scalingEventsTotal[action][outcome]++
}

func (m *Metrics) IncSelection(nodeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectionsTotal[nodeID]++
}

func (m *Metrics) IncFailure(nodeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failuresTotal[nodeID]++
}

func (m *Metrics) SetActiveNodes(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeNodes = count
}

func (m *Metrics) SetNodeHealth(nodeID string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodeHealth[nodeID] = score
}

func (m *Metrics) SetNodeConnections(nodeID string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodeConnections[nodeID] = count
}

func (m *Metrics) ForgetNode(nodeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodeHealth, nodeID)
	delete(m.nodeConnections, nodeID)
}

func (m *Metrics) SetFleetCPU(cpu float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fleetCPU = cpu
}

func (m *Metrics) SetFleetMemory(memory float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fleetMemory = memory
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.circuitBreakerState[name] = state
}

func (m *Metrics) SetSampleLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sampleLatency = d
}

func (m *Metrics) SetCycleLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycleLatency = d
}

func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		writeMetric(w, "qnet_samples_total", nil, float64(m.samplesTotal))

		for node, count := range m.sampleErrors {
			writeMetric(w, "qnet_sample_errors_total", map[string]string{"node_id": node}, float64(count))
		}

		for action, outcomes := range m.scalingEventsTotal {
			for outcome, count := range outcomes {
				writeMetric(w, "qnet_scaling_events_total", map[string]string{"action": action, "outcome": outcome}, float64(count))
			}
		}

		for node, count := range m.selectionsTotal {
			writeMetric(w, "qnet_selections_total", map[string]string{"node_id": node}, float64(count))
		}

		for node, count := range m.failuresTotal {
			writeMetric(w, "qnet_node_failures_total", map[string]string{"node_id": node}, float64(count))
		}

		writeMetric(w, "qnet_active_nodes", nil, float64(m.activeNodes))

		for node, score := range m.nodeHealth {
			writeMetric(w, "qnet_node_health_score", map[string]string{"node_id": node}, score)
		}

		for node, count := range m.nodeConnections {
			writeMetric(w, "qnet_node_connections", map[string]string{"node_id": node}, float64(count))
		}

		writeMetric(w, "qnet_fleet_cpu_percent", nil, m.fleetCPU)
		writeMetric(w, "qnet_fleet_memory_percent", nil, m.fleetMemory)

		for name, state := range m.circuitBreakerState {
			writeMetric(w, "qnet_circuit_breaker_state", map[string]string{"name": name}, float64(state))
		}

		writeMetric(w, "qnet_sample_latency_ms", nil, float64(m.sampleLatency.Milliseconds()))
		writeMetric(w, "qnet_cycle_latency_ms", nil, float64(m.cycleLatency.Milliseconds()))
	})
}

func writeMetric(w http.ResponseWriter, name string, labels map[string]string, value float64) {
	labelStr := ""
	if len(labels) > 0 {
		labelStr = "{"
		first := true
		for k, v := range labels {
			if !first {
				labelStr += ","
			}
			labelStr += k + `="` + v + `"`
			first = false
		}
		labelStr += "}"
	}
	w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(value, 'f', -1, 64) + "\n"))
}

func StartServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Get().Handler())

	addr := ":" + strconv.Itoa(port)
	logger.Infof("Prometheus metrics server listening on %s", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Errorf("Prometheus server error: %v", err)
		}
	}()
}
