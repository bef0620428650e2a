package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

// StaticSource returns exactly the samples it was given. It exists so the
// control loop can be tested deterministically.
type StaticSource struct {
	samples map[string]models.ResourceMetrics
	errs    map[string]error
	mu      sync.RWMutex
}

func NewStaticSource() *StaticSource {
	return &StaticSource{
		samples: make(map[string]models.ResourceMetrics),
		errs:    make(map[string]error),
	}
}

func (s *StaticSource) Set(nodeID string, metrics models.ResourceMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	metrics.NodeID = nodeID
	s.samples[nodeID] = metrics
	delete(s.errs, nodeID)
}

// SetUsage is a shorthand for tests that only care about usage percentages
func (s *StaticSource) SetUsage(nodeID string, cpu, memory, latencyMs, disk float64) {
	s.Set(nodeID, models.ResourceMetrics{
		NodeID:    nodeID,
		Timestamp: time.Now(),
		CPU:       models.CPUMetrics{Usage: cpu, Cores: 4},
		Memory:    models.MemoryMetrics{Usage: memory, TotalMB: 8192},
		Network:   models.NetworkMetrics{LatencyMs: latencyMs},
		Disk:      models.DiskMetrics{Usage: disk, TotalGB: 256},
	})
}

func (s *StaticSource) SetError(nodeID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[nodeID] = err
}

func (s *StaticSource) Sample(ctx context.Context, nodeID string) (*models.ResourceMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err, exists := s.errs[nodeID]; exists {
		return nil, err
	}

	metrics, exists := s.samples[nodeID]
	if !exists {
		return nil, ErrUnknownNode
	}

	metrics.Timestamp = time.Now()
	return &metrics, nil
}

func (s *StaticSource) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *StaticSource) Close() error {
	return nil
}
