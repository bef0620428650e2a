package monitor

import (
	"context"
	"time"

	"github.com/qnetlabs/qnet-fleet/internal/logger"
	"github.com/qnetlabs/qnet-fleet/internal/registry"
	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

const (
	// health penalty applied when a sample fails; the node is retried
	// on the next tick
	failurePenalty = 10.0

	// hysteresis band for the active/degraded toggle
	degradeBelow = 40.0
	restoreAt    = 50.0
)

type Config struct {
	SampleTimeout time.Duration
}

// Monitor samples every monitored node each tick, derives health scores
// and owns the active/degraded status transitions.
type Monitor struct {
	source        MetricsSource
	registry      *registry.Registry
	sampleTimeout time.Duration
}

func New(source MetricsSource, reg *registry.Registry, cfg Config) *Monitor {
	timeout := cfg.SampleTimeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}

	return &Monitor{
		source:        source,
		registry:      reg,
		sampleTimeout: timeout,
	}
}

// HealthScore derives a 0-100 fitness value from resource-usage penalties
func HealthScore(m *models.ResourceMetrics) float64 {
	score := 100.0

	if m.CPU.Usage > 80 {
		score -= (m.CPU.Usage - 80) * 2
	}
	if m.Memory.Usage > 85 {
		score -= (m.Memory.Usage - 85) * 3
	}
	if m.Network.LatencyMs > 200 {
		score -= (m.Network.LatencyMs - 200) / 10
	}
	if m.Disk.Usage > 90 {
		score -= (m.Disk.Usage - 90) * 5
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// SampleNode fetches one node's metrics with the configured timeout
func (m *Monitor) SampleNode(ctx context.Context, nodeID string) (*models.ResourceMetrics, error) {
	sampleCtx, cancel := context.WithTimeout(ctx, m.sampleTimeout)
	defer cancel()

	metrics, err := m.source.Sample(sampleCtx, nodeID)
	if err != nil {
		if sampleCtx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, err
	}

	metrics.Clamp()
	return metrics, nil
}

// Tick samples all monitored nodes, updates the registry and returns the
// fleet aggregate over the nodes that remained active. A failed sample
// degrades that node's health instead of aborting the tick.
func (m *Monitor) Tick(ctx context.Context) models.FleetMetrics {
	for _, node := range m.registry.Monitored() {
		metrics, err := m.SampleNode(ctx, node.ID)
		if err != nil {
			score, penErr := m.registry.ApplyHealthPenalty(node.ID, failurePenalty)
			if penErr == nil {
				logger.WithNode(node.ID).Warnf(
					"Sample failed, health penalized to %.1f: %v", score, err,
				)
				m.applyStatusTransition(node.ID, node.Status, score)
			}
			continue
		}

		score := HealthScore(metrics)
		if err := m.registry.UpdateResources(node.ID, *metrics, score); err != nil {
			// node was removed mid-tick by a concurrent scale-down
			continue
		}

		m.applyStatusTransition(node.ID, node.Status, score)
	}

	return models.AggregateFleet(m.registry.Active())
}

func (m *Monitor) applyStatusTransition(nodeID string, status models.NodeStatus, score float64) {
	switch {
	case status == models.NodeStatusActive && score < degradeBelow:
		m.registry.SetStatus(nodeID, models.NodeStatusDegraded)
	case status == models.NodeStatusDegraded && score >= restoreAt:
		m.registry.SetStatus(nodeID, models.NodeStatusActive)
	}
}
