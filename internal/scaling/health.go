package scaling

import (
	"fmt"
	"time"

	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

const efficiencyWindow = 20

// HealthReport is a read-only snapshot of fleet health and recent scaling
// effectiveness, consumed by dashboards and operators.
type HealthReport struct {
	Timestamp         time.Time          `json:"timestamp"`
	OverallHealth     float64            `json:"overall_health"`
	ActiveNodes       int                `json:"active_nodes"`
	Utilization       map[string]float64 `json:"utilization"`
	ScalingEfficiency float64            `json:"scaling_efficiency"`
	Recommendations   []string           `json:"recommendations"`
}

// ValidateScalingHealth aggregates health scores, per-resource utilization
// and recent scaling efficiency, and attaches textual recommendations when
// thresholds are breached or the fleet sits at minimum capacity.
func (c *Controller) ValidateScalingHealth() *HealthReport {
	active := c.registry.Active()
	fleet := models.AggregateFleet(active)

	var totalHealth float64
	for _, node := range active {
		totalHealth += node.HealthScore
	}

	report := &HealthReport{
		Timestamp:   time.Now(),
		ActiveNodes: len(active),
		Utilization: map[string]float64{
			"cpu":        fleet.AvgCPU,
			"memory":     fleet.AvgMemory,
			"disk":       fleet.AvgDisk,
			"latency_ms": fleet.AvgLatency,
		},
		ScalingEfficiency: c.history.Efficiency(efficiencyWindow),
	}
	if len(active) > 0 {
		report.OverallHealth = totalHealth / float64(len(active))
	}

	t := c.cfg.Thresholds

	if fleet.AvgCPU > t.CPUScaleUp {
		report.Recommendations = append(report.Recommendations, fmt.Sprintf(
			"average cpu %.1f%% exceeds the %.0f%% scale-up threshold; consider scaling up or raising max_nodes",
			fleet.AvgCPU, t.CPUScaleUp,
		))
	}
	if fleet.AvgMemory > t.MemoryScaleUp {
		report.Recommendations = append(report.Recommendations, fmt.Sprintf(
			"average memory %.1f%% exceeds the %.0f%% scale-up threshold; consider scaling up",
			fleet.AvgMemory, t.MemoryScaleUp,
		))
	}
	if fleet.AvgLatency > t.LatencyMs {
		report.Recommendations = append(report.Recommendations, fmt.Sprintf(
			"average latency %.0fms exceeds the %.0fms threshold; inspect network paths or redistribute load",
			fleet.AvgLatency, t.LatencyMs,
		))
	}
	if len(active) <= c.cfg.MinNodes {
		report.Recommendations = append(report.Recommendations,
			"fleet is at or below minimum capacity; scale-down requests will be refused",
		)
	}
	if c.history.Len() > 0 && report.ScalingEfficiency < 0.5 {
		report.Recommendations = append(report.Recommendations,
			"less than half of recent scaling actions succeeded; inspect the provisioner",
		)
	}
	if len(report.Recommendations) == 0 {
		report.Recommendations = append(report.Recommendations,
			"fleet operating within configured thresholds",
		)
	}

	return report
}
