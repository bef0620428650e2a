package scaling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

func TestValidateScalingHealth_HealthyFleet(t *testing.T) {
	f := newFixture(t, 3)

	report := f.controller.ValidateScalingHealth()

	assert.Equal(t, 3, report.ActiveNodes)
	assert.Equal(t, 100.0, report.OverallHealth)
	assert.Equal(t, 1.0, report.ScalingEfficiency)
	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, "fleet operating within configured thresholds", report.Recommendations[0])
}

func TestValidateScalingHealth_HotFleet(t *testing.T) {
	f := newFixture(t, 0)

	for i := 0; i < 3; i++ {
		node := models.NewNode("10.0.0.1", 7100+i, "us-east-1", nil)
		node.Activate()
		node.HealthScore = 60
		node.Resources.CPU.Usage = 90
		node.Resources.Memory.Usage = 80
		require.NoError(t, f.registry.Add(node))
	}

	report := f.controller.ValidateScalingHealth()

	assert.Equal(t, 60.0, report.OverallHealth)
	assert.InDelta(t, 90.0, report.Utilization["cpu"], 0.001)
	assert.InDelta(t, 80.0, report.Utilization["memory"], 0.001)

	// cpu and memory breaches each produce a recommendation
	assert.GreaterOrEqual(t, len(report.Recommendations), 2)
	assert.NotContains(t, report.Recommendations, "fleet operating within configured thresholds")
}

func TestValidateScalingHealth_AtMinimumCapacity(t *testing.T) {
	f := newFixture(t, 2)

	report := f.controller.ValidateScalingHealth()

	assert.Contains(t, report.Recommendations,
		"fleet is at or below minimum capacity; scale-down requests will be refused")
}

func TestValidateScalingHealth_PoorEfficiency(t *testing.T) {
	f := newFixture(t, 3)

	f.controller.History().Append(scalingEvent(t, false, 0), f.cfg.HistoryRetention)
	f.controller.History().Append(scalingEvent(t, false, 0), f.cfg.HistoryRetention)
	f.controller.History().Append(scalingEvent(t, true, 0), f.cfg.HistoryRetention)

	report := f.controller.ValidateScalingHealth()

	assert.InDelta(t, 1.0/3.0, report.ScalingEfficiency, 0.001)
	assert.Contains(t, report.Recommendations,
		"less than half of recent scaling actions succeeded; inspect the provisioner")
}

func TestValidateScalingHealth_EmptyFleet(t *testing.T) {
	f := newFixture(t, 0)

	report := f.controller.ValidateScalingHealth()

	assert.Equal(t, 0, report.ActiveNodes)
	assert.Equal(t, 0.0, report.OverallHealth)
	// zero active is at or below min capacity
	assert.Contains(t, report.Recommendations,
		"fleet is at or below minimum capacity; scale-down requests will be refused")
}
