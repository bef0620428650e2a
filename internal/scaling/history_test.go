package scaling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

func scalingEvent(t *testing.T, success bool, age time.Duration) *models.ScalingEvent {
	t.Helper()

	trigger := models.NewScalingTrigger(models.TriggerTypeCPU, models.ActionScaleUp, 70, 85, models.SeverityHigh)
	event := models.NewScalingEvent(trigger, models.ScalingResult{
		Action:  models.ActionScaleUp,
		Success: success,
	}, 10*time.Millisecond, models.ScalingImpact{})
	event.Timestamp = time.Now().Add(-age)
	return event
}

func TestHistory_AppendPrunesByRetention(t *testing.T) {
	h := NewHistory()
	retention := time.Hour

	h.Append(scalingEvent(t, true, 2*time.Hour), retention)
	h.Append(scalingEvent(t, true, 30*time.Minute), retention)
	h.Append(scalingEvent(t, false, 0), retention)

	assert.Equal(t, 2, h.Len())
}

func TestHistory_ZeroRetentionKeepsEverything(t *testing.T) {
	h := NewHistory()

	h.Append(scalingEvent(t, true, 48*time.Hour), 0)
	h.Append(scalingEvent(t, true, 0), 0)

	assert.Equal(t, 2, h.Len())
}

func TestHistory_RecentNewestLast(t *testing.T) {
	h := NewHistory()

	old := scalingEvent(t, true, 3*time.Minute)
	mid := scalingEvent(t, false, 2*time.Minute)
	newest := scalingEvent(t, true, time.Minute)
	h.Append(old, time.Hour)
	h.Append(mid, time.Hour)
	h.Append(newest, time.Hour)

	recent := h.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, mid.ID, recent[0].ID)
	assert.Equal(t, newest.ID, recent[1].ID)

	// asking for more than exists returns all
	assert.Len(t, h.Recent(100), 3)
	assert.Len(t, h.Recent(0), 3)
}

func TestHistory_Efficiency(t *testing.T) {
	h := NewHistory()

	assert.Equal(t, 1.0, h.Efficiency(10))

	h.Append(scalingEvent(t, false, 4*time.Minute), time.Hour)
	h.Append(scalingEvent(t, true, 3*time.Minute), time.Hour)
	h.Append(scalingEvent(t, true, 2*time.Minute), time.Hour)
	h.Append(scalingEvent(t, false, time.Minute), time.Hour)

	assert.InDelta(t, 0.5, h.Efficiency(10), 0.001)

	// window narrows to the most recent events
	assert.InDelta(t, 0.5, h.Efficiency(2), 0.001)
	assert.InDelta(t, 0.0, h.Efficiency(1), 0.001)
}
