package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnetlabs/qnet-fleet/pkg/config"
	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Scaling.MinNodes = 2
	cfg.Scaling.MaxNodes = 5
	cfg.Monitor.Interval = 50 * time.Millisecond
	cfg.Monitor.SampleTimeout = 20 * time.Millisecond
	return cfg
}

func TestInitializeFleet_ProvisionsToMinimum(t *testing.T) {
	orch := New(testConfig(t))
	defer orch.Stop()

	require.NoError(t, orch.InitializeFleet(context.Background()))

	nodes := orch.ListNodes()
	require.Len(t, nodes, 2)
	for _, node := range nodes {
		assert.Equal(t, models.NodeStatusActive, node.Status)
		assert.Equal(t, 100.0, node.HealthScore)
	}

	// idempotent once the minimum is reached
	require.NoError(t, orch.InitializeFleet(context.Background()))
	assert.Len(t, orch.ListNodes(), 2)
}

func TestDistributeAndComplete(t *testing.T) {
	orch := New(testConfig(t))
	defer orch.Stop()
	require.NoError(t, orch.InitializeFleet(context.Background()))

	node, err := orch.DistributeLoad("work-1")
	require.NoError(t, err)
	require.NotNil(t, node)

	dist := orch.GetLoadDistribution()
	assert.InDelta(t, 100.0, dist[node.ID], 0.001)

	orch.CompleteConnection(node.ID)
	assert.Empty(t, orch.GetLoadDistribution())
}

func TestHandleNodeFailure_PullsNodeFromRotation(t *testing.T) {
	orch := New(testConfig(t))
	defer orch.Stop()
	require.NoError(t, orch.InitializeFleet(context.Background()))

	failedEvents := orch.SubscribeEvents(models.EventTypeNodeFailed)

	victim := orch.ListNodes()[0]
	result := orch.HandleNodeFailure(victim.ID)

	require.True(t, result.Success)
	node, ok := orch.GetNode(victim.ID)
	require.True(t, ok)
	assert.Equal(t, models.NodeStatusError, node.Status)

	select {
	case event := <-failedEvents:
		assert.Equal(t, victim.ID, event.NodeID)
	case <-time.After(time.Second):
		t.Fatal("node failure event never published")
	}
}

func TestTriggerManual_ScaleUp(t *testing.T) {
	orch := New(testConfig(t))
	defer orch.Stop()
	require.NoError(t, orch.InitializeFleet(context.Background()))

	completeEvents := orch.SubscribeEvents(models.EventTypeScalingComplete)

	result := orch.TriggerManual(context.Background(), models.ActionScaleUp, models.SeverityHigh)

	require.True(t, result.Success)
	assert.Len(t, orch.ListNodes(), 4)

	events := orch.RecentEvents(10)
	require.Len(t, events, 1)
	assert.Equal(t, models.TriggerTypeManual, events[0].Trigger.Type)

	select {
	case <-completeEvents:
	case <-time.After(time.Second):
		t.Fatal("scaling complete event never published")
	}
}

func TestTriggerManual_CooldownNotPublished(t *testing.T) {
	orch := New(testConfig(t))
	defer orch.Stop()
	require.NoError(t, orch.InitializeFleet(context.Background()))

	require.True(t, orch.TriggerManual(context.Background(), models.ActionScaleUp, models.SeverityHigh).Success)

	failedEvents := orch.SubscribeEvents(models.EventTypeScalingFailed)

	second := orch.TriggerManual(context.Background(), models.ActionScaleUp, models.SeverityHigh)
	assert.False(t, second.Success)
	assert.Equal(t, "cooldown", second.Error)

	// rejections stay out of history and off the event bus
	assert.Len(t, orch.RecentEvents(10), 1)
	select {
	case <-failedEvents:
		t.Fatal("cooldown rejection was published as a failure")
	case <-time.After(50 * time.Millisecond):
	}

	assert.NotEqual(t, "0s", orch.CooldownRemaining(models.ActionScaleUp))
}

func TestStartStop(t *testing.T) {
	orch := New(testConfig(t))

	require.NoError(t, orch.Start(context.Background()))
	assert.True(t, orch.IsRunning())

	// the loop ticks and publishes fleet aggregates
	require.Eventually(t, func() bool {
		return orch.FleetMetrics().NodeCount > 0
	}, 2*time.Second, 20*time.Millisecond)

	orch.Stop()
	assert.False(t, orch.IsRunning())
}
