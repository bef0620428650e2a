package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

func newActiveNode() *models.Node {
	node := models.NewNode("10.0.0.1", 7100, "us-east-1", nil)
	node.Activate()
	return node
}

func TestRegistry_AddAndGet(t *testing.T) {
	reg := New(Callbacks{})
	node := newActiveNode()

	require.NoError(t, reg.Add(node))

	got, ok := reg.Get(node.ID)
	require.True(t, ok)
	assert.Equal(t, node.ID, got.ID)

	// returned node is a copy
	got.HealthScore = 1
	again, _ := reg.Get(node.ID)
	assert.Equal(t, 100.0, again.HealthScore)
}

func TestRegistry_AddDuplicate(t *testing.T) {
	reg := New(Callbacks{})
	node := newActiveNode()

	require.NoError(t, reg.Add(node))
	assert.ErrorIs(t, reg.Add(node), ErrDuplicateNode)
}

func TestRegistry_Remove(t *testing.T) {
	reg := New(Callbacks{})
	node := newActiveNode()
	require.NoError(t, reg.Add(node))

	removed, err := reg.Remove(node.ID)
	require.NoError(t, err)
	assert.Equal(t, node.ID, removed.ID)
	assert.Equal(t, 0, reg.Len())

	_, err = reg.Remove(node.ID)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestRegistry_ActiveAndMonitored(t *testing.T) {
	reg := New(Callbacks{})

	active := newActiveNode()
	degraded := newActiveNode()
	degraded.Degrade()
	failed := newActiveNode()
	failed.MarkFailed()

	require.NoError(t, reg.Add(active))
	require.NoError(t, reg.Add(degraded))
	require.NoError(t, reg.Add(failed))

	assert.Equal(t, 1, len(reg.Active()))
	assert.Equal(t, 1, reg.ActiveCount())
	assert.Equal(t, 2, len(reg.Monitored()))
	assert.Equal(t, 3, reg.Len())
}

func TestRegistry_ListOrderedByID(t *testing.T) {
	reg := New(Callbacks{})
	for i := 0; i < 5; i++ {
		require.NoError(t, reg.Add(newActiveNode()))
	}

	nodes := reg.List()
	require.Len(t, nodes, 5)
	for i := 1; i < len(nodes); i++ {
		assert.Less(t, nodes[i-1].ID, nodes[i].ID)
	}
}

func TestRegistry_SetStatus(t *testing.T) {
	changes := make(chan models.NodeStatus, 1)
	reg := New(Callbacks{
		OnStatusChanged: func(node *models.Node, oldStatus, newStatus models.NodeStatus) {
			changes <- newStatus
		},
	})

	node := newActiveNode()
	require.NoError(t, reg.Add(node))

	require.NoError(t, reg.SetStatus(node.ID, models.NodeStatusDegraded))

	select {
	case status := <-changes:
		assert.Equal(t, models.NodeStatusDegraded, status)
	case <-time.After(time.Second):
		t.Fatal("status change callback never fired")
	}

	assert.ErrorIs(t, reg.SetStatus("missing", models.NodeStatusActive), ErrNodeNotFound)
}

func TestRegistry_SetStatus_FirstActivationStampsTime(t *testing.T) {
	reg := New(Callbacks{})
	node := models.NewNode("10.0.0.1", 7100, "us-east-1", nil)
	require.NoError(t, reg.Add(node))
	require.Nil(t, node.ActivatedAt)

	require.NoError(t, reg.SetStatus(node.ID, models.NodeStatusActive))

	got, _ := reg.Get(node.ID)
	assert.NotNil(t, got.ActivatedAt)
}

func TestRegistry_UpdateResources(t *testing.T) {
	reg := New(Callbacks{})
	node := newActiveNode()
	require.NoError(t, reg.Add(node))

	sample := models.ResourceMetrics{NodeID: node.ID, Timestamp: time.Now()}
	sample.CPU.Usage = 42

	require.NoError(t, reg.UpdateResources(node.ID, sample, 77))

	got, _ := reg.Get(node.ID)
	assert.Equal(t, 42.0, got.Resources.CPU.Usage)
	assert.Equal(t, 77.0, got.HealthScore)
	assert.Equal(t, sample.Timestamp.Unix(), got.LastSeen.Unix())

	assert.ErrorIs(t, reg.UpdateResources("missing", sample, 50), ErrNodeNotFound)
}

func TestRegistry_ApplyHealthPenalty_FloorsAtZero(t *testing.T) {
	reg := New(Callbacks{})
	node := newActiveNode()
	node.HealthScore = 15
	require.NoError(t, reg.Add(node))

	score, err := reg.ApplyHealthPenalty(node.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 5.0, score)

	score, err = reg.ApplyHealthPenalty(node.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	_, err = reg.ApplyHealthPenalty("missing", 10)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := New(Callbacks{})

	nodes := make([]*models.Node, 10)
	for i := range nodes {
		nodes[i] = newActiveNode()
		require.NoError(t, reg.Add(nodes[i]))
	}

	var wg sync.WaitGroup
	for _, node := range nodes {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				sample := models.ResourceMetrics{NodeID: id, Timestamp: time.Now()}
				_ = reg.UpdateResources(id, sample, float64(i))
			}
		}(node.ID)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = reg.Active()
				_ = reg.List()
				_ = reg.ActiveCount()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, reg.Len())
}
