package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNode(t *testing.T) {
	node := NewNode("10.0.0.1", 7100, "us-east-1", []string{"compute"})

	assert.NotEmpty(t, node.ID)
	assert.Equal(t, NodeStatusProvisioning, node.Status)
	assert.Equal(t, 100.0, node.HealthScore)
	assert.Nil(t, node.ActivatedAt)
	assert.Equal(t, []string{"compute"}, node.Capabilities)
}

func TestNode_Lifecycle(t *testing.T) {
	node := NewNode("10.0.0.1", 7100, "us-east-1", nil)

	node.Activate()
	assert.Equal(t, NodeStatusActive, node.Status)
	require.NotNil(t, node.ActivatedAt)
	assert.True(t, node.IsActive())

	node.Degrade()
	assert.Equal(t, NodeStatusDegraded, node.Status)
	assert.False(t, node.IsActive())

	node.Restore()
	assert.Equal(t, NodeStatusActive, node.Status)

	node.BeginTermination()
	assert.Equal(t, NodeStatusTerminating, node.Status)
	require.NotNil(t, node.TerminatingAt)

	node.MarkFailed()
	assert.Equal(t, NodeStatusError, node.Status)
}

func TestNode_IsEligible(t *testing.T) {
	tests := []struct {
		name     string
		status   NodeStatus
		score    float64
		expected bool
	}{
		{"active above cutoff", NodeStatusActive, 80, true},
		{"active at cutoff", NodeStatusActive, 50, false},
		{"active below cutoff", NodeStatusActive, 30, false},
		{"degraded above cutoff", NodeStatusDegraded, 80, false},
		{"provisioning", NodeStatusProvisioning, 100, false},
		{"error", NodeStatusError, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := NewNode("10.0.0.1", 7100, "us-east-1", nil)
			node.Status = tt.status
			node.HealthScore = tt.score

			assert.Equal(t, tt.expected, node.IsEligible(50))
		})
	}
}

func TestNode_Clone_Independence(t *testing.T) {
	node := NewNode("10.0.0.1", 7100, "us-east-1", []string{"compute"})
	node.Activate()
	node.Resources.CPU.LoadAverage = []float64{1.0, 1.5}

	clone := node.Clone()
	clone.Capabilities[0] = "storage"
	clone.Resources.CPU.LoadAverage[0] = 9.9
	clone.HealthScore = 10

	assert.Equal(t, "compute", node.Capabilities[0])
	assert.Equal(t, 1.0, node.Resources.CPU.LoadAverage[0])
	assert.Equal(t, 100.0, node.HealthScore)
	assert.NotSame(t, node.ActivatedAt, clone.ActivatedAt)
}
