package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func nodeWithUsage(cpu, memory, latency, disk float64) *Node {
	node := NewNode("10.0.0.1", 7100, "us-east-1", nil)
	node.Resources.CPU.Usage = cpu
	node.Resources.Memory.Usage = memory
	node.Resources.Network.LatencyMs = latency
	node.Resources.Disk.Usage = disk
	return node
}

func TestResourceMetrics_Clamp(t *testing.T) {
	m := ResourceMetrics{}
	m.CPU.Usage = 120
	m.Memory.Usage = -5
	m.Disk.Usage = 101
	m.Network.LatencyMs = -10
	m.Network.OpenConnections = -3

	m.Clamp()

	assert.Equal(t, 100.0, m.CPU.Usage)
	assert.Equal(t, 0.0, m.Memory.Usage)
	assert.Equal(t, 100.0, m.Disk.Usage)
	assert.Equal(t, 0.0, m.Network.LatencyMs)
	assert.Equal(t, 0, m.Network.OpenConnections)
}

func TestAggregateFleet(t *testing.T) {
	nodes := []*Node{
		nodeWithUsage(30, 40, 100, 20),
		nodeWithUsage(60, 50, 200, 40),
		nodeWithUsage(90, 60, 300, 60),
	}

	fleet := AggregateFleet(nodes)

	assert.Equal(t, 3, fleet.NodeCount)
	assert.InDelta(t, 60.0, fleet.AvgCPU, 0.001)
	assert.InDelta(t, 50.0, fleet.AvgMemory, 0.001)
	assert.InDelta(t, 200.0, fleet.AvgLatency, 0.001)
	assert.InDelta(t, 40.0, fleet.AvgDisk, 0.001)
	assert.Equal(t, 90.0, fleet.MaxCPU)
	assert.Equal(t, 60.0, fleet.MaxMemory)
	assert.Equal(t, 300.0, fleet.MaxLatency)
	assert.Equal(t, 60.0, fleet.MaxDisk)
}

func TestAggregateFleet_Empty(t *testing.T) {
	fleet := AggregateFleet(nil)

	assert.Equal(t, 0, fleet.NodeCount)
	assert.Equal(t, 0.0, fleet.AvgCPU)
	assert.Equal(t, 0.0, fleet.MaxCPU)
}
