package models

import "time"

// CPUMetrics describes processor usage for a node
type CPUMetrics struct {
	Usage       float64   `json:"usage"` // percent, 0-100
	Cores       int       `json:"cores"`
	LoadAverage []float64 `json:"load_average,omitempty"`
}

// MemoryMetrics describes memory usage for a node
type MemoryMetrics struct {
	Usage       float64 `json:"usage"` // percent, 0-100
	TotalMB     float64 `json:"total_mb"`
	AvailableMB float64 `json:"available_mb"`
	UsedMB      float64 `json:"used_mb"`
}

// BandwidthMetrics describes network throughput in both directions
type BandwidthMetrics struct {
	InMbps  float64 `json:"in_mbps"`
	OutMbps float64 `json:"out_mbps"`
}

// NetworkMetrics describes network conditions observed at a node
type NetworkMetrics struct {
	LatencyMs       float64          `json:"latency_ms"`
	Bandwidth       BandwidthMetrics `json:"bandwidth"`
	OpenConnections int              `json:"open_connections"`
}

// DiskMetrics describes persistent storage usage for a node
type DiskMetrics struct {
	Usage       float64 `json:"usage"` // percent, 0-100
	TotalGB     float64 `json:"total_gb"`
	AvailableGB float64 `json:"available_gb"`
	IOPS        int     `json:"iops"`
}

// ResourceMetrics is a point-in-time sample of one node's resource usage
type ResourceMetrics struct {
	NodeID    string         `json:"node_id"`
	Timestamp time.Time      `json:"timestamp"`
	CPU       CPUMetrics     `json:"cpu"`
	Memory    MemoryMetrics  `json:"memory"`
	Network   NetworkMetrics `json:"network"`
	Disk      DiskMetrics    `json:"disk"`
}

// Clamp forces all usage percentages into [0, 100]
func (m *ResourceMetrics) Clamp() {
	m.CPU.Usage = clampPercent(m.CPU.Usage)
	m.Memory.Usage = clampPercent(m.Memory.Usage)
	m.Disk.Usage = clampPercent(m.Disk.Usage)
	if m.Network.LatencyMs < 0 {
		m.Network.LatencyMs = 0
	}
	if m.Network.OpenConnections < 0 {
		m.Network.OpenConnections = 0
	}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// FleetMetrics represents cross-node averages computed over active nodes
type FleetMetrics struct {
	Timestamp  time.Time `json:"timestamp"`
	AvgCPU     float64   `json:"avg_cpu"`
	AvgMemory  float64   `json:"avg_memory"`
	AvgLatency float64   `json:"avg_latency_ms"`
	AvgDisk    float64   `json:"avg_disk"`
	MaxCPU     float64   `json:"max_cpu"`
	MaxMemory  float64   `json:"max_memory"`
	MaxLatency float64   `json:"max_latency_ms"`
	MaxDisk    float64   `json:"max_disk"`
	NodeCount  int       `json:"node_count"`
}

// AggregateFleet computes averages and maxima over the given nodes' latest samples
func AggregateFleet(nodes []*Node) FleetMetrics {
	fleet := FleetMetrics{Timestamp: time.Now()}
	if len(nodes) == 0 {
		return fleet
	}

	for _, n := range nodes {
		r := n.Resources
		fleet.AvgCPU += r.CPU.Usage
		fleet.AvgMemory += r.Memory.Usage
		fleet.AvgLatency += r.Network.LatencyMs
		fleet.AvgDisk += r.Disk.Usage

		if r.CPU.Usage > fleet.MaxCPU {
			fleet.MaxCPU = r.CPU.Usage
		}
		if r.Memory.Usage > fleet.MaxMemory {
			fleet.MaxMemory = r.Memory.Usage
		}
		if r.Network.LatencyMs > fleet.MaxLatency {
			fleet.MaxLatency = r.Network.LatencyMs
		}
		if r.Disk.Usage > fleet.MaxDisk {
			fleet.MaxDisk = r.Disk.Usage
		}
	}

	count := float64(len(nodes))
	fleet.AvgCPU /= count
	fleet.AvgMemory /= count
	fleet.AvgLatency /= count
	fleet.AvgDisk /= count
	fleet.NodeCount = len(nodes)

	return fleet
}
