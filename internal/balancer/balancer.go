package balancer

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/qnetlabs/qnet-fleet/internal/logger"
	"github.com/qnetlabs/qnet-fleet/internal/registry"
	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

var (
	ErrNoNodesAvailable = errors.New("no nodes available")
	ErrNoHealthyNodes   = errors.New("no healthy nodes available")
)

type Config struct {
	// MinHealthScore excludes nodes at or below this score from selection
	MinHealthScore float64

	// Rand lets tests inject a deterministic source
	Rand *rand.Rand
}

// Balancer picks nodes for incoming work with weighted selection over
// health-filtered candidates and tracks per-node open connections.
type Balancer struct {
	registry    *registry.Registry
	minHealth   float64
	rng         *rand.Rand
	weights     map[string]float64
	connections map[string]int
	selections  int64
	failures    int64
	mu          sync.Mutex
}

func New(reg *registry.Registry, cfg Config) *Balancer {
	minHealth := cfg.MinHealthScore
	if minHealth == 0 {
		minHealth = 50.0
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Balancer{
		registry:    reg,
		minHealth:   minHealth,
		rng:         rng,
		weights:     make(map[string]float64),
		connections: make(map[string]int),
	}
}

// computeWeight derives a node's selection weight from current headroom:
// it rises with free CPU, free memory and health score, and falls with
// network latency. Floored at 1 so every eligible node stays selectable.
func computeWeight(node *models.Node) float64 {
	base := 0.35*(100-node.Resources.CPU.Usage) +
		0.35*(100-node.Resources.Memory.Usage) +
		0.30*node.HealthScore

	weight := base * 200 / (200 + node.Resources.Network.LatencyMs)
	if weight < 1 {
		weight = 1
	}
	return weight
}

// DistributeLoad selects the node for one unit of work. Candidates are
// filtered to active nodes above the health cutoff; selection probability
// is proportional to weight. Equal weights tie-break uniformly over
// nodeID order, so an injected rand source makes runs reproducible.
func (b *Balancer) DistributeLoad(workID string, candidates []*models.Node) (*models.Node, error) {
	if len(candidates) == 0 {
		return nil, ErrNoNodesAvailable
	}

	eligible := make([]*models.Node, 0, len(candidates))
	for _, node := range candidates {
		if node.IsEligible(b.minHealth) {
			eligible = append(eligible, node)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNoHealthyNodes
	}

	sort.Slice(eligible, func(i, j int) bool { return eligible[i].ID < eligible[j].ID })

	b.mu.Lock()
	defer b.mu.Unlock()

	var total float64
	for _, node := range eligible {
		total += b.weightFor(node)
	}

	chosen := eligible[len(eligible)-1]
	draw := b.rng.Float64() * total
	for _, node := range eligible {
		draw -= b.weightFor(node)
		if draw < 0 {
			chosen = node
			break
		}
	}

	b.connections[chosen.ID]++
	b.selections++

	logger.WithFields(map[string]interface{}{
		"work_id": workID,
		"node_id": chosen.ID,
	}).Debug("Work assigned")

	return chosen, nil
}

// weightFor returns the stored weight, falling back to a fresh
// computation for nodes not seen by UpdateNodeWeights yet; callers hold b.mu
func (b *Balancer) weightFor(node *models.Node) float64 {
	if weight, exists := b.weights[node.ID]; exists {
		return weight
	}
	return computeWeight(node)
}

// UpdateNodeWeights recomputes all weights from current resource headroom
// and garbage-collects weight/connection entries for departed nodes.
func (b *Balancer) UpdateNodeWeights(nodes []*models.Node) {
	b.mu.Lock()
	defer b.mu.Unlock()

	weights := make(map[string]float64, len(nodes))
	connections := make(map[string]int, len(nodes))

	for _, node := range nodes {
		weights[node.ID] = computeWeight(node)
		if count, exists := b.connections[node.ID]; exists {
			connections[node.ID] = count
		}
	}

	b.weights = weights
	b.connections = connections
}

// FailureResult describes the outcome of removing a failed node from rotation
type FailureResult struct {
	Success                  bool     `json:"success"`
	FailedNode               string   `json:"failed_node"`
	RedistributedConnections int      `json:"redistributed_connections"`
	ActiveNodes              []string `json:"active_nodes"`
	AvgLatencyMs             float64  `json:"avg_latency_ms"`
	Message                  string   `json:"message,omitempty"`
}

// HandleNodeFailure removes a node from rotation and folds its tracked
// connections into the remaining active nodes, split evenly with the
// remainder going to the lexicographically first node IDs. If no other
// node remains the result reports a structured failure, not an error.
func (b *Balancer) HandleNodeFailure(nodeID string) *FailureResult {
	// mark failed first so Active() below excludes it
	if err := b.registry.SetStatus(nodeID, models.NodeStatusError); err != nil && !errors.Is(err, registry.ErrNodeNotFound) {
		logger.WithNode(nodeID).Errorf("Failed to mark node as failed: %v", err)
	}

	remaining := b.registry.Active()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	orphaned := b.connections[nodeID]
	delete(b.connections, nodeID)
	delete(b.weights, nodeID)

	if len(remaining) == 0 {
		logger.WithNode(nodeID).Warn("Node failed with no remaining nodes")
		return &FailureResult{
			Success:     false,
			FailedNode:  nodeID,
			ActiveNodes: []string{},
			Message:     "no remaining nodes to redistribute connections to",
		}
	}

	share := orphaned / len(remaining)
	extra := orphaned % len(remaining)

	ids := make([]string, 0, len(remaining))
	var totalLatency float64
	for i, node := range remaining {
		ids = append(ids, node.ID)
		totalLatency += node.Resources.Network.LatencyMs

		grant := share
		if i < extra {
			grant++
		}
		if grant > 0 {
			b.connections[node.ID] += grant
		}
	}

	logger.WithNode(nodeID).Infof(
		"Node failed, redistributed %d connections across %d nodes",
		orphaned, len(remaining),
	)

	return &FailureResult{
		Success:                  true,
		FailedNode:               nodeID,
		RedistributedConnections: orphaned,
		ActiveNodes:              ids,
		AvgLatencyMs:             totalLatency / float64(len(remaining)),
	}
}

// GetLoadDistribution reports each tracked node's share of open
// connections as a percentage. Empty when nothing is tracked.
func (b *Balancer) GetLoadDistribution() map[string]float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	distribution := make(map[string]float64)

	var total int
	for _, count := range b.connections {
		total += count
	}
	if total == 0 {
		return distribution
	}

	for nodeID, count := range b.connections {
		distribution[nodeID] = float64(count) / float64(total) * 100
	}
	return distribution
}

func (b *Balancer) GetNodeConnections(nodeID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connections[nodeID]
}

// CompleteConnection decrements a node's counter, floored at zero
func (b *Balancer) CompleteConnection(nodeID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connections[nodeID] > 0 {
		b.connections[nodeID]--
	}
}

func (b *Balancer) ResetConnections() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for nodeID := range b.connections {
		b.connections[nodeID] = 0
	}
}

// Statistics is a read-only snapshot of connection bookkeeping
type Statistics struct {
	TotalConnections          int     `json:"total_connections"`
	NodeCount                 int     `json:"node_count"`
	AverageConnectionsPerNode float64 `json:"average_connections_per_node"`
	LoadVariance              float64 `json:"load_variance"`
	Selections                int64   `json:"selections"`
	Failures                  int64   `json:"failures"`
	ErrorRate                 float64 `json:"error_rate"`
}

func (b *Balancer) GetStatistics() Statistics {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := Statistics{
		Selections: b.selections,
		Failures:   b.failures,
	}
	if b.selections > 0 {
		stats.ErrorRate = float64(b.failures) / float64(b.selections)
	}

	if len(b.connections) == 0 {
		return stats
	}

	stats.NodeCount = len(b.connections)
	for _, count := range b.connections {
		stats.TotalConnections += count
	}
	stats.AverageConnectionsPerNode = float64(stats.TotalConnections) / float64(stats.NodeCount)

	var variance float64
	for _, count := range b.connections {
		diff := float64(count) - stats.AverageConnectionsPerNode
		variance += diff * diff
	}
	stats.LoadVariance = variance / float64(stats.NodeCount)

	return stats
}

// ErrorRate reports the failure ratio observed since startup
func (b *Balancer) ErrorRate() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.selections == 0 {
		return 0
	}
	return float64(b.failures) / float64(b.selections)
}
