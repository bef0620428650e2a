package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/qnetlabs/qnet-fleet/internal/logger"
	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrDuplicateNode = errors.New("node already registered")
)

// Callbacks notify interested parties about node lifecycle transitions.
// They are invoked on their own goroutines so the registry lock is never
// held across a callback.
type Callbacks struct {
	OnNodeAdded     func(node *models.Node)
	OnNodeRemoved   func(node *models.Node)
	OnStatusChanged func(node *models.Node, oldStatus, newStatus models.NodeStatus)
}

// Registry is the shared mutable node set observed by every component.
// It is explicitly owned and injected, never a process-wide singleton.
type Registry struct {
	nodes     map[string]*models.Node
	mu        sync.RWMutex
	callbacks Callbacks
}

func New(callbacks Callbacks) *Registry {
	return &Registry{
		nodes:     make(map[string]*models.Node),
		callbacks: callbacks,
	}
}

func (r *Registry) Add(node *models.Node) error {
	r.mu.Lock()
	if _, exists := r.nodes[node.ID]; exists {
		r.mu.Unlock()
		return ErrDuplicateNode
	}
	r.nodes[node.ID] = node
	r.mu.Unlock()

	logger.WithNode(node.ID).Infof("Node added with status %s", node.Status)

	if r.callbacks.OnNodeAdded != nil {
		go r.callbacks.OnNodeAdded(node.Clone())
	}
	return nil
}

func (r *Registry) Remove(nodeID string) (*models.Node, error) {
	r.mu.Lock()
	node, exists := r.nodes[nodeID]
	if !exists {
		r.mu.Unlock()
		return nil, ErrNodeNotFound
	}
	delete(r.nodes, nodeID)
	r.mu.Unlock()

	logger.WithNode(nodeID).Info("Node removed")

	removed := node.Clone()
	if r.callbacks.OnNodeRemoved != nil {
		go r.callbacks.OnNodeRemoved(removed)
	}
	return removed, nil
}

func (r *Registry) Get(nodeID string) (*models.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node, exists := r.nodes[nodeID]
	if !exists {
		return nil, false
	}
	return node.Clone(), true
}

// List returns copies of all nodes ordered by ID so iteration order is
// deterministic across calls.
func (r *Registry) List() []*models.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]*models.Node, 0, len(r.nodes))
	for _, node := range r.nodes {
		nodes = append(nodes, node.Clone())
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Active returns copies of nodes with status active, ordered by ID
func (r *Registry) Active() []*models.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]*models.Node, 0, len(r.nodes))
	for _, node := range r.nodes {
		if node.IsActive() {
			nodes = append(nodes, node.Clone())
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Monitored returns nodes the resource monitor samples: active nodes plus
// degraded ones, which must keep reporting so they can recover.
func (r *Registry) Monitored() []*models.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]*models.Node, 0, len(r.nodes))
	for _, node := range r.nodes {
		if node.Status == models.NodeStatusActive || node.Status == models.NodeStatusDegraded {
			nodes = append(nodes, node.Clone())
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, node := range r.nodes {
		if node.IsActive() {
			count++
		}
	}
	return count
}

func (r *Registry) SetStatus(nodeID string, status models.NodeStatus) error {
	r.mu.Lock()
	node, exists := r.nodes[nodeID]
	if !exists {
		r.mu.Unlock()
		return ErrNodeNotFound
	}

	oldStatus := node.Status
	node.Status = status
	if status == models.NodeStatusActive && node.ActivatedAt == nil {
		now := time.Now()
		node.ActivatedAt = &now
	}
	changed := node.Clone()
	r.mu.Unlock()

	if oldStatus != status {
		logger.WithNode(nodeID).Infof("Node status changed: %s -> %s", oldStatus, status)
		if r.callbacks.OnStatusChanged != nil {
			go r.callbacks.OnStatusChanged(changed, oldStatus, status)
		}
	}
	return nil
}

// UpdateResources records a fresh sample and the derived health score
func (r *Registry) UpdateResources(nodeID string, resources models.ResourceMetrics, healthScore float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, exists := r.nodes[nodeID]
	if !exists {
		return ErrNodeNotFound
	}

	node.Resources = resources
	node.HealthScore = healthScore
	node.LastSeen = resources.Timestamp
	return nil
}

// ApplyHealthPenalty lowers a node's health score, flooring at zero.
// Used when a metrics sample fails but the node should stay monitored.
func (r *Registry) ApplyHealthPenalty(nodeID string, penalty float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, exists := r.nodes[nodeID]
	if !exists {
		return 0, ErrNodeNotFound
	}

	node.HealthScore -= penalty
	if node.HealthScore < 0 {
		node.HealthScore = 0
	}
	return node.HealthScore, nil
}
