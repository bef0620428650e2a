package models

import "time"

type NodeStatus string

const (
	NodeStatusProvisioning NodeStatus = "provisioning"
	NodeStatusActive       NodeStatus = "active"
	NodeStatusDegraded     NodeStatus = "degraded"
	NodeStatusTerminating  NodeStatus = "terminating"
	NodeStatusError        NodeStatus = "error"
)

// Node is a single compute unit in the fleet
type Node struct {
	ID            string          `json:"id"`
	Address       string          `json:"address"`
	Port          int             `json:"port"`
	Region        string          `json:"region"`
	Status        NodeStatus      `json:"status"`
	Capabilities  []string        `json:"capabilities"`
	Resources     ResourceMetrics `json:"resources"`
	HealthScore   float64         `json:"health_score"` // derived, 0-100
	LastSeen      time.Time       `json:"last_seen"`
	CreatedAt     time.Time       `json:"created_at"`
	ActivatedAt   *time.Time      `json:"activated_at,omitempty"`
	TerminatingAt *time.Time      `json:"terminating_at,omitempty"`
}

func NewNode(address string, port int, region string, capabilities []string) *Node {
	now := time.Now()
	return &Node{
		ID:           NewUUID(),
		Address:      address,
		Port:         port,
		Region:       region,
		Status:       NodeStatusProvisioning,
		Capabilities: append([]string(nil), capabilities...),
		HealthScore:  100,
		LastSeen:     now,
		CreatedAt:    now,
	}
}

func (n *Node) Activate() {
	now := time.Now()
	n.Status = NodeStatusActive
	n.ActivatedAt = &now
}

func (n *Node) Degrade() {
	n.Status = NodeStatusDegraded
}

func (n *Node) Restore() {
	n.Status = NodeStatusActive
}

func (n *Node) BeginTermination() {
	now := time.Now()
	n.Status = NodeStatusTerminating
	n.TerminatingAt = &now
}

func (n *Node) MarkFailed() {
	n.Status = NodeStatusError
}

func (n *Node) IsActive() bool {
	return n.Status == NodeStatusActive
}

// IsEligible reports whether the node may receive work
func (n *Node) IsEligible(minHealthScore float64) bool {
	return n.Status == NodeStatusActive && n.HealthScore > minHealthScore
}

// Clone returns a deep copy safe to hand across goroutine boundaries
func (n *Node) Clone() *Node {
	cp := *n
	cp.Capabilities = append([]string(nil), n.Capabilities...)
	cp.Resources.CPU.LoadAverage = append([]float64(nil), n.Resources.CPU.LoadAverage...)
	if n.ActivatedAt != nil {
		t := *n.ActivatedAt
		cp.ActivatedAt = &t
	}
	if n.TerminatingAt != nil {
		t := *n.TerminatingAt
		cp.TerminatingAt = &t
	}
	return &cp
}
