package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qnetlabs/qnet-fleet/internal/balancer"
	"github.com/qnetlabs/qnet-fleet/internal/scaling"
	"github.com/qnetlabs/qnet-fleet/pkg/config"
	"github.com/qnetlabs/qnet-fleet/pkg/models"
	"github.com/qnetlabs/qnet-fleet/pkg/validation"
)

// FleetManager is the orchestrator surface the API depends on
type FleetManager interface {
	ListNodes() []*models.Node
	GetNode(nodeID string) (*models.Node, bool)
	FleetMetrics() models.FleetMetrics
	DistributeLoad(workID string) (*models.Node, error)
	CompleteConnection(nodeID string)
	HandleNodeFailure(nodeID string) *balancer.FailureResult
	GetLoadDistribution() map[string]float64
	GetStatistics() balancer.Statistics
	RecentEvents(n int) []*models.ScalingEvent
	ScalingHealth() *scaling.HealthReport
	TriggerManual(ctx context.Context, action models.ScalingAction, severity models.TriggerSeverity) *models.ScalingResult
	CooldownRemaining(action models.ScalingAction) string
	IsRunning() bool
	SubscribeAllEvents() <-chan *models.Event
	Config() *config.Config
}

type FleetHandler struct {
	manager FleetManager
}

func NewFleetHandler(manager FleetManager) *FleetHandler {
	return &FleetHandler{manager: manager}
}

func (h *FleetHandler) ListNodes(c *gin.Context) {
	nodes := h.manager.ListNodes()
	c.JSON(http.StatusOK, gin.H{
		"nodes": nodes,
		"count": len(nodes),
	})
}

func (h *FleetHandler) GetNode(c *gin.Context) {
	nodeID := c.Param("id")
	if err := validation.ValidateNodeID(nodeID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, ok := h.manager.GetNode(nodeID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
		return
	}

	c.JSON(http.StatusOK, node)
}

func (h *FleetHandler) FleetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.FleetMetrics())
}

type DistributeRequest struct {
	WorkID string `json:"work_id" binding:"required,min=1,max=100"`
}

func (h *FleetHandler) Distribute(c *gin.Context) {
	var req DistributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	node, err := h.manager.DistributeLoad(validation.SanitizeString(req.WorkID))
	if err != nil {
		status := http.StatusServiceUnavailable
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"work_id": req.WorkID,
		"node_id": node.ID,
		"address": node.Address,
		"port":    node.Port,
	})
}

func (h *FleetHandler) CompleteConnection(c *gin.Context) {
	nodeID := c.Param("id")
	if err := validation.ValidateNodeID(nodeID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, ok := h.manager.GetNode(nodeID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
		return
	}

	h.manager.CompleteConnection(nodeID)
	c.JSON(http.StatusOK, gin.H{"node_id": nodeID, "status": "connection completed"})
}

func (h *FleetHandler) FailNode(c *gin.Context) {
	nodeID := c.Param("id")
	if err := validation.ValidateNodeID(nodeID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, ok := h.manager.GetNode(nodeID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
		return
	}

	result := h.manager.HandleNodeFailure(nodeID)
	c.JSON(http.StatusOK, result)
}

func (h *FleetHandler) Distribution(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"distribution": h.manager.GetLoadDistribution(),
	})
}

func (h *FleetHandler) Statistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.GetStatistics())
}
