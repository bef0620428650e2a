package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/qnetlabs/qnet-fleet/pkg/models"
	"github.com/qnetlabs/qnet-fleet/pkg/validation"
)

const defaultEventLimit = 50

type ScalingHandler struct {
	manager FleetManager
}

func NewScalingHandler(manager FleetManager) *ScalingHandler {
	return &ScalingHandler{manager: manager}
}

func (h *ScalingHandler) Events(c *gin.Context) {
	limit := defaultEventLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = parsed
	}

	events := h.manager.RecentEvents(limit)
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

func (h *ScalingHandler) HealthReport(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.ScalingHealth())
}

type TriggerRequest struct {
	Action   string `json:"action" binding:"required"`
	Severity string `json:"severity"`
}

func (h *ScalingHandler) Trigger(c *gin.Context) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	action, err := validation.ValidateScalingAction(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	severity, err := validation.ValidateSeverity(req.Severity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.manager.TriggerManual(c.Request.Context(), action, severity)

	status := http.StatusOK
	if !result.Success {
		if result.Error == "cooldown" {
			status = http.StatusTooManyRequests
		} else {
			status = http.StatusConflict
		}
	}

	c.JSON(status, result)
}

func (h *ScalingHandler) Cooldowns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scale_up":     h.manager.CooldownRemaining(models.ActionScaleUp),
		"scale_down":   h.manager.CooldownRemaining(models.ActionScaleDown),
		"redistribute": h.manager.CooldownRemaining(models.ActionRedistribute),
	})
}

// ConfigView exposes the non-secret scaling configuration for operators
func (h *ScalingHandler) ConfigView(c *gin.Context) {
	cfg := h.manager.Config()
	c.JSON(http.StatusOK, gin.H{
		"scaling":  cfg.Scaling,
		"balancer": cfg.Balancer,
		"monitor": gin.H{
			"interval":       cfg.Monitor.Interval.String(),
			"sample_timeout": cfg.Monitor.SampleTimeout.String(),
			"source":         cfg.Monitor.Source,
			"pattern":        cfg.Monitor.Pattern,
		},
	})
}
