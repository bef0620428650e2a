package scaling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/qnetlabs/qnet-fleet/internal/balancer"
	"github.com/qnetlabs/qnet-fleet/internal/logger"
	"github.com/qnetlabs/qnet-fleet/internal/registry"
	"github.com/qnetlabs/qnet-fleet/pkg/config"
	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

// Controller closes the autoscaling loop: it turns fleet averages into
// triggers and triggers into provision/terminate/redistribute actions,
// gated by per-action cooldowns and the configured node-count bounds.
type Controller struct {
	cfg         *config.ScalingConfig
	registry    *registry.Registry
	balancer    *balancer.Balancer
	provisioner Provisioner
	history     *History
	lastActions map[models.ScalingAction]time.Time
	mu          sync.Mutex
}

func NewController(cfg *config.ScalingConfig, reg *registry.Registry, bal *balancer.Balancer, prov Provisioner) *Controller {
	return &Controller{
		cfg:         cfg,
		registry:    reg,
		balancer:    bal,
		provisioner: prov,
		history:     NewHistory(),
		lastActions: make(map[models.ScalingAction]time.Time),
	}
}

func (c *Controller) History() *History {
	return c.history
}

// Evaluate inspects one tick's fleet averages and synthesizes the triggers
// they warrant. Triggers are ephemeral: produced here, consumed by
// TriggerScaling, never stored.
func (c *Controller) Evaluate(fleet models.FleetMetrics) []models.ScalingTrigger {
	if fleet.NodeCount == 0 {
		return nil
	}

	t := c.cfg.Thresholds
	var triggers []models.ScalingTrigger

	if trigger, ok := c.resourceTrigger(models.TriggerTypeCPU, fleet.AvgCPU, fleet.MaxCPU, t.CPUScaleUp); ok {
		triggers = append(triggers, trigger)
	}
	if trigger, ok := c.resourceTrigger(models.TriggerTypeMemory, fleet.AvgMemory, fleet.MaxMemory, t.MemoryScaleUp); ok {
		triggers = append(triggers, trigger)
	}
	if trigger, ok := c.resourceTrigger(models.TriggerTypeNetwork, fleet.AvgLatency, fleet.MaxLatency, t.LatencyMs); ok {
		triggers = append(triggers, trigger)
	}
	if trigger, ok := c.resourceTrigger(models.TriggerTypeDisk, fleet.AvgDisk, fleet.MaxDisk, t.DiskScaleUp); ok {
		triggers = append(triggers, trigger)
	}

	if rate := c.balancer.ErrorRate(); t.ErrorRate > 0 && rate > t.ErrorRate {
		severity := models.SeverityMedium
		if rate > 2*t.ErrorRate {
			severity = models.SeverityCritical
		} else if rate >= 1.15*t.ErrorRate {
			severity = models.SeverityHigh
		}
		triggers = append(triggers, models.NewScalingTrigger(
			models.TriggerTypeErrorRate, models.ActionScaleUp, t.ErrorRate, rate, severity,
		))
	}

	// scale down only when both cpu and memory sit below their floors
	if fleet.AvgCPU < t.CPUScaleDown && fleet.AvgMemory < t.MemoryScaleDown && fleet.NodeCount > c.cfg.MinNodes {
		triggers = append(triggers, models.NewScalingTrigger(
			models.TriggerTypeCPU, models.ActionScaleDown, t.CPUScaleDown, fleet.AvgCPU, models.SeverityLow,
		))
	}

	return triggers
}

// resourceTrigger fires when the fleet average exceeds the scale-up
// threshold, or when the hottest single node does (a hotspot that the
// average hides).
func (c *Controller) resourceTrigger(triggerType models.TriggerType, avg, max, threshold float64) (models.ScalingTrigger, bool) {
	if threshold <= 0 {
		return models.ScalingTrigger{}, false
	}

	value := avg
	if value <= threshold && max > threshold {
		value = max
	}
	if value <= threshold {
		return models.ScalingTrigger{}, false
	}

	severity := classifySeverity(triggerType, value, threshold)
	return models.NewScalingTrigger(triggerType, models.ActionScaleUp, threshold, value, severity), true
}

// classifySeverity grades how far past the threshold a value is.
// Usage-percentage resources are also critical past 90% absolute.
func classifySeverity(triggerType models.TriggerType, value, threshold float64) models.TriggerSeverity {
	isUsagePercent := triggerType == models.TriggerTypeCPU ||
		triggerType == models.TriggerTypeMemory ||
		triggerType == models.TriggerTypeDisk

	switch {
	case (isUsagePercent && value > 90) || value > 2*threshold:
		return models.SeverityCritical
	case value >= 1.15*threshold:
		return models.SeverityHigh
	default:
		return models.SeverityMedium
	}
}

// TriggerScaling executes one trigger. It always completes synchronously
// with a structured result; inside the cooldown window for the trigger's
// direction it returns a no_action rejection instead of acting.
func (c *Controller) TriggerScaling(ctx context.Context, trigger models.ScalingTrigger) *models.ScalingResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	action := trigger.Action
	if action == "" || action == models.ActionNone {
		return &models.ScalingResult{
			Action:    models.ActionNone,
			Success:   false,
			NodeCount: c.registry.Len(),
			Error:     "trigger carries no action",
		}
	}

	if remaining := c.cooldownRemainingLocked(action); remaining > 0 {
		logger.Debugf("Scaling %s rejected, cooldown for %s more", action, remaining.Round(time.Second))
		return &models.ScalingResult{
			Action:    models.ActionNone,
			Success:   false,
			NodeCount: c.registry.Len(),
			Error:     "cooldown",
		}
	}

	start := time.Now()

	var result *models.ScalingResult
	switch action {
	case models.ActionScaleUp:
		result = c.scaleUp(ctx)
	case models.ActionScaleDown:
		result = c.scaleDown(ctx)
	case models.ActionRedistribute:
		result = c.redistribute()
	default:
		return &models.ScalingResult{
			Action:    models.ActionNone,
			Success:   false,
			NodeCount: c.registry.Len(),
			Error:     "unsupported action: " + string(action),
		}
	}

	if result.Success {
		c.lastActions[action] = time.Now()
	}

	duration := time.Since(start)
	event := models.NewScalingEvent(trigger, *result, duration, c.estimateImpact(action, result))
	c.history.Append(event, c.cfg.HistoryRetention)

	return result
}

// scaleUp provisions up to batchSize nodes without exceeding maxNodes.
// The registry is only touched after every provision call has succeeded,
// so a failure leaves it exactly as it was.
func (c *Controller) scaleUp(ctx context.Context) *models.ScalingResult {
	active := c.registry.ActiveCount()
	if active >= c.cfg.MaxNodes {
		return &models.ScalingResult{
			Action:    models.ActionScaleUp,
			Success:   false,
			NodeCount: c.registry.Len(),
			Error:     "max nodes reached",
		}
	}

	count := min(c.cfg.BatchSize, c.cfg.MaxNodes-active)

	provisioned := make([]*models.Node, 0, count)
	for i := 0; i < count; i++ {
		node, err := c.provisioner.Provision(ctx, c.cfg.DefaultRegion, c.cfg.DefaultCapabilities)
		if err != nil {
			// release anything already allocated; the registry was never touched
			for _, p := range provisioned {
				if terr := c.provisioner.Terminate(ctx, p); terr != nil {
					logger.WithNode(p.ID).Errorf("Rollback termination failed: %v", terr)
				}
			}
			return &models.ScalingResult{
				Action:    models.ActionScaleUp,
				Success:   false,
				NodeCount: c.registry.Len(),
				Error:     "provision failed: " + err.Error(),
			}
		}
		provisioned = append(provisioned, node)
	}

	added := make([]string, 0, count)
	for _, node := range provisioned {
		node.Activate()
		node.HealthScore = 100
		if err := c.registry.Add(node); err != nil {
			logger.WithNode(node.ID).Errorf("Failed to register node: %v", err)
			continue
		}
		added = append(added, node.ID)
	}

	logger.Infof("Scaled up: added %d nodes (fleet now %d)", len(added), c.registry.Len())

	return &models.ScalingResult{
		Action:     models.ActionScaleUp,
		Success:    true,
		NodesAdded: added,
		NodeCount:  c.registry.Len(),
	}
}

// scaleDown terminates the lowest-health active nodes, never dropping the
// fleet below minNodes. Victims leave the registry only after every
// terminate call has succeeded.
func (c *Controller) scaleDown(ctx context.Context) *models.ScalingResult {
	active := c.registry.Active()
	if len(active) <= c.cfg.MinNodes {
		return &models.ScalingResult{
			Action:    models.ActionScaleDown,
			Success:   false,
			NodeCount: c.registry.Len(),
			Error:     "min nodes reached",
		}
	}

	count := min(c.cfg.BatchSize, len(active)-c.cfg.MinNodes)

	sort.Slice(active, func(i, j int) bool {
		if active[i].HealthScore != active[j].HealthScore {
			return active[i].HealthScore < active[j].HealthScore
		}
		return active[i].ID < active[j].ID
	})
	victims := active[:count]

	for _, victim := range victims {
		if err := c.provisioner.Terminate(ctx, victim); err != nil {
			return &models.ScalingResult{
				Action:    models.ActionScaleDown,
				Success:   false,
				NodeCount: c.registry.Len(),
				Error:     "terminate failed: " + err.Error(),
			}
		}
	}

	removed := make([]string, 0, count)
	for _, victim := range victims {
		if _, err := c.registry.Remove(victim.ID); err != nil {
			logger.WithNode(victim.ID).Errorf("Failed to deregister node: %v", err)
			continue
		}
		removed = append(removed, victim.ID)
	}

	logger.Infof("Scaled down: removed %d nodes (fleet now %d)", len(removed), c.registry.Len())

	return &models.ScalingResult{
		Action:       models.ActionScaleDown,
		Success:      true,
		NodesRemoved: removed,
		NodeCount:    c.registry.Len(),
	}
}

// redistribute rebalances selection weights over the current active set
// without changing node count
func (c *Controller) redistribute() *models.ScalingResult {
	active := c.registry.Active()
	c.balancer.UpdateNodeWeights(active)

	logger.Infof("Redistributed load across %d active nodes", len(active))

	return &models.ScalingResult{
		Action:    models.ActionRedistribute,
		Success:   true,
		NodeCount: c.registry.Len(),
	}
}

func (c *Controller) estimateImpact(action models.ScalingAction, result *models.ScalingResult) models.ScalingImpact {
	if !result.Success {
		return models.ScalingImpact{}
	}

	switch action {
	case models.ActionScaleUp:
		added := len(result.NodesAdded)
		before := result.NodeCount - added
		if before < 1 {
			before = 1
		}
		delta := float64(added) / float64(before) * 100
		reliability := float64(added) * 5
		if reliability > 25 {
			reliability = 25
		}
		return models.ScalingImpact{PerformancePct: delta, CostPct: delta, ReliabilityPct: reliability}

	case models.ActionScaleDown:
		removed := len(result.NodesRemoved)
		before := result.NodeCount + removed
		if before < 1 {
			before = 1
		}
		delta := float64(removed) / float64(before) * 100
		return models.ScalingImpact{PerformancePct: -delta, CostPct: -delta, ReliabilityPct: -float64(removed) * 2}

	case models.ActionRedistribute:
		return models.ScalingImpact{PerformancePct: 5, ReliabilityPct: 2}
	}

	return models.ScalingImpact{}
}

func (c *Controller) cooldownFor(action models.ScalingAction) time.Duration {
	switch action {
	case models.ActionScaleUp:
		return c.cfg.ScaleUpCooldown
	case models.ActionScaleDown:
		return c.cfg.ScaleDownCooldown
	case models.ActionRedistribute:
		return c.cfg.RedistributeCooldown
	default:
		return 0
	}
}

func (c *Controller) cooldownRemainingLocked(action models.ScalingAction) time.Duration {
	last, exists := c.lastActions[action]
	if !exists {
		return 0
	}

	elapsed := time.Since(last)
	cooldown := c.cooldownFor(action)
	if elapsed >= cooldown {
		return 0
	}
	return cooldown - elapsed
}

// CooldownRemaining reports how long until the given action may run again
func (c *Controller) CooldownRemaining(action models.ScalingAction) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cooldownRemainingLocked(action)
}

// ResetCooldowns clears all cooldown state
func (c *Controller) ResetCooldowns() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActions = make(map[models.ScalingAction]time.Time)
}
