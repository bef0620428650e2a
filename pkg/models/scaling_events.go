package models

import "time"

// ScalingResult is the structured outcome of one triggerScaling call.
// Failures are reported in Error with Success=false, never as panics.
type ScalingResult struct {
	Action       ScalingAction `json:"action"`
	Success      bool          `json:"success"`
	NodesAdded   []string      `json:"nodes_added,omitempty"`
	NodesRemoved []string      `json:"nodes_removed,omitempty"`
	NodeCount    int           `json:"node_count"`
	Error        string        `json:"error,omitempty"`
}

// ScalingImpact is the controller's estimate of what a scaling action
// changed, expressed as signed percentages
type ScalingImpact struct {
	PerformancePct float64 `json:"performance_pct"`
	CostPct        float64 `json:"cost_pct"`
	ReliabilityPct float64 `json:"reliability_pct"`
}

// ScalingEvent is an immutable record of a past scaling decision
type ScalingEvent struct {
	ID        string         `json:"id"`
	Trigger   ScalingTrigger `json:"trigger"`
	Result    ScalingResult  `json:"result"`
	Timestamp time.Time      `json:"timestamp"`
	Duration  time.Duration  `json:"duration"`
	Impact    ScalingImpact  `json:"impact"`
}

func NewScalingEvent(trigger ScalingTrigger, result ScalingResult, duration time.Duration, impact ScalingImpact) *ScalingEvent {
	return &ScalingEvent{
		ID:        NewUUID(),
		Trigger:   trigger,
		Result:    result,
		Timestamp: time.Now(),
		Duration:  duration,
		Impact:    impact,
	}
}
