package models

import "time"

type TriggerType string

const (
	TriggerTypeCPU       TriggerType = "cpu"
	TriggerTypeMemory    TriggerType = "memory"
	TriggerTypeNetwork   TriggerType = "network"
	TriggerTypeDisk      TriggerType = "disk"
	TriggerTypeErrorRate TriggerType = "error_rate"
	TriggerTypeManual    TriggerType = "manual"
)

type TriggerSeverity string

const (
	SeverityLow      TriggerSeverity = "low"
	SeverityMedium   TriggerSeverity = "medium"
	SeverityHigh     TriggerSeverity = "high"
	SeverityCritical TriggerSeverity = "critical"
)

type ScalingAction string

const (
	ActionScaleUp      ScalingAction = "scale_up"
	ActionScaleDown    ScalingAction = "scale_down"
	ActionRedistribute ScalingAction = "redistribute"
	ActionNone         ScalingAction = "no_action"
)

// ScalingTrigger is an evaluated condition produced once per tick and
// consumed immediately. Action carries the requested direction; manual
// triggers must set it explicitly.
type ScalingTrigger struct {
	Type         TriggerType     `json:"type"`
	Action       ScalingAction   `json:"action"`
	Threshold    float64         `json:"threshold"`
	CurrentValue float64         `json:"current_value"`
	Severity     TriggerSeverity `json:"severity"`
	Timestamp    time.Time       `json:"timestamp"`
}

func NewScalingTrigger(triggerType TriggerType, action ScalingAction, threshold, current float64, severity TriggerSeverity) ScalingTrigger {
	return ScalingTrigger{
		Type:         triggerType,
		Action:       action,
		Threshold:    threshold,
		CurrentValue: current,
		Severity:     severity,
		Timestamp:    time.Now(),
	}
}
