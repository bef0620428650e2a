package events

import (
	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) MetricsSampled(fleet models.FleetMetrics) {
	event := models.NewEvent(models.EventTypeMetricsSampled, "", "Fleet metrics sampled").
		WithData(fleet)
	p.publish(event)
}

func (p *Publisher) TriggerFired(trigger *models.ScalingTrigger) {
	msg := "Scaling trigger fired: " + string(trigger.Type)
	event := models.NewEvent(models.EventTypeTriggerFired, "", msg).
		WithData(trigger)

	switch trigger.Severity {
	case models.SeverityCritical:
		event.WithSeverity(models.EventSeverityCritical)
	case models.SeverityHigh:
		event.WithSeverity(models.EventSeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) ScalingStarted(trigger *models.ScalingTrigger) {
	msg := "Scaling started: " + string(trigger.Action)
	event := models.NewEvent(models.EventTypeScalingStarted, "", msg).
		WithData(trigger)
	p.publish(event)
}

func (p *Publisher) ScalingComplete(scalingEvent *models.ScalingEvent) {
	msg := "Scaling complete: " + string(scalingEvent.Result.Action)
	event := models.NewEvent(models.EventTypeScalingComplete, "", msg).
		WithData(scalingEvent)
	p.publish(event)
}

func (p *Publisher) ScalingFailed(reason string, err error) {
	msg := "Scaling failed: " + reason
	event := models.NewEvent(models.EventTypeScalingFailed, "", msg).
		WithSeverity(models.EventSeverityCritical).
		WithData(map[string]interface{}{
			"reason": reason,
			"error":  err.Error(),
		})
	p.publish(event)
}

func (p *Publisher) NodeAdded(node *models.Node) {
	event := models.NewEvent(models.EventTypeNodeAdded, node.ID, "Node added").
		WithData(node)
	p.publish(event)
}

func (p *Publisher) NodeRemoved(node *models.Node) {
	event := models.NewEvent(models.EventTypeNodeRemoved, node.ID, "Node removed").
		WithData(node)
	p.publish(event)
}

func (p *Publisher) NodeDegraded(node *models.Node) {
	event := models.NewEvent(models.EventTypeNodeDegraded, node.ID, "Node degraded").
		WithSeverity(models.EventSeverityWarning).
		WithData(node)
	p.publish(event)
}

func (p *Publisher) NodeRestored(node *models.Node) {
	event := models.NewEvent(models.EventTypeNodeRestored, node.ID, "Node restored").
		WithData(node)
	p.publish(event)
}

func (p *Publisher) NodeFailed(nodeID string, result interface{}) {
	event := models.NewEvent(models.EventTypeNodeFailed, nodeID, "Node failure handled").
		WithSeverity(models.EventSeverityWarning).
		WithData(result)
	p.publish(event)
}

func (p *Publisher) Alert(nodeID string, severity models.EventSeverity, message string, data interface{}) {
	event := models.NewEvent(models.EventTypeAlert, nodeID, message).
		WithSeverity(severity).
		WithData(data)
	p.publish(event)
}

func (p *Publisher) Error(nodeID string, message string, err error) {
	event := models.NewEvent(models.EventTypeError, nodeID, message).
		WithSeverity(models.EventSeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}
