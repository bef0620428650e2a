package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/qnetlabs/qnet-fleet/internal/balancer"
	"github.com/qnetlabs/qnet-fleet/internal/events"
	"github.com/qnetlabs/qnet-fleet/internal/logger"
	"github.com/qnetlabs/qnet-fleet/internal/metrics"
	"github.com/qnetlabs/qnet-fleet/internal/monitor"
	"github.com/qnetlabs/qnet-fleet/internal/registry"
	"github.com/qnetlabs/qnet-fleet/internal/resilience"
	"github.com/qnetlabs/qnet-fleet/internal/scaling"
	"github.com/qnetlabs/qnet-fleet/pkg/config"
	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

// Orchestrator owns the component graph: registry, monitor, balancer and
// scaling controller, plus the event plumbing between them. It runs one
// control loop for the whole fleet.
type Orchestrator struct {
	config      *config.Config
	registry    *registry.Registry
	monitor     *monitor.Monitor
	balancer    *balancer.Balancer
	controller  *scaling.Controller
	provisioner scaling.Provisioner
	source      monitor.MetricsSource
	eventBus    *events.EventBus
	eventLogger *events.EventLogger
	publisher   *events.Publisher
	loop        *Loop

	lastFleet models.FleetMetrics
	fleetMu   sync.RWMutex
}

func New(cfg *config.Config) *Orchestrator {
	eventBus := events.NewEventBus(cfg.Events.BufferSize)
	publisher := events.NewPublisher(eventBus)
	eventLogger := events.NewEventLogger(eventBus.SubscribeAll())

	reg := registry.New(registry.Callbacks{
		OnNodeAdded: func(node *models.Node) {
			publisher.NodeAdded(node)
			metrics.Get().SetNodeHealth(node.ID, node.HealthScore)
		},
		OnNodeRemoved: func(node *models.Node) {
			publisher.NodeRemoved(node)
			metrics.Get().ForgetNode(node.ID)
		},
		OnStatusChanged: func(node *models.Node, oldStatus, newStatus models.NodeStatus) {
			switch newStatus {
			case models.NodeStatusDegraded:
				publisher.NodeDegraded(node)
			case models.NodeStatusActive:
				if oldStatus == models.NodeStatusDegraded {
					publisher.NodeRestored(node)
				}
			}
		},
	})

	source := buildSource(cfg)
	mon := monitor.New(source, reg, monitor.Config{
		SampleTimeout: cfg.Monitor.SampleTimeout,
	})

	bal := balancer.New(reg, balancer.Config{
		MinHealthScore: cfg.Balancer.MinHealthScore,
	})

	provisioner := scaling.NewSimulatedProvisioner()
	controller := scaling.NewController(&cfg.Scaling, reg, bal, provisioner)

	o := &Orchestrator{
		config:      cfg,
		registry:    reg,
		monitor:     mon,
		balancer:    bal,
		controller:  controller,
		provisioner: provisioner,
		source:      source,
		eventBus:    eventBus,
		eventLogger: eventLogger,
		publisher:   publisher,
	}

	o.loop = NewLoop(LoopConfig{
		Interval:     cfg.Monitor.Interval,
		Orchestrator: o,
	})

	return o
}

// buildSource assembles the metrics source chain; anything other than a
// plain simulated source is wrapped with retries and a circuit breaker.
func buildSource(cfg *config.Config) monitor.MetricsSource {
	simulated := monitor.NewSimulatedSource(monitor.SimulatedConfig{
		Pattern: monitor.ParsePattern(cfg.Monitor.Pattern),
	})

	if cfg.Monitor.Source == "simulated" {
		return simulated
	}

	return monitor.NewResilientSource(monitor.ResilientSourceConfig{
		Source:        simulated,
		MaxFailures:   cfg.Monitor.CircuitBreaker.MaxFailures,
		Timeout:       cfg.Monitor.CircuitBreaker.Timeout,
		RetryAttempts: cfg.Monitor.RetryAttempts,
		OnStateChange: func(name string, from, to resilience.State) {
			metrics.Get().SetCircuitBreakerState(name, int(to))
		},
	})
}

func (o *Orchestrator) Start(ctx context.Context) error {
	logger.Info("Orchestrator starting")

	o.eventLogger.Start()

	if err := o.InitializeFleet(ctx); err != nil {
		return fmt.Errorf("failed to initialize fleet: %w", err)
	}

	return o.loop.Start()
}

func (o *Orchestrator) Stop() {
	logger.Info("Orchestrator stopping")

	o.loop.Stop()
	o.eventLogger.Stop()
	o.eventBus.Close()

	if err := o.source.Close(); err != nil {
		logger.Errorf("Failed to close metrics source: %v", err)
	}
	if err := o.provisioner.Close(); err != nil {
		logger.Errorf("Failed to close provisioner: %v", err)
	}

	logger.Info("Orchestrator stopped")
}

// InitializeFleet provisions nodes up to the configured minimum so the
// balancer has capacity before the first request arrives.
func (o *Orchestrator) InitializeFleet(ctx context.Context) error {
	needed := o.config.Scaling.MinNodes - o.registry.ActiveCount()

	for i := 0; i < needed; i++ {
		node, err := o.provisioner.Provision(ctx, o.config.Scaling.DefaultRegion, o.config.Scaling.DefaultCapabilities)
		if err != nil {
			return err
		}
		node.Activate()
		node.HealthScore = 100
		if err := o.registry.Add(node); err != nil {
			return err
		}
	}

	if needed > 0 {
		logger.Infof("Fleet initialized with %d nodes", o.registry.ActiveCount())
	}
	return nil
}

func (o *Orchestrator) setLastFleet(fleet models.FleetMetrics) {
	o.fleetMu.Lock()
	o.lastFleet = fleet
	o.fleetMu.Unlock()
}

// FleetMetrics returns the aggregate from the most recent monitor tick.
func (o *Orchestrator) FleetMetrics() models.FleetMetrics {
	o.fleetMu.RLock()
	defer o.fleetMu.RUnlock()
	return o.lastFleet
}

func (o *Orchestrator) ListNodes() []*models.Node {
	return o.registry.List()
}

func (o *Orchestrator) GetNode(nodeID string) (*models.Node, bool) {
	return o.registry.Get(nodeID)
}

// DistributeLoad routes one unit of work onto the healthiest-weighted
// eligible node.
func (o *Orchestrator) DistributeLoad(workID string) (*models.Node, error) {
	node, err := o.balancer.DistributeLoad(workID, o.registry.Active())
	if err != nil {
		return nil, err
	}
	metrics.Get().IncSelection(node.ID)
	metrics.Get().SetNodeConnections(node.ID, o.balancer.GetNodeConnections(node.ID))
	return node, nil
}

func (o *Orchestrator) CompleteConnection(nodeID string) {
	o.balancer.CompleteConnection(nodeID)
	metrics.Get().SetNodeConnections(nodeID, o.balancer.GetNodeConnections(nodeID))
}

// HandleNodeFailure pulls a node out of rotation and redistributes its
// tracked connections.
func (o *Orchestrator) HandleNodeFailure(nodeID string) *balancer.FailureResult {
	result := o.balancer.HandleNodeFailure(nodeID)
	o.publisher.NodeFailed(nodeID, result)
	metrics.Get().IncFailure(nodeID)
	return result
}

func (o *Orchestrator) GetLoadDistribution() map[string]float64 {
	return o.balancer.GetLoadDistribution()
}

func (o *Orchestrator) GetStatistics() balancer.Statistics {
	return o.balancer.GetStatistics()
}

func (o *Orchestrator) RecentEvents(n int) []*models.ScalingEvent {
	return o.controller.History().Recent(n)
}

func (o *Orchestrator) ScalingHealth() *scaling.HealthReport {
	return o.controller.ValidateScalingHealth()
}

// TriggerManual runs an operator-requested scaling action through the
// same path as automatic triggers, cooldowns included.
func (o *Orchestrator) TriggerManual(ctx context.Context, action models.ScalingAction, severity models.TriggerSeverity) *models.ScalingResult {
	trigger := models.NewScalingTrigger(models.TriggerTypeManual, action, 0, 0, severity)
	o.publisher.TriggerFired(&trigger)

	result := o.controller.TriggerScaling(ctx, trigger)
	o.recordScalingOutcome(trigger, result)
	return result
}

func (o *Orchestrator) CooldownRemaining(action models.ScalingAction) string {
	return o.controller.CooldownRemaining(action).String()
}

func (o *Orchestrator) Config() *config.Config {
	return o.config
}

func (o *Orchestrator) IsRunning() bool {
	return o.loop.IsRunning()
}

func (o *Orchestrator) SubscribeEvents(eventType models.EventType) <-chan *models.Event {
	return o.eventBus.Subscribe(eventType)
}

func (o *Orchestrator) SubscribeAllEvents() <-chan *models.Event {
	return o.eventBus.SubscribeAll()
}

// recordScalingOutcome publishes the success/failure event for a trigger
// that ran, skipping cooldown rejections.
func (o *Orchestrator) recordScalingOutcome(trigger models.ScalingTrigger, result *models.ScalingResult) {
	if result.Error == "cooldown" {
		logger.Debugf("Trigger %s rejected by cooldown", trigger.Type)
		return
	}

	outcome := "failure"
	if result.Success {
		outcome = "success"
	}
	metrics.Get().IncScalingEvent(string(trigger.Action), outcome)

	if result.Success {
		if recent := o.controller.History().Recent(1); len(recent) > 0 {
			o.publisher.ScalingComplete(recent[0])
		}
		return
	}

	o.publisher.ScalingFailed(string(trigger.Type), fmt.Errorf("%s", result.Error))
}
