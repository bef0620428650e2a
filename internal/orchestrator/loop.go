package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/qnetlabs/qnet-fleet/internal/logger"
	"github.com/qnetlabs/qnet-fleet/internal/metrics"
	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

type LoopConfig struct {
	Interval     time.Duration
	Orchestrator *Orchestrator
}

// Loop drives the monitor-evaluate-scale cycle on a fixed interval.
type Loop struct {
	config  LoopConfig
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Loop{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil
	}

	l.running = true
	l.wg.Add(1)
	go l.run()

	logger.Info("Control loop started")
	return nil
}

func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()

	logger.Info("Control loop stopped")
}

func (l *Loop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) run() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.Interval)
	defer ticker.Stop()

	// Run immediately on start
	l.runCycle()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			l.runCycle()
		}
	}
}

func (l *Loop) runCycle() {
	ctx, cancel := context.WithTimeout(l.ctx, l.config.Interval)
	defer cancel()

	o := l.config.Orchestrator
	start := time.Now()

	// Step 1: Sample every monitored node
	fleet := o.monitor.Tick(ctx)
	o.setLastFleet(fleet)
	o.publisher.MetricsSampled(fleet)
	l.exportGauges(fleet)

	// Step 2: Recompute selection weights over the surviving active set
	o.balancer.UpdateNodeWeights(o.registry.Active())

	// Step 3: Evaluate thresholds and act on each trigger
	for _, trigger := range o.controller.Evaluate(fleet) {
		o.publisher.TriggerFired(&trigger)

		if trigger.Severity == models.SeverityCritical {
			o.publisher.Alert("", models.EventSeverityCritical,
				"Fleet resource critical: "+string(trigger.Type), trigger)
		}

		result := o.controller.TriggerScaling(ctx, trigger)
		o.recordScalingOutcome(trigger, result)
	}

	// Step 4: Drop history beyond the retention window
	o.controller.History().Prune(o.config.Scaling.HistoryRetention)

	metrics.Get().SetCycleLatency(time.Since(start))
}

func (l *Loop) exportGauges(fleet models.FleetMetrics) {
	m := metrics.Get()
	o := l.config.Orchestrator

	m.IncSamples()
	m.SetActiveNodes(fleet.NodeCount)
	m.SetFleetCPU(fleet.AvgCPU)
	m.SetFleetMemory(fleet.AvgMemory)

	for _, node := range o.registry.List() {
		m.SetNodeHealth(node.ID, node.HealthScore)
		m.SetNodeConnections(node.ID, o.balancer.GetNodeConnections(node.ID))
	}
}
