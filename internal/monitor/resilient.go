package monitor

import (
	"context"
	"time"

	"github.com/qnetlabs/qnet-fleet/internal/logger"
	"github.com/qnetlabs/qnet-fleet/internal/resilience"
	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

// ResilientSource wraps a MetricsSource with retries and a circuit
// breaker so a flapping source cannot hammer the backing agent.
type ResilientSource struct {
	source         MetricsSource
	circuitBreaker *resilience.CircuitBreaker
	retryAttempts  int
	retryDelay     time.Duration
}

type ResilientSourceConfig struct {
	Source        MetricsSource
	MaxFailures   int
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

func NewResilientSource(cfg ResilientSourceConfig) *ResilientSource {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          "metrics-source",
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.Timeout,
		OnStateChange: cfg.OnStateChange,
	})

	return &ResilientSource{
		source:         cfg.Source,
		circuitBreaker: cb,
		retryAttempts:  cfg.RetryAttempts,
		retryDelay:     cfg.RetryDelay,
	}
}

func (s *ResilientSource) Sample(ctx context.Context, nodeID string) (*models.ResourceMetrics, error) {
	var metrics *models.ResourceMetrics
	var lastErr error

	err := s.circuitBreaker.Execute(func() error {
		for attempt := 1; attempt <= s.retryAttempts; attempt++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var err error
			metrics, err = s.source.Sample(ctx, nodeID)
			if err == nil {
				return nil
			}

			lastErr = err
			logger.WithNode(nodeID).Warnf(
				"Sample attempt %d/%d failed: %v",
				attempt, s.retryAttempts, err,
			)

			if attempt < s.retryAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(s.retryDelay):
				}
			}
		}
		return lastErr
	})

	if err != nil {
		return nil, err
	}

	return metrics, nil
}

func (s *ResilientSource) HealthCheck(ctx context.Context) error {
	return s.source.HealthCheck(ctx)
}

func (s *ResilientSource) Close() error {
	return s.source.Close()
}

func (s *ResilientSource) CircuitState() resilience.State {
	return s.circuitBreaker.State()
}

func (s *ResilientSource) ResetCircuit() {
	s.circuitBreaker.Reset()
}
