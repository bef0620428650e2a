package monitor

import (
	"context"
	"errors"

	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

var (
	ErrSampleFailed = errors.New("metrics sample failed")
	ErrTimeout      = errors.New("metrics sample timeout")
	ErrUnknownNode  = errors.New("unknown node")
)

// MetricsSource provides resource samples for nodes. Implementations range
// from the built-in simulated source to a real agent or exporter; the
// control loop does not care which.
type MetricsSource interface {
	// Sample fetches the current resource metrics for a node
	Sample(ctx context.Context, nodeID string) (*models.ResourceMetrics, error)

	// HealthCheck verifies the source can reach its backing data
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the source
	Close() error
}
