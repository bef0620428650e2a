package scaling

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/qnetlabs/qnet-fleet/internal/logger"
	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

var (
	ErrProvisionFailed = errors.New("node provisioning failed")
	ErrTerminateFailed = errors.New("node termination failed")
)

// Provisioner executes the actual add/remove of compute nodes. The
// controller only talks to this interface, so a cloud-backed
// implementation can replace the simulated one without touching the loop.
type Provisioner interface {
	// Provision allocates a new node in the given region. The returned
	// node is in provisioning status; the caller decides when it joins
	// the registry.
	Provision(ctx context.Context, region string, capabilities []string) (*models.Node, error)

	// Terminate releases a node's underlying resources
	Terminate(ctx context.Context, node *models.Node) error

	// Close releases resources held by the provisioner
	Close() error
}

// SimulatedProvisioner fabricates nodes with synthetic addresses. Failure
// injection lets tests exercise the rollback paths.
type SimulatedProvisioner struct {
	sequence      int
	failProvision error
	failTerminate error
	mu            sync.Mutex
}

func NewSimulatedProvisioner() *SimulatedProvisioner {
	return &SimulatedProvisioner{}
}

func (p *SimulatedProvisioner) FailProvisionWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failProvision = err
}

func (p *SimulatedProvisioner) FailTerminateWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failTerminate = err
}

func (p *SimulatedProvisioner) Provision(ctx context.Context, region string, capabilities []string) (*models.Node, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failProvision != nil {
		return nil, p.failProvision
	}

	p.sequence++
	address := fmt.Sprintf("10.42.%d.%d", p.sequence/250, p.sequence%250+1)
	node := models.NewNode(address, 7100+p.sequence%1000, region, capabilities)

	logger.WithNode(node.ID).Infof("Provisioned node at %s:%d in %s", node.Address, node.Port, region)
	return node, nil
}

func (p *SimulatedProvisioner) Terminate(ctx context.Context, node *models.Node) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failTerminate != nil {
		return p.failTerminate
	}

	logger.WithNode(node.ID).Info("Terminated node")
	return nil
}

func (p *SimulatedProvisioner) Close() error {
	return nil
}
