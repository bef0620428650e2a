package monitor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

// SimulatedSource fabricates plausible resource samples per node. Each node
// gets a stable profile on first sample so repeated draws wander around the
// same baseline instead of jumping randomly.
type SimulatedSource struct {
	profiles   map[string]*nodeProfile
	baseCPU    float64
	baseMemory float64
	variance   float64
	pattern    Pattern
	rng        *rand.Rand
	mu         sync.Mutex

	shouldFail   bool
	failureError error
}

type nodeProfile struct {
	cpuBias    float64
	memoryBias float64
	latencyMs  float64
	cores      int
}

type SimulatedConfig struct {
	BaseCPU    float64
	BaseMemory float64
	Variance   float64
	Pattern    Pattern
	Seed       int64
}

func NewSimulatedSource(cfg SimulatedConfig) *SimulatedSource {
	baseCPU := cfg.BaseCPU
	if baseCPU == 0 {
		baseCPU = 50.0
	}

	baseMemory := cfg.BaseMemory
	if baseMemory == 0 {
		baseMemory = 60.0
	}

	variance := cfg.Variance
	if variance == 0 {
		variance = 10.0
	}

	pattern := cfg.Pattern
	if pattern == nil {
		pattern = PatternSteady
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &SimulatedSource{
		profiles:   make(map[string]*nodeProfile),
		baseCPU:    baseCPU,
		baseMemory: baseMemory,
		variance:   variance,
		pattern:    pattern,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (s *SimulatedSource) SetShouldFail(shouldFail bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldFail = shouldFail
	s.failureError = err
}

func (s *SimulatedSource) Sample(ctx context.Context, nodeID string) (*models.ResourceMetrics, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shouldFail {
		if s.failureError != nil {
			return nil, s.failureError
		}
		return nil, ErrSampleFailed
	}

	profile := s.profileFor(nodeID)

	cpu := s.jitter(s.pattern.Apply(s.baseCPU+profile.cpuBias), s.variance)
	memory := s.jitter(s.baseMemory+profile.memoryBias, s.variance)
	latency := profile.latencyMs + s.rng.Float64()*20
	disk := s.jitter(40, s.variance)

	totalMB := 16384.0
	usedMB := totalMB * memory / 100

	metrics := &models.ResourceMetrics{
		NodeID:    nodeID,
		Timestamp: time.Now(),
		CPU: models.CPUMetrics{
			Usage:       cpu,
			Cores:       profile.cores,
			LoadAverage: []float64{cpu / 100 * float64(profile.cores)},
		},
		Memory: models.MemoryMetrics{
			Usage:       memory,
			TotalMB:     totalMB,
			UsedMB:      usedMB,
			AvailableMB: totalMB - usedMB,
		},
		Network: models.NetworkMetrics{
			LatencyMs: latency,
			Bandwidth: models.BandwidthMetrics{
				InMbps:  100 + s.rng.Float64()*400,
				OutMbps: 80 + s.rng.Float64()*300,
			},
			OpenConnections: int(s.rng.Float64() * 200),
		},
		Disk: models.DiskMetrics{
			Usage:       disk,
			TotalGB:     512,
			AvailableGB: 512 * (100 - disk) / 100,
			IOPS:        1000 + int(s.rng.Float64()*4000),
		},
	}
	metrics.Clamp()

	return metrics, nil
}

// profileFor lazily creates a stable per-node bias; callers hold s.mu
func (s *SimulatedSource) profileFor(nodeID string) *nodeProfile {
	profile, exists := s.profiles[nodeID]
	if !exists {
		profile = &nodeProfile{
			cpuBias:    (s.rng.Float64()*2 - 1) * 15,
			memoryBias: (s.rng.Float64()*2 - 1) * 10,
			latencyMs:  20 + s.rng.Float64()*80,
			cores:      4 + s.rng.Intn(3)*4,
		}
		s.profiles[nodeID] = profile
	}
	return profile
}

func (s *SimulatedSource) jitter(base, variance float64) float64 {
	value := base + (s.rng.Float64()*2-1)*variance
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return value
}

// Forget drops the stored profile for a node that left the fleet
func (s *SimulatedSource) Forget(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, nodeID)
}

func (s *SimulatedSource) HealthCheck(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail {
		return ErrSampleFailed
	}
	return nil
}

func (s *SimulatedSource) Close() error {
	return nil
}
