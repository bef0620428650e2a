package scaling

import (
	"sync"
	"time"

	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

// History is the bounded audit trail of past scaling decisions, pruned by
// retention period on every append.
type History struct {
	events []*models.ScalingEvent
	mu     sync.RWMutex
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Append(event *models.ScalingEvent, retention time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = append(h.events, event)
	h.pruneLocked(retention)
}

func (h *History) Prune(retention time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pruneLocked(retention)
}

func (h *History) pruneLocked(retention time.Duration) {
	if retention <= 0 {
		return
	}

	cutoff := time.Now().Add(-retention)
	kept := h.events[:0]
	for _, event := range h.events {
		if event.Timestamp.After(cutoff) {
			kept = append(kept, event)
		}
	}
	h.events = kept
}

// Recent returns up to n most recent events, newest last
func (h *History) Recent(n int) []*models.ScalingEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > len(h.events) {
		n = len(h.events)
	}

	out := make([]*models.ScalingEvent, n)
	copy(out, h.events[len(h.events)-n:])
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events)
}

// Efficiency reports the success ratio of the last n events. A history
// with no events counts as fully efficient.
func (h *History) Efficiency(n int) float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.events) == 0 {
		return 1.0
	}

	start := len(h.events) - n
	if n <= 0 || start < 0 {
		start = 0
	}
	window := h.events[start:]

	succeeded := 0
	for _, event := range window {
		if event.Result.Success {
			succeeded++
		}
	}
	return float64(succeeded) / float64(len(window))
}
