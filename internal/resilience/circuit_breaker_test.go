package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSample = errors.New("sample failed")

func failing() error { return errSample }
func succeeding() error { return nil }

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(failing), errSample)
	}
	assert.Equal(t, StateOpen, cb.State())

	// calls are short-circuited while open
	assert.ErrorIs(t, cb.Execute(succeeding), ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3, Timeout: time.Minute})

	require.Error(t, cb.Execute(failing))
	require.Error(t, cb.Execute(failing))
	require.NoError(t, cb.Execute(succeeding))

	// counter restarted, two more failures do not trip it
	require.Error(t, cb.Execute(failing))
	require.Error(t, cb.Execute(failing))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: 10 * time.Millisecond})

	require.Error(t, cb.Execute(failing))
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// the probe is allowed through and moves the breaker to half-open
	require.NoError(t, cb.Execute(succeeding))
	assert.Equal(t, StateHalfOpen, cb.State())
}

func TestCircuitBreaker_ClosesAfterHalfOpenSuccesses(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: 10 * time.Millisecond, HalfOpenMax: 2})

	require.Error(t, cb.Execute(failing))
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, cb.Execute(succeeding))
	require.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: 10 * time.Millisecond})

	require.Error(t, cb.Execute(failing))
	time.Sleep(20 * time.Millisecond)

	require.Error(t, cb.Execute(failing))
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []string
		done        = make(chan struct{}, 4)
	)

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:        "sampler",
		MaxFailures: 1,
		Timeout:     time.Minute,
		OnStateChange: func(name string, from, to State) {
			mu.Lock()
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
			mu.Unlock()
			done <- struct{}{}
		},
	})

	require.Error(t, cb.Execute(failing))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("state change callback never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"sampler:closed->open"}, transitions)
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute})

	require.Error(t, cb.Execute(failing))
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Execute(succeeding))
}

func TestCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "defaults"})

	for i := 0; i < 4; i++ {
		require.Error(t, cb.Execute(failing))
		require.Equal(t, StateClosed, cb.State())
	}
	require.Error(t, cb.Execute(failing))
	assert.Equal(t, StateOpen, cb.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(99).String())
}
