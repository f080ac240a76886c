package throttle

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Fantasim/looter/internal/config"
)

// CircuitBreaker stops calls to an upstream after threshold consecutive
// failures. Once cooldown has passed since the last failure a single probe is
// let through; its outcome closes or re-opens the circuit.
type CircuitBreaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    string
	failures int
	openedAt time.Time
	probing  bool
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(name string, threshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		state:     config.CircuitClosed,
	}
}

// Allow reports whether a call may go out now. In the half-open state only
// one caller at a time gets true.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == config.CircuitOpen && cb.now().Sub(cb.openedAt) >= cb.cooldown {
		cb.state = config.CircuitHalfOpen
		cb.probing = false
		slog.Debug("circuit half-open", "upstream", cb.name, "failures", cb.failures)
	}

	switch cb.state {
	case config.CircuitClosed:
		return true
	case config.CircuitHalfOpen:
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	default:
		return false
	}
}

// Report records the outcome of a call that Allow let through.
func (cb *CircuitBreaker) Report(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state != config.CircuitClosed {
			slog.Info("circuit closed", "upstream", cb.name, "previous", cb.state)
		}
		cb.state = config.CircuitClosed
		cb.failures = 0
		cb.probing = false
		return
	}

	cb.failures++
	switch {
	case cb.state == config.CircuitHalfOpen:
		cb.trip("probe failed")
	case cb.state == config.CircuitClosed && cb.failures >= cb.threshold:
		cb.trip("threshold reached")
	}
}

func (cb *CircuitBreaker) trip(reason string) {
	cb.state = config.CircuitOpen
	cb.openedAt = cb.now()
	cb.probing = false
	slog.Warn("circuit open",
		"upstream", cb.name,
		"reason", reason,
		"failures", cb.failures,
		"cooldown", cb.cooldown,
	)
}

// State returns one of the config.Circuit* states.
func (cb *CircuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current run of consecutive failures.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}
