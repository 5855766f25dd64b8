package http

import (
	"errors"
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

// Circuit breaker states.
const (
	// CircuitClosed allows requests to pass through normally.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects requests until the cool-down elapses.
	CircuitOpen
	// CircuitHalfOpen lets a limited number of trial requests through.
	CircuitHalfOpen
)

// String returns the string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("langfuse: circuit breaker is open")

// CircuitBreakerConfig configures the circuit breaker behavior.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that open the circuit.
	// Default: 5
	FailureThreshold int

	// SuccessThreshold is the number of half-open successes that close it again.
	// Default: 1
	SuccessThreshold int

	// Timeout is how long the circuit stays open before probing.
	// Default: 30 seconds
	Timeout time.Duration

	// OnStateChange is called after every transition, outside the lock.
	OnStateChange func(from, to CircuitState)

	// IsFailure decides whether an error counts against the upstream.
	// If nil, all non-nil errors are failures.
	IsFailure func(err error) bool
}

// CircuitBreaker fails fast while the Langfuse API is unhealthy so that a
// flapping upstream does not pile up slow proxy requests.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       CircuitState
	failures    int
	successes   int
	probing     bool
	lastFailure time.Time
	now         func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{config: config, now: time.Now}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen && cb.now().Sub(cb.lastFailure) >= cb.config.Timeout {
		return CircuitHalfOpen
	}
	return cb.state
}

// Execute runs fn if the circuit allows it and records the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.Record(err)
	return err
}

// Allow reports whether a request may proceed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	from, to, changed := cb.state, cb.state, false
	allowed := false

	switch cb.state {
	case CircuitClosed:
		allowed = true
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.config.Timeout {
			cb.state, to, changed = CircuitHalfOpen, CircuitHalfOpen, true
			cb.successes = 0
			cb.probing = true
			allowed = true
		}
	case CircuitHalfOpen:
		if !cb.probing {
			cb.probing = true
			allowed = true
		}
	}
	cb.mu.Unlock()

	if changed {
		cb.notify(from, to)
	}
	return allowed
}

// Record records the result of a request. Pass nil for success.
func (cb *CircuitBreaker) Record(err error) {
	failed := err != nil
	if failed && cb.config.IsFailure != nil {
		failed = cb.config.IsFailure(err)
	}

	cb.mu.Lock()
	from := cb.state
	switch cb.state {
	case CircuitClosed:
		if failed {
			cb.failures++
			cb.lastFailure = cb.now()
			if cb.failures >= cb.config.FailureThreshold {
				cb.state = CircuitOpen
			}
		} else {
			cb.failures = 0
		}
	case CircuitHalfOpen:
		cb.probing = false
		if failed {
			cb.lastFailure = cb.now()
			cb.state = CircuitOpen
		} else {
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				cb.state = CircuitClosed
				cb.failures = 0
			}
		}
	}
	to := cb.state
	cb.mu.Unlock()

	if from != to {
		cb.notify(from, to)
	}
}

// Reset closes the circuit and clears all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.state
	cb.state = CircuitClosed
	cb.failures, cb.successes, cb.probing = 0, 0, false
	cb.mu.Unlock()

	if from != CircuitClosed {
		cb.notify(from, CircuitClosed)
	}
}

func (cb *CircuitBreaker) notify(from, to CircuitState) {
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}
