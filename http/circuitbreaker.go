package http

import (
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed is the normal state where requests are allowed.
	CircuitClosed CircuitState = iota
	// CircuitOpen is the state where requests fail fast.
	CircuitOpen
	// CircuitHalfOpen is the testing state where a limited number of requests is allowed.
	CircuitHalfOpen
)

// String returns the string representation of a circuit state.
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

// Circuit breaker defaults.
const (
	// DefaultFailureThreshold is the number of consecutive failures to open the circuit.
	DefaultFailureThreshold = 5
	// DefaultRecoveryTimeout is how long the circuit stays open before testing.
	DefaultRecoveryTimeout = 30 * time.Second
	// DefaultHalfOpenMaxRequests is the number of test requests allowed in half-open state.
	DefaultHalfOpenMaxRequests = 1
)

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures to open the circuit.
	FailureThreshold int
	// RecoveryTimeout is how long the circuit stays open before transitioning to half-open.
	RecoveryTimeout time.Duration
	// HalfOpenMaxRequests is the number of test requests allowed in half-open state.
	HalfOpenMaxRequests int
	// IsTransientError decides whether an error counts against the circuit.
	// Permanent errors (missing video, disabled captions) say nothing about
	// host health and must not trip it. Nil treats every error as transient.
	IsTransientError func(error) bool
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:    DefaultFailureThreshold,
		RecoveryTimeout:     DefaultRecoveryTimeout,
		HalfOpenMaxRequests: DefaultHalfOpenMaxRequests,
	}
}

// circuit holds the state for a single host.
type circuit struct {
	state             CircuitState
	consecutiveErrors int
	lastStateChange   time.Time
	halfOpenRequests  int
}

// CircuitBreaker tracks failures per host and fails fast when a host is
// unresponsive, instead of piling retries onto it.
type CircuitBreaker struct {
	circuits map[string]*circuit
	mu       sync.Mutex
	config   CircuitBreakerConfig
}

// NewCircuitBreaker creates a circuit breaker with the given configuration.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = DefaultRecoveryTimeout
	}
	if cfg.HalfOpenMaxRequests <= 0 {
		cfg.HalfOpenMaxRequests = DefaultHalfOpenMaxRequests
	}

	return &CircuitBreaker{
		circuits: make(map[string]*circuit),
		config:   cfg,
	}
}

// Allow reports whether a request to the host should proceed. It returns
// ErrCircuitOpen when the circuit is open and the recovery timeout has not
// yet elapsed.
func (cb *CircuitBreaker) Allow(host string) error {
	if cb == nil {
		return nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[host]
	if !ok {
		return nil
	}

	switch c.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		if time.Since(c.lastStateChange) >= cb.config.RecoveryTimeout {
			c.state = CircuitHalfOpen
			c.lastStateChange = time.Now()
			c.halfOpenRequests = 1
			return nil
		}
		return ErrCircuitOpen
	case CircuitHalfOpen:
		if c.halfOpenRequests < cb.config.HalfOpenMaxRequests {
			c.halfOpenRequests++
			return nil
		}
		return ErrCircuitOpen
	}

	return nil
}

// RecordFailure records a failed request against the host's circuit.
func (cb *CircuitBreaker) RecordFailure(host string, err error) {
	if cb == nil {
		return
	}
	if cb.config.IsTransientError != nil && !cb.config.IsTransientError(err) {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[host]
	if !ok {
		c = &circuit{state: CircuitClosed, lastStateChange: time.Now()}
		cb.circuits[host] = c
	}

	c.consecutiveErrors++

	switch c.state {
	case CircuitClosed:
		if c.consecutiveErrors >= cb.config.FailureThreshold {
			c.state = CircuitOpen
			c.lastStateChange = time.Now()
		}
	case CircuitHalfOpen:
		// Test request failed, back to open.
		c.state = CircuitOpen
		c.lastStateChange = time.Now()
		c.halfOpenRequests = 0
	}
}

// RecordSuccess records a successful request, closing the circuit.
func (cb *CircuitBreaker) RecordSuccess(host string) {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[host]
	if !ok {
		return
	}

	c.consecutiveErrors = 0
	if c.state != CircuitClosed {
		c.state = CircuitClosed
		c.lastStateChange = time.Now()
		c.halfOpenRequests = 0
	}
}

// State returns the current circuit state for a host.
func (cb *CircuitBreaker) State(host string) CircuitState {
	if cb == nil {
		return CircuitClosed
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if c, ok := cb.circuits[host]; ok {
		return c.state
	}
	return CircuitClosed
}
