package client

import (
	"sync"
	"time"
)

// CircuitBreakerState represents the state of the circuit breaker
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// CircuitBreaker stops calls to the API service after maxFailures
// consecutive failures and lets a single trial call through once cooldown has
// passed.
type CircuitBreaker struct {
	mu          sync.Mutex
	maxFailures int
	cooldown    time.Duration
	state       CircuitBreakerState
	failures    int
	lastFailure time.Time
	now         func() time.Time
}

// NewCircuitBreaker creates a closed breaker
func NewCircuitBreaker(maxFailures int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// Allow reports whether a call may proceed. An open breaker whose cooldown
// has elapsed moves to half-open.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return true
	}
	if cb.now().Sub(cb.lastFailure) < cb.cooldown {
		return false
	}
	cb.state = StateHalfOpen
	return true
}

// RecordSuccess closes the breaker and clears the failure streak
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = StateClosed
}

// RecordFailure extends the failure streak. A failed half-open trial call
// reopens the breaker immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()
	if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
		cb.state = StateOpen
	}
}

// CircuitBreakerStatus is a point-in-time view of the breaker
type CircuitBreakerStatus struct {
	State        string    `json:"state"`
	FailureCount int       `json:"failure_count"`
	LastFailTime time.Time `json:"last_fail_time"`
	MaxFailures  int       `json:"max_failures"`
}

// Status returns the breaker state for monitoring
func (cb *CircuitBreaker) Status() CircuitBreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerStatus{
		State:        cb.state.String(),
		FailureCount: cb.failures,
		LastFailTime: cb.lastFailure,
		MaxFailures:  cb.maxFailures,
	}
}
