package resource

import (
	"sync"
	"time"
)

// CircuitState is the breaker's current state.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// CircuitBreaker implements the Closed -> Open -> HalfOpen -> Closed
// state machine shared by the browser pool (C3), native extractor pool
// (C4) and LLM client pool (C11), grounded on the cooldown/failure-rate
// state machine in the pack's llmux router (other_examples) and
// generalized into a standalone reusable type instead of being
// embedded per-deployment.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	window           time.Duration
	cooldown         time.Duration
	halfOpenQuota    int

	state          CircuitState
	failures       []time.Time
	openedAt       time.Time
	halfOpenInUse  int
	halfOpenPassed int
}

type CircuitBreakerConfig struct {
	FailureThreshold int           // failures within Window to trip
	Window           time.Duration // rolling failure window
	Cooldown         time.Duration // Open duration before HalfOpen
	HalfOpenQuota    int           // concurrent probes admitted while HalfOpen
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		Window:           time.Minute,
		Cooldown:         30 * time.Second,
		HalfOpenQuota:    1,
	}
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.HalfOpenQuota < 1 {
		cfg.HalfOpenQuota = 1
	}
	return &CircuitBreaker{
		failureThreshold: cfg.FailureThreshold,
		window:           cfg.Window,
		cooldown:         cfg.Cooldown,
		halfOpenQuota:    cfg.HalfOpenQuota,
		state:            CircuitClosed,
	}
}

// Allow reports whether a new call may proceed, transitioning Open to
// HalfOpen once the cooldown has elapsed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.openedAt) >= cb.cooldown {
			cb.state = CircuitHalfOpen
			cb.halfOpenInUse = 0
			cb.halfOpenPassed = 0
			return cb.admitHalfOpenLocked()
		}
		return false
	case CircuitHalfOpen:
		return cb.admitHalfOpenLocked()
	default:
		return false
	}
}

func (cb *CircuitBreaker) admitHalfOpenLocked() bool {
	if cb.halfOpenInUse >= cb.halfOpenQuota {
		return false
	}
	cb.halfOpenInUse++
	return true
}

// RecordSuccess closes the circuit from HalfOpen, or is a no-op in
// Closed state (and simply decrements the half-open quota counter).
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitHalfOpen:
		cb.halfOpenInUse--
		cb.halfOpenPassed++
		cb.state = CircuitClosed
		cb.failures = nil
	case CircuitClosed:
		cb.pruneLocked(time.Now())
	}
}

// RecordFailure appends a failure timestamp and trips the breaker to
// Open if the rolling failure count reaches the threshold, or reopens
// immediately from HalfOpen.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	switch cb.state {
	case CircuitHalfOpen:
		cb.halfOpenInUse--
		cb.state = CircuitOpen
		cb.openedAt = now
		return
	case CircuitOpen:
		return
	}

	cb.failures = append(cb.failures, now)
	cb.pruneLocked(now)
	if len(cb.failures) >= cb.failureThreshold {
		cb.state = CircuitOpen
		cb.openedAt = now
		cb.failures = nil
	}
}

func (cb *CircuitBreaker) pruneLocked(now time.Time) {
	cutoff := now.Add(-cb.window)
	kept := cb.failures[:0]
	for _, t := range cb.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	cb.failures = kept
}

// State returns the breaker's current state for observability.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
