package janus

import (
	"sync/atomic"
	"time"
)

// CircuitState represents the state of the circuit breaker.
type CircuitState int64

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

// CircuitBreakerConfig holds circuit breaker configuration.
type CircuitBreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int
}

// CircuitBreaker guards the transport stage: an open circuit short-circuits
// dispatch before any bytes are sent. Lock-free, safe for concurrent use.
type CircuitBreaker struct {
	config      CircuitBreakerConfig
	state       int64
	failures    int64
	successes   int64
	lastFailure int64
}

// NewCircuitBreaker creates a breaker, applying defaults for zero fields.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 2
	}
	return &CircuitBreaker{config: config, state: int64(StateClosed)}
}

// Allow checks if a dispatch may proceed.
func (cb *CircuitBreaker) Allow() bool {
	now := time.Now().UnixNano()
	switch CircuitState(atomic.LoadInt64(&cb.state)) {
	case StateClosed:
		return true
	case StateOpen:
		lastFailure := atomic.LoadInt64(&cb.lastFailure)
		if now-lastFailure >= int64(cb.config.RecoveryTimeout) {
			if atomic.CompareAndSwapInt64(&cb.state, int64(StateOpen), int64(StateHalfOpen)) {
				atomic.StoreInt64(&cb.successes, 0)
				return true
			}
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return false
	}
}

// RecordFailure counts a transport-stage failure, opening the circuit at the
// threshold.
func (cb *CircuitBreaker) RecordFailure() {
	atomic.StoreInt64(&cb.lastFailure, time.Now().UnixNano())

	switch CircuitState(atomic.LoadInt64(&cb.state)) {
	case StateHalfOpen:
		atomic.StoreInt64(&cb.state, int64(StateOpen))
		atomic.StoreInt64(&cb.failures, 0)
	case StateClosed:
		if atomic.AddInt64(&cb.failures, 1) >= int64(cb.config.FailureThreshold) {
			atomic.StoreInt64(&cb.state, int64(StateOpen))
			atomic.StoreInt64(&cb.failures, 0)
		}
	}
}

// RecordSuccess counts a successful exchange, closing a half-open circuit at
// the success threshold.
func (cb *CircuitBreaker) RecordSuccess() {
	switch CircuitState(atomic.LoadInt64(&cb.state)) {
	case StateHalfOpen:
		if atomic.AddInt64(&cb.successes, 1) >= int64(cb.config.SuccessThreshold) {
			atomic.StoreInt64(&cb.state, int64(StateClosed))
			atomic.StoreInt64(&cb.failures, 0)
		}
	case StateClosed:
		atomic.StoreInt64(&cb.failures, 0)
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitState {
	return CircuitState(atomic.LoadInt64(&cb.state))
}
