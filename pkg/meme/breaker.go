package meme

import (
	"errors"
	"sync"
	"time"
)

// CircuitState represents the current state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed lets fetches through.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects fetches until the timeout has passed.
	CircuitOpen
	// CircuitHalfOpen lets a single trial fetch through.
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

// ErrCircuitOpen is returned for a remote image load while the breaker is
// open after repeated fetch failures.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig configures the breaker that guards remote image fetches.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit. Default: 3
	FailureThreshold int
	// Timeout is how long the circuit stays open before a trial fetch.
	// Default: 30 seconds
	Timeout time.Duration
	// IsFailure decides which errors count against the host. Nil counts
	// every error.
	IsFailure func(error) bool
	// OnStateChange is called after every state change, outside the lock.
	OnStateChange func(from, to CircuitState)
}

// Breaker defaults.
const (
	DefaultBreakerFailures = 3
	DefaultBreakerTimeout  = 30 * time.Second
)

// CircuitBreaker stops hammering an image host that keeps failing. It
// counts consecutive failures; once open, calls fail fast with
// ErrCircuitOpen until the timeout allows one trial call, whose result
// closes or reopens the circuit.
type CircuitBreaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu          sync.Mutex
	state       CircuitState
	failures    int
	openedAt    time.Time
	trialActive bool
	rejections  int64
}

// NewCircuitBreaker creates a breaker; zero config fields take defaults.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultBreakerFailures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBreakerTimeout
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.record(err)
	return err
}

// State returns the current state, reporting half-open once an open
// circuit's timeout has passed.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.Timeout {
		return CircuitHalfOpen
	}
	return cb.state
}

// Rejections returns how many calls were refused while open.
func (cb *CircuitBreaker) Rejections() int64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.rejections
}

// Reset closes the circuit.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.state
	cb.state = CircuitClosed
	cb.failures = 0
	cb.trialActive = false
	cb.mu.Unlock()
	cb.notify(from, CircuitClosed)
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) < cb.cfg.Timeout {
			cb.rejections++
			return false
		}
		cb.setStateLocked(CircuitHalfOpen)
		cb.trialActive = true
		return true
	default:
		if cb.trialActive {
			cb.rejections++
			return false
		}
		cb.trialActive = true
		return true
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.trialActive = false
	if err == nil || (cb.cfg.IsFailure != nil && !cb.cfg.IsFailure(err)) {
		cb.failures = 0
		cb.setStateLocked(CircuitClosed)
		return
	}
	cb.failures++
	if cb.state == CircuitHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
		cb.openedAt = cb.now()
		cb.setStateLocked(CircuitOpen)
	}
}

func (cb *CircuitBreaker) setStateLocked(to CircuitState) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	if cb.cfg.OnStateChange != nil {
		go cb.cfg.OnStateChange(from, to)
	}
}

func (cb *CircuitBreaker) notify(from, to CircuitState) {
	if from != to && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(from, to)
	}
}
