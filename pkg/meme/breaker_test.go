package meme

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var errHostDown = errors.New("host down")

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestBreaker(cfg BreakerConfig) (*CircuitBreaker, *fakeClock) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(cfg)
	cb.now = clock.Now
	return cb, clock
}

func failing() error { return errHostDown }
func passing() error { return nil }

func TestCircuitStateString(t *testing.T) {
	tests := []struct {
		state CircuitState
		want  string
	}{
		{CircuitClosed, "closed"},
		{CircuitOpen, "open"},
		{CircuitHalfOpen, "half-open"},
		{CircuitState(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("CircuitState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestCircuitBreakerDefaults(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{})
	if cb.cfg.FailureThreshold != DefaultBreakerFailures || cb.cfg.Timeout != DefaultBreakerTimeout {
		t.Errorf("defaults = %d, %v", cb.cfg.FailureThreshold, cb.cfg.Timeout)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("initial state = %v, want closed", cb.State())
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(BreakerConfig{FailureThreshold: 3, Timeout: time.Minute})

	for i := 0; i < 2; i++ {
		if err := cb.Execute(failing); !errors.Is(err, errHostDown) {
			t.Fatalf("Execute() #%d error = %v", i+1, err)
		}
		if cb.State() != CircuitClosed {
			t.Fatalf("state after %d failures = %v, want closed", i+1, cb.State())
		}
	}
	_ = cb.Execute(failing)
	if cb.State() != CircuitOpen {
		t.Fatalf("state after threshold = %v, want open", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Errorf("Execute() while open = %v (called %v), want %v without call", err, called, ErrCircuitOpen)
	}
	if got := cb.Rejections(); got != 1 {
		t.Errorf("Rejections() = %d, want 1", got)
	}
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	cb, _ := newTestBreaker(BreakerConfig{FailureThreshold: 2})
	_ = cb.Execute(failing)
	_ = cb.Execute(passing)
	_ = cb.Execute(failing)
	if cb.State() != CircuitClosed {
		t.Errorf("state = %v, want closed after interleaved success", cb.State())
	}
}

func TestCircuitBreakerHalfOpen(t *testing.T) {
	tests := []struct {
		name  string
		trial func() error
		want  CircuitState
	}{
		{"trial succeeds", passing, CircuitClosed},
		{"trial fails", failing, CircuitOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, clock := newTestBreaker(BreakerConfig{FailureThreshold: 1, Timeout: time.Minute})
			_ = cb.Execute(failing)
			clock.Advance(time.Minute)

			if cb.State() != CircuitHalfOpen {
				t.Fatalf("state after timeout = %v, want half-open", cb.State())
			}
			_ = cb.Execute(tt.trial)
			if got := cb.State(); got != tt.want {
				t.Errorf("state after trial = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCircuitBreakerSingleTrial(t *testing.T) {
	cb, clock := newTestBreaker(BreakerConfig{FailureThreshold: 1, Timeout: time.Second})
	_ = cb.Execute(failing)
	clock.Advance(time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if err := cb.Execute(passing); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second call during trial = %v, want %v", err, ErrCircuitOpen)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("trial error = %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("state after trial = %v, want closed", cb.State())
	}
}

func TestCircuitBreakerIsFailure(t *testing.T) {
	errBadInput := errors.New("bad input")
	cb, _ := newTestBreaker(BreakerConfig{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return !errors.Is(err, errBadInput) },
	})
	if err := cb.Execute(func() error { return errBadInput }); !errors.Is(err, errBadInput) {
		t.Fatalf("Execute() error = %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("state = %v, want closed for ignored error", cb.State())
	}
}

func TestCircuitBreakerStateChangeAndReset(t *testing.T) {
	changes := make(chan [2]CircuitState, 4)
	cb, _ := newTestBreaker(BreakerConfig{
		FailureThreshold: 1,
		OnStateChange:    func(from, to CircuitState) { changes <- [2]CircuitState{from, to} },
	})

	_ = cb.Execute(failing)
	select {
	case c := <-changes:
		if c != [2]CircuitState{CircuitClosed, CircuitOpen} {
			t.Errorf("state change = %v, want closed->open", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no state change reported")
	}

	cb.Reset()
	if c := <-changes; c != [2]CircuitState{CircuitOpen, CircuitClosed} {
		t.Errorf("reset change = %v, want open->closed", c)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("state after Reset = %v", cb.State())
	}
}
