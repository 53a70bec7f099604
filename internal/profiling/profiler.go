// Package profiling writes CPU, heap and execution-trace profiles around a
// command run, for looking into slow fetches or renders.
package profiling

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
)

// ErrRunning is returned by Start on a running Profiler.
var ErrRunning = errors.New("profiler is already running")

// ErrNotRunning is returned by Stop on a Profiler that was not started.
var ErrNotRunning = errors.New("profiler is not running")

// Config holds output paths. An empty path disables that profile.
type Config struct {
	CPUProfilePath string
	// MemProfilePath receives a heap profile when the profiler stops.
	MemProfilePath string
	// TracePath receives a runtime execution trace.
	TracePath string
}

// Enabled reports whether any profile is configured.
func (c Config) Enabled() bool {
	return c.CPUProfilePath != "" || c.MemProfilePath != "" || c.TracePath != ""
}

// Profiler brackets a run with profiling. Safe for concurrent use.
type Profiler struct {
	cfg Config

	mu        sync.Mutex
	running   bool
	cpuFile   *os.File
	traceFile *os.File
}

// New creates a Profiler. Nothing is recorded until Start.
func New(cfg Config) *Profiler {
	return &Profiler{cfg: cfg}
}

// Start begins CPU profiling and tracing as configured.
func (p *Profiler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrRunning
	}

	if path := p.cfg.CPUProfilePath; path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile file: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		p.cpuFile = f
	}

	if path := p.cfg.TracePath; path != "" {
		f, err := os.Create(path)
		if err == nil {
			err = trace.Start(f)
			if err != nil {
				f.Close()
			}
		}
		if err != nil {
			p.stopCPULocked()
			return fmt.Errorf("failed to start trace: %w", err)
		}
		p.traceFile = f
	}

	p.running = true
	return nil
}

// Stop ends profiling and writes the heap profile. All outputs are
// attempted; their errors are joined.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrNotRunning
	}
	p.running = false

	var errs []error
	if err := p.stopCPULocked(); err != nil {
		errs = append(errs, err)
	}
	if p.traceFile != nil {
		trace.Stop()
		if err := p.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close trace file: %w", err))
		}
		p.traceFile = nil
	}
	if p.cfg.MemProfilePath != "" {
		if err := WriteHeapProfile(p.cfg.MemProfilePath); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Profiler) stopCPULocked() error {
	if p.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := p.cpuFile.Close()
	p.cpuFile = nil
	if err != nil {
		return fmt.Errorf("failed to close CPU profile file: %w", err)
	}
	return nil
}

// IsRunning reports whether Start has been called without Stop.
func (p *Profiler) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// WriteHeapProfile writes a heap profile to path after a GC.
func WriteHeapProfile(path string) error {
	runtime.GC()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create memory profile file: %w", err)
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write memory profile: %w", err)
	}
	return nil
}
