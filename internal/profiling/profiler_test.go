package profiling

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfigEnabled(t *testing.T) {
	tests := []struct {
		cfg  Config
		want bool
	}{
		{Config{}, false},
		{Config{CPUProfilePath: "cpu.prof"}, true},
		{Config{MemProfilePath: "mem.prof"}, true},
		{Config{TracePath: "trace.out"}, true},
	}
	for _, tt := range tests {
		if got := tt.cfg.Enabled(); got != tt.want {
			t.Errorf("%+v.Enabled() = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}

func TestProfilerStartStop(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CPUProfilePath: filepath.Join(dir, "cpu.prof"),
		MemProfilePath: filepath.Join(dir, "mem.prof"),
		TracePath:      filepath.Join(dir, "trace.out"),
	}
	p := New(cfg)

	if err := p.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() before Start = %v, want %v", err, ErrNotRunning)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !p.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := p.Start(); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start() = %v, want %v", err, ErrRunning)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if p.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	for _, path := range []string{cfg.CPUProfilePath, cfg.MemProfilePath, cfg.TracePath} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("profile %s missing: %v", filepath.Base(path), err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("profile %s is empty", filepath.Base(path))
		}
	}
}

func TestProfilerBadPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing", "cpu.prof")
	p := New(Config{CPUProfilePath: missing})
	if err := p.Start(); err == nil {
		t.Fatal("Start() with unwritable path succeeded")
	}
	if p.IsRunning() {
		t.Error("IsRunning() = true after failed Start")
	}
}

func TestProfilerTraceFailureStopsCPU(t *testing.T) {
	dir := t.TempDir()
	p := New(Config{
		CPUProfilePath: filepath.Join(dir, "cpu.prof"),
		TracePath:      filepath.Join(dir, "missing", "trace.out"),
	})
	if err := p.Start(); err == nil {
		t.Fatal("Start() with unwritable trace path succeeded")
	}

	// CPU profiling must have been released for a new run.
	q := New(Config{CPUProfilePath: filepath.Join(dir, "cpu2.prof")})
	if err := q.Start(); err != nil {
		t.Fatalf("Start() after failed run error = %v", err)
	}
	if err := q.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestWriteHeapProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.prof")
	if err := WriteHeapProfile(path); err != nil {
		t.Fatalf("WriteHeapProfile() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("heap profile missing: %v", err)
	}
	if err := WriteHeapProfile(filepath.Join(t.TempDir(), "no", "heap.prof")); err == nil {
		t.Error("WriteHeapProfile() to missing dir succeeded")
	}
}
