package meme

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestFileWatcherDebounces(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "meme.yaml")
	if err := os.WriteFile(path, []byte("text_top: a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fw, err := newFileWatcher(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("newFileWatcher() error = %v", err)
	}

	var changes atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		fw.run(ctx, func() { changes.Add(1) }, nil)
	}()

	// A burst of writes and an unrelated file produce one change.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("text_top: b\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for changes.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)
	if got := changes.Load(); got != 1 {
		t.Errorf("changes = %d, want 1", got)
	}

	cancel()
	<-done
}

func TestNewFileWatcherMissingDir(t *testing.T) {
	if _, err := newFileWatcher(filepath.Join(t.TempDir(), "missing", "meme.lua"), 0); err == nil {
		t.Error("newFileWatcher() error = nil for missing directory")
	}
}

func TestGeneratorWatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	img := writePNG(t, dir, "in.png", 20, 10)
	cfgPath := filepath.Join(dir, "meme.yaml")
	write := func(top string) {
		t.Helper()
		if err := os.WriteFile(cfgPath, []byte("image: "+img+"\ntext_top: "+top+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("before")

	opts := testOptions()
	opts.WatchDebounce = 20 * time.Millisecond
	g, err := NewFromFile(cfgPath, opts)
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}
	defer g.Close()

	var (
		mu      sync.Mutex
		results []*Rendered
	)
	rendered := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- g.Watch(ctx, func(r *Rendered, err error) {
			if err != nil {
				t.Errorf("watch render error = %v", err)
				return
			}
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			select {
			case rendered <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	write("after")

	select {
	case <-rendered:
	case <-time.After(3 * time.Second):
		t.Fatal("no render after config change")
	}
	if got := g.Config().Caption.Top; got != "after" {
		t.Errorf("Caption.Top = %q, want after", got)
	}
	mu.Lock()
	if len(results) == 0 || results[0].Frame.Width != 480 {
		t.Errorf("results = %v", results)
	}
	mu.Unlock()

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}
