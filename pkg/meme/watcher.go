package meme

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the default debounce interval for file watch events.
const DefaultWatchDebounce = 500 * time.Millisecond

// fileWatcher reports changes to one file. It watches the parent directory
// so editors that save by renaming a temporary file are seen too.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	absPath  string
	debounce time.Duration
}

func newFileWatcher(path string, debounce time.Duration) (*fileWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(absPath)); err != nil {
		w.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &fileWatcher{watcher: w, absPath: absPath, debounce: debounce}, nil
}

// relevant reports whether ev changes the watched file's content.
func (fw *fileWatcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return abs == fw.absPath
}

// run calls onChange once per burst of changes, after the file has been
// quiet for the debounce interval, until ctx is done. It closes the
// underlying watcher before returning.
func (fw *fileWatcher) run(ctx context.Context, onChange func(), onError func(error)) {
	defer fw.watcher.Close()

	var (
		timer   *time.Timer
		firedCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(ev) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(fw.debounce)
			firedCh = timer.C

		case <-firedCh:
			timer, firedCh = nil, nil
			onChange()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}
