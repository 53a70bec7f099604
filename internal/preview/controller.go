package preview

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/opd-ai/go-meme/internal/config"
	"github.com/opd-ai/go-meme/pkg/meme"
)

// DefaultTitle is the window title when Options.Title is empty.
const DefaultTitle = "go-meme preview"

// ErrTerminated is returned by Game.Update once the context is done.
var ErrTerminated = errors.New("preview terminated")

// Options configures a preview window.
type Options struct {
	Title string
	// OnError receives render, config and save errors. Nil drops them.
	OnError func(error)
	// OnSave is called with the path of every saved export.
	OnSave func(path string)
	// Invalidate triggers a re-render on every receive, e.g. from a
	// config file watch.
	Invalidate <-chan struct{}
}

// frameSource is what the preview needs from a generator.
type frameSource interface {
	Config() *config.Config
	SetConfig(ctx context.Context, cfg *config.Config) error
	ExportFile(ctx context.Context, path string) (string, error)
	renderImage(ctx context.Context) (image.Image, error)
}

// generatorSource adapts a meme.Generator.
type generatorSource struct {
	meme.Generator
}

func (s generatorSource) renderImage(ctx context.Context) (image.Image, error) {
	r, err := s.Render(ctx)
	if err != nil {
		return nil, err
	}
	return r.Image(), nil
}

// controller turns actions into config changes and tracks when the frame
// is stale.
type controller struct {
	src  frameSource
	opts Options

	mu    sync.Mutex
	dirty bool
}

func newController(src frameSource, opts Options) *controller {
	return &controller{src: src, opts: opts, dirty: true}
}

func (c *controller) invalidate() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

func (c *controller) handle(ctx context.Context, a Action) {
	if a == ActionSave {
		path, err := c.src.ExportFile(ctx, "")
		if err != nil {
			c.report(err)
			return
		}
		if c.opts.OnSave != nil {
			c.opts.OnSave(path)
		}
		return
	}

	cfg := c.src.Config()
	if !Apply(cfg, a) {
		return
	}
	if err := c.src.SetConfig(ctx, cfg); err != nil {
		c.report(err)
		return
	}
	c.invalidate()
}

// renderIfDirty renders when the frame is stale. It reports false when
// there is nothing new to show.
func (c *controller) renderIfDirty(ctx context.Context) (image.Image, bool) {
	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil, false
	}
	c.dirty = false
	c.mu.Unlock()

	img, err := c.src.renderImage(ctx)
	if err != nil {
		c.report(err)
		return nil, false
	}
	return img, true
}

func (c *controller) report(err error) {
	if c.opts.OnError != nil {
		c.opts.OnError(err)
	}
}
