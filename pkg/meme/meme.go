package meme

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"io/fs"
	"time"

	"github.com/opd-ai/go-meme/internal/config"
	"github.com/opd-ai/go-meme/internal/render"
)

// Config is the meme configuration record.
type Config = config.Config

// DefaultConfig returns the configuration the web tool starts with.
func DefaultConfig() Config {
	return config.DefaultConfig()
}

// Configuration format constants for use with NewFromReader.
const (
	// FormatLua is a Lua file assigning meme.config.
	FormatLua = "lua"
	// FormatYAML is a flat YAML mapping.
	FormatYAML = "yaml"
	// FormatPlain is one "key value" pair per line.
	FormatPlain = "plain"
	// FormatTOML is a flat TOML table. It is never detected automatically.
	FormatTOML = "toml"
	// FormatAuto detects the format from the content.
	FormatAuto = ""
)

// Generator composes memes from a configuration. It is safe for concurrent
// use from multiple goroutines.
type Generator interface {
	// LoadImage fetches and decodes the configured image, replacing the
	// current one. Remote fetches go through the circuit breaker.
	LoadImage(ctx context.Context) (ImageInfo, error)

	// Render draws the current image and captions onto a new raster,
	// loading the image first when none is loaded.
	Render(ctx context.Context) (*Rendered, error)

	// RenderTo draws onto s instead of a new raster.
	RenderTo(ctx context.Context, s render.Surface) (render.Frame, error)

	// Export renders and writes the encoded image to w in the configured
	// format.
	Export(ctx context.Context, w io.Writer) error

	// ExportFile renders and writes the image to path, or to the configured
	// output path when path is empty. A .jpg, .jpeg or .png extension picks
	// the format. It returns the path written.
	ExportFile(ctx context.Context, path string) (string, error)

	// DataURL renders and returns the image as a base64 data URL.
	DataURL(ctx context.Context) (string, error)

	// Config returns a copy of the current configuration.
	Config() *Config

	// SetConfig validates and replaces the configuration. When the image
	// source changed, the new image is loaded before SetConfig returns;
	// other changes take effect on the next render. A configuration that
	// fails validation leaves the previous one active.
	SetConfig(ctx context.Context, cfg *Config) error

	// ReloadConfig re-reads the configuration from its original source and
	// applies it like SetConfig.
	ReloadConfig(ctx context.Context) error

	// Watch reloads the configuration file whenever it changes and calls
	// onRender with the result of each re-render. It blocks until ctx is
	// done and is only available for generators created from a file.
	Watch(ctx context.Context, onRender func(*Rendered, error)) error

	// Status returns detailed status information.
	Status() Status

	// Health returns a health check of the generator and its components.
	Health() HealthCheck

	// Metrics returns the metrics collector.
	Metrics() *Metrics

	// Errors returns the error tracker.
	Errors() *ErrorTracker

	// SetErrorHandler registers a callback for errors. The handler is
	// invoked asynchronously and a panic in it is recovered.
	SetErrorHandler(handler ErrorHandler)

	// SetEventHandler registers a callback for events. The handler is
	// invoked asynchronously and a panic in it is recovered.
	SetEventHandler(handler EventHandler)

	// Close releases cached images.
	Close() error
}

// ImageInfo describes a loaded image.
type ImageInfo struct {
	Source        string
	Format        string
	MIME          string
	Width, Height int
	Bytes         int
	LoadedAt      time.Time
}

// Rendered is the result of a render: the raster and the layout that
// produced it.
type Rendered struct {
	Frame   render.Frame
	surface *render.RasterSurface
	format  render.Format
	quality int
}

// Image returns the rendered raster.
func (r *Rendered) Image() image.Image {
	return r.surface.Image()
}

// Format returns the export format the render was configured with.
func (r *Rendered) Format() render.Format {
	return r.format
}

// Encode writes the image in the configured format.
func (r *Rendered) Encode(w io.Writer) error {
	return r.surface.Encode(w, r.format, r.quality)
}

// EncodeAs writes the image in the given format.
func (r *Rendered) EncodeAs(w io.Writer, format render.Format, quality int) error {
	return r.surface.Encode(w, format, quality)
}

// DataURL returns the image as a base64 data URL in the configured format.
func (r *Rendered) DataURL() (string, error) {
	return r.surface.DataURL(r.format, r.quality)
}

// New creates a Generator from a configuration. A nil cfg uses
// DefaultConfig. Nothing is loaded until the first LoadImage or Render.
func New(cfg *Config, opts *Options) (Generator, error) {
	if cfg == nil {
		def := config.DefaultConfig()
		cfg = &def
	}
	return newGenerator(cfg.Clone(), opts, "memory", "", nil)
}

// NewFromFile creates a Generator from a configuration file in Lua, YAML
// or plain format. ReloadConfig and Watch re-read the file.
//
//	g, err := meme.NewFromFile("meme.lua", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer g.Close()
//	path, err := g.ExportFile(ctx, "")
func NewFromFile(path string, opts *Options) (Generator, error) {
	loader := func() (*config.Config, error) {
		p, err := config.NewParser()
		if err != nil {
			return nil, fmt.Errorf("parser init: %w", err)
		}
		defer p.Close()
		return p.ParseFile(path)
	}
	cfg, err := loader()
	if err != nil {
		return nil, NewCategorizedError("parse config", configError(err))
	}
	return newGenerator(cfg, opts, path, path, loader)
}

// NewFromFS creates a Generator from a configuration file in fsys, such
// as an embed.FS.
func NewFromFS(fsys fs.FS, path string, opts *Options) (Generator, error) {
	loader := func() (*config.Config, error) {
		p, err := config.NewParser()
		if err != nil {
			return nil, fmt.Errorf("parser init: %w", err)
		}
		defer p.Close()
		return p.ParseFromFS(fsys, path)
	}
	cfg, err := loader()
	if err != nil {
		return nil, NewCategorizedError("parse config", configError(err))
	}
	return newGenerator(cfg, opts, "embedded:"+path, "", loader)
}

// NewFromReader creates a Generator from configuration content. format is
// one of FormatLua, FormatYAML, FormatTOML, FormatPlain or FormatAuto. The content is
// kept so ReloadConfig re-parses it.
func NewFromReader(r io.Reader, format string, opts *Options) (Generator, error) {
	if format != FormatAuto {
		if _, err := config.ParseFileFormat(format); err != nil {
			return nil, NewCategorizedError("parse config", configError(err))
		}
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, NewCategorizedError("read config", err)
	}

	loader := func() (*config.Config, error) {
		p, err := config.NewParser()
		if err != nil {
			return nil, fmt.Errorf("parser init: %w", err)
		}
		defer p.Close()
		return p.ParseReader(bytes.NewReader(content), format)
	}
	cfg, err := loader()
	if err != nil {
		return nil, NewCategorizedError("parse config", configError(err))
	}
	return newGenerator(cfg, opts, "reader", "", loader)
}
