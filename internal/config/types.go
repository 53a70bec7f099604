// Package config provides the meme configuration record and its parsers.
// A configuration is a flat set of keys; it can be written as a Lua table
// (meme.config = { ... }), as YAML, or in a plain "key value" format.
package config

import (
	"image/color"
	"time"

	"github.com/opd-ai/go-meme/internal/render"
)

// Config represents a complete meme configuration: where the image comes
// from, the captions, the transform, the layout and the export target.
type Config struct {
	// Image selects the source image.
	Image ImageConfig
	// Caption holds the two captions and their styling.
	Caption CaptionConfig
	// Transform holds rotation, scale and mirroring.
	Transform TransformConfig
	// Layout controls canvas sizing and the background fill.
	Layout LayoutConfig
	// Output controls the export.
	Output OutputConfig
}

// ImageConfig holds source image settings.
type ImageConfig struct {
	// Source is an http(s) URL, a scheme-less web address, a base64 data
	// URI or a local file path.
	Source string
	// Timeout bounds fetching and decoding the image.
	Timeout time.Duration
}

// CaptionConfig holds caption text and styling.
type CaptionConfig struct {
	Top    string
	Bottom string
	// Color is the caption fill color.
	Color color.RGBA
	// Font is the family name; CSS generic names are accepted.
	Font string
	// FontFile optionally registers a TTF/OTF file as Font.
	FontFile string
	// FontSize is the caption size in pixels at scale 1.
	FontSize float64
	// TopOffset is the distance from the top edge to the top baseline.
	TopOffset float64
	// BottomOffset is the distance from the bottom edge to the bottom baseline.
	BottomOffset float64
}

// TransformConfig holds the image transform.
type TransformConfig struct {
	// Rotate is in degrees, clockwise.
	Rotate float64
	Scale  float64
	Mirror bool
	// MirrorAxis selects which scale factor Mirror negates.
	MirrorAxis render.MirrorAxis
}

// LayoutConfig holds canvas sizing.
type LayoutConfig struct {
	// MaxWidth caps the canvas width.
	MaxWidth float64
	// ViewportWidth stands in for the browser window width.
	ViewportWidth float64
	// Background fills the canvas under the image. Transparent by default.
	Background color.RGBA
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Path   string
	Format render.Format
	// Quality is the JPEG quality, 1 to 100.
	Quality int
}

// Params returns the per-render compositor parameters.
func (c *Config) Params() render.Params {
	return render.Params{
		TextTop:    c.Caption.Top,
		TextBottom: c.Caption.Bottom,
		TextColor:  c.Caption.Color,
		Rotate:     c.Transform.Rotate,
		Scale:      c.Transform.Scale,
		Mirror:     c.Transform.Mirror,
	}
}

// CompositorOptions returns the layout options for a render.Compositor.
func (c *Config) CompositorOptions() render.Options {
	opts := render.Options{
		MaxWidth:      c.Layout.MaxWidth,
		ViewportWidth: c.Layout.ViewportWidth,
		FontFamily:    c.Caption.Font,
		FontSize:      c.Caption.FontSize,
		TopOffset:     c.Caption.TopOffset,
		BottomOffset:  c.Caption.BottomOffset,
		MirrorAxis:    c.Transform.MirrorAxis,
	}
	if c.Layout.Background.A > 0 {
		opts.Background = c.Layout.Background
	}
	return opts
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
