package config

import (
	"image/color"
	"time"

	"github.com/opd-ai/go-meme/internal/render"
)

// Default values for configuration options.
const (
	// DefaultScale leaves the image at its display size.
	DefaultScale = 1.0
	// DefaultOutputPath matches the download name of the web tool.
	DefaultOutputPath = "meme.png"
	// DefaultQuality is the JPEG quality.
	DefaultQuality = render.DefaultJPEGQuality
	// DefaultTimeout bounds image loading.
	DefaultTimeout = 10 * time.Second
)

// UI ranges. Values outside them are accepted with a warning.
const (
	MinRotate = -180.0
	MaxRotate = 180.0
	MinScale  = 0.1
	MaxScale  = 3.0
	// ScaleStep is the slider step of the scale control.
	ScaleStep = 0.1
)

// DefaultTextColor is the caption color the color picker starts with.
var DefaultTextColor = color.RGBA{A: 255}

// DefaultConfig returns a Config with the web tool's initial state.
func DefaultConfig() Config {
	return Config{
		Image: ImageConfig{
			Timeout: DefaultTimeout,
		},
		Caption: CaptionConfig{
			Color:        DefaultTextColor,
			Font:         render.DefaultFontFamily,
			FontSize:     render.DefaultFontSize,
			TopOffset:    render.DefaultTopOffset,
			BottomOffset: render.DefaultBottomOffset,
		},
		Transform: TransformConfig{
			Scale:      DefaultScale,
			MirrorAxis: render.MirrorVertical,
		},
		Layout: LayoutConfig{
			MaxWidth:      render.DefaultMaxWidth,
			ViewportWidth: render.DefaultViewportWidth,
		},
		Output: OutputConfig{
			Path:    DefaultOutputPath,
			Format:  render.FormatPNG,
			Quality: DefaultQuality,
		},
	}
}
