package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
)

// Compositor defaults, in CSS pixels.
const (
	DefaultMaxWidth      = 480
	DefaultViewportWidth = 1024
	DefaultFontSize      = 36.0
	DefaultTopOffset     = 40.0
	DefaultBottomOffset  = 10.0
	DefaultFontFamily    = "sans-serif"

	// narrowViewportPercent is the share of a viewport narrower than the
	// width cap that the canvas occupies.
	narrowViewportPercent = 80
)

var (
	// ErrNoImage is returned when there is nothing to draw.
	ErrNoImage = errors.New("no image to composite")
	// ErrEmptyImage is returned for an image with zero width or height.
	ErrEmptyImage = errors.New("image has zero width or height")
	// ErrInvalidScale is returned for a scale that is zero, negative or not finite.
	ErrInvalidScale = errors.New("scale must be a positive finite number")
	// ErrInvalidRotation is returned for a rotation that is not finite.
	ErrInvalidRotation = errors.New("rotation must be a finite number")
)

// MirrorAxis selects which scale factor mirroring negates.
type MirrorAxis int

const (
	// MirrorVertical negates the y scale, flipping the picture upside down.
	MirrorVertical MirrorAxis = iota
	// MirrorHorizontal negates the x scale, a left-right flip.
	MirrorHorizontal
)

// String returns the config name of the axis.
func (m MirrorAxis) String() string {
	if m == MirrorHorizontal {
		return "horizontal"
	}
	return "vertical"
}

// ParseMirrorAxis parses "vertical" or "horizontal". Empty means vertical.
func ParseMirrorAxis(s string) (MirrorAxis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vertical", "y":
		return MirrorVertical, nil
	case "horizontal", "x":
		return MirrorHorizontal, nil
	default:
		return MirrorVertical, fmt.Errorf("unknown mirror axis: %s", s)
	}
}

// Params is the per-render caption and transform configuration.
type Params struct {
	TextTop    string
	TextBottom string
	TextColor  color.Color
	// Rotate is in degrees, clockwise.
	Rotate float64
	Scale  float64
	Mirror bool
}

// Options configures the fixed layout of a Compositor.
type Options struct {
	// MaxWidth caps the canvas width.
	MaxWidth float64
	// ViewportWidth is the width of the surrounding window.
	ViewportWidth float64
	FontFamily    string
	// FontSize is the caption size at scale 1.
	FontSize     float64
	TopOffset    float64
	BottomOffset float64
	MirrorAxis   MirrorAxis
	// Background fills the canvas before the image is drawn. Nil or fully
	// transparent leaves the cleared canvas transparent.
	Background color.Color
}

// DefaultOptions returns the layout used by the web tool.
func DefaultOptions() Options {
	return Options{
		MaxWidth:      DefaultMaxWidth,
		ViewportWidth: DefaultViewportWidth,
		FontFamily:    DefaultFontFamily,
		FontSize:      DefaultFontSize,
		TopOffset:     DefaultTopOffset,
		BottomOffset:  DefaultBottomOffset,
	}
}

// Frame describes one composite after it was drawn.
type Frame struct {
	Width, Height int
	Font          FontSpec
	TopY, BottomY float64
}

// Compositor projects an image, a transform and two captions onto a Surface.
// It holds no per-render state and is safe for concurrent use with distinct
// surfaces.
type Compositor struct {
	opts Options
}

// NewCompositor creates a Compositor. Zero fields of opts take defaults.
// The caption offsets default together, only when both are zero.
func NewCompositor(opts Options) *Compositor {
	def := DefaultOptions()
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = def.MaxWidth
	}
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = def.ViewportWidth
	}
	if opts.FontFamily == "" {
		opts.FontFamily = def.FontFamily
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.TopOffset == 0 && opts.BottomOffset == 0 {
		opts.TopOffset, opts.BottomOffset = def.TopOffset, def.BottomOffset
	}
	return &Compositor{opts: opts}
}

// Options returns the compositor layout options.
func (c *Compositor) Options() Options {
	return c.opts
}

// DisplayWidth returns the canvas width for a viewport: the cap when the
// viewport is wider than it, otherwise 80% of the viewport.
func DisplayWidth(viewportWidth, maxWidth float64) float64 {
	if viewportWidth > maxWidth {
		return maxWidth
	}
	return viewportWidth * narrowViewportPercent / 100
}

// Layout returns the integer canvas size for a source image. The height
// keeps the source aspect ratio of the fractional display width; both
// values truncate only on assignment, like canvas dimensions do.
func (c *Compositor) Layout(srcWidth, srcHeight int) (width, height int, err error) {
	if srcWidth <= 0 || srcHeight <= 0 {
		return 0, 0, ErrEmptyImage
	}
	dw := DisplayWidth(c.opts.ViewportWidth, c.opts.MaxWidth)
	width = int(dw)
	height = int(dw * float64(srcHeight) / float64(srcWidth))
	return width, height, nil
}

// Validate checks p for values the compositor cannot draw.
func (p Params) Validate() error {
	if p.Scale <= 0 || math.IsNaN(p.Scale) || math.IsInf(p.Scale, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidScale, p.Scale)
	}
	if math.IsNaN(p.Rotate) || math.IsInf(p.Rotate, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidRotation, p.Rotate)
	}
	return nil
}

// Compose draws img and the captions onto s. The sequence is fixed:
// resize and clear, translate to the center, rotate, scale (with the mirror
// sign flip), draw the image centered, then the two upper-cased captions at
// offsets divided by the scale so they land at constant device positions.
func (c *Compositor) Compose(s Surface, img image.Image, p Params) (Frame, error) {
	if img == nil {
		return Frame{}, ErrNoImage
	}
	if err := p.Validate(); err != nil {
		return Frame{}, err
	}
	b := img.Bounds()
	width, height, err := c.Layout(b.Dx(), b.Dy())
	if err != nil {
		return Frame{}, err
	}
	w, h := float64(width), float64(height)

	s.Resize(width, height)
	s.Clear(0, 0, w, h)
	if bg := c.opts.Background; bg != nil {
		if _, _, _, a := bg.RGBA(); a > 0 {
			s.SetFillColor(bg)
			s.FillRect(0, 0, w, h)
		}
	}

	s.Translate(w/2, h/2)
	s.Rotate(p.Rotate * math.Pi / 180)
	sx, sy := p.Scale, p.Scale
	if p.Mirror {
		if c.opts.MirrorAxis == MirrorHorizontal {
			sx = -sx
		} else {
			sy = -sy
		}
	}
	s.Scale(sx, sy)
	s.DrawImage(img, -w/2, -h/2, w, h)

	textColor := p.TextColor
	if textColor == nil {
		textColor = color.Black
	}
	font := FontSpec{
		Family: c.opts.FontFamily,
		Style:  FontStyleBold,
		Size:   c.opts.FontSize / p.Scale,
	}
	s.SetTextAlign(AlignCenter)
	s.SetFillColor(textColor)
	s.SetFont(font)

	top := (c.opts.TopOffset - h/2) / p.Scale
	bottom := (h/2 - c.opts.BottomOffset) / p.Scale
	s.FillText(strings.ToUpper(p.TextTop), 0, top)
	s.FillText(strings.ToUpper(p.TextBottom), 0, bottom)

	return Frame{Width: width, Height: height, Font: font, TopY: top, BottomY: bottom}, nil
}
