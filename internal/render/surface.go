// Package render composites meme images: it projects a source image, an
// affine transform and two captions onto a 2D drawing surface.
package render

import (
	"fmt"
	"image"
	"image/color"
)

// TextAlign is the horizontal anchor used by FillText.
type TextAlign int

const (
	// AlignStart anchors text at its left edge.
	AlignStart TextAlign = iota
	// AlignCenter anchors text at its horizontal middle.
	AlignCenter
	// AlignEnd anchors text at its right edge.
	AlignEnd
)

// String returns the canvas name of the alignment.
func (a TextAlign) String() string {
	switch a {
	case AlignStart:
		return "start"
	case AlignCenter:
		return "center"
	case AlignEnd:
		return "end"
	default:
		return "unknown"
	}
}

// anchor returns the fraction of the text width that lies left of x.
func (a TextAlign) anchor() float64 {
	switch a {
	case AlignCenter:
		return 0.5
	case AlignEnd:
		return 1
	default:
		return 0
	}
}

// FontSpec describes a font the way a canvas font shorthand does,
// e.g. "bold 36px sans-serif".
type FontSpec struct {
	Family string
	Style  FontStyle
	Size   float64
}

// String renders the spec in canvas shorthand.
func (f FontSpec) String() string {
	weight := ""
	switch f.Style {
	case FontStyleBold:
		weight = "bold "
	case FontStyleItalic:
		weight = "italic "
	case FontStyleBoldItalic:
		weight = "italic bold "
	}
	return fmt.Sprintf("%s%gpx %s", weight, f.Size, f.Family)
}

// Surface is a 2D drawing target with a canvas-style transform stack.
// Translate, Rotate and Scale compose in user space; see Matrix.
type Surface interface {
	// Resize sets the surface dimensions, clears it and resets all state.
	Resize(width, height int)
	// Size returns the current dimensions.
	Size() (width, height int)
	// Clear makes the rectangle transparent, in device coordinates.
	Clear(x, y, width, height float64)
	// FillRect fills a user-space rectangle with the fill color.
	FillRect(x, y, width, height float64)
	Translate(tx, ty float64)
	Rotate(angle float64)
	Scale(sx, sy float64)
	// DrawImage draws img stretched into the user-space rectangle.
	DrawImage(img image.Image, x, y, width, height float64)
	SetTextAlign(align TextAlign)
	SetFillColor(c color.Color)
	SetFont(font FontSpec)
	// FillText draws text with its baseline at y.
	FillText(text string, x, y float64)
}
