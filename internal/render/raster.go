package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"strings"

	"github.com/fogleman/gg"
)

// Format is an export encoding.
type Format string

// Supported export formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// DefaultJPEGQuality is used when a JPEG export does not name a quality.
const DefaultJPEGQuality = 90

// ParseFormat parses an export format name. "jpg" is accepted for JPEG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// MIMEType returns the media type of the format.
func (f Format) MIMEType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Extension returns the file extension of the format, with the dot.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// defaultFont mirrors the initial font of a canvas context.
var defaultFont = FontSpec{Family: DefaultFontFamily, Style: FontStyleRegular, Size: 10}

// RasterSurface is a Surface backed by an in-memory RGBA image drawn with gg.
// It is not safe for concurrent use.
type RasterSurface struct {
	dc    *gg.Context
	fonts *FontManager
	align TextAlign
	font  FontSpec
	fill  color.Color
	err   error
}

// NewRasterSurface creates a 1x1 surface; Resize gives it real dimensions.
// A nil FontManager gets a fresh one with the embedded fonts.
func NewRasterSurface(fonts *FontManager) *RasterSurface {
	if fonts == nil {
		fonts = NewFontManager()
	}
	rs := &RasterSurface{fonts: fonts}
	rs.Resize(1, 1)
	return rs
}

// Resize replaces the backing image. Like assigning canvas dimensions, this
// discards the pixels and resets the transform, fill, alignment and font.
func (rs *RasterSurface) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	rs.dc = gg.NewContext(width, height)
	rs.align = AlignStart
	rs.fill = color.Black
	rs.dc.SetColor(rs.fill)
	rs.err = nil
	rs.SetFont(defaultFont)
}

// Size returns the surface dimensions.
func (rs *RasterSurface) Size() (int, int) {
	return rs.dc.Width(), rs.dc.Height()
}

// Clear sets the device rectangle to transparent black.
func (rs *RasterSurface) Clear(x, y, width, height float64) {
	dst, ok := rs.dc.Image().(draw.Image)
	if !ok {
		return
	}
	r := image.Rect(int(x), int(y), int(x+width), int(y+height))
	draw.Draw(dst, r, image.Transparent, image.Point{}, draw.Src)
}

// FillRect fills a user-space rectangle with the fill color.
func (rs *RasterSurface) FillRect(x, y, width, height float64) {
	rs.dc.DrawRectangle(x, y, width, height)
	rs.dc.Fill()
}

func (rs *RasterSurface) Translate(tx, ty float64) { rs.dc.Translate(tx, ty) }
func (rs *RasterSurface) Rotate(angle float64)     { rs.dc.Rotate(angle) }
func (rs *RasterSurface) Scale(sx, sy float64)     { rs.dc.Scale(sx, sy) }

// DrawImage draws img stretched into the user-space rectangle.
func (rs *RasterSurface) DrawImage(img image.Image, x, y, width, height float64) {
	b := img.Bounds()
	if b.Empty() {
		return
	}
	rs.dc.Push()
	rs.dc.Translate(x, y)
	rs.dc.Scale(width/float64(b.Dx()), height/float64(b.Dy()))
	rs.dc.Translate(-float64(b.Min.X), -float64(b.Min.Y))
	rs.dc.DrawImage(img, 0, 0)
	rs.dc.Pop()
}

func (rs *RasterSurface) SetTextAlign(align TextAlign) { rs.align = align }

// SetFillColor sets the color used by FillRect and FillText.
func (rs *RasterSurface) SetFillColor(c color.Color) {
	rs.fill = c
	rs.dc.SetColor(c)
}

// SetFont selects the face for FillText. A font that cannot be loaded keeps
// the previous face and is reported by Err.
func (rs *RasterSurface) SetFont(spec FontSpec) {
	face, err := rs.fonts.Face(spec)
	if err != nil {
		if rs.err == nil {
			rs.err = err
		}
		return
	}
	rs.font = spec
	rs.dc.SetFontFace(face)
}

// FillText draws text with its baseline at y, anchored by the text alignment.
func (rs *RasterSurface) FillText(text string, x, y float64) {
	if text == "" {
		return
	}
	rs.dc.DrawStringAnchored(text, x, y, rs.align.anchor(), 0)
}

// Font returns the active font.
func (rs *RasterSurface) Font() FontSpec { return rs.font }

// Err returns the first font error since the last Resize.
func (rs *RasterSurface) Err() error { return rs.err }

// Image returns the backing image. It is reused until the next Resize.
func (rs *RasterSurface) Image() image.Image {
	return rs.dc.Image()
}

// Encode writes the surface in the given format. quality applies to JPEG
// only; values outside 1-100 use DefaultJPEGQuality.
func (rs *RasterSurface) Encode(w io.Writer, format Format, quality int) error {
	switch format {
	case FormatPNG, "":
		return rs.dc.EncodePNG(w)
	case FormatJPEG:
		if quality < 1 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		return jpeg.Encode(w, flatten(rs.dc.Image()), &jpeg.Options{Quality: quality})
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// DataURL returns the surface as a base64 data URL.
func (rs *RasterSurface) DataURL(format Format, quality int) (string, error) {
	var buf bytes.Buffer
	if err := rs.Encode(&buf, format, quality); err != nil {
		return "", err
	}
	if format == "" {
		format = FormatPNG
	}
	return "data:" + format.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// flatten composites img over white, since JPEG has no alpha channel.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, image.White, image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}
