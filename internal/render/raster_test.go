package render

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// splitImage is red on the top half and blue on the bottom half.
func splitImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, image.Rect(0, 0, w, h/2), image.NewUniform(red), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, h/2, w, h), image.NewUniform(blue), image.Point{}, draw.Src)
	return img
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func dominant(c color.RGBA) string {
	switch {
	case c.A < 128:
		return "transparent"
	case c.R > 200 && c.B < 60:
		return "red"
	case c.B > 200 && c.R < 60:
		return "blue"
	default:
		return "other"
	}
}

func TestRasterSurfaceResizeClears(t *testing.T) {
	rs := NewRasterSurface(nil)
	rs.Resize(40, 30)
	if w, h := rs.Size(); w != 40 || h != 30 {
		t.Fatalf("Size() = %dx%d, want 40x30", w, h)
	}
	rs.SetFillColor(red)
	rs.FillRect(0, 0, 40, 30)
	if got := dominant(rgbaAt(rs.Image(), 20, 15)); got != "red" {
		t.Fatalf("after FillRect pixel is %s, want red", got)
	}
	rs.Clear(0, 0, 20, 30)
	if got := dominant(rgbaAt(rs.Image(), 5, 15)); got != "transparent" {
		t.Errorf("cleared pixel is %s, want transparent", got)
	}
	if got := dominant(rgbaAt(rs.Image(), 30, 15)); got != "red" {
		t.Errorf("pixel outside the cleared rect is %s, want red", got)
	}
	rs.Resize(40, 30)
	if got := dominant(rgbaAt(rs.Image(), 30, 15)); got != "transparent" {
		t.Errorf("after Resize pixel is %s, want transparent", got)
	}
}

type sample struct {
	x, y int
	want string
}

func TestRasterSurfaceCompose(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		params  Params
		samples []sample
	}{
		{"plain", Options{}, Params{Scale: 1}, []sample{{240, 60, "red"}, {240, 180, "blue"}}},
		{"vertical mirror", Options{}, Params{Scale: 1, Mirror: true}, []sample{{240, 60, "blue"}, {240, 180, "red"}}},
		{"horizontal mirror keeps rows", Options{MirrorAxis: MirrorHorizontal}, Params{Scale: 1, Mirror: true}, []sample{{240, 60, "red"}, {240, 180, "blue"}}},
		{"half turn", Options{}, Params{Scale: 1, Rotate: 180}, []sample{{240, 60, "blue"}, {240, 180, "red"}}},
		{"full turn", Options{}, Params{Scale: 1, Rotate: 360}, []sample{{240, 60, "red"}, {240, 180, "blue"}}},
		{"shrunk", Options{}, Params{Scale: 0.5}, []sample{{5, 120, "transparent"}, {240, 100, "red"}, {240, 140, "blue"}}},
		{"background fills the margin", Options{Background: red}, Params{Scale: 0.5}, []sample{{5, 120, "red"}, {240, 140, "blue"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := NewRasterSurface(nil)
			frame, err := NewCompositor(tt.opts).Compose(rs, splitImage(200, 100), tt.params)
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if frame.Width != 480 || frame.Height != 240 {
				t.Fatalf("frame = %dx%d, want 480x240", frame.Width, frame.Height)
			}
			for _, s := range tt.samples {
				if got := dominant(rgbaAt(rs.Image(), s.x, s.y)); got != s.want {
					t.Errorf("pixel (%d, %d) is %s, want %s", s.x, s.y, got, s.want)
				}
			}
			if err := rs.Err(); err != nil {
				t.Errorf("Err() = %v", err)
			}
		})
	}
}

func TestRasterSurfaceCaptions(t *testing.T) {
	rs := NewRasterSurface(nil)
	black := image.NewUniform(color.Black)
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	draw.Draw(src, src.Bounds(), black, image.Point{}, draw.Src)

	_, err := NewCompositor(Options{}).Compose(rs, src, Params{
		TextTop:   "meme",
		TextColor: color.White,
		Scale:     1,
	})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	img := rs.Image()
	lit := 0
	// The top caption baseline sits at device y 40; glyphs extend above it.
	for y := 10; y < 40; y++ {
		for x := 160; x < 320; x++ {
			if c := rgbaAt(img, x, y); c.R > 128 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("no caption pixels found above the top baseline")
	}
	if got := rs.Font().Size; got != 36 {
		t.Errorf("Font().Size = %g, want 36", got)
	}
}

func TestRasterSurfaceEncode(t *testing.T) {
	rs := NewRasterSurface(nil)
	if _, err := NewCompositor(Options{}).Compose(rs, splitImage(200, 100), Params{Scale: 1, TextTop: "top"}); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	var pngBuf bytes.Buffer
	if err := rs.Encode(&pngBuf, FormatPNG, 0); err != nil {
		t.Fatalf("Encode(png) error = %v", err)
	}
	decoded, err := png.Decode(&pngBuf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 480 || b.Dy() != 240 {
		t.Errorf("decoded PNG is %dx%d, want 480x240", b.Dx(), b.Dy())
	}

	var jpgBuf bytes.Buffer
	if err := rs.Encode(&jpgBuf, FormatJPEG, 500); err != nil {
		t.Fatalf("Encode(jpeg) error = %v", err)
	}
	if _, err := jpeg.Decode(&jpgBuf); err != nil {
		t.Fatalf("jpeg.Decode() error = %v", err)
	}

	if err := rs.Encode(&bytes.Buffer{}, Format("gif"), 0); err == nil {
		t.Error("Encode(gif) should fail")
	}
}

func TestRasterSurfaceDataURL(t *testing.T) {
	rs := NewRasterSurface(nil)
	rs.Resize(8, 8)
	for _, tt := range []struct {
		format Format
		prefix string
	}{
		{FormatPNG, "data:image/png;base64,"},
		{"", "data:image/png;base64,"},
		{FormatJPEG, "data:image/jpeg;base64,"},
	} {
		url, err := rs.DataURL(tt.format, 0)
		if err != nil {
			t.Fatalf("DataURL(%q) error = %v", tt.format, err)
		}
		if !strings.HasPrefix(url, tt.prefix) {
			t.Fatalf("DataURL(%q) = %.40s..., want prefix %q", tt.format, url, tt.prefix)
		}
		if _, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, tt.prefix)); err != nil {
			t.Errorf("DataURL(%q) payload is not base64: %v", tt.format, err)
		}
	}
}

func TestRasterSurfaceBadFont(t *testing.T) {
	rs := NewRasterSurface(nil)
	rs.SetFont(FontSpec{Family: "sans-serif", Size: -1})
	if rs.Err() == nil {
		t.Error("Err() = nil after an invalid font size")
	}
	if rs.Font() != defaultFont {
		t.Errorf("Font() = %v, want the previous font kept", rs.Font())
	}
	rs.Resize(2, 2)
	if rs.Err() != nil {
		t.Errorf("Err() = %v after Resize, want nil", rs.Err())
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatPNG, false},
		{"PNG", FormatPNG, false},
		{"jpg", FormatJPEG, false},
		{"jpeg", FormatJPEG, false},
		{"webp", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
	if FormatJPEG.Extension() != ".jpg" || FormatPNG.MIMEType() != "image/png" {
		t.Error("format metadata mismatch")
	}
}
