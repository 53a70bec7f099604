package config

import (
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/opd-ai/go-meme/internal/render"
)

func TestSet(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		check func(t *testing.T, c *Config)
	}{
		{"image", "image", "https://picsum.photos/536/354", func(t *testing.T, c *Config) {
			if c.Image.Source != "https://picsum.photos/536/354" {
				t.Errorf("Source = %q", c.Image.Source)
			}
		}},
		{"alias imageUrl", "imageUrl", "example.com/a.png", func(t *testing.T, c *Config) {
			if c.Image.Source != "example.com/a.png" {
				t.Errorf("Source = %q", c.Image.Source)
			}
		}},
		{"dashed key", "text-top", "hello", func(t *testing.T, c *Config) {
			if c.Caption.Top != "hello" {
				t.Errorf("Top = %q", c.Caption.Top)
			}
		}},
		{"color string", "text_color", "#ff0000", func(t *testing.T, c *Config) {
			if c.Caption.Color != (color.RGBA{R: 255, A: 255}) {
				t.Errorf("Color = %v", c.Caption.Color)
			}
		}},
		{"rotate from string", "rotate", " -45 ", func(t *testing.T, c *Config) {
			if c.Transform.Rotate != -45 {
				t.Errorf("Rotate = %v", c.Transform.Rotate)
			}
		}},
		{"scale from int", "scale", 2, func(t *testing.T, c *Config) {
			if c.Transform.Scale != 2 {
				t.Errorf("Scale = %v", c.Transform.Scale)
			}
		}},
		{"mirror bare key", "mirror", "", func(t *testing.T, c *Config) {
			if !c.Transform.Mirror {
				t.Error("Mirror = false")
			}
		}},
		{"mirror no", "mirror", "no", func(t *testing.T, c *Config) {
			if c.Transform.Mirror {
				t.Error("Mirror = true")
			}
		}},
		{"mirror axis", "mirror_axis", "horizontal", func(t *testing.T, c *Config) {
			if c.Transform.MirrorAxis != render.MirrorHorizontal {
				t.Errorf("MirrorAxis = %v", c.Transform.MirrorAxis)
			}
		}},
		{"quality truncates", "quality", 75.9, func(t *testing.T, c *Config) {
			if c.Output.Quality != 75 {
				t.Errorf("Quality = %d", c.Output.Quality)
			}
		}},
		{"format jpg", "format", "jpg", func(t *testing.T, c *Config) {
			if c.Output.Format != render.FormatJPEG {
				t.Errorf("Format = %q", c.Output.Format)
			}
		}},
		{"timeout seconds", "timeout", 2.5, func(t *testing.T, c *Config) {
			if c.Image.Timeout != 2500*time.Millisecond {
				t.Errorf("Timeout = %v", c.Image.Timeout)
			}
		}},
		{"background", "background", "white", func(t *testing.T, c *Config) {
			if c.Layout.Background != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
				t.Errorf("Background = %v", c.Layout.Background)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q, %v) error = %v", tt.key, tt.value, err)
			}
			tt.check(t, &cfg)
		})
	}
}

func TestSetErrors(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{"text_color", "not-a-color"},
		{"scale", "big"},
		{"rotate", []int{1}},
		{"mirror", 1.5i},
		{"mirror_axis", "diagonal"},
		{"format", "gif"},
		{"quality", "high"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := cfg.Set(tt.key, tt.value); err == nil {
				t.Errorf("Set(%q, %v) expected error", tt.key, tt.value)
			}
		})
	}

	cfg := DefaultConfig()
	if err := cfg.Set("own_window", "yes"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key error = %v, want ErrUnknownKey", err)
	}
}

func TestGetDefaults(t *testing.T) {
	cfg := DefaultConfig()
	got := map[string]any{}
	for _, k := range Keys() {
		v, ok := cfg.Get(k.Name)
		if !ok {
			t.Fatalf("Get(%q) not found", k.Name)
		}
		got[k.Name] = v
	}

	want := map[string]any{
		"image":          "",
		"text_top":       "",
		"text_bottom":    "",
		"text_color":     "black",
		"rotate":         0.0,
		"scale":          1.0,
		"mirror":         false,
		"mirror_axis":    "vertical",
		"font":           "sans-serif",
		"font_file":      "",
		"font_size":      36.0,
		"top_offset":     40.0,
		"bottom_offset":  10.0,
		"max_width":      480.0,
		"viewport_width": 1024.0,
		"background":     "transparent",
		"output":         "meme.png",
		"format":         "png",
		"quality":        90,
		"timeout":        10.0,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}

	if _, ok := cfg.Get("nope"); ok {
		t.Error("Get(nope) reported found")
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	src := DefaultConfig()
	src.Image.Source = "https://example.com/cat.jpg"
	src.Caption.Top = "top"
	src.Caption.Color = color.RGBA{R: 18, G: 52, B: 86, A: 255}
	src.Transform.Rotate = 12.5
	src.Transform.Mirror = true
	src.Output.Quality = 40

	dst := DefaultConfig()
	for _, k := range Keys() {
		v, _ := src.Get(k.Name)
		if err := dst.Set(k.Name, v); err != nil {
			t.Fatalf("Set(%q) error = %v", k.Name, err)
		}
	}
	if diff := cmp.Diff(src, dst); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{1.5, "1.5"},
		{1.0, "1"},
		{true, "true"},
		{"x", "x"},
		{7, "7"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
