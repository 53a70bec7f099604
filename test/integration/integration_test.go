//go:build integration

// Package integration provides end-to-end tests for go-meme: configuration
// files in every format, parsed, converted and rendered through the public
// API.
package integration

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/opd-ai/go-meme/internal/config"
	"github.com/opd-ai/go-meme/internal/render"
	"github.com/opd-ai/go-meme/pkg/meme"
)

// getTestConfigsDir returns the path to the test configs directory.
// It calls t.Fatal if runtime.Caller fails.
func getTestConfigsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed to get current file path")
	}
	return filepath.Join(filepath.Dir(file), "..", "configs")
}

// localImage writes a PNG and returns its path, so tests never fetch.
func localImage(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 0x40, A: 0xff})
		}
	}
	path := filepath.Join(t.TempDir(), "src.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestFormatsAgree checks that the same meme written in each syntax parses
// to the same configuration.
func TestFormatsAgree(t *testing.T) {
	parser, err := config.NewParser()
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	defer parser.Close()

	dir := getTestConfigsDir(t)
	want, err := parser.ParseFile(filepath.Join(dir, "basic.lua"))
	if err != nil {
		t.Fatalf("ParseFile(basic.lua) failed: %v", err)
	}
	for _, name := range []string{"basic.yaml", "basic.toml", "basic.txt"} {
		t.Run(name, func(t *testing.T) {
			got, err := parser.ParseFile(filepath.Join(dir, name))
			if err != nil {
				t.Fatalf("ParseFile failed: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("%s differs from basic.lua (-want +got):\n%s", name, diff)
			}
		})
	}
}

// TestConvertRoundTrip converts every sample to each format and back.
func TestConvertRoundTrip(t *testing.T) {
	parser, err := config.NewParser()
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	defer parser.Close()

	files, err := filepath.Glob(filepath.Join(getTestConfigsDir(t), "*.*"))
	if err != nil || len(files) == 0 {
		t.Fatalf("no sample configs: %v", err)
	}
	for _, path := range files {
		orig, err := parser.ParseFile(path)
		if err != nil {
			t.Fatalf("ParseFile(%s) failed: %v", path, err)
		}
		for _, format := range []config.FileFormat{config.FileFormatLua, config.FileFormatYAML, config.FileFormatTOML, config.FileFormatPlain} {
			t.Run(filepath.Base(path)+"/"+string(format), func(t *testing.T) {
				data, err := config.Marshal(orig, format)
				if err != nil {
					t.Fatalf("Marshal failed: %v", err)
				}
				back, err := parser.ParseAs(data, format)
				if err != nil {
					t.Fatalf("ParseAs failed: %v\n%s", err, data)
				}
				if diff := cmp.Diff(orig, back); diff != "" {
					t.Errorf("round trip changed the config (-want +got):\n%s", diff)
				}
			})
		}
	}
}

// TestRenderSamples renders each sample with a local image in place of the
// remote one.
func TestRenderSamples(t *testing.T) {
	src := localImage(t, 300, 200)
	tests := []struct {
		file          string
		width, height int
		format        render.Format
	}{
		{"basic.lua", 480, 320, render.FormatPNG},
		{"basic.yaml", 480, 320, render.FormatPNG},
		{"basic.txt", 480, 320, render.FormatPNG},
		{"basic.toml", 480, 320, render.FormatPNG},
		// 80% of a 450px viewport.
		{"advanced.lua", 360, 240, render.FormatJPEG},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			ctx := context.Background()
			g, err := meme.NewFromFile(filepath.Join(getTestConfigsDir(t), tt.file), &meme.Options{Metrics: meme.NewMetrics()})
			if err != nil {
				t.Fatalf("NewFromFile failed: %v", err)
			}
			defer g.Close()

			cfg := g.Config()
			if err := cfg.Set("image", src); err != nil {
				t.Fatal(err)
			}
			if err := g.SetConfig(ctx, cfg); err != nil {
				t.Fatalf("SetConfig failed: %v", err)
			}

			dst, err := g.ExportFile(ctx, filepath.Join(t.TempDir(), "out"))
			if err != nil {
				t.Fatalf("ExportFile failed: %v", err)
			}
			f, err := os.Open(dst)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()

			var img image.Image
			if tt.format == render.FormatJPEG {
				img, err = jpeg.Decode(f)
			} else {
				img, err = png.Decode(f)
			}
			if err != nil {
				t.Fatalf("decode %s: %v", tt.format, err)
			}
			if b := img.Bounds(); b.Dx() != tt.width || b.Dy() != tt.height {
				t.Errorf("export size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.width, tt.height)
			}
			if h := g.Health(); !h.IsHealthy() {
				t.Errorf("health after export = %s (%s)", h.Status, h.Message)
			}
		})
	}
}
