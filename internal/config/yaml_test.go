package config

import (
	"errors"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/opd-ai/go-meme/internal/render"
)

func TestYAMLParserParse(t *testing.T) {
	content := `
image: https://picsum.photos/536/354
text_top: one does not simply
textBottom: walk into mordor
text_color: "#00ff00"
rotate: 90
scale: 0.5
mirror: yes
mirror_axis: horizontal
format: jpg
quality: 80
unknown_key: 1
`
	cfg, err := NewYAMLParser().Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := DefaultConfig()
	want.Image.Source = "https://picsum.photos/536/354"
	want.Caption.Top = "one does not simply"
	want.Caption.Bottom = "walk into mordor"
	want.Caption.Color = color.RGBA{G: 255, A: 255}
	want.Transform.Rotate = 90
	want.Transform.Scale = 0.5
	want.Transform.Mirror = true
	want.Transform.MirrorAxis = render.MirrorHorizontal
	want.Output.Format = render.FormatJPEG
	want.Output.Quality = 80

	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLParserUnquotedHashColor(t *testing.T) {
	// "#fff" unquoted is a YAML comment, leaving the key empty.
	cfg, err := NewYAMLParser().Parse([]byte("text_color: #fff\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Caption.Color != DefaultTextColor {
		t.Errorf("Color = %v, want default", cfg.Caption.Color)
	}
}

func TestYAMLParserErrors(t *testing.T) {
	tests := []struct {
		name    string
		parser  *YAMLParser
		content string
		wantIs  error
	}{
		{"syntax", NewYAMLParser(), "image: [unclosed", nil},
		{"not a mapping", NewYAMLParser(), "- a\n- b\n", nil},
		{"nested value", NewYAMLParser(), "image:\n  url: x\n", nil},
		{"bad value", NewYAMLParser(), "scale: huge\n", nil},
		{"strict unknown", &YAMLParser{Strict: true}, "own_window: true\n", ErrUnknownKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parser.Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error = %v, want %v", err, tt.wantIs)
			}
		})
	}
}

func TestMarshalYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Image.Source = "data:image/png;base64,AAAA"
	cfg.Caption.Top = "#1 meme: yes"
	cfg.Caption.Color = color.RGBA{R: 1, G: 2, B: 3, A: 128}
	cfg.Transform.Rotate = -33.3
	cfg.Layout.Background = color.RGBA{R: 255, G: 255, B: 255, A: 255}

	out, err := MarshalYAML(&cfg)
	if err != nil {
		t.Fatalf("MarshalYAML failed: %v", err)
	}
	got, err := (&YAMLParser{Strict: true}).Parse(out)
	if err != nil {
		t.Fatalf("Parse failed: %v\n%s", err, out)
	}
	if diff := cmp.Diff(cfg, *got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := MarshalYAML(nil); err == nil {
		t.Error("MarshalYAML(nil) expected error")
	}
}
