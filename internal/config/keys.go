package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/opd-ai/go-meme/internal/render"
)

// ErrUnknownKey is returned by Set for a key that is not part of the format.
var ErrUnknownKey = errors.New("unknown configuration key")

// Kind is the value type of a configuration key.
type Kind int

// Key kinds.
const (
	KindString Kind = iota
	KindFloat
	KindInt
	KindBool
)

// Key describes one configuration key.
type Key struct {
	Name string
	Kind Kind
	// Help is a one-line description, used for CLI flags and comments in
	// converted files.
	Help string
	set  func(*Config, any) error
	get  func(*Config) any
}

// keys lists every key in the order they are written out.
var keys = []Key{
	{
		Name: "image", Kind: KindString, Help: "image URL, data URI or file path",
		set: func(c *Config, v any) error { c.Image.Source = asString(v); return nil },
		get: func(c *Config) any { return c.Image.Source },
	},
	{
		Name: "text_top", Kind: KindString, Help: "top caption",
		set: func(c *Config, v any) error { c.Caption.Top = asString(v); return nil },
		get: func(c *Config) any { return c.Caption.Top },
	},
	{
		Name: "text_bottom", Kind: KindString, Help: "bottom caption",
		set: func(c *Config, v any) error { c.Caption.Bottom = asString(v); return nil },
		get: func(c *Config) any { return c.Caption.Bottom },
	},
	{
		Name: "text_color", Kind: KindString, Help: "caption color",
		set: func(c *Config, v any) error {
			col, err := render.ParseColor(asString(v))
			if err != nil {
				return err
			}
			c.Caption.Color = col
			return nil
		},
		get: func(c *Config) any { return ColorName(c.Caption.Color) },
	},
	{
		Name: "rotate", Kind: KindFloat, Help: "rotation in degrees",
		set: func(c *Config, v any) error { return setFloat(&c.Transform.Rotate, v) },
		get: func(c *Config) any { return c.Transform.Rotate },
	},
	{
		Name: "scale", Kind: KindFloat, Help: "scale factor",
		set: func(c *Config, v any) error { return setFloat(&c.Transform.Scale, v) },
		get: func(c *Config) any { return c.Transform.Scale },
	},
	{
		Name: "mirror", Kind: KindBool, Help: "mirror the image",
		set: func(c *Config, v any) error { return setBool(&c.Transform.Mirror, v) },
		get: func(c *Config) any { return c.Transform.Mirror },
	},
	{
		Name: "mirror_axis", Kind: KindString, Help: "axis mirroring flips: vertical or horizontal",
		set: func(c *Config, v any) error {
			axis, err := render.ParseMirrorAxis(asString(v))
			if err != nil {
				return err
			}
			c.Transform.MirrorAxis = axis
			return nil
		},
		get: func(c *Config) any { return c.Transform.MirrorAxis.String() },
	},
	{
		Name: "font", Kind: KindString, Help: "caption font family",
		set: func(c *Config, v any) error { c.Caption.Font = asString(v); return nil },
		get: func(c *Config) any { return c.Caption.Font },
	},
	{
		Name: "font_file", Kind: KindString, Help: "TTF/OTF file registered as the font family",
		set: func(c *Config, v any) error { c.Caption.FontFile = asString(v); return nil },
		get: func(c *Config) any { return c.Caption.FontFile },
	},
	{
		Name: "font_size", Kind: KindFloat, Help: "caption size in pixels at scale 1",
		set: func(c *Config, v any) error { return setFloat(&c.Caption.FontSize, v) },
		get: func(c *Config) any { return c.Caption.FontSize },
	},
	{
		Name: "top_offset", Kind: KindFloat, Help: "top caption baseline offset",
		set: func(c *Config, v any) error { return setFloat(&c.Caption.TopOffset, v) },
		get: func(c *Config) any { return c.Caption.TopOffset },
	},
	{
		Name: "bottom_offset", Kind: KindFloat, Help: "bottom caption baseline offset",
		set: func(c *Config, v any) error { return setFloat(&c.Caption.BottomOffset, v) },
		get: func(c *Config) any { return c.Caption.BottomOffset },
	},
	{
		Name: "max_width", Kind: KindFloat, Help: "canvas width cap",
		set: func(c *Config, v any) error { return setFloat(&c.Layout.MaxWidth, v) },
		get: func(c *Config) any { return c.Layout.MaxWidth },
	},
	{
		Name: "viewport_width", Kind: KindFloat, Help: "simulated window width",
		set: func(c *Config, v any) error { return setFloat(&c.Layout.ViewportWidth, v) },
		get: func(c *Config) any { return c.Layout.ViewportWidth },
	},
	{
		Name: "background", Kind: KindString, Help: "fill under the image",
		set: func(c *Config, v any) error {
			col, err := render.ParseColor(asString(v))
			if err != nil {
				return err
			}
			c.Layout.Background = col
			return nil
		},
		get: func(c *Config) any {
			if c.Layout.Background.A == 0 {
				return "transparent"
			}
			return ColorName(c.Layout.Background)
		},
	},
	{
		Name: "output", Kind: KindString, Help: "export path",
		set: func(c *Config, v any) error { c.Output.Path = asString(v); return nil },
		get: func(c *Config) any { return c.Output.Path },
	},
	{
		Name: "format", Kind: KindString, Help: "export format: png or jpeg",
		set: func(c *Config, v any) error {
			f, err := render.ParseFormat(asString(v))
			if err != nil {
				return err
			}
			c.Output.Format = f
			return nil
		},
		get: func(c *Config) any { return string(c.Output.Format) },
	},
	{
		Name: "quality", Kind: KindInt, Help: "JPEG quality, 1 to 100",
		set: func(c *Config, v any) error { return setInt(&c.Output.Quality, v) },
		get: func(c *Config) any { return c.Output.Quality },
	},
	{
		Name: "timeout", Kind: KindFloat, Help: "image load timeout in seconds",
		set: func(c *Config, v any) error {
			var secs float64
			if err := setFloat(&secs, v); err != nil {
				return err
			}
			c.Image.Timeout = time.Duration(secs * float64(time.Second))
			return nil
		},
		get: func(c *Config) any { return c.Image.Timeout.Seconds() },
	},
}

var keyIndex = func() map[string]int {
	m := make(map[string]int, len(keys))
	for i, k := range keys {
		m[k.Name] = i
	}
	return m
}()

// aliases accepts the camelCase names used by the web form.
var aliases = map[string]string{
	"imageurl":   "image",
	"image_url":  "image",
	"url":        "image",
	"texttop":    "text_top",
	"textbottom": "text_bottom",
	"textcolor":  "text_color",
	"color":      "text_color",
	"rotation":   "rotate",
}

// Keys returns the key descriptions in canonical order.
func Keys() []Key {
	out := make([]Key, len(keys))
	copy(out, keys)
	return out
}

// LookupKey returns the description of a key or alias.
func LookupKey(name string) (Key, bool) {
	name = canonicalKey(name)
	i, ok := keyIndex[name]
	if !ok {
		return Key{}, false
	}
	return keys[i], true
}

func canonicalKey(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "-", "_")
	if a, ok := aliases[name]; ok {
		return a
	}
	return name
}

// Set assigns a value to a key. Accepted values are strings, which are
// parsed according to the key kind, and Go numbers and booleans.
func (c *Config) Set(key string, value any) error {
	k, ok := LookupKey(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err := k.set(c, value); err != nil {
		return fmt.Errorf("invalid %s: %w", k.Name, err)
	}
	return nil
}

// Get returns the value of a key in its canonical form: strings for
// string keys and colors, float64, int or bool otherwise.
func (c *Config) Get(key string) (any, bool) {
	k, ok := LookupKey(key)
	if !ok {
		return nil, false
	}
	return k.get(c), true
}

// FormatValue formats a key value for the plain format.
func FormatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		return parseFloat(x)
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func setFloat(dst *float64, v any) error {
	f, err := toFloat(v)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func setInt(dst *int, v any) error {
	f, err := toFloat(v)
	if err != nil {
		return err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("expected an integer, got %g", f)
	}
	*dst = int(f)
	return nil
}

func setBool(dst *bool, v any) error {
	switch x := v.(type) {
	case bool:
		*dst = x
	case string:
		// A bare key in the plain format switches the flag on.
		if strings.TrimSpace(x) == "" {
			*dst = true
			return nil
		}
		*dst = parseBool(x)
	case int:
		*dst = x != 0
	case int64:
		*dst = x != 0
	case float64:
		*dst = x != 0
	default:
		return fmt.Errorf("expected a boolean, got %T", v)
	}
	return nil
}

// parseBool parses a boolean value from common string representations.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1", "on":
		return true
	default:
		return false
	}
}

// parseFloat parses a float64 from a string.
func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
