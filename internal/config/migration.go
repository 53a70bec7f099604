package config

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/opd-ai/go-meme/internal/render"
)

// Migrator converts a Config, typically parsed from the plain or YAML
// format, into a Lua configuration file.
type Migrator struct {
	// includeComments adds the key help text to the output.
	includeComments bool
	// preserveDefaults includes settings even when they match defaults.
	preserveDefaults bool
}

// MigratorOption is a functional option for configuring a Migrator.
type MigratorOption func(*Migrator)

// WithComments enables adding explanatory comments to the Lua output.
func WithComments(include bool) MigratorOption {
	return func(m *Migrator) {
		m.includeComments = include
	}
}

// WithDefaults includes settings that match default values in the output.
func WithDefaults(preserve bool) MigratorOption {
	return func(m *Migrator) {
		m.preserveDefaults = preserve
	}
}

// NewMigrator creates a new Migrator with the given options.
func NewMigrator(opts ...MigratorOption) *Migrator {
	m := &Migrator{
		includeComments:  true,
		preserveDefaults: false,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MigrateToLua renders cfg as a meme.config table.
func (m *Migrator) MigrateToLua(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	var buf bytes.Buffer
	if m.includeComments {
		buf.WriteString("-- go-meme configuration\n")
		buf.WriteString("-- Any Lua is allowed; only meme.config is read.\n\n")
	}

	buf.WriteString("meme.config = {\n")
	defaults := DefaultConfig()
	for _, k := range keys {
		value := k.get(cfg)
		if !m.preserveDefaults && value == k.get(&defaults) {
			continue
		}
		if m.includeComments && k.Help != "" {
			fmt.Fprintf(&buf, "    -- %s\n", k.Help)
		}
		m.writeValue(&buf, k.Name, value)
	}
	buf.WriteString("}\n")

	return buf.Bytes(), nil
}

func (m *Migrator) writeValue(buf *bytes.Buffer, name string, value any) {
	switch v := value.(type) {
	case bool:
		fmt.Fprintf(buf, "    %s = %t,\n", name, v)
	case int:
		fmt.Fprintf(buf, "    %s = %d,\n", name, v)
	case float64:
		fmt.Fprintf(buf, "    %s = %s,\n", name, luaNumber(v))
	case string:
		fmt.Fprintf(buf, "    %s = %s,\n", name, luaString(v))
	default:
		fmt.Fprintf(buf, "    %s = %s,\n", name, luaString(fmt.Sprint(v)))
	}
}

// luaNumber formats f so that it reads back as the same number.
func luaNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

var luaEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
)

// luaString quotes s as a single-quoted Lua string literal.
func luaString(s string) string {
	return "'" + luaEscaper.Replace(s) + "'"
}

// reverseColorNames gives a deterministic name for common colors.
// When several names map to the same color, the entry here wins.
var reverseColorNames = map[color.RGBA]string{
	{R: 255, G: 255, B: 255, A: 255}: "white",
	{R: 0, G: 0, B: 0, A: 255}:       "black",
	{R: 255, G: 0, B: 0, A: 255}:     "red",
	{R: 0, G: 128, B: 0, A: 255}:     "green",
	{R: 0, G: 0, B: 255, A: 255}:     "blue",
	{R: 255, G: 255, B: 0, A: 255}:   "yellow",
	{R: 0, G: 255, B: 255, A: 255}:   "cyan",
	{R: 255, G: 0, B: 255, A: 255}:   "magenta",
	{R: 128, G: 128, B: 128, A: 255}: "grey",
	{R: 255, G: 165, B: 0, A: 255}:   "orange",
}

// ColorName returns a readable name for c: a color name when there is one,
// otherwise its hex form.
func ColorName(c color.RGBA) string {
	if name, ok := reverseColorNames[c]; ok {
		return name
	}
	return render.ToHex(c)
}

// MigrateFile reads a configuration file in any format and converts it to Lua.
func MigrateFile(path string, opts ...MigratorOption) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if format, ok := formatFromExt(path); ok {
		return migrateContent(content, format, opts...)
	}
	return MigrateContent(content, opts...)
}

// MigrateContent converts configuration content to Lua, detecting its format.
func MigrateContent(content []byte, opts ...MigratorOption) ([]byte, error) {
	return migrateContent(content, DetectFormat(content), opts...)
}

func migrateContent(content []byte, format FileFormat, opts ...MigratorOption) ([]byte, error) {
	var (
		cfg *Config
		err error
	)
	switch format {
	case FileFormatYAML:
		cfg, err = NewYAMLParser().Parse(content)
	case FileFormatPlain:
		cfg, err = NewPlainParser().Parse(content)
	case FileFormatTOML:
		cfg, err = NewTOMLParser().Parse(content)
	case FileFormatLua:
		var p *LuaConfigParser
		p, err = NewLuaConfigParser()
		if err == nil {
			defer p.Close()
			cfg, err = p.Parse(content)
		}
	default:
		err = fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s config: %w", format, err)
	}

	return NewMigrator(opts...).MigrateToLua(cfg)
}
