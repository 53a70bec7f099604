package config

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// FileFormat names a configuration syntax.
type FileFormat string

// Supported configuration syntaxes.
const (
	FileFormatLua   FileFormat = "lua"
	FileFormatYAML  FileFormat = "yaml"
	FileFormatPlain FileFormat = "plain"
	FileFormatTOML  FileFormat = "toml"
)

// ParseFileFormat parses a format name. "legacy" and "yml" are accepted.
func ParseFileFormat(s string) (FileFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lua":
		return FileFormatLua, nil
	case "yaml", "yml":
		return FileFormatYAML, nil
	case "plain", "legacy", "text", "txt":
		return FileFormatPlain, nil
	case "toml":
		return FileFormatTOML, nil
	default:
		return "", fmt.Errorf("unknown format: %s (expected 'lua', 'yaml', 'toml' or 'plain')", s)
	}
}

// Parser provides a unified interface for parsing configuration files.
// It detects whether content is Lua, YAML or the plain format.
type Parser struct {
	plainParser *PlainParser
	yamlParser  *YAMLParser
	tomlParser  *TOMLParser
	luaParser   *LuaConfigParser
}

// NewParser creates a new Parser that can handle every format.
func NewParser() (*Parser, error) {
	luaParser, err := NewLuaConfigParser()
	if err != nil {
		return nil, fmt.Errorf("failed to create Lua parser: %w", err)
	}

	return &Parser{
		plainParser: NewPlainParser(),
		yamlParser:  NewYAMLParser(),
		tomlParser:  NewTOMLParser(),
		luaParser:   luaParser,
	}, nil
}

// SetStrict makes YAML and TOML parsing reject unknown keys.
func (p *Parser) SetStrict(strict bool) {
	p.yamlParser.Strict = strict
	p.tomlParser.Strict = strict
}

// ParseFile reads and parses a configuration file. The extension decides the
// format when it is .lua, .yaml, .yml or .toml; otherwise the content does.
// TOML is never detected from content, since it reads like the plain format.
func (p *Parser) ParseFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if format, ok := formatFromExt(path); ok {
		return p.ParseAs(content, format)
	}
	return p.Parse(content)
}

// Parse parses configuration content, detecting the format.
func (p *Parser) Parse(content []byte) (*Config, error) {
	return p.ParseAs(content, DetectFormat(content))
}

// ParseAs parses content in the given format and expands environment
// variables in the string values.
func (p *Parser) ParseAs(content []byte, format FileFormat) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch format {
	case FileFormatLua:
		cfg, err = p.luaParser.Parse(content)
	case FileFormatYAML:
		cfg, err = p.yamlParser.Parse(content)
	case FileFormatPlain:
		cfg, err = p.plainParser.Parse(content)
	case FileFormatTOML:
		cfg, err = p.tomlParser.Parse(content)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return nil, err
	}
	ExpandEnvConfig(cfg)
	return cfg, nil
}

// luaConfigPattern matches "meme.config" followed by "=" at the start of a
// line, so a comment mentioning it does not count.
var luaConfigPattern = regexp.MustCompile(`(?m)^\s*meme\.config\s*=`)

// yamlKeyPattern matches a first line of the form "key: value".
var yamlKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*:(\s|$)`)

// DetectFormat guesses the format of content. Lua wins when meme.config is
// assigned; YAML when the first significant line is "---" or "key: value";
// the plain format otherwise.
func DetectFormat(content []byte) FileFormat {
	if luaConfigPattern.Match(content) {
		return FileFormatLua
	}
	for _, line := range bytes.Split(content, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if bytes.Equal(line, []byte("---")) || yamlKeyPattern.Match(line) {
			return FileFormatYAML
		}
		break
	}
	return FileFormatPlain
}

func formatFromExt(path string) (FileFormat, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		return FileFormatLua, true
	case ".yaml", ".yml":
		return FileFormatYAML, true
	case ".toml":
		return FileFormatTOML, true
	default:
		return "", false
	}
}

// ParseFromFS reads and parses a configuration file from a filesystem.
func (p *Parser) ParseFromFS(fsys fs.FS, path string) (*Config, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS %s: %w", path, err)
	}

	if format, ok := formatFromExt(path); ok {
		return p.ParseAs(content, format)
	}
	return p.Parse(content)
}

// ParseReader parses configuration from an io.Reader. format is "lua",
// "yaml", "toml" or "plain"; an empty format detects it from the content.
func (p *Parser) ParseReader(r io.Reader, format string) (*Config, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if format == "" {
		return p.Parse(content)
	}
	f, err := ParseFileFormat(format)
	if err != nil {
		return nil, err
	}
	return p.ParseAs(content, f)
}

// Close releases resources associated with the parser.
func (p *Parser) Close() error {
	if p.luaParser != nil {
		return p.luaParser.Close()
	}
	return nil
}

// Marshal renders cfg in the given format.
func Marshal(cfg *Config, format FileFormat, opts ...MigratorOption) ([]byte, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	switch format {
	case FileFormatLua:
		return NewMigrator(opts...).MigrateToLua(cfg)
	case FileFormatYAML:
		return MarshalYAML(cfg)
	case FileFormatPlain:
		return MarshalPlain(cfg), nil
	case FileFormatTOML:
		return MarshalTOML(cfg)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}
