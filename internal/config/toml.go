package config

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// TOMLParser parses TOML configuration files: top-level keys with scalar
// values.
//
//	image = "https://picsum.photos/536/354"
//	text_top = "one does not simply"
//	scale = 1.5
type TOMLParser struct {
	// Strict rejects unknown keys instead of ignoring them.
	Strict bool
}

// NewTOMLParser creates a new TOMLParser instance.
func NewTOMLParser() *TOMLParser {
	return &TOMLParser{}
}

// Parse parses TOML content into a Config.
func (p *TOMLParser) Parse(content []byte) (*Config, error) {
	cfg := DefaultConfig()

	var raw map[string]any
	if err := toml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse TOML configuration: %w", err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := raw[name]
		if _, ok := LookupKey(name); !ok {
			if p.Strict {
				return nil, fmt.Errorf("%w: %s", ErrUnknownKey, name)
			}
			continue
		}
		switch value.(type) {
		case map[string]any, []any, time.Time, toml.LocalDate, toml.LocalTime, toml.LocalDateTime:
			return nil, fmt.Errorf("invalid %s: expected a string, number or boolean", name)
		}
		if err := cfg.Set(name, value); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// MarshalTOML renders cfg as TOML in canonical key order.
func MarshalTOML(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	var buf bytes.Buffer
	for _, k := range keys {
		line, err := toml.Marshal(map[string]any{k.Name: k.get(cfg)})
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k.Name, err)
		}
		buf.Write(line)
	}
	return buf.Bytes(), nil
}
