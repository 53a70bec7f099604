package config

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// YAMLParser parses YAML configuration files: a single mapping of keys to
// scalar values.
//
//	image: https://picsum.photos/536/354
//	text_top: one does not simply
//	scale: 1.5
type YAMLParser struct {
	// Strict rejects unknown keys instead of ignoring them.
	Strict bool
}

// NewYAMLParser creates a new YAMLParser instance.
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

// Parse parses YAML content into a Config.
func (p *YAMLParser) Parse(content []byte) (*Config, error) {
	cfg := DefaultConfig()

	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	// Deterministic order so the first error reported is stable.
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
		case nil:
			// An empty value, or an unquoted "#rrggbb" read as a comment.
			continue
		case map[string]any, []any:
			return nil, fmt.Errorf("invalid %s: expected a scalar value", name)
		}
		if err := cfg.Set(name, value); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// MarshalYAML renders cfg as a flat YAML mapping in canonical key order.
func MarshalYAML(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		var value yaml.Node
		if err := value.Encode(k.get(cfg)); err != nil {
			return nil, fmt.Errorf("encode %s: %w", k.Name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k.Name},
			&value,
		)
	}
	return yaml.Marshal(node)
}
