package config

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// PlainParser parses the plain configuration format: one "key value" pair
// per line, with # starting a comment line.
//
//	image https://picsum.photos/536/354
//	text_top one does not simply
//	mirror
//
// A boolean key on its own switches the flag on. Unknown keys are ignored so
// files written for newer versions still load.
type PlainParser struct{}

// NewPlainParser creates a new PlainParser instance.
func NewPlainParser() *PlainParser {
	return &PlainParser{}
}

// Parse parses plain configuration content into a Config.
func (p *PlainParser) Parse(content []byte) (*Config, error) {
	cfg := DefaultConfig()
	scanner := bufio.NewScanner(bytes.NewReader(content))
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value := splitDirective(line)
		if _, ok := LookupKey(key); !ok {
			continue
		}
		if err := cfg.Set(key, value); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}
	return &cfg, nil
}

// splitDirective splits a line into its key and the rest of the line.
// An optional "=" or ":" after the key is dropped.
func splitDirective(line string) (key, value string) {
	i := strings.IndexAny(line, " \t=:")
	if i < 0 {
		return line, ""
	}
	key = line[:i]
	value = strings.TrimSpace(line[i:])
	if value != "" && (value[0] == '=' || value[0] == ':') {
		value = strings.TrimSpace(value[1:])
	}
	return key, value
}

// MarshalPlain renders cfg in the plain format, one key per line.
func MarshalPlain(cfg *Config) []byte {
	var buf bytes.Buffer
	for _, k := range keys {
		v := FormatValue(k.get(cfg))
		if k.Kind == KindString && v == "" {
			continue
		}
		fmt.Fprintf(&buf, "%s %s\n", k.Name, v)
	}
	return buf.Bytes()
}
