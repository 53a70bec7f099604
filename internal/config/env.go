package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches environment variable references in configuration values.
// Supports formats:
//   - ${VAR_NAME} - standard shell-like format
//   - ${VAR_NAME:-default} - with default value if unset or empty
//   - $VAR_NAME - simple format (word characters only)
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// ExpandEnv expands environment variable references in a string.
// Unset variables without defaults are replaced with the empty string.
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if strings.HasPrefix(match, "${") && strings.HasSuffix(match, "}") {
			inner := match[2 : len(match)-1]

			if idx := strings.Index(inner, ":-"); idx >= 0 {
				if val := os.Getenv(inner[:idx]); val != "" {
					return val
				}
				return inner[idx+2:]
			}
			return os.Getenv(inner)
		}

		if strings.HasPrefix(match, "$") {
			return os.Getenv(match[1:])
		}

		return match
	})
}

// ExpandEnvConfig expands environment variables in the string values of
// cfg: the image source, both captions, the font, the font file and the
// output path.
func ExpandEnvConfig(cfg *Config) {
	ExpandEnvConfigWithOptions(cfg)
}

// EnvConfigOption is a functional option for environment variable expansion.
type EnvConfigOption func(*envConfigOptions)

type envConfigOptions struct {
	expandSource   bool
	expandCaptions bool
	expandPaths    bool
}

func defaultEnvConfigOptions() *envConfigOptions {
	return &envConfigOptions{
		expandSource:   true,
		expandCaptions: true,
		expandPaths:    true,
	}
}

// WithExpandSource controls whether the image source is expanded.
func WithExpandSource(expand bool) EnvConfigOption {
	return func(o *envConfigOptions) {
		o.expandSource = expand
	}
}

// WithExpandCaptions controls whether caption text is expanded. Captions
// containing a literal "$" need this off.
func WithExpandCaptions(expand bool) EnvConfigOption {
	return func(o *envConfigOptions) {
		o.expandCaptions = expand
	}
}

// WithExpandPaths controls whether the font, font file and output path are
// expanded.
func WithExpandPaths(expand bool) EnvConfigOption {
	return func(o *envConfigOptions) {
		o.expandPaths = expand
	}
}

// ExpandEnvConfigWithOptions expands environment variables with specific options.
func ExpandEnvConfigWithOptions(cfg *Config, opts ...EnvConfigOption) {
	if cfg == nil {
		return
	}

	options := defaultEnvConfigOptions()
	for _, opt := range opts {
		opt(options)
	}

	if options.expandSource {
		cfg.Image.Source = ExpandEnv(cfg.Image.Source)
	}
	if options.expandCaptions {
		cfg.Caption.Top = ExpandEnv(cfg.Caption.Top)
		cfg.Caption.Bottom = ExpandEnv(cfg.Caption.Bottom)
	}
	if options.expandPaths {
		cfg.Caption.Font = ExpandEnv(cfg.Caption.Font)
		cfg.Caption.FontFile = ExpandEnv(cfg.Caption.FontFile)
		cfg.Output.Path = ExpandEnv(cfg.Output.Path)
	}
}
