package meme

import (
	"net/http"
	"time"

	"github.com/opd-ai/go-meme/internal/render"
)

// Options configures a Generator.
type Options struct {
	// Logger receives debug and error messages. If nil, nothing is logged.
	Logger Logger

	// Metrics collects counters and latencies. If nil, DefaultMetrics() is used.
	Metrics *Metrics

	// ErrorTracker aggregates errors. If nil, a private tracker is created.
	ErrorTracker *ErrorTracker

	// HTTPClient fetches remote images. If nil, a client with LoadTimeout is used.
	HTTPClient *http.Client

	// LoadTimeout overrides the config file's timeout for image loads.
	// Zero means use the configuration value.
	LoadTimeout time.Duration

	// MaxImageBytes bounds the size of a fetched image. Zero means 32 MiB.
	MaxImageBytes int64

	// CacheSize is the number of decoded images kept. Zero means 16;
	// negative disables the cache.
	CacheSize int

	// CacheTTL is how long a decoded image stays cached. Zero means 10 minutes.
	CacheTTL time.Duration

	// Breaker configures the circuit breaker around remote fetches.
	Breaker BreakerConfig

	// Fonts supplies caption fonts. If nil, a manager with the Go fonts is created.
	Fonts *render.FontManager

	// WatchDebounce sets the debounce interval for config file events.
	// Zero means use DefaultWatchDebounce.
	WatchDebounce time.Duration

	// SkipValidation disables config validation on load and SetConfig.
	SkipValidation bool
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{}
}

// Logger interface for custom logging.
// It follows the slog-style signature for compatibility with Go's structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
