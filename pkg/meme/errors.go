package meme

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-meme/internal/config"
	"github.com/opd-ai/go-meme/internal/render"
	"github.com/opd-ai/go-meme/internal/source"
)

// ErrNoSource is returned when an image is needed but the configuration
// names none.
var ErrNoSource = errors.New("no image source configured")

// ErrNoConfigLoader is returned by ReloadConfig and Watch for a generator
// that was not created from a file or reader.
var ErrNoConfigLoader = errors.New("no config loader available")

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// errDraw wraps failures a surface reports after drawing.
var errDraw = errors.New("draw failed")

// ErrClosed is returned by operations on a closed Generator.
var ErrClosed = errors.New("generator is closed")

// ErrorCategory represents the type of error for categorization purposes.
type ErrorCategory int

const (
	// ErrorCategoryUnknown is the default category for uncategorized errors.
	ErrorCategoryUnknown ErrorCategory = iota
	// ErrorCategoryConfig is for configuration parsing and validation errors.
	ErrorCategoryConfig
	// ErrorCategoryIO is for file errors: reading images and config, writing exports.
	ErrorCategoryIO
	// ErrorCategoryNetwork is for failed or refused image fetches.
	ErrorCategoryNetwork
	// ErrorCategoryRender is for compositing and encoding errors.
	ErrorCategoryRender
	// ErrorCategoryDecode is for content that is not a usable image.
	ErrorCategoryDecode

	numCategories
)

// String returns a human-readable name for the error category.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryConfig:
		return "config"
	case ErrorCategoryIO:
		return "io"
	case ErrorCategoryNetwork:
		return "network"
	case ErrorCategoryRender:
		return "render"
	case ErrorCategoryDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Categorize classifies err by the sentinel errors of the packages it
// passed through.
func Categorize(err error) ErrorCategory {
	var (
		ce      *CategorizedError
		pathErr *fs.PathError
		netErr  net.Error
	)
	switch {
	case err == nil:
		return ErrorCategoryUnknown
	case errors.As(err, &ce):
		return ce.Category
	case errors.Is(err, source.ErrFetch), errors.Is(err, ErrCircuitOpen),
		errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		return ErrorCategoryNetwork
	case errors.Is(err, source.ErrUnsupportedFormat), errors.Is(err, source.ErrEmptyContent),
		errors.Is(err, source.ErrTooLarge):
		return ErrorCategoryDecode
	case errors.Is(err, source.ErrURLTooShort), errors.Is(err, source.ErrInvalidURL),
		errors.Is(err, source.ErrUnsupportedScheme), errors.Is(err, config.ErrUnknownKey),
		errors.Is(err, ErrNoSource), errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrNoConfigLoader), errors.Is(err, render.ErrInvalidScale),
		errors.Is(err, render.ErrInvalidRotation):
		return ErrorCategoryConfig
	case errors.Is(err, render.ErrNoImage), errors.Is(err, render.ErrEmptyImage),
		errors.Is(err, errDraw):
		return ErrorCategoryRender
	case errors.As(err, &pathErr):
		return ErrorCategoryIO
	default:
		return ErrorCategoryUnknown
	}
}

// CategorizedError wraps an error with its category and the operation that
// produced it.
type CategorizedError struct {
	// Err is the underlying error.
	Err error
	// Category classifies the type of error.
	Category ErrorCategory
	// Op names the generator operation, such as "load" or "export".
	Op string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s: (no error)", e.Category, e.Op)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Op, e.Err.Error())
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorizedError wraps err for op, deriving the category from err.
// It returns nil for a nil err and err itself when already categorized.
func NewCategorizedError(op string, err error) *CategorizedError {
	if err == nil {
		return nil
	}
	var ce *CategorizedError
	if errors.As(err, &ce) {
		return ce
	}
	return &CategorizedError{
		Err:       err,
		Category:  Categorize(err),
		Op:        op,
		Timestamp: time.Now(),
	}
}

// ErrorTracker keeps a bounded window of recent errors and lifetime
// counts per category. Safe for concurrent use.
type ErrorTracker struct {
	mu        sync.RWMutex
	errors    []CategorizedError
	maxErrors int
	retention time.Duration
	now       func() time.Time

	categoryCounters [numCategories]atomic.Int64
}

// Tracker limits.
const (
	DefaultMaxTrackedErrors = 100
	DefaultErrorRetention   = time.Hour
)

// NewErrorTracker creates a tracker that keeps up to maxErrors errors for
// at most retention. Non-positive values take the defaults.
func NewErrorTracker(maxErrors int, retention time.Duration) *ErrorTracker {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxTrackedErrors
	}
	if retention <= 0 {
		retention = DefaultErrorRetention
	}
	return &ErrorTracker{
		errors:    make([]CategorizedError, 0, maxErrors),
		maxErrors: maxErrors,
		retention: retention,
		now:       time.Now,
	}
}

// Record adds an error to the tracker.
func (t *ErrorTracker) Record(err *CategorizedError) {
	if err == nil {
		return
	}
	if c := err.Category; c >= 0 && c < numCategories {
		t.categoryCounters[c].Add(1)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, *err)
	if len(t.errors) > t.maxErrors {
		t.errors = t.errors[len(t.errors)-t.maxErrors:]
	}
	t.pruneExpiredLocked()
}

func (t *ErrorTracker) pruneExpiredLocked() {
	cutoff := t.now().Add(-t.retention)
	start := 0
	for start < len(t.errors) && !t.errors[start].Timestamp.After(cutoff) {
		start++
	}
	if start > 0 {
		t.errors = t.errors[start:]
	}
}

// ErrorRate returns errors per second over the given window.
func (t *ErrorTracker) ErrorRate(window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	cutoff := t.now().Add(-window)
	count := 0
	for _, err := range t.errors {
		if err.Timestamp.After(cutoff) {
			count++
		}
	}
	return float64(count) / window.Seconds()
}

// RecentErrors returns the most recent errors, up to limit, oldest first.
func (t *ErrorTracker) RecentErrors(limit int) []CategorizedError {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if limit <= 0 || len(t.errors) == 0 {
		return nil
	}
	start := len(t.errors) - limit
	if start < 0 {
		start = 0
	}
	out := make([]CategorizedError, len(t.errors)-start)
	copy(out, t.errors[start:])
	return out
}

// ErrorStats summarizes tracked errors.
type ErrorStats struct {
	// Retained is the number of errors currently retained.
	Retained int
	// ByCategory counts retained errors per category.
	ByCategory map[ErrorCategory]int
	// Total holds lifetime counts per category.
	Total map[ErrorCategory]int64
}

// Stats returns a snapshot of error statistics.
func (t *ErrorTracker) Stats() ErrorStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := ErrorStats{
		Retained:   len(t.errors),
		ByCategory: make(map[ErrorCategory]int),
		Total:      make(map[ErrorCategory]int64),
	}
	for _, err := range t.errors {
		stats.ByCategory[err.Category]++
	}
	for i := range t.categoryCounters {
		if n := t.categoryCounters[i].Load(); n > 0 {
			stats.Total[ErrorCategory(i)] = n
		}
	}
	return stats
}

// Clear removes all retained errors. Lifetime counts are kept.
func (t *ErrorTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = t.errors[:0]
}
