package meme

import (
	"time"

	"github.com/opd-ai/go-meme/internal/render"
)

// Status represents the current state of a Generator.
type Status struct {
	// ImageSource is the normalized address of the loaded image, empty
	// before the first load.
	ImageSource string
	// ImageFormat is the decoded format, such as "png" or "jpeg".
	ImageFormat string
	// ImageWidth and ImageHeight are the source image dimensions.
	ImageWidth, ImageHeight int
	// LoadedAt is when the current image was decoded.
	LoadedAt time.Time
	// LastFrame describes the most recent render.
	LastFrame render.Frame
	// LastRender is when the most recent render finished.
	LastRender time.Time
	// RenderCount is the number of renders since creation.
	RenderCount uint64
	// LastError is the most recent error encountered (nil if none).
	LastError error
	// ConfigSource describes where the configuration came from.
	ConfigSource string
	// Breaker is the state of the remote fetch circuit breaker.
	Breaker CircuitState
}

// ErrorHandler is a callback for errors.
// It is called asynchronously; do not block in the handler.
type ErrorHandler func(err error)

// EventHandler is a callback for generator events.
// It is called asynchronously; do not block in the handler.
type EventHandler func(event Event)

// Event is something that happened to a Generator.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Message   string
	// RenderID is the ID of the operation that emitted the event.
	RenderID RenderID
}

// EventType enumerates generator event types.
type EventType int

const (
	// EventImageLoaded is emitted after an image was loaded and decoded.
	EventImageLoaded EventType = iota
	// EventRendered is emitted after every render.
	EventRendered
	// EventExported is emitted after an export was written.
	EventExported
	// EventConfigReloaded is emitted when the configuration changed.
	EventConfigReloaded
	// EventError is emitted when an operation fails.
	EventError
)

// String returns the event name.
func (e EventType) String() string {
	switch e {
	case EventImageLoaded:
		return "image_loaded"
	case EventRendered:
		return "rendered"
	case EventExported:
		return "exported"
	case EventConfigReloaded:
		return "config_reloaded"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}
