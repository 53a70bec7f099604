package meme

import (
	"context"
	"encoding/hex"
	"log/slog"

	"github.com/google/uuid"
)

type renderIDKey struct{}

// RenderID identifies one load, render or export so its log lines can be
// grouped.
type RenderID string

// NewRenderID generates a random 16-character hex ID from the leading
// half of a version 4 UUID.
func NewRenderID() RenderID {
	u := uuid.New()
	return RenderID(hex.EncodeToString(u[:8]))
}

// WithRenderID returns ctx carrying id, generating one when id is empty.
func WithRenderID(ctx context.Context, id RenderID) context.Context {
	if id == "" {
		id = NewRenderID()
	}
	return context.WithValue(ctx, renderIDKey{}, id)
}

// RenderIDFromContext returns the render ID in ctx, or "".
func RenderIDFromContext(ctx context.Context) RenderID {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(renderIDKey{}).(RenderID)
	return id
}

// ensureRenderID returns ctx unchanged when it already carries an ID.
func ensureRenderID(ctx context.Context) context.Context {
	if RenderIDFromContext(ctx) != "" {
		return ctx
	}
	return WithRenderID(ctx, "")
}

// CorrelatedSlogHandler adds the render ID of the record's context as a
// "render_id" attribute.
type CorrelatedSlogHandler struct {
	inner slog.Handler
}

// NewCorrelatedSlogHandler wraps inner.
func NewCorrelatedSlogHandler(inner slog.Handler) *CorrelatedSlogHandler {
	return &CorrelatedSlogHandler{inner: inner}
}

func (h *CorrelatedSlogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelatedSlogHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RenderIDFromContext(ctx); id != "" {
		r = r.Clone()
		r.AddAttrs(slog.String("render_id", string(id)))
	}
	return h.inner.Handle(ctx, r)
}

func (h *CorrelatedSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelatedSlogHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelatedSlogHandler) WithGroup(name string) slog.Handler {
	return &CorrelatedSlogHandler{inner: h.inner.WithGroup(name)}
}

// ctxLogger prefixes log arguments with the render ID of a context.
type ctxLogger struct {
	logger Logger
	id     RenderID
}

func loggerFor(ctx context.Context, logger Logger) ctxLogger {
	if logger == nil {
		logger = NopLogger()
	}
	return ctxLogger{logger: logger, id: RenderIDFromContext(ctx)}
}

func (c ctxLogger) args(args []any) []any {
	if c.id == "" {
		return args
	}
	return append([]any{"render_id", string(c.id)}, args...)
}

func (c ctxLogger) Debug(msg string, args ...any) { c.logger.Debug(msg, c.args(args)...) }
func (c ctxLogger) Info(msg string, args ...any)  { c.logger.Info(msg, c.args(args)...) }
func (c ctxLogger) Warn(msg string, args ...any)  { c.logger.Warn(msg, c.args(args)...) }
func (c ctxLogger) Error(msg string, args ...any) { c.logger.Error(msg, c.args(args)...) }
