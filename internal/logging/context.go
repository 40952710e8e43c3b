package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	runIDKey ctxKey = iota
	fileIndexKey
	componentKey
)

// WithRunID returns a context with the extraction run ID set.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// WithFileIndex returns a context with the record's file index set.
func WithFileIndex(ctx context.Context, idx int) context.Context {
	return context.WithValue(ctx, fileIndexKey, idx)
}

// WithComponent returns a context with the component name set.
func WithComponent(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, componentKey, name)
}

// RunID extracts the run ID from the context, or "" if absent.
func RunID(ctx context.Context) string {
	v, _ := ctx.Value(runIDKey).(string)
	return v
}

// FileIndex extracts the file index from the context. The second return is
// false if absent.
func FileIndex(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(fileIndexKey).(int)
	return v, ok
}

// Component extracts the component name from the context, or "" if absent.
func Component(ctx context.Context) string {
	v, _ := ctx.Value(componentKey).(string)
	return v
}

// LogWith returns a logger enriched with correlation attributes from the
// context. Only present values are added.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := RunID(ctx); id != "" {
		logger = logger.With(slog.String("run_id", id))
	}
	if idx, ok := FileIndex(ctx); ok {
		logger = logger.With(slog.Int("file_index", idx))
	}
	if c := Component(ctx); c != "" {
		logger = logger.With(slog.String("component", c))
	}
	return logger
}

// CorrelationHandler wraps an slog.Handler, automatically injecting
// correlation attributes from the context into every log record.
// Use with slog.New(NewCorrelationHandler(inner)) so callers can use
// logger.InfoContext(ctx, ...) and the attributes appear automatically.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler with automatic correlation
// attribute injection.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	if v := RunID(ctx); v != "" {
		r.AddAttrs(slog.String("run_id", v))
	}
	if idx, ok := FileIndex(ctx); ok {
		r.AddAttrs(slog.Int("file_index", idx))
	}
	if v := Component(ctx); v != "" {
		r.AddAttrs(slog.String("component", v))
	}
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}
