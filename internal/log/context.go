package log

import (
	"context"
	"log/slog"
)

type contextKey string

const keyAttrs contextKey = "attrs"

// WithAttrs returns a new context carrying the given attributes. Every record
// logged through ContextHandler with this context will include them.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	existing, _ := ctx.Value(keyAttrs).([]slog.Attr)
	merged := make([]slog.Attr, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, keyAttrs, merged)
}

// ContextHandler decorates a slog.Handler with the attributes attached to the
// record's context via WithAttrs.
type ContextHandler struct {
	slog.Handler
}

func (h ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs, ok := ctx.Value(keyAttrs).([]slog.Attr); ok {
		record.AddAttrs(attrs...)
	}

	return h.Handler.Handle(ctx, record)
}

func (h ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h ContextHandler) WithGroup(name string) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithGroup(name)}
}

var _ slog.Handler = ContextHandler{}
