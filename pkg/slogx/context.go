package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithContext returns a child context carrying logger. HTTPMiddleware uses
// this to hand each request its own logger with the request id attached.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request-scoped logger, or the process default when
// the context carries none. Never nil, so call sites log unconditionally.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
