package logger

import (
	"context"
	"log/slog"
)

// loggerKey is the context key under which a request-scoped logger is stored.
// It is an unexported type to prevent collisions with keys from other packages.
type loggerKey struct{}

// WithLogger returns a new context carrying the provided logger.
// Panics if log is nil; callers must pass a valid logger.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		panic("logger.WithLogger: nil logger")
	}
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext retrieves the logger stored in the context, falling back to
// slog.Default() if the context carries none.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOrDefault(ctx, slog.Default())
}

// FromContextOrDefault retrieves the logger stored in the context, falling
// back to the provided default if the context is nil or carries no logger.
func FromContextOrDefault(ctx context.Context, def *slog.Logger) *slog.Logger {
	if ctx == nil {
		return def
	}
	if log, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return def
}
