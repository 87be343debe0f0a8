package convertutil

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the process-wide structured logger. Default to a JSON handler at
// info level, writing to stderr so stdout stays free for descriptor output.
var Logger *slog.Logger

func init() {
	Logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(Logger)
}

// SetLevel reconfigures the global logger's minimum level, used by the CLI
// to apply the config's logging.level setting.
func SetLevel(level slog.Level) {
	Logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(Logger)
}

type contextKey string

const loggerKey contextKey = "logger"

// FromContext retrieves a logger from the context, falling back to the global logger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return Logger
}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithField returns a context carrying a logger with one extra field attached.
func WithField(ctx context.Context, key string, value any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(key, value))
}
