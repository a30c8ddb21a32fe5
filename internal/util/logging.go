package util

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type loggerContextKey struct{}

// ParseLevel maps debug, info, warn and error to slog levels. Unknown input is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a JSON logger writing to w.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: true,
	}))
}

// InitLogger configures the global slog logger with JSON output on stdout.
func InitLogger(level string) *slog.Logger {
	logger := NewLogger(os.Stdout, level)
	slog.SetDefault(logger)
	return logger
}

// ContextWithLogger stores a request-scoped logger in ctx.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// LoggerFromContext returns the logger stored by ContextWithLogger, or slog.Default().
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}
