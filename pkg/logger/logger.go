package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the global logger instance
var Log *slog.Logger

// Setup initializes the global logger. Production emits JSON at info level,
// development emits text with debug enabled, tests are silenced.
func Setup(env string) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}

	var handler slog.Handler
	switch env {
	case "production":
		opts.Level = slog.LevelInfo
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "test":
		handler = slog.NewTextHandler(io.Discard, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}
