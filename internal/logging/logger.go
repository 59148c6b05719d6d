package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a thin wrapper over slog that adds map-based field binding.
type Logger struct {
	*slog.Logger
}

// NewLogger returns a text logger at debug level for development and a JSON
// logger at info level otherwise, both writing to stdout.
func NewLogger(isDevelopment bool) *Logger {
	if isDevelopment {
		return New(os.Stdout, slog.LevelDebug, false)
	}
	return New(os.Stdout, slog.LevelInfo, true)
}

// New builds a Logger writing to w at the given level.
func New(w io.Writer, level slog.Level, asJSON bool) *Logger {
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if asJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return &Logger{Logger: slog.New(h)}
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithFields returns a child logger that always includes the given fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}
