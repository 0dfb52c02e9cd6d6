// backend/pkg/logger/logger.go
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Logger is a wrapper around slog.Logger with the handler chosen from configuration.
type Logger struct {
	*slog.Logger
}

// Options controls where and how log records are written.
type Options struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// JSON switches from the coloured console handler to JSON lines.
	JSON   bool
	Writer io.Writer
}

// New creates a new logger instance tagged with the service name.
func New(name string, opts Options) *Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	level := ParseLevel(opts.Level)

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
		})
	}

	l := slog.New(handler)
	if name != "" {
		l = l.With(slog.String("service", name))
	}
	return &Logger{Logger: l}
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// With returns a logger carrying the given attributes on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component is shorthand for With("component", name).
func (l *Logger) Component(name string) *Logger {
	return l.With(slog.String("component", name))
}

// Err wraps an error as a log attribute.
func Err(err error) slog.Attr {
	return tint.Err(err)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
