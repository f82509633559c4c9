package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Logger wraps slog.Logger with application-specific functionality
type Logger struct {
	*slog.Logger
}

// Options selects the level, output format and destination of a Logger.
type Options struct {
	Level  string
	Format string // "json" (default) or "console"
	Writer io.Writer
}

// New creates a new JSON logger on stdout with the specified level
func New(level string) *Logger {
	return NewWithOptions(Options{Level: level})
}

// NewWithOptions builds a logger from explicit options. The console format
// renders colored, human-oriented lines for interactive CLI use.
func NewWithOptions(opts Options) *Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	logLevel := ParseLevel(opts.Level)

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "console", "text":
		handler = tint.NewHandler(w, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})
	}

	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns a logger with default settings
func Default() *Logger {
	return New("info")
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

// With returns a child logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}
