// ABOUTME: Structured logging configuration using log/slog.
// ABOUTME: Init() configures the default logger for CLI (stderr) or TUI (debug.log file) use.

package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options controls where and how log records are written.
type Options struct {
	Level  string // debug, info, warn, error (default: info)
	Format string // text, json (default: text)

	// Dir, when set, sends output to Dir/debug.log instead of Output.
	// The TUI uses this so log lines never land on the screen it draws.
	Dir string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// Init configures the default slog logger and returns a func that releases
// any file it opened. Level and format fall back to LOG_LEVEL / LOG_FORMAT.
func Init(opts Options) (func(), error) {
	if opts.Level == "" {
		opts.Level = os.Getenv("LOG_LEVEL")
	}
	if opts.Format == "" {
		opts.Format = os.Getenv("LOG_FORMAT")
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	closer := func() {}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0700); err != nil {
			return closer, err
		}
		f, err := os.OpenFile(filepath.Join(opts.Dir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return closer, err
		}
		out = f
		closer = func() { f.Close() }
	}

	slog.SetDefault(slog.New(newHandler(out, opts.Level, opts.Format)))
	return closer, nil
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHandler(w io.Writer, level, format string) slog.Handler {
	handlerOpts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, handlerOpts)
	}
	return slog.NewTextHandler(w, handlerOpts)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
