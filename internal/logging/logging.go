// Package logging configures the process-wide slog logger. Records go to
// stderr and to a daily log file, since stdout carries the stdio MCP stream.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const TimeFormat = "2006-01-02 15:04:05"

type Options struct {
	Level         string
	Dir           string
	RetentionDays int
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// ParseLevel maps syslog level names onto slog levels. Unknown names map
// to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warning", "warn":
		return slog.LevelWarn
	case "error", "crit", "alert", "emerg":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the default logger and returns the daily file so callers
// can close it on shutdown.
func Setup(opts Options) (*slog.Logger, *DailyFile, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	file, err := NewDailyFile(opts.Dir, opts.RetentionDays)
	if err != nil {
		return nil, nil, fmt.Errorf("open log dir: %w", err)
	}

	logger := New(io.MultiWriter(stderr, file), ParseLevel(opts.Level))
	slog.SetDefault(logger)
	return logger, file, nil
}

// New builds a text logger with the second-resolution timestamp used in
// the log files.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, a.Value.Time().Format(TimeFormat))
			}
			return a
		},
	}))
}
