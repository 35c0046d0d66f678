// Package logging provides structured logging setup for species-catalog.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger output.
type Options struct {
	// Dev selects human-readable text at debug level; otherwise JSON at info.
	Dev bool
	// File, when set, also writes logs to a size-rotated file.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup initializes the default slog logger and returns a closer for the
// log file, if any.
func Setup(opts Options) io.Closer {
	w, closer := writer(os.Stdout, opts)
	slog.SetDefault(slog.New(newHandler(w, opts.Dev)))
	return closer
}

func newHandler(w io.Writer, dev bool) slog.Handler {
	if dev {
		return slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}

func writer(stdout io.Writer, opts Options) (io.Writer, io.Closer) {
	if opts.File == "" {
		return stdout, nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    orDefault(opts.MaxSizeMB, 50),
		MaxBackups: orDefault(opts.MaxBackups, 3),
		MaxAge:     orDefault(opts.MaxAgeDays, 28),
		Compress:   true,
	}
	return io.MultiWriter(stdout, rotator), rotator
}

func orDefault(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
