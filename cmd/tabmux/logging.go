package main

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging installs the default slog logger. The daemon logs JSON to a
// rotated file, or text to stderr with --verbose.
func setupLogging(path string, verbose bool) io.Closer {
	if verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		return nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: slog.LevelInfo})))
	return rotator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
