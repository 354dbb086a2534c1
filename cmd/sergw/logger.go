package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sergw-project/sergw/internal/logging"
)

func setupLogger(format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}
	l := logging.New(format, lvl, os.Stderr)
	logging.Set(l)
	return l, nil
}
