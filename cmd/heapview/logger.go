package main

import (
	"io"
	"log/slog"
	"os"
)

// initLogger routes slog to heapview.log when debug mode is on. The TUI owns
// the terminal, so log output can never go to stdout or stderr.
func initLogger(debug bool) error {
	if !debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return nil
	}
	f, err := os.OpenFile("heapview.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
	return nil
}
