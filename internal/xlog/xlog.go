// Package xlog wraps log/slog with the level selection
// internal/vmconfig.Config.LogLevel drives: the VM's optional instruction
// trace and the GC's optional collection trace both write through a logger
// built here, at slog.LevelDebug, so neither produces output unless a
// caller explicitly asks for debug-level logging (spec.md §6 "Standard
// output" stays stdout/stderr-only by default).
package xlog

import (
	"io"
	"log/slog"
	"strings"
)

// New builds a slog.Logger writing text-formatted records to w at the
// level named by levelName ("debug", "info", "warn", "error"; anything
// else falls back to "warn").
func New(w io.Writer, levelName string) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(levelName)})
	return slog.New(h)
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// TraceWriter adapts a *slog.Logger to the io.Writer the vm.VM.Trace and
// gc.Heap.Trace fields expect, tagging every line at slog.LevelDebug under
// the given component name.
type TraceWriter struct {
	Logger    *slog.Logger
	Component string
}

func (w TraceWriter) Write(p []byte) (int, error) {
	w.Logger.Debug(strings.TrimRight(string(p), "\n"), "component", w.Component)
	return len(p), nil
}
