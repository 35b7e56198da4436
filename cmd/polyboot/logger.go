// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// newLogger creates the logger for a command. Text output when stderr
// is a terminal, JSON otherwise. Debug level when debug is set or
// POLYBOOT_DEBUG is non-empty.
func newLogger(debug bool) *slog.Logger {
	return newLoggerTo(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), debug)
}

func newLoggerTo(w io.Writer, text, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug || os.Getenv("POLYBOOT_DEBUG") != "" {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}
