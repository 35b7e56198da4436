// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bureau-foundation/polyboot/lib/binhash"
	"github.com/bureau-foundation/polyboot/lib/clock"
)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Source   Source
	Interval time.Duration

	// Clock drives polling. Nil means the real clock.
	Clock clock.Clock

	Logger *slog.Logger
}

// Watcher polls a Source and reports changed artifacts.
type Watcher struct {
	source   Source
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger
}

// NewWatcher creates a Watcher.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if config.Source == nil {
		return nil, errors.New("source: watcher needs a Source")
	}
	if config.Interval <= 0 {
		return nil, errors.New("source: watcher interval must be positive")
	}
	watcher := &Watcher{
		source:   config.Source,
		interval: config.Interval,
		clock:    config.Clock,
		logger:   config.Logger,
	}
	if watcher.clock == nil {
		watcher.clock = clock.Real()
	}
	if watcher.logger == nil {
		watcher.logger = slog.Default()
	}
	return watcher, nil
}

// Run fetches immediately and then once per interval, calling changed
// with the first successful fetch and with every fetch whose digest
// differs from the last delivered one. Fetch errors are logged and
// polling continues. changed runs on Run's goroutine; polling pauses
// while it runs. Run returns when ctx is done.
func (w *Watcher) Run(ctx context.Context, changed func(context.Context, *Artifact)) {
	var last binhash.Digest
	delivered := false

	poll := func() {
		artifact, err := w.source.Fetch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Warn("fetching artifact failed", "source", w.source.String(), "error", err)
			}
			return
		}
		if delivered && artifact.Digest == last {
			return
		}
		w.logger.Info("artifact changed",
			"source", w.source.String(),
			"artifact", artifact.Digest.Short(),
			"size", len(artifact.Bytes),
		)
		last, delivered = artifact.Digest, true
		changed(ctx, artifact)
	}

	poll()

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			poll()
		case <-ctx.Done():
			return
		}
	}
}
