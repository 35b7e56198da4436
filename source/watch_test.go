// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/polyboot/lib/clock"
	"github.com/bureau-foundation/polyboot/lib/testutil"
)

// changingSource serves whatever data was last set and signals every
// completed fetch on fetched.
type changingSource struct {
	mu      sync.Mutex
	data    string
	err     error
	fetched chan struct{}
}

func (s *changingSource) set(data string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data, s.err = data, err
}

func (s *changingSource) Fetch(ctx context.Context) (*Artifact, error) {
	s.mu.Lock()
	data, err := s.data, s.err
	s.mu.Unlock()
	defer func() { s.fetched <- struct{}{} }()
	if err != nil {
		return nil, err
	}
	return newArtifact([]byte(data), Metadata{Origin: "test"}), nil
}

func (s *changingSource) String() string { return "changing" }

func TestWatcherDeliversChanges(t *testing.T) {
	const interval = time.Second
	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	source := &changingSource{data: "v1", fetched: make(chan struct{}, 16)}

	watcher, err := NewWatcher(WatcherConfig{
		Source:   source,
		Interval: interval,
		Clock:    fake,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan string, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		watcher.Run(ctx, func(_ context.Context, artifact *Artifact) {
			changed <- string(artifact.Bytes)
		})
	}()

	if got := testutil.RequireReceive(t, changed, 5*time.Second, "initial artifact"); got != "v1" {
		t.Fatalf("first delivery = %q, want v1", got)
	}
	testutil.RequireReceive(t, source.fetched, 5*time.Second)
	fake.WaitForTickers(1)

	// Same bytes: fetched but not delivered.
	fake.Advance(interval)
	testutil.RequireReceive(t, source.fetched, 5*time.Second, "unchanged poll")

	// A failed fetch is skipped.
	source.set("v1", errors.New("connection refused"))
	fake.Advance(interval)
	testutil.RequireReceive(t, source.fetched, 5*time.Second, "failing poll")

	source.set("v2", nil)
	fake.Advance(interval)
	testutil.RequireReceive(t, source.fetched, 5*time.Second, "changed poll")
	if got := testutil.RequireReceive(t, changed, 5*time.Second, "changed artifact"); got != "v2" {
		t.Errorf("second delivery = %q, want v2", got)
	}

	cancel()
	testutil.RequireClosed(t, done, 5*time.Second, "watcher did not stop")
	select {
	case extra := <-changed:
		t.Errorf("unexpected delivery %q", extra)
	default:
	}
}

func TestNewWatcherValidates(t *testing.T) {
	if _, err := NewWatcher(WatcherConfig{Interval: time.Second}); err == nil {
		t.Error("NewWatcher accepted a nil source")
	}
	if _, err := NewWatcher(WatcherConfig{Source: &Static{}}); err == nil {
		t.Error("NewWatcher accepted a zero interval")
	}
}
