// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package present

import (
	"slices"
	"sync"

	"github.com/bureau-foundation/polyboot/boot"
)

var (
	_ boot.Sink = Nop{}
	_ boot.Sink = (*Recorder)(nil)
	_ boot.Sink = (*Terminal)(nil)
	_ boot.Sink = (*Page)(nil)
)

// Nop discards every event.
type Nop struct{}

func (Nop) Shell([]byte)           {}
func (Nop) Status(int, boot.State) {}
func (Nop) Result(*boot.Report)    {}
func (Nop) Fault(*boot.Report)     {}

// EventKind names a Sink method.
type EventKind string

const (
	EventShell  EventKind = "shell"
	EventStatus EventKind = "status"
	EventResult EventKind = "result"
	EventFault  EventKind = "fault"
)

// Event is one recorded Sink call. Only the fields of its kind are set.
type Event struct {
	Kind     EventKind
	Stage    int
	State    boot.State
	Report   *boot.Report
	Document []byte
}

// Recorder records every event. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) add(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Shell(document []byte) {
	r.add(Event{Kind: EventShell, Document: slices.Clone(document)})
}

func (r *Recorder) Status(stage int, state boot.State) {
	r.add(Event{Kind: EventStatus, Stage: stage, State: state})
}

func (r *Recorder) Result(report *boot.Report) {
	r.add(Event{Kind: EventResult, Stage: report.Stage, Report: report})
}

func (r *Recorder) Fault(report *boot.Report) {
	r.add(Event{Kind: EventFault, Stage: report.Stage, Report: report})
}

// Events returns a copy of every event so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// States returns the states stage passed through, in order.
func (r *Recorder) States(stage int) []boot.State {
	var states []boot.State
	for _, event := range r.Events() {
		if event.Kind == EventStatus && event.Stage == stage {
			states = append(states, event.State)
		}
	}
	return states
}

// Reports returns the reports delivered with events of kind.
func (r *Recorder) Reports(kind EventKind) []*boot.Report {
	var reports []*boot.Report
	for _, event := range r.Events() {
		if event.Kind == kind {
			reports = append(reports, event.Report)
		}
	}
	return reports
}

// Tee returns a Sink that forwards every event to each of sinks in
// order.
func Tee(sinks ...boot.Sink) boot.Sink {
	return tee(slices.Clone(sinks))
}

type tee []boot.Sink

func (t tee) Shell(document []byte) {
	for _, sink := range t {
		sink.Shell(document)
	}
}

func (t tee) Status(stage int, state boot.State) {
	for _, sink := range t {
		sink.Status(stage, state)
	}
}

func (t tee) Result(report *boot.Report) {
	for _, sink := range t {
		sink.Result(report)
	}
}

func (t tee) Fault(report *boot.Report) {
	for _, sink := range t {
		sink.Fault(report)
	}
}
