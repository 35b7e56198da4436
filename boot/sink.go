// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boot

// Sink receives presentation events from the orchestrator. Calls come
// from the orchestrator's goroutine, in order.
type Sink interface {
	// Shell is called with a stage's presentation shell document.
	Shell(document []byte)

	// Status is called on every state transition.
	Status(stage int, state State)

	// Result is called when a stage's payload has completed.
	Result(report *Report)

	// Fault is called when a stage fails.
	Fault(report *Report)
}

type nopSink struct{}

func (nopSink) Shell([]byte)       {}
func (nopSink) Status(int, State)  {}
func (nopSink) Result(*Report)     {}
func (nopSink) Fault(*Report)      {}
