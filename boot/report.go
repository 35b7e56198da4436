// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boot

import (
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/polyboot/lib/codec"
	"github.com/bureau-foundation/polyboot/script"
	"github.com/bureau-foundation/polyboot/vfs"
)

// State is a stage's position in its lifecycle.
type State string

const (
	StateFetched    State = "fetched"
	StateParsed     State = "parsed"
	StateConfigured State = "configured"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateChained    State = "chained"
	StateTerminal   State = "terminal"
	StateFailed     State = "failed"
)

// Show selects the parts of a report a presentation renders.
type Show struct {
	Stdin  bool `cbor:"stdin,omitempty"`
	Stdout bool `cbor:"stdout,omitempty"`
	Stderr bool `cbor:"stderr,omitempty"`
	Root   bool `cbor:"root,omitempty"`
}

func showOutput(output script.Output) Show {
	return Show{Stdin: output.Stdin, Stdout: output.Stdout, Stderr: output.Stderr, Root: output.Root}
}

// Report is the record of one stage: what ran, what it produced, and
// how the stage ended.
type Report struct {
	Stage    int    `cbor:"stage"`
	Artifact string `cbor:"artifact"`
	State    State  `cbor:"state"`
	Degraded bool   `cbor:"degraded,omitempty"`

	Segments     []string `cbor:"segments,omitempty"`
	Instructions int      `cbor:"instructions"`

	Args []string `cbor:"args,omitempty"`
	Env  []string `cbor:"env,omitempty"`

	Stdin  []byte `cbor:"stdin,omitempty"`
	Stdout []byte `cbor:"stdout,omitempty"`
	Stderr []byte `cbor:"stderr,omitempty"`

	ExitCode   uint32          `cbor:"exit_code"`
	GuestError string          `cbor:"guest_error,omitempty"`
	Tree       []vfs.TreeEntry `cbor:"tree,omitempty"`
	Show       Show            `cbor:"show"`

	Fault *Fault `cbor:"fault,omitempty"`
}

// Result collects the reports of every stage of one boot, in the
// order the stages ran.
type Result struct {
	Stages []*Report
}

// Final returns the report of the last stage that ran.
func (r *Result) Final() *Report {
	if len(r.Stages) == 0 {
		return nil
	}
	return r.Stages[len(r.Stages)-1]
}

// WriteReports writes reports as a CBOR sequence, one item per stage.
func WriteReports(w io.Writer, reports []*Report) error {
	encoder := codec.NewEncoder(w)
	for _, report := range reports {
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("encoding report for stage %d: %w", report.Stage, err)
		}
	}
	return nil
}

// ReadReports reads a CBOR sequence written by WriteReports.
func ReadReports(r io.Reader) ([]*Report, error) {
	decoder := codec.NewDecoder(r)
	var reports []*Report
	for {
		report := new(Report)
		err := decoder.Decode(report)
		if errors.Is(err, io.EOF) {
			return reports, nil
		}
		if err != nil {
			return reports, fmt.Errorf("decoding report %d: %w", len(reports), err)
		}
		reports = append(reports, report)
	}
}
