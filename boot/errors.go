// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boot

import (
	"errors"
	"fmt"
)

// ErrStageChainFailure reports a next-stage module that was found but
// could not be loaded or run, or a chain deeper than the configured
// limit.
var ErrStageChainFailure = errors.New("stage chain failure")

// ChainError is returned when stage Stage, reached by chaining, fails.
// It matches both ErrStageChainFailure and the underlying error.
type ChainError struct {
	Stage int
	Err   error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("stage %d: %v: %v", e.Stage, ErrStageChainFailure, e.Err)
}

func (e *ChainError) Unwrap() []error {
	return []error{ErrStageChainFailure, e.Err}
}

// Fault layers name the step that failed.
const (
	LayerSeed         = "seed"
	LayerContainer    = "container"
	LayerConfigurator = "configurator"
	LayerScript       = "script"
	LayerLink         = "link"
	LayerRuntime      = "runtime"
	LayerChain        = "chain"
)

// Fault describes why a stage failed. It is both the error a failed
// stage returns and the record stored in its [Report].
type Fault struct {
	Layer   string `cbor:"layer"`
	Message string `cbor:"message"`

	// Script faults carry the faulting instruction and the register
	// table as it stood when execution stopped.
	IP        int      `cbor:"ip,omitempty"`
	Opcode    string   `cbor:"opcode,omitempty"`
	Registers []string `cbor:"registers,omitempty"`

	cause error
}

func newFault(layer string, err error) *Fault {
	return &Fault{Layer: layer, Message: err.Error(), cause: err}
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Layer, f.Message)
}

// Unwrap returns the original error. Faults decoded from a report have
// none.
func (f *Fault) Unwrap() error { return f.cause }
