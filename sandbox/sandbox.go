// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/bureau-foundation/polyboot/vfs"
)

// Import is one entry of an import table: something that can serve
// the functions a module imports from one namespace.
type Import interface {
	importNamespace()
}

// SystemInterface serves the WASI preview 1 surface backed by a
// virtual environment. Every namespace bound to the same
// SystemInterface sees the same descriptors.
type SystemInterface struct {
	Environment *vfs.Environment
}

func (*SystemInterface) importNamespace() {}

// Unit is a code unit: a WebAssembly module built at configuration
// time and instantiated under its namespace before the payload.
type Unit struct {
	// Source is the module binary.
	Source []byte
}

func (*Unit) importNamespace() {}

// ImportTable maps import namespaces to the providers serving them.
type ImportTable map[string]Import

// Outcome is what a sandboxed run produced. The guest's exit status is
// informational; the orchestrator does not interpret it beyond
// recording it.
type Outcome struct {
	// ExitCode is the status passed to proc_exit, or 0 when the
	// entry point returned normally.
	ExitCode uint32

	// Err is a guest-side failure such as a trap or an unresolvable
	// import. It is content for the stage result, not an
	// infrastructure error.
	Err error
}

// Runtime compiles and runs payloads. Run returns an error only when
// the runtime itself failed; guest failures are reported in Outcome.
type Runtime interface {
	Run(ctx context.Context, payload []byte, imports ImportTable) (*Outcome, error)
	Close(ctx context.Context) error
}

// Configurator runs a secondary-stage module under the wah_wasi
// protocol and returns the bytes it produced.
type Configurator interface {
	Configure(ctx context.Context, module []byte, input []byte) ([]byte, error)
}

// UnitLoader turns script-supplied source into a code unit. A nil
// UnitLoader means code units are disabled.
type UnitLoader interface {
	LoadUnit(ctx context.Context, source []byte) (*Unit, error)
}

// ErrNoSystemInterface reports an import table without any
// SystemInterface, so there is no environment to run in.
var ErrNoSystemInterface = errors.New("import table has no system interface")

// ErrDescriptorLayout reports a descriptor table the runtime cannot
// reproduce for the guest: descriptors from 3 up must all be preopened
// directories, and preopens may not sit in the standard slots.
var ErrDescriptorLayout = errors.New("descriptor table cannot be passed to the guest")

// Environment returns the environment of the first SystemInterface in
// the table. All system interfaces in one table share an environment.
func (t ImportTable) Environment() (*vfs.Environment, error) {
	for _, entry := range t {
		if system, ok := entry.(*SystemInterface); ok {
			return system.Environment, nil
		}
	}
	return nil, ErrNoSystemInterface
}

// ExitError represents a non-zero exit from a sandboxed guest.
type ExitError struct {
	Code uint32
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("guest exited with code %d", e.Code)
}

// IsExitError checks if an error is an ExitError and returns the code.
func IsExitError(err error) (uint32, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
