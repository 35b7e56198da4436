// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"errors"
	"fmt"
)

// Fault reasons. A Fault's Err wraps one of these, or an error from
// the component an operation called into (the container, the virtual
// filesystem, a decompressor).
var (
	ErrUnknownOpcode  = errors.New("unknown opcode")
	ErrRegisterRange  = errors.New("register out of range")
	ErrArity          = errors.New("operand count mismatch")
	ErrByteRange      = errors.New("byte range outside script")
	ErrTruncated      = errors.New("truncated instruction")
	ErrMisaligned     = errors.New("script length is not a multiple of 4")
	ErrSkipOvershoot  = errors.New("skip past end of script")
	ErrType           = errors.New("wrong value type")
	ErrNoAttribute    = errors.New("no such attribute")
	ErrUnsafeDisabled = errors.New("code units are disabled")
)

// Fault is an interpreter failure. IP is the word offset of the
// faulting instruction. Execution never resumes after a fault.
type Fault struct {
	IP     int
	Opcode Opcode
	Err    error
}

func (f *Fault) Error() string {
	if f.Opcode == 0 {
		return fmt.Sprintf("script fault at word %d: %v", f.IP, f.Err)
	}
	return fmt.Sprintf("script fault at word %d (%s): %v", f.IP, f.Opcode, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// AsFault extracts a *Fault from an error chain.
func AsFault(err error) (*Fault, bool) {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault, true
	}
	return nil, false
}
