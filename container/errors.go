// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedContainer reports a byte stream that is not a
	// well-formed module: bad header, truncated section, or invalid
	// LEB128 length.
	ErrMalformedContainer = errors.New("malformed container")

	// ErrAmbiguousSegment reports a segment name with more than one
	// occurrence where exactly one is needed.
	ErrAmbiguousSegment = errors.New("ambiguous segment")

	// ErrMissingSegment reports a segment that is required but absent.
	ErrMissingSegment = errors.New("missing segment")
)

// SegmentError ties one of the sentinels above to the segment name
// involved.
type SegmentError struct {
	Name string
	Err  error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %q: %v", e.Name, e.Err)
}

func (e *SegmentError) Unwrap() error { return e.Err }

// malformed wraps ErrMalformedContainer with the byte offset at which
// parsing stopped.
func malformed(offset int, format string, args ...any) error {
	return fmt.Errorf("%w at byte %d: %s", ErrMalformedContainer, offset, fmt.Sprintf(format, args...))
}
