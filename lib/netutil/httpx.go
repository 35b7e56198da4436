// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP body reads.
//
// Artifact downloads are read whole into memory, so every read is
// capped: [ReadLimited] fails with [ErrTooLarge] rather than truncating,
// and [ErrorBody] keeps only the start of an error response for use in
// messages.
package netutil

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxArtifactSize bounds artifact downloads: 512 MB.
const MaxArtifactSize int64 = 512 << 20

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 << 10

// ErrTooLarge reports a body longer than the allowed limit.
var ErrTooLarge = errors.New("response body too large")

// ReadLimited reads body to the end, failing with ErrTooLarge when it
// holds more than limit bytes.
func ReadLimited(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// ErrorBody returns the start of an error response body, trimmed, for
// diagnostic messages. Read errors are ignored: a partial or empty
// body is still useful.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	return strings.TrimSpace(string(data))
}
