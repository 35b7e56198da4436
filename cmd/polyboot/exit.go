// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "fmt"

// Exit codes for outcomes the command has already reported.
const (
	// exitGuestFault means a stage failed before or while running,
	// including a degraded fallback stage.
	exitGuestFault = 2

	// exitChainFailure means the stage chain itself failed.
	exitChainFailure = 3
)

// ExitError signals a non-zero exit code without printing an extra
// error message. The command is expected to have written its own
// output already.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. main checks for this interface to
// tell a handled non-zero exit from an unexpected error.
func (e *ExitError) ExitCode() int {
	return e.Code
}
