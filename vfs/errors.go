// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrPathNotFound reports a missing path component, or a ".."
	// that would leave the starting directory.
	ErrPathNotFound = fmt.Errorf("path not found: %w", fs.ErrNotExist)

	// ErrNotADirectory reports a non-directory used as a directory.
	ErrNotADirectory = errors.New("not a directory")

	// ErrExist reports an exclusive create of an existing name.
	ErrExist = fmt.Errorf("entry exists: %w", fs.ErrExist)

	// ErrIsADirectory reports a file operation on a directory.
	ErrIsADirectory = errors.New("is a directory")

	// ErrInvalidName reports a directory entry name that is empty,
	// "." or "..", or contains a slash.
	ErrInvalidName = fmt.Errorf("invalid entry name: %w", fs.ErrInvalid)

	// ErrAccessMode reports a read on a write-only handle or a write
	// on a read-only one.
	ErrAccessMode = fmt.Errorf("operation not permitted by access mode: %w", fs.ErrPermission)
)
