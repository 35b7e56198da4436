// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"strings"
)

// Environment is the frozen process environment handed to the sandbox:
// argument vector, KEY=VALUE strings, and the descriptor table.
// Descriptors 0 through 2 are the standard streams; preopens follow.
type Environment struct {
	Args []string
	Env  []string
	Fds  []Entry
}

// Validate checks the environment strings.
func (e *Environment) Validate() error {
	for i, variable := range e.Env {
		if !strings.Contains(variable, "=") {
			return fmt.Errorf("env[%d] %q is not KEY=VALUE", i, variable)
		}
	}
	for i, entry := range e.Fds {
		if entry == nil {
			return fmt.Errorf("fds[%d] is empty", i)
		}
	}
	return nil
}

// Preopens returns the preopened directories in descriptor order.
func (e *Environment) Preopens() []*Preopen {
	var preopens []*Preopen
	for _, entry := range e.Fds {
		if preopen, ok := entry.(*Preopen); ok {
			preopens = append(preopens, preopen)
		}
	}
	return preopens
}

// Root returns the first preopened directory, where conventional boot
// paths are resolved.
func (e *Environment) Root() (*Preopen, bool) {
	preopens := e.Preopens()
	if len(preopens) == 0 {
		return nil, false
	}
	return preopens[0], true
}

// Stream returns the contents behind standard descriptor fd, or nil
// when the slot is empty or not file-backed.
func (e *Environment) Stream(fd int) []byte {
	if fd < 0 || fd >= len(e.Fds) {
		return nil
	}
	switch entry := e.Fds[fd].(type) {
	case *OpenFile:
		return entry.File.Data
	case *File:
		return entry.Data
	}
	return nil
}
