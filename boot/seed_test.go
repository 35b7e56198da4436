// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boot

import (
	"bytes"
	"testing"

	"github.com/bureau-foundation/polyboot/vfs"
)

func TestSeed(t *testing.T) {
	executable := []byte("\x00asm\x01\x00\x00\x00")
	env, err := Seed(executable)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(env.Fds) != 4 {
		t.Fatalf("%d descriptors, want 4", len(env.Fds))
	}

	root, ok := env.Fds[3].(*vfs.Preopen)
	if !ok || root.Path != "." {
		t.Fatalf("fds[3] = %v, want preopen \".\"", env.Fds[3])
	}

	wantModes := []vfs.Mode{vfs.ModeRead, vfs.ModeAppend, vfs.ModeAppend}
	for fd, mode := range wantModes {
		handle, ok := env.Fds[fd].(*vfs.OpenFile)
		if !ok || handle.Mode != mode {
			t.Fatalf("fds[%d] = %v, want open file in mode %s", fd, env.Fds[fd], mode)
		}
		entry, err := root.Open(0, "proc/self/fd/"+string(rune('0'+fd)), 0)
		if err != nil {
			t.Fatalf("open proc/self/fd/%d: %v", fd, err)
		}
		if entry.(*vfs.OpenFile).File != handle.File {
			t.Errorf("fds[%d] and proc/self/fd/%d are different files", fd, fd)
		}
	}

	exe, err := root.Open(0, BootExecutablePath, 0)
	if err != nil {
		t.Fatalf("open %s: %v", BootExecutablePath, err)
	}
	if !bytes.Equal(exe.(*vfs.OpenFile).Bytes(), executable) {
		t.Error("boot executable does not hold the payload")
	}

	// proc/0 is the same directory as proc/self.
	alias, err := root.Open(0, "proc/0/fd/1", 0)
	if err != nil {
		t.Fatalf("open proc/0/fd/1: %v", err)
	}
	if alias.(*vfs.OpenFile).File != env.Fds[1].(*vfs.OpenFile).File {
		t.Error("proc/0 does not alias proc/self")
	}
}
