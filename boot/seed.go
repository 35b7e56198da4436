// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boot

import (
	"fmt"

	"github.com/bureau-foundation/polyboot/vfs"
)

// Conventional paths, relative to the first preopened directory.
const (
	// BootExecutablePath holds the running stage's artifact.
	BootExecutablePath = "proc/self/exe"

	// NextStagePath is where a stage leaves the artifact of the
	// stage that follows it.
	NextStagePath = "proc/0/index.wasm"
)

// SeedArgs is the argument vector of the first stage.
var SeedArgs = []string{"exe"}

// Mount imports a host directory tree into the seed filesystem at
// Guest, a path relative to the root preopen.
type Mount struct {
	Guest string
	Host  string
}

// Seed builds the environment of the first stage. Descriptors 0
// through 2 are handles on proc/self/fd/{0,1,2}; descriptor 3 is the
// root preopen ".", holding proc/self with the executable and proc/0
// as a second name for proc/self.
func Seed(executable []byte, mounts ...Mount) (*vfs.Environment, error) {
	stdin := vfs.NewFile(nil)
	stdout := vfs.NewFile(nil)
	stderr := vfs.NewFile(nil)

	fd, err := vfs.NewDirectory(map[string]vfs.Node{"0": stdin, "1": stdout, "2": stderr})
	if err != nil {
		return nil, err
	}
	self, err := vfs.NewDirectory(map[string]vfs.Node{"fd": fd, "exe": vfs.NewFile(executable)})
	if err != nil {
		return nil, err
	}
	proc, err := vfs.NewDirectory(map[string]vfs.Node{"self": self, "0": self})
	if err != nil {
		return nil, err
	}
	root, err := vfs.NewDirectory(map[string]vfs.Node{"proc": proc})
	if err != nil {
		return nil, err
	}

	for _, mount := range mounts {
		target, err := root.MkdirAll(mount.Guest)
		if err != nil {
			return nil, fmt.Errorf("mounting %s at %s: %w", mount.Host, mount.Guest, err)
		}
		if err := vfs.Import(target, mount.Host); err != nil {
			return nil, fmt.Errorf("mounting %s at %s: %w", mount.Host, mount.Guest, err)
		}
	}

	return &vfs.Environment{
		Args: append([]string(nil), SeedArgs...),
		Fds: []vfs.Entry{
			vfs.NewOpenFile(stdin, vfs.ModeRead),
			vfs.NewOpenFile(stdout, vfs.ModeAppend),
			vfs.NewOpenFile(stderr, vfs.ModeAppend),
			vfs.NewPreopen(".", root),
		},
	}, nil
}
