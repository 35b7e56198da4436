// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/bureau-foundation/polyboot/lib/binhash"
	"github.com/bureau-foundation/polyboot/vfs"
)

// mount is a preopened directory copied to the host for one run.
// snapshot holds the digest of every file as copied, so sync only
// writes back what the guest changed.
type mount struct {
	preopen  *vfs.Preopen
	host     string
	snapshot map[string]binhash.Digest
}

type mountSet []*mount

// guestPreopens returns the preopens for descriptors 3 and up, in
// descriptor order. The runtime numbers directory mounts from 3, so any
// other layout would hand the guest different descriptor numbers than
// the script configured.
func guestPreopens(env *vfs.Environment) ([]*vfs.Preopen, error) {
	var preopens []*vfs.Preopen
	for fd, entry := range env.Fds {
		preopen, ok := entry.(*vfs.Preopen)
		switch {
		case fd < 3 && ok:
			return nil, fmt.Errorf("%w: fd %d is preopen %s, want a stream", ErrDescriptorLayout, fd, preopen.Path)
		case fd >= 3 && !ok:
			return nil, fmt.Errorf("%w: fd %d is %s, want a preopen", ErrDescriptorLayout, fd, entry.Kind())
		case ok:
			preopens = append(preopens, preopen)
		}
	}
	return preopens, nil
}

func materializeAll(env *vfs.Environment) (mountSet, error) {
	preopens, err := guestPreopens(env)
	if err != nil {
		return nil, err
	}
	var mounts mountSet
	for _, preopen := range preopens {
		mount, err := materialize(preopen)
		if err != nil {
			mounts.remove()
			return nil, err
		}
		mounts = append(mounts, mount)
	}
	return mounts, nil
}

func materialize(preopen *vfs.Preopen) (*mount, error) {
	host, err := os.MkdirTemp("", "polyboot-preopen-*")
	if err != nil {
		return nil, fmt.Errorf("creating host directory for %s: %w", preopen.Path, err)
	}
	tree := vfs.FS(preopen.Dir)
	if err := os.CopyFS(host, tree); err != nil {
		os.RemoveAll(host)
		return nil, fmt.Errorf("copying %s to the host: %w", preopen.Path, err)
	}

	snapshot := make(map[string]binhash.Digest)
	err = fs.WalkDir(tree, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		data, err := fs.ReadFile(tree, path)
		if err != nil {
			return err
		}
		snapshot[path] = binhash.Sum(data)
		return nil
	})
	if err != nil {
		os.RemoveAll(host)
		return nil, fmt.Errorf("recording %s: %w", preopen.Path, err)
	}

	return &mount{preopen: preopen, host: host, snapshot: snapshot}, nil
}

// sync copies guest changes back into the virtual tree: new and
// modified files are written in place, files removed on the host are
// removed, and untouched files are left alone.
func (m *mount) sync() error {
	host := os.DirFS(m.host)
	seen := make(map[string]bool, len(m.snapshot))
	err := fs.WalkDir(host, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch {
		case path == ".":
			return nil
		case entry.IsDir():
			_, err := m.preopen.Dir.MkdirAll(path)
			return err
		case !entry.Type().IsRegular():
			return nil
		}
		seen[path] = true
		data, err := fs.ReadFile(host, path)
		if err != nil {
			return err
		}
		if digest, ok := m.snapshot[path]; ok && digest == binhash.Sum(data) {
			return nil
		}
		return m.preopen.Dir.WriteFile(path, data)
	})
	if err != nil {
		return err
	}

	for path := range m.snapshot {
		if !seen[path] {
			if err := m.preopen.Dir.RemovePath(path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s mountSet) sync() error {
	var errs []error
	for _, mount := range s {
		if err := mount.sync(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", mount.preopen.Path, err))
		}
	}
	return errors.Join(errs...)
}

func (s mountSet) remove() {
	for _, mount := range s {
		os.RemoveAll(mount.host)
	}
}
