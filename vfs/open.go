// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"io/fs"
)

// WASI path_open oflags.
const (
	OCreate    uint32 = 1 << 0
	ODirectory uint32 = 1 << 1
	OExclusive uint32 = 1 << 2
	OTruncate  uint32 = 1 << 3
)

// LookupSymlinkFollow is the only WASI lookup flag. The tree has no
// symbolic links, so it is accepted and has no effect.
const LookupSymlinkFollow uint32 = 1 << 0

// Preopen is a directory mounted at a guest path. Descriptor 3 onward
// in a WASI process are preopens.
type Preopen struct {
	Path string
	Dir  *Directory
}

// NewPreopen mounts dir at path.
func NewPreopen(path string, dir *Directory) *Preopen {
	return &Preopen{Path: path, Dir: dir}
}

func (*Preopen) Kind() string { return "preopen" }

// Open resolves path relative to the mounted directory.
func (p *Preopen) Open(flags uint32, path string, oflags uint32) (Entry, error) {
	return p.Dir.Open(flags, path, oflags)
}

// Open resolves path relative to d and returns an *OpenFile or an
// *OpenDirectory. Files are opened read-write with the cursor at 0.
func (d *Directory) Open(flags uint32, path string, oflags uint32) (Entry, error) {
	if flags&^LookupSymlinkFollow != 0 {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fmt.Errorf("unsupported lookup flags %#x: %w", flags, fs.ErrInvalid)}
	}
	if oflags&^(OCreate|ODirectory|OExclusive|OTruncate) != 0 {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fmt.Errorf("unsupported oflags %#x: %w", oflags, fs.ErrInvalid)}
	}

	components, err := split(path)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	if len(components) == 0 {
		if oflags&(OExclusive|OCreate) == OExclusive|OCreate {
			return nil, &fs.PathError{Op: "open", Path: path, Err: ErrExist}
		}
		if oflags&OTruncate != 0 {
			return nil, &fs.PathError{Op: "open", Path: path, Err: ErrIsADirectory}
		}
		return &OpenDirectory{Dir: d}, nil
	}

	parent, err := d.walk(components[:len(components)-1])
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	name := components[len(components)-1]

	node, exists := parent.entries[name]
	if !exists {
		if oflags&OCreate == 0 {
			return nil, &fs.PathError{Op: "open", Path: path, Err: ErrPathNotFound}
		}
		if oflags&ODirectory != 0 {
			return nil, &fs.PathError{Op: "open", Path: path, Err: fmt.Errorf("create with directory flag: %w", fs.ErrInvalid)}
		}
		file := &File{}
		if err := parent.Put(name, file); err != nil {
			return nil, err
		}
		return NewOpenFile(file, ModeReadWrite), nil
	}

	if oflags&(OExclusive|OCreate) == OExclusive|OCreate {
		return nil, &fs.PathError{Op: "open", Path: path, Err: ErrExist}
	}

	switch node := node.(type) {
	case *Directory:
		if oflags&OTruncate != 0 {
			return nil, &fs.PathError{Op: "open", Path: path, Err: ErrIsADirectory}
		}
		return &OpenDirectory{Dir: node}, nil
	case *File:
		if oflags&ODirectory != 0 {
			return nil, &fs.PathError{Op: "open", Path: path, Err: ErrNotADirectory}
		}
		if oflags&OTruncate != 0 {
			node.Data = nil
		}
		return NewOpenFile(node, ModeReadWrite), nil
	}
	return nil, &fs.PathError{Op: "open", Path: path, Err: fmt.Errorf("unexpected node %s", node.Kind())}
}
