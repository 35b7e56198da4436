// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"
)

// FS exposes dir as a read-only io/fs.FS. A directory that is its own
// ancestor on the path being resolved is hidden, so fs.WalkDir and
// os.CopyFS terminate on trees with cycles. Non-cyclic aliases, such
// as two names for one directory, appear under both names.
func FS(dir *Directory) fs.FS {
	return &dirFS{root: dir}
}

type dirFS struct {
	root *Directory
}

var (
	_ fs.ReadDirFS  = (*dirFS)(nil)
	_ fs.ReadFileFS = (*dirFS)(nil)
)

func (f *dirFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	node, ancestors, err := f.resolve(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	info := nodeInfo{name: path.Base(name), node: node}
	switch node := node.(type) {
	case *File:
		return &fsFile{info: info, reader: bytes.NewReader(node.Data)}, nil
	case *Directory:
		return &fsDir{info: info, dir: node, ancestors: ancestors}, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
}

func (f *dirFS) ReadDir(name string) ([]fs.DirEntry, error) {
	file, err := f.Open(name)
	if err != nil {
		return nil, err
	}
	dir, ok := file.(*fsDir)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: ErrNotADirectory}
	}
	return dir.ReadDir(-1)
}

func (f *dirFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	node, _, err := f.resolve(name)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	file, ok := node.(*File)
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: ErrIsADirectory}
	}
	return bytes.Clone(file.Data), nil
}

// resolve walks name from the root and returns the node plus the set
// of directories on the way to it, itself included when it is one.
func (f *dirFS) resolve(name string) (Node, map[*Directory]bool, error) {
	ancestors := map[*Directory]bool{f.root: true}
	if name == "." {
		return f.root, ancestors, nil
	}
	var current Node = f.root
	for _, component := range strings.Split(name, "/") {
		dir, ok := current.(*Directory)
		if !ok {
			return nil, nil, ErrNotADirectory
		}
		next, ok := dir.entries[component]
		if !ok {
			return nil, nil, fs.ErrNotExist
		}
		if child, isDir := next.(*Directory); isDir {
			if ancestors[child] {
				return nil, nil, fs.ErrNotExist
			}
			ancestors[child] = true
		}
		current = next
	}
	return current, ancestors, nil
}

// nodeInfo serves as both fs.FileInfo and fs.DirEntry.
type nodeInfo struct {
	name string
	node Node
}

func (i nodeInfo) Name() string { return i.name }

func (i nodeInfo) Size() int64 {
	if file, ok := i.node.(*File); ok {
		return int64(len(file.Data))
	}
	return 0
}

func (i nodeInfo) Mode() fs.FileMode {
	if i.IsDir() {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

func (i nodeInfo) ModTime() time.Time { return time.Time{} }

func (i nodeInfo) IsDir() bool {
	_, ok := i.node.(*Directory)
	return ok
}

func (i nodeInfo) Sys() any                   { return nil }
func (i nodeInfo) Type() fs.FileMode          { return i.Mode().Type() }
func (i nodeInfo) Info() (fs.FileInfo, error) { return i, nil }

type fsFile struct {
	info   nodeInfo
	reader *bytes.Reader
}

func (f *fsFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *fsFile) Read(p []byte) (int, error) { return f.reader.Read(p) }
func (f *fsFile) Close() error               { return nil }

type fsDir struct {
	info      nodeInfo
	dir       *Directory
	ancestors map[*Directory]bool
	listing   []fs.DirEntry
	listed    bool
	position  int
}

func (d *fsDir) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *fsDir) Close() error               { return nil }

func (d *fsDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.name, Err: ErrIsADirectory}
}

// ReadDir follows the fs.ReadDirFile contract.
func (d *fsDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.listed {
		d.listed = true
		for _, name := range d.dir.Names() {
			node := d.dir.entries[name]
			if child, ok := node.(*Directory); ok && d.ancestors[child] {
				continue
			}
			d.listing = append(d.listing, nodeInfo{name: name, node: node})
		}
	}

	remaining := d.listing[d.position:]
	if n <= 0 {
		d.position = len(d.listing)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	if n > len(remaining) {
		n = len(remaining)
	}
	d.position += n
	return remaining[:n], nil
}
