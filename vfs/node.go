// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strings"
)

// Entry is anything that can occupy a descriptor table slot.
type Entry interface {
	// Kind names the entry type in listings and error messages.
	Kind() string
}

// Node is a filesystem entry that can live inside a Directory.
type Node interface {
	Entry
	node()
}

// File is a plain file: a byte buffer.
type File struct {
	Data []byte
}

// NewFile returns a file holding a copy of data.
func NewFile(data []byte) *File {
	return &File{Data: bytes.Clone(data)}
}

func (*File) Kind() string { return "file" }
func (*File) node()        {}

// Directory maps names to nodes.
type Directory struct {
	entries map[string]Node
}

// NewDirectory returns a directory holding entries. Names are
// validated; the map itself is not retained.
func NewDirectory(entries map[string]Node) (*Directory, error) {
	dir := &Directory{entries: make(map[string]Node, len(entries))}
	for name, node := range entries {
		if err := dir.Put(name, node); err != nil {
			return nil, err
		}
	}
	return dir, nil
}

func (*Directory) Kind() string { return "directory" }
func (*Directory) node()        {}

// Lookup returns the node called name.
func (d *Directory) Lookup(name string) (Node, bool) {
	node, ok := d.entries[name]
	return node, ok
}

// Put binds name to node, replacing any previous binding.
func (d *Directory) Put(name string, node Node) error {
	if err := checkName(name); err != nil {
		return err
	}
	if node == nil {
		return fmt.Errorf("binding %q: nil node", name)
	}
	if d.entries == nil {
		d.entries = make(map[string]Node)
	}
	d.entries[name] = node
	return nil
}

// Remove unbinds name. Removing an absent name is not an error.
func (d *Directory) Remove(name string) {
	delete(d.entries, name)
}

// Names returns the entry names in sorted order.
func (d *Directory) Names() []string {
	return slices.Sorted(maps.Keys(d.entries))
}

// Len returns the number of entries.
func (d *Directory) Len() int { return len(d.entries) }

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, '/') {
		return &fs.PathError{Op: "bind", Path: name, Err: ErrInvalidName}
	}
	return nil
}

// WriteFile stores data at path below d, creating missing intermediate
// directories. An existing file at path is updated in place so every
// alias of it observes the new contents.
func (d *Directory) WriteFile(path string, data []byte) error {
	components, err := split(path)
	if err != nil {
		return &fs.PathError{Op: "write", Path: path, Err: err}
	}
	if len(components) == 0 {
		return &fs.PathError{Op: "write", Path: path, Err: ErrIsADirectory}
	}

	parent, err := d.MkdirAll(strings.Join(components[:len(components)-1], "/"))
	if err != nil {
		return &fs.PathError{Op: "write", Path: path, Err: ErrNotADirectory}
	}

	name := components[len(components)-1]
	switch existing := parent.entries[name].(type) {
	case *File:
		existing.Data = bytes.Clone(data)
		return nil
	case *Directory:
		return &fs.PathError{Op: "write", Path: path, Err: ErrIsADirectory}
	}
	return parent.Put(name, NewFile(data))
}

// RemovePath unbinds the entry at path. A missing path is not an error.
func (d *Directory) RemovePath(path string) error {
	components, err := split(path)
	if err != nil {
		return &fs.PathError{Op: "remove", Path: path, Err: err}
	}
	if len(components) == 0 {
		return &fs.PathError{Op: "remove", Path: path, Err: ErrInvalidName}
	}
	parent, err := d.walk(components[:len(components)-1])
	if err != nil {
		if errors.Is(err, ErrPathNotFound) {
			return nil
		}
		return &fs.PathError{Op: "remove", Path: path, Err: err}
	}
	parent.Remove(components[len(components)-1])
	return nil
}

// walk descends through components, each of which must name a
// directory.
func (d *Directory) walk(components []string) (*Directory, error) {
	current := d
	for _, name := range components {
		node, ok := current.entries[name]
		if !ok {
			return nil, ErrPathNotFound
		}
		next, ok := node.(*Directory)
		if !ok {
			return nil, ErrNotADirectory
		}
		current = next
	}
	return current, nil
}

// split normalizes a relative guest path into components. "." and
// empty segments vanish; ".." pops, and popping past the start is
// ErrPathNotFound.
func split(path string) ([]string, error) {
	var components []string
	for _, segment := range strings.Split(path, "/") {
		switch segment {
		case "", ".":
		case "..":
			if len(components) == 0 {
				return nil, ErrPathNotFound
			}
			components = components[:len(components)-1]
		default:
			components = append(components, segment)
		}
	}
	return components, nil
}

// MkdirAll creates the directory at path and any missing parents, and
// returns it.
func (d *Directory) MkdirAll(path string) (*Directory, error) {
	components, err := split(path)
	if err != nil {
		return nil, &fs.PathError{Op: "mkdir", Path: path, Err: err}
	}
	current := d
	for _, name := range components {
		node, ok := current.entries[name]
		if !ok {
			child := &Directory{entries: make(map[string]Node)}
			if current.entries == nil {
				current.entries = make(map[string]Node)
			}
			current.entries[name] = child
			current = child
			continue
		}
		child, ok := node.(*Directory)
		if !ok {
			return nil, &fs.PathError{Op: "mkdir", Path: path, Err: ErrNotADirectory}
		}
		current = child
	}
	return current, nil
}
