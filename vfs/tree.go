// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"io/fs"
	"os"
)

// TreeEntry is one line of a directory listing.
type TreeEntry struct {
	Path string `cbor:"path"`
	Dir  bool   `cbor:"dir,omitempty"`
	Size int64  `cbor:"size"`
}

// Tree lists every path below dir in lexical walk order. The root
// itself is not listed.
func Tree(dir *Directory) ([]TreeEntry, error) {
	var entries []TreeEntry
	err := fs.WalkDir(FS(dir), ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		entries = append(entries, TreeEntry{Path: path, Dir: entry.IsDir(), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing tree: %w", err)
	}
	return entries, nil
}

// Import merges the host directory tree at hostPath into dir. Host
// files overwrite same-named files in place; entries only in dir are
// kept. Anything that is neither a regular file nor a directory is
// skipped.
func Import(dir *Directory, hostPath string) error {
	host := os.DirFS(hostPath)
	return fs.WalkDir(host, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch {
		case path == ".":
			return nil
		case entry.IsDir():
			_, err := dir.MkdirAll(path)
			return err
		case entry.Type().IsRegular():
			data, err := fs.ReadFile(host, path)
			if err != nil {
				return err
			}
			return dir.WriteFile(path, data)
		}
		return nil
	})
}
