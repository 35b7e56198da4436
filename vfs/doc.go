// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfs is the in-memory process environment a stage is booted
// into: argument vector, environment strings, descriptor table, and a
// nested filesystem.
//
// Filesystem nodes are [*File] (a byte buffer) and [*Directory] (a
// name to node map). A node may be reachable by more than one path;
// the boot seed relies on this to make proc/0 an alias of proc/self.
//
// Descriptor table entries ([Entry]) are nodes plus three kinds that
// only appear in the table: [*Preopen] (a directory mounted at a guest
// path), [*OpenFile] (a file handle with a cursor and access mode), and
// [*OpenDirectory].
//
// [Directory.Open] resolves paths the way WASI path_open does: "."
// segments are ignored, ".." never climbs above the directory it
// started from, and oflags select create, exclusive, truncate, and
// directory-only behavior. Failures are *fs.PathError values wrapping
// [ErrPathNotFound], [ErrNotADirectory], [ErrExist], or
// [ErrIsADirectory].
//
// [FS] adapts a directory to io/fs so the standard walking and copying
// helpers work on it; directory cycles are pruned so a walk always
// terminates. [Tree] and [Import] are built on that adapter.
package vfs
