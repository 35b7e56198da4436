// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"io"
)

// Mode is an OpenFile access mode.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
	ModeReadWrite
	// ModeAppend writes always land at the end of the file.
	ModeAppend
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeReadWrite:
		return "read-write"
	case ModeAppend:
		return "append"
	}
	return "invalid"
}

func (m Mode) readable() bool { return m == ModeRead || m == ModeReadWrite }
func (m Mode) writable() bool { return m != ModeRead }

// OpenFile is a handle on a File. Several handles may share one file;
// each has its own cursor.
type OpenFile struct {
	File   *File
	Mode   Mode
	offset int64
}

// NewOpenFile opens file with the cursor at 0.
func NewOpenFile(file *File, mode Mode) *OpenFile {
	return &OpenFile{File: file, Mode: mode}
}

func (*OpenFile) Kind() string { return "open-file" }

// Read implements io.Reader.
func (f *OpenFile) Read(p []byte) (int, error) {
	if !f.Mode.readable() {
		return 0, ErrAccessMode
	}
	if f.offset >= int64(len(f.File.Data)) {
		return 0, io.EOF
	}
	n := copy(p, f.File.Data[f.offset:])
	f.offset += int64(n)
	return n, nil
}

// Write implements io.Writer. Writing past the end zero-fills the gap.
func (f *OpenFile) Write(p []byte) (int, error) {
	if !f.Mode.writable() {
		return 0, ErrAccessMode
	}
	if f.Mode == ModeAppend {
		f.offset = int64(len(f.File.Data))
	}
	end := f.offset + int64(len(p))
	if grow := end - int64(len(f.File.Data)); grow > 0 {
		f.File.Data = append(f.File.Data, make([]byte, grow)...)
	}
	copy(f.File.Data[f.offset:end], p)
	f.offset = end
	return len(p), nil
}

// Seek implements io.Seeker.
func (f *OpenFile) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = f.offset
	case io.SeekEnd:
		base = int64(len(f.File.Data))
	default:
		return 0, errors.New("seek: invalid whence")
	}
	if base+offset < 0 {
		return 0, errors.New("seek: negative position")
	}
	f.offset = base + offset
	return f.offset, nil
}

// Bytes returns the whole file contents regardless of the cursor.
func (f *OpenFile) Bytes() []byte { return f.File.Data }

// OpenDirectory is a handle on a Directory.
type OpenDirectory struct {
	Dir *Directory
}

func (*OpenDirectory) Kind() string { return "open-directory" }

// Open resolves path relative to the directory.
func (d *OpenDirectory) Open(flags uint32, path string, oflags uint32) (Entry, error) {
	return d.Dir.Open(flags, path, oflags)
}
