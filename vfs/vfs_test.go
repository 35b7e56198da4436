// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func mustDirectory(entries map[string]Node) *Directory {
	dir, err := NewDirectory(entries)
	if err != nil {
		panic(err)
	}
	return dir
}

// procTree builds the boot layout: proc/self/{fd/{0,1,2},exe} with
// proc/0 aliasing proc/self.
func procTree(t *testing.T) (*Directory, *Directory) {
	t.Helper()
	fd := mustDirectory(map[string]Node{
		"0": NewFile(nil),
		"1": NewFile(nil),
		"2": NewFile(nil),
	})
	self := mustDirectory(map[string]Node{
		"fd":  fd,
		"exe": NewFile([]byte("\x00asm")),
	})
	proc := mustDirectory(map[string]Node{"self": self, "0": self})
	return mustDirectory(map[string]Node{"proc": proc}), self
}

func TestDirectoryNamesSorted(t *testing.T) {
	dir := mustDirectory(map[string]Node{"b": NewFile(nil), "a": NewFile(nil), "c": &Directory{}})
	names := dir.Names()
	want := []string{"a", "b", "c"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", names, want)
		}
	}
}

func TestPutRejectsBadNames(t *testing.T) {
	dir := &Directory{}
	for _, name := range []string{"", ".", "..", "a/b"} {
		if err := dir.Put(name, NewFile(nil)); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Put(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestOpenExistingFile(t *testing.T) {
	root, self := procTree(t)
	preopen := NewPreopen(".", root)

	entry, err := preopen.Open(0, "proc/self/exe", 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	handle, ok := entry.(*OpenFile)
	if !ok {
		t.Fatalf("Open returned %T, want *OpenFile", entry)
	}
	exe, _ := self.Lookup("exe")
	if handle.File != exe {
		t.Error("handle does not reference the tree's file")
	}
}

func TestOpenThroughAlias(t *testing.T) {
	root, _ := procTree(t)

	entry, err := root.Open(0, "proc/0/index.wasm", OCreate)
	if err != nil {
		t.Fatalf("Open(create): %v", err)
	}
	if _, err := entry.(*OpenFile).Write([]byte("next")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	again, err := root.Open(0, "./proc/self/../self/index.wasm", 0)
	if err != nil {
		t.Fatalf("Open through alias: %v", err)
	}
	data, err := io.ReadAll(again.(*OpenFile))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "next" {
		t.Errorf("data = %q, want next", data)
	}
}

func TestOpenErrors(t *testing.T) {
	root, _ := procTree(t)
	tests := []struct {
		name   string
		path   string
		oflags uint32
		want   error
	}{
		{"missing", "proc/missing", 0, ErrPathNotFound},
		{"missing parent", "nope/file", OCreate, ErrPathNotFound},
		{"file as directory", "proc/self/exe/x", 0, ErrNotADirectory},
		{"directory flag on file", "proc/self/exe", ODirectory, ErrNotADirectory},
		{"exclusive create", "proc/self/exe", OCreate | OExclusive, ErrExist},
		{"truncate directory", "proc", OTruncate, ErrIsADirectory},
		{"climb above root", "../etc/passwd", 0, ErrPathNotFound},
		{"climb after descent", "proc/../../x", 0, ErrPathNotFound},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := root.Open(0, test.path, test.oflags)
			if !errors.Is(err, test.want) {
				t.Errorf("Open(%q) error = %v, want %v", test.path, err, test.want)
			}
			var pathErr *fs.PathError
			if !errors.As(err, &pathErr) {
				t.Errorf("error %v is not a *fs.PathError", err)
			}
		})
	}
	if _, err := root.Open(0, "proc/missing", 0); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ErrPathNotFound does not match fs.ErrNotExist: %v", err)
	}
}

func TestOpenDirectoryAndDot(t *testing.T) {
	root, self := procTree(t)

	entry, err := root.Open(0, "proc/self", ODirectory)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if dir, ok := entry.(*OpenDirectory); !ok || dir.Dir != self {
		t.Errorf("Open returned %#v, want OpenDirectory on proc/self", entry)
	}

	entry, err = root.Open(0, ".", 0)
	if err != nil {
		t.Fatalf("Open(.): %v", err)
	}
	if dir, ok := entry.(*OpenDirectory); !ok || dir.Dir != root {
		t.Errorf("Open(.) returned %#v, want the root", entry)
	}
}

func TestOpenReturnsInsertedNodes(t *testing.T) {
	exe := NewFile([]byte("\x00asm"))
	config := NewFile([]byte("{}"))
	empty := NewFile(nil)
	deep := NewFile([]byte("deep"))
	leaf := mustDirectory(map[string]Node{"deep.txt": deep})
	nested := mustDirectory(map[string]Node{"leaf": leaf, "empty": empty})
	etc := mustDirectory(map[string]Node{"config.json": config, "nested": nested})
	vacant := mustDirectory(nil)
	root := mustDirectory(map[string]Node{
		"exe":    exe,
		"etc":    etc,
		"vacant": vacant,
	})
	preopen := NewPreopen("/", root)

	tests := []struct {
		path string
		want Node
	}{
		{"exe", exe},
		{"etc", etc},
		{"etc/config.json", config},
		{"etc/nested", nested},
		{"etc/nested/empty", empty},
		{"etc/nested/leaf", leaf},
		{"etc/nested/leaf/deep.txt", deep},
		{"vacant", vacant},
		{"./etc/nested/../nested/leaf/deep.txt", deep},
	}
	for _, test := range tests {
		t.Run(test.path, func(t *testing.T) {
			entry, err := preopen.Open(LookupSymlinkFollow, test.path, 0)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			switch want := test.want.(type) {
			case *File:
				handle, ok := entry.(*OpenFile)
				if !ok || handle.File != want {
					t.Errorf("Open returned %#v, want a handle on the inserted file", entry)
				}
			case *Directory:
				handle, ok := entry.(*OpenDirectory)
				if !ok || handle.Dir != want {
					t.Errorf("Open returned %#v, want a handle on the inserted directory", entry)
				}
			}
		})
	}
}

func TestOpenTruncate(t *testing.T) {
	root, self := procTree(t)
	if _, err := root.Open(0, "proc/self/exe", OTruncate); err != nil {
		t.Fatalf("Open: %v", err)
	}
	exe, _ := self.Lookup("exe")
	if len(exe.(*File).Data) != 0 {
		t.Error("truncate left data behind")
	}
}

func TestOpenRejectsUnknownFlags(t *testing.T) {
	root, _ := procTree(t)
	if _, err := root.Open(0x10, "proc", 0); !errors.Is(err, fs.ErrInvalid) {
		t.Errorf("unknown lookup flags error = %v", err)
	}
	if _, err := root.Open(0, "proc", 0x40); !errors.Is(err, fs.ErrInvalid) {
		t.Errorf("unknown oflags error = %v", err)
	}
}

func TestOpenFileModes(t *testing.T) {
	file := NewFile([]byte("abc"))

	reader := NewOpenFile(file, ModeRead)
	if _, err := reader.Write([]byte("x")); !errors.Is(err, ErrAccessMode) {
		t.Errorf("write on read handle error = %v", err)
	}

	writer := NewOpenFile(file, ModeWrite)
	if _, err := writer.Read(make([]byte, 1)); !errors.Is(err, ErrAccessMode) {
		t.Errorf("read on write handle error = %v", err)
	}
	if _, err := writer.Write([]byte("X")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if string(file.Data) != "Xbc" {
		t.Errorf("data = %q, want Xbc", file.Data)
	}

	appender := NewOpenFile(file, ModeAppend)
	if _, err := appender.Write([]byte("!")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if string(file.Data) != "Xbc!" {
		t.Errorf("data = %q, want Xbc!", file.Data)
	}

	both := NewOpenFile(file, ModeReadWrite)
	if _, err := both.Seek(6, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if _, err := both.Write([]byte("z")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if string(file.Data) != "Xbc!\x00\x00z" {
		t.Errorf("data = %q, want zero-filled gap", file.Data)
	}
}

func TestFSConformance(t *testing.T) {
	root, _ := procTree(t)
	err := fstest.TestFS(FS(root),
		"proc/self/exe", "proc/self/fd/0", "proc/0/exe", "proc/0/fd/2")
	if err != nil {
		t.Fatal(err)
	}
}

func TestFSPrunesCycles(t *testing.T) {
	loop := &Directory{}
	if err := loop.Put("again", loop); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := loop.Put("file", NewFile([]byte("x"))); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entries, err := Tree(loop)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "file" {
		t.Errorf("Tree = %+v, want only the file", entries)
	}
}

func TestTree(t *testing.T) {
	root, _ := procTree(t)
	entries, err := Tree(root)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	want := []TreeEntry{
		{Path: "proc", Dir: true},
		{Path: "proc/0", Dir: true},
		{Path: "proc/0/exe", Size: 4},
		{Path: "proc/0/fd", Dir: true},
		{Path: "proc/0/fd/0"},
		{Path: "proc/0/fd/1"},
		{Path: "proc/0/fd/2"},
		{Path: "proc/self", Dir: true},
		{Path: "proc/self/exe", Size: 4},
		{Path: "proc/self/fd", Dir: true},
		{Path: "proc/self/fd/0"},
		{Path: "proc/self/fd/1"},
		{Path: "proc/self/fd/2"},
	}
	if len(entries) != len(want) {
		t.Fatalf("Tree has %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestImportMergesHostTree(t *testing.T) {
	host := t.TempDir()
	if err := os.MkdirAll(filepath.Join(host, "proc", "0"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(host, "proc", "0", "index.wasm"), []byte("stage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(host, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	root, self := procTree(t)
	if err := Import(root, host); err != nil {
		t.Fatalf("Import: %v", err)
	}

	next, ok := self.Lookup("index.wasm")
	if !ok || string(next.(*File).Data) != "stage" {
		t.Error("imported file not visible through the proc/self alias")
	}
	if _, ok := root.Lookup("empty"); !ok {
		t.Error("empty host directory not imported")
	}
	if _, ok := self.Lookup("exe"); !ok {
		t.Error("Import removed an entry missing from the host")
	}
}

func TestWriteFileUpdatesInPlace(t *testing.T) {
	root, self := procTree(t)
	exe, _ := self.Lookup("exe")

	if err := root.WriteFile("proc/0/exe", []byte("new")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if string(exe.(*File).Data) != "new" {
		t.Error("WriteFile replaced the node instead of updating it")
	}
	if err := root.WriteFile("proc/self/exe/x", nil); !errors.Is(err, ErrNotADirectory) {
		t.Errorf("WriteFile below a file error = %v", err)
	}
	if err := root.RemovePath("proc/self/exe"); err != nil {
		t.Fatalf("RemovePath: %v", err)
	}
	if _, ok := self.Lookup("exe"); ok {
		t.Error("RemovePath left the entry")
	}
	if err := root.RemovePath("no/such/path"); err != nil {
		t.Errorf("RemovePath on missing path: %v", err)
	}
}

func TestEnvironment(t *testing.T) {
	root, _ := procTree(t)
	stdout := NewOpenFile(NewFile([]byte("out")), ModeAppend)
	env := &Environment{
		Args: []string{"exe"},
		Env:  []string{"A=1"},
		Fds:  []Entry{NewOpenFile(NewFile(nil), ModeRead), stdout, NewOpenFile(NewFile(nil), ModeAppend), NewPreopen(".", root)},
	}
	if err := env.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if preopen, ok := env.Root(); !ok || preopen.Dir != root {
		t.Error("Root did not return the first preopen")
	}
	if string(env.Stream(1)) != "out" {
		t.Errorf("Stream(1) = %q", env.Stream(1))
	}
	if env.Stream(7) != nil {
		t.Error("Stream past the table should be nil")
	}

	env.Env = append(env.Env, "BROKEN")
	if err := env.Validate(); err == nil {
		t.Error("Validate accepted an env string without '='")
	}
}
