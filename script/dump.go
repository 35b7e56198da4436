// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/bureau-foundation/polyboot/sandbox"
	"github.com/bureau-foundation/polyboot/vfs"
)

// Describe renders a register value on one line for fault reports.
// Long strings and byte slices are shortened.
func Describe(value any) string {
	switch value := value.(type) {
	case nil:
		return "nil"
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case string:
		if utf8.RuneCountInString(value) > previewLength {
			value = string([]rune(value)[:previewLength]) + "..."
		}
		return strconv.Quote(value)
	case []byte:
		return fmt.Sprintf("bytes(%d)", len(value))
	case *Object:
		return fmt.Sprintf("object%q", value.Keys())
	case *List:
		return fmt.Sprintf("list(%d)", value.Len())
	case *vfs.File:
		return fmt.Sprintf("file(%d bytes)", len(value.Data))
	case *vfs.Directory:
		return fmt.Sprintf("directory%q", value.Names())
	case *vfs.Preopen:
		return fmt.Sprintf("preopen(%q, %d entries)", value.Path, value.Dir.Len())
	case *vfs.OpenFile:
		return fmt.Sprintf("open-file(%s, %d bytes)", value.Mode, len(value.Bytes()))
	case *vfs.OpenDirectory:
		return fmt.Sprintf("open-directory%q", value.Dir.Names())
	case *sandbox.Unit:
		return fmt.Sprintf("unit(%d bytes)", len(value.Source))
	}
	return TypeName(value)
}

// DumpRegisters describes every register of table, prefixed with its
// index.
func DumpRegisters(table []any) []string {
	lines := make([]string, len(table))
	for i, value := range table {
		lines[i] = fmt.Sprintf("r%d = %s", i, Describe(value))
	}
	return lines
}
