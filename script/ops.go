// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/zip"
	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/polyboot/container"
	"github.com/bureau-foundation/polyboot/lib/codec"
	"github.com/bureau-foundation/polyboot/lib/compress"
	"github.com/bureau-foundation/polyboot/vfs"
)

type operation func(m *machine, operands []uint32) (any, error)

// operations maps every opcode except skip, which the machine handles
// itself because its result is the decoded jump target.
var operations = map[Opcode]operation{
	OpText:       opText,
	OpStructured: opStructured,
	OpInt:        opInt,
	OpBytes:      opBytes,
	OpGet:        opGet,
	OpSet:        opSet,
	OpFile:       opFile,
	OpDirectory:  opDirectory,
	OpPreopen:    opPreopen,
	OpOpen:       opOpen,
	OpUnzip:      opUnzip,
	OpSection:    opSection,
	OpOpenFile:   opOpenFile,
	OpNop:        opNop,
	OpCallable:   opCallable,
	OpInflate:    opInflate,
	OpCBOR:       opCBOR,
}

func opText(m *machine, operands []uint32) (any, error) {
	data, err := m.program.bytesAt(operands[0], operands[1])
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", ErrType)
	}
	return string(data), nil
}

func opStructured(m *machine, operands []uint32) (any, error) {
	data, err := m.program.bytesAt(operands[0], operands[1])
	if err != nil {
		return nil, err
	}
	return decodeStructured(data)
}

func opInt(_ *machine, operands []uint32) (any, error) {
	return int64(operands[0]), nil
}

func opBytes(m *machine, operands []uint32) (any, error) {
	data, err := m.program.bytesAt(operands[0], operands[1])
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

func opGet(m *machine, operands []uint32) (any, error) {
	values, err := m.registers(operands[0], operands[1])
	if err != nil {
		return nil, err
	}
	return getAttribute(values[0], values[1])
}

func opSet(m *machine, operands []uint32) (any, error) {
	values, err := m.registers(operands[0], operands[1], operands[2])
	if err != nil {
		return nil, err
	}
	return setAttribute(values[0], values[1], values[2])
}

func opFile(m *machine, operands []uint32) (any, error) {
	value, err := m.register(operands[0])
	if err != nil {
		return nil, err
	}
	content, err := contentBytes(value)
	if err != nil {
		return nil, err
	}
	return vfs.NewFile(content), nil
}

func opDirectory(m *machine, operands []uint32) (any, error) {
	value, err := m.register(operands[0])
	if err != nil {
		return nil, err
	}
	if source, ok := directoryOf(value); ok {
		entries := make(map[string]vfs.Node, source.Len())
		for _, name := range source.Names() {
			entries[name], _ = source.Lookup(name)
		}
		return vfs.NewDirectory(entries)
	}
	return directoryFrom(value)
}

func opPreopen(m *machine, operands []uint32) (any, error) {
	values, err := m.registers(operands[0], operands[1])
	if err != nil {
		return nil, err
	}
	mount, err := stringValue(values[0])
	if err != nil {
		return nil, err
	}
	if dir, ok := directoryOf(values[1]); ok {
		return vfs.NewPreopen(mount, dir), nil
	}
	dir, err := directoryFrom(values[1])
	if err != nil {
		return nil, err
	}
	return vfs.NewPreopen(mount, dir), nil
}

// directoryFrom builds a directory from an object of nodes. nil gives
// an empty directory.
func directoryFrom(value any) (*vfs.Directory, error) {
	switch value := value.(type) {
	case nil:
		return vfs.NewDirectory(nil)
	case *Object:
		entries := make(map[string]vfs.Node, value.Len())
		for _, key := range value.Keys() {
			item, _ := value.Get(key)
			node, ok := item.(vfs.Node)
			if !ok {
				return nil, fmt.Errorf("%w: entry %q is %s, want file or directory", ErrType, key, TypeName(item))
			}
			entries[key] = node
		}
		return vfs.NewDirectory(entries)
	}
	return nil, fmt.Errorf("%w: want directory entries, got %s", ErrType, TypeName(value))
}

func opOpen(m *machine, operands []uint32) (any, error) {
	values, err := m.registers(operands[0], operands[2])
	if err != nil {
		return nil, err
	}
	dir, ok := directoryOf(values[0])
	if !ok {
		return nil, fmt.Errorf("%w: cannot open below %s", ErrType, TypeName(values[0]))
	}
	path, err := stringValue(values[1])
	if err != nil {
		return nil, err
	}
	return dir.Open(operands[1], path, operands[3])
}

func opUnzip(m *machine, operands []uint32) (any, error) {
	value, err := m.register(operands[0])
	if err != nil {
		return nil, err
	}
	archive, err := contentBytes(value)
	if err != nil {
		return nil, err
	}
	return unzipDirectory(archive)
}

// unzipDirectory extracts a zip archive into a fresh directory. The
// total extracted size is bounded by compress.MaxInflatedSize.
func unzipDirectory(archive []byte) (*vfs.Directory, error) {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("reading zip archive: %w", err)
	}

	dir := &vfs.Directory{}
	var total int64
	for _, file := range reader.File {
		if strings.HasSuffix(file.Name, "/") {
			if _, err := dir.MkdirAll(file.Name); err != nil {
				return nil, err
			}
			continue
		}

		contents, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s in zip archive: %w", file.Name, err)
		}
		data, err := io.ReadAll(io.LimitReader(contents, compress.MaxInflatedSize-total+1))
		contents.Close()
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", file.Name, err)
		}
		total += int64(len(data))
		if total > compress.MaxInflatedSize {
			return nil, compress.ErrTooLarge
		}
		if err := dir.WriteFile(file.Name, data); err != nil {
			return nil, err
		}
	}
	return dir, nil
}

func opSection(m *machine, operands []uint32) (any, error) {
	value, err := m.register(operands[0])
	if err != nil {
		return nil, err
	}
	name, err := stringValue(value)
	if err != nil {
		return nil, err
	}
	if m.interpreter.segments == nil {
		return nil, &container.SegmentError{Name: name, Err: container.ErrMissingSegment}
	}
	data, err := m.interpreter.segments.Segment(name)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

func opOpenFile(m *machine, operands []uint32) (any, error) {
	value, err := m.register(operands[0])
	if err != nil {
		return nil, err
	}
	switch target := value.(type) {
	case *vfs.File:
		return vfs.NewOpenFile(target, vfs.ModeReadWrite), nil
	case *vfs.OpenFile:
		return vfs.NewOpenFile(target.File, vfs.ModeReadWrite), nil
	}
	return nil, fmt.Errorf("%w: cannot open %s as a file", ErrType, TypeName(value))
}

func opNop(*machine, []uint32) (any, error) {
	return nil, nil
}

func opCallable(m *machine, operands []uint32) (any, error) {
	value, err := m.register(operands[0])
	if err != nil {
		return nil, err
	}
	if m.interpreter.units == nil {
		return nil, ErrUnsafeDisabled
	}
	source, err := contentBytes(value)
	if err != nil {
		return nil, err
	}
	return m.interpreter.units.LoadUnit(m.ctx, source)
}

func opInflate(m *machine, operands []uint32) (any, error) {
	values, err := m.registers(operands[0], operands[1])
	if err != nil {
		return nil, err
	}
	data, err := contentBytes(values[0])
	if err != nil {
		return nil, err
	}
	name, err := stringValue(values[1])
	if err != nil {
		return nil, err
	}
	codecName, err := compress.ParseCodec(name)
	if err != nil {
		return nil, err
	}
	return compress.Decompress(data, codecName)
}

func opCBOR(m *machine, operands []uint32) (any, error) {
	data, err := m.program.bytesAt(operands[0], operands[1])
	if err != nil {
		return nil, err
	}
	value, err := codec.DecodeValue(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrType, err)
	}
	return fromCBOR(value)
}

// decodeStructured parses JSON, tolerating comments and trailing
// commas. Object key order is preserved; integral numbers become
// int64 and the rest float64.
func decodeStructured(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()

	value, err := decodeJSONValue(decoder)
	if err != nil {
		return nil, fmt.Errorf("%w: structured text: %v", ErrType, err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after structured value", ErrType)
	}
	return value, nil
}

func decodeJSONValue(decoder *json.Decoder) (any, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	switch token := token.(type) {
	case json.Delim:
		switch token {
		case '{':
			object := NewObject()
			for decoder.More() {
				keyToken, err := decoder.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyToken.(string)
				if !ok {
					return nil, fmt.Errorf("object key %v is not a string", keyToken)
				}
				value, err := decodeJSONValue(decoder)
				if err != nil {
					return nil, err
				}
				object.Set(key, value)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return object, nil
		case '[':
			list := NewList()
			for decoder.More() {
				value, err := decodeJSONValue(decoder)
				if err != nil {
					return nil, err
				}
				list.Append(value)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("unexpected %v", token)
	case json.Number:
		if integer, err := token.Int64(); err == nil {
			return integer, nil
		}
		return token.Float64()
	case string:
		return token, nil
	case bool:
		return token, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected token %T", token)
}

// fromCBOR converts a generic CBOR value into register values. Map
// keys must be text or integers and must stay distinct once rendered
// as attribute names; the resulting object lists keys in sorted order.
func fromCBOR(value any) (any, error) {
	switch value := value.(type) {
	case nil, bool, string, int64, float64, []byte:
		return value, nil
	case float32:
		return float64(value), nil
	case []any:
		list := NewList()
		for _, item := range value {
			converted, err := fromCBOR(item)
			if err != nil {
				return nil, err
			}
			list.Append(converted)
		}
		return list, nil
	case map[any]any:
		names := make([]string, 0, len(value))
		converted := make(map[string]any, len(value))
		for key, item := range value {
			name, err := attributeName(key)
			if err != nil {
				return nil, err
			}
			if _, dup := converted[name]; dup {
				return nil, fmt.Errorf("%w: CBOR map has two keys named %q", ErrType, name)
			}
			convertedItem, err := fromCBOR(item)
			if err != nil {
				return nil, err
			}
			names = append(names, name)
			converted[name] = convertedItem
		}
		slices.Sort(names)
		object := NewObject()
		for _, name := range names {
			object.Set(name, converted[name])
		}
		return object, nil
	}
	return nil, fmt.Errorf("%w: CBOR value of type %T", ErrType, value)
}
