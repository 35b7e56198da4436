// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"slices"
	"unicode/utf8"
)

// Reserved segment names.
const (
	ShellSegment        = "wah_polyglot_stage1_html"
	ConfiguratorSegment = "wah_polyglot_stage2"
	GlueSegment         = "wah_polyglot_wasm_bindgen"
	ConfigSegment       = "wah_wasi_config"
)

// Conventional data segment names. Scripts reference these through
// the section opcode; the reader gives them no special treatment.
const (
	ConfiguratorDataSegment = "wah_polyglot_stage2_data"
	PayloadDataSegment      = "wah_polyglot_stage3"
)

// Reserved reports whether name is one of the four reserved segment
// names.
func Reserved(name string) bool {
	switch name {
	case ShellSegment, ConfiguratorSegment, GlueSegment, ConfigSegment:
		return true
	}
	return false
}

var magic = []byte{0x00, 0x61, 0x73, 0x6d}

const (
	headerSize    = 8
	moduleVersion = 1
	customID      = 0
)

// Segment is one named custom section.
type Segment struct {
	Name string
	Data []byte

	// Offset is the byte offset of the section's id byte within the
	// artifact.
	Offset int
}

// Container is a parsed artifact. It is immutable after Parse and safe
// for concurrent readers.
type Container struct {
	payload  []byte
	segments []Segment
	index    map[string][]int
}

// Options tunes Parse.
type Options struct {
	// Required names segments that must be present.
	Required []string
}

// Parse validates data as a module and extracts its custom sections.
// The returned Container holds its own copy of data.
func Parse(data []byte, options Options) (*Container, error) {
	if len(data) < headerSize {
		return nil, malformed(0, "artifact is %d bytes, shorter than the module header", len(data))
	}
	if !bytes.Equal(data[:4], magic) {
		return nil, malformed(0, "bad magic % x", data[:4])
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != moduleVersion {
		return nil, malformed(4, "unsupported module version %d", version)
	}

	payload := bytes.Clone(data)
	c := &Container{
		payload: payload,
		index:   make(map[string][]int),
	}

	offset := headerSize
	for offset < len(payload) {
		start := offset
		id := payload[offset]
		offset++

		size, n, err := readU32(payload[offset:])
		if err != nil {
			return nil, malformed(offset, "section size: %v", err)
		}
		offset += n
		if uint64(offset)+uint64(size) > uint64(len(payload)) {
			return nil, malformed(start, "section %d declares %d bytes, %d remain", id, size, len(payload)-offset)
		}
		body := payload[offset : offset+int(size)]
		offset += int(size)

		if id != customID {
			continue
		}

		nameLength, n, err := readU32(body)
		if err != nil {
			return nil, malformed(start, "custom section name length: %v", err)
		}
		if uint64(n)+uint64(nameLength) > uint64(len(body)) {
			return nil, malformed(start, "custom section name of %d bytes overruns its section", nameLength)
		}
		name := body[n : n+int(nameLength)]
		if !utf8.Valid(name) {
			return nil, malformed(start, "custom section name is not UTF-8")
		}

		segment := Segment{
			Name:   string(name),
			Data:   body[n+int(nameLength):],
			Offset: start,
		}
		if Reserved(segment.Name) && len(c.index[segment.Name]) > 0 {
			return nil, &SegmentError{Name: segment.Name, Err: ErrAmbiguousSegment}
		}
		c.index[segment.Name] = append(c.index[segment.Name], len(c.segments))
		c.segments = append(c.segments, segment)
	}

	for _, name := range options.Required {
		if len(c.index[name]) == 0 {
			return nil, &SegmentError{Name: name, Err: ErrMissingSegment}
		}
	}

	return c, nil
}

// readU32 decodes an unsigned LEB128 value that must fit in 32 bits.
func readU32(data []byte) (uint32, int, error) {
	value, n := binary.Uvarint(data)
	switch {
	case n == 0:
		return 0, 0, errTruncatedLEB
	case n < 0 || n > 5 || value > math.MaxUint32:
		return 0, 0, errOverflowLEB
	}
	return uint32(value), n, nil
}

var (
	errTruncatedLEB = errors.New("truncated LEB128")
	errOverflowLEB  = errors.New("LEB128 value exceeds 32 bits")
)

// Payload returns the whole module. Callers must not modify it.
func (c *Container) Payload() []byte { return c.payload }

// Segments returns every custom section in artifact order.
func (c *Container) Segments() []Segment { return slices.Clone(c.segments) }

// Names returns the distinct segment names in order of first
// appearance.
func (c *Container) Names() []string {
	names := make([]string, 0, len(c.index))
	seen := make(map[string]bool, len(c.index))
	for _, segment := range c.segments {
		if !seen[segment.Name] {
			seen[segment.Name] = true
			names = append(names, segment.Name)
		}
	}
	return names
}

// Has reports whether at least one segment is named name.
func (c *Container) Has(name string) bool { return len(c.index[name]) > 0 }

// Segment returns the data of the segment called name. An absent name
// yields ErrMissingSegment; a repeated one yields ErrAmbiguousSegment.
// Both arrive wrapped in *SegmentError.
func (c *Container) Segment(name string) ([]byte, error) {
	positions := c.index[name]
	switch len(positions) {
	case 0:
		return nil, &SegmentError{Name: name, Err: ErrMissingSegment}
	case 1:
		return c.segments[positions[0]].Data, nil
	default:
		return nil, &SegmentError{Name: name, Err: ErrAmbiguousSegment}
	}
}

// Optional returns the segment data and true when name occurs exactly
// once, nil and false when it is absent, and an error when it repeats.
func (c *Container) Optional(name string) ([]byte, bool, error) {
	data, err := c.Segment(name)
	if err != nil {
		if len(c.index[name]) == 0 {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// AppendSegment returns module with one custom section appended. The
// input is not modified.
func AppendSegment(module []byte, name string, data []byte) []byte {
	body := binary.AppendUvarint(nil, uint64(len(name)))
	body = append(body, name...)
	body = append(body, data...)

	out := slices.Clip(bytes.Clone(module))
	out = append(out, customID)
	out = binary.AppendUvarint(out, uint64(len(body)))
	return append(out, body...)
}
