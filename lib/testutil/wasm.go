// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import "encoding/binary"

// Section is a custom section appended to an assembled module.
type Section struct {
	Name string
	Data []byte
}

// Program describes a WASI command module. The assembled module
// exports "memory" and "_start"; _start optionally writes Stdout to
// file descriptor 1 and then optionally calls proc_exit with ExitCode.
type Program struct {
	Stdout   string
	ExitCode uint32

	// Namespace is the module name WASI functions are imported
	// from. Empty means wasi_snapshot_preview1.
	Namespace string

	Sections []Section
}

// nwrittenOffset is where fd_write stores its byte count. It sits past
// the iovec and the message in the first page.
const nwrittenOffset = 1024

// Bytes assembles the module.
func (p Program) Bytes() []byte {
	namespace := p.Namespace
	if namespace == "" {
		namespace = "wasi_snapshot_preview1"
	}

	types := vector(
		[]byte{0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x01, 0x7f}, // fd_write
		[]byte{0x60, 0x01, 0x7f, 0x00},                         // proc_exit
		[]byte{0x60, 0x00, 0x00},                               // _start
	)
	imports := vector(
		concat(name(namespace), name("fd_write"), []byte{0x00, 0x00}),
		concat(name(namespace), name("proc_exit"), []byte{0x00, 0x01}),
	)
	exports := vector(
		concat(name("memory"), []byte{0x02, 0x00}),
		concat(name("_start"), []byte{0x00, 0x02}),
	)

	body := []byte{0x00}
	var data []byte
	if p.Stdout != "" {
		// iovec {buf: 8, len: n} at offset 0, message at offset 8.
		payload := binary.LittleEndian.AppendUint32(nil, 8)
		payload = binary.LittleEndian.AppendUint32(payload, uint32(len(p.Stdout)))
		payload = append(payload, p.Stdout...)
		data = vector(activeSegment(0, payload))

		body = append(body, i32Const(1)...)
		body = append(body, i32Const(0)...)
		body = append(body, i32Const(1)...)
		body = append(body, i32Const(nwrittenOffset)...)
		body = append(body, 0x10, 0x00, 0x1a) // call fd_write; drop
	}
	if p.ExitCode != 0 {
		body = append(body, i32Const(int64(p.ExitCode))...)
		body = append(body, 0x10, 0x01) // call proc_exit
	}
	body = append(body, 0x0b)

	module := header()
	module = append(module, section(1, types)...)
	module = append(module, section(2, imports)...)
	module = append(module, section(3, vector([]byte{0x02}))...)
	module = append(module, section(5, vector([]byte{0x00, 0x01}))...)
	module = append(module, section(7, exports)...)
	module = append(module, section(10, vector(concat(uleb(uint64(len(body))), body)))...)
	if data != nil {
		module = append(module, section(11, data)...)
	}
	for _, custom := range p.Sections {
		module = append(module, CustomSection(custom.Name, custom.Data)...)
	}
	return module
}

// ConfiguratorModule assembles a module exporting "configure" against
// the wah_wasi host interface. With a nil output the module echoes its
// input back through put; otherwise it puts output verbatim.
func ConfiguratorModule(output []byte) []byte {
	types := vector(
		[]byte{0x60, 0x00, 0x01, 0x7f},       // length
		[]byte{0x60, 0x01, 0x7f, 0x00},       // get
		[]byte{0x60, 0x02, 0x7f, 0x7f, 0x00}, // put
		[]byte{0x60, 0x00, 0x00},             // configure
	)
	imports := vector(
		concat(name("wah_wasi"), name("length"), []byte{0x00, 0x00}),
		concat(name("wah_wasi"), name("get"), []byte{0x00, 0x01}),
		concat(name("wah_wasi"), name("put"), []byte{0x00, 0x02}),
	)
	exports := vector(
		concat(name("memory"), []byte{0x02, 0x00}),
		concat(name("configure"), []byte{0x00, 0x03}),
	)

	const outputOffset = 1024
	body := []byte{0x00}
	var data []byte
	if output == nil {
		body = append(body, i32Const(0)...)
		body = append(body, 0x10, 0x01) // get(0)
		body = append(body, i32Const(0)...)
		body = append(body, 0x10, 0x00, 0x10, 0x02) // put(0, length())
	} else {
		data = vector(activeSegment(outputOffset, output))
		body = append(body, i32Const(outputOffset)...)
		body = append(body, i32Const(int64(len(output)))...)
		body = append(body, 0x10, 0x02)
	}
	body = append(body, 0x0b)

	module := header()
	module = append(module, section(1, types)...)
	module = append(module, section(2, imports)...)
	module = append(module, section(3, vector([]byte{0x03}))...)
	module = append(module, section(5, vector([]byte{0x00, 0x01}))...)
	module = append(module, section(7, exports)...)
	module = append(module, section(10, vector(concat(uleb(uint64(len(body))), body)))...)
	if data != nil {
		module = append(module, section(11, data)...)
	}
	return module
}

// CustomSection encodes one custom section (id 0).
func CustomSection(sectionName string, data []byte) []byte {
	return section(0, concat(name(sectionName), data))
}

func header() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}

func section(id byte, content []byte) []byte {
	return concat([]byte{id}, uleb(uint64(len(content))), content)
}

func vector(items ...[]byte) []byte {
	return concat(append([][]byte{uleb(uint64(len(items)))}, items...)...)
}

func name(s string) []byte {
	return concat(uleb(uint64(len(s))), []byte(s))
}

func activeSegment(offset int64, payload []byte) []byte {
	return concat([]byte{0x00}, i32Const(offset), []byte{0x0b}, uleb(uint64(len(payload))), payload)
}

func i32Const(v int64) []byte {
	return concat([]byte{0x41}, sleb(v))
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, part := range parts {
		out = append(out, part...)
	}
	return out
}

func uleb(v uint64) []byte {
	return binary.AppendUvarint(nil, v)
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
