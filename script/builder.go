// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"encoding/binary"
	"slices"
)

// Register names a slot in the register table.
type Register uint32

// ConfigRegister holds the configuration object.
const ConfigRegister Register = 0

// Builder assembles scripts. Each method emits one instruction and
// returns the register its result will occupy. Text and byte literals
// go into a data area after the code, jumped over by a final skip.
type Builder struct {
	words       []uint32
	pool        []byte
	interned    map[string]uint32
	relocations []int
	next        Register
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{interned: make(map[string]uint32), next: 1}
}

// Len returns the number of instructions emitted so far.
func (b *Builder) Len() int { return int(b.next) - 1 }

func (b *Builder) emit(op Opcode, operands ...uint32) Register {
	b.words = append(b.words, uint32(op), uint32(len(operands)))
	b.words = append(b.words, operands...)
	register := b.next
	b.next++
	return register
}

// literal emits op over data placed in the data area. Its offset
// operand is pool-relative until Assemble relocates it.
func (b *Builder) literal(op Opcode, data []byte) Register {
	offset, ok := b.interned[string(data)]
	if !ok {
		offset = uint32(len(b.pool))
		b.pool = append(b.pool, data...)
		b.interned[string(data)] = offset
	}
	register := b.emit(op, offset, uint32(len(data)))
	b.relocations = append(b.relocations, len(b.words)-2)
	return register
}

func (b *Builder) Text(s string) Register            { return b.literal(OpText, []byte(s)) }
func (b *Builder) Structured(source string) Register { return b.literal(OpStructured, []byte(source)) }
func (b *Builder) Bytes(data []byte) Register        { return b.literal(OpBytes, data) }
func (b *Builder) CBOR(data []byte) Register         { return b.literal(OpCBOR, data) }
func (b *Builder) Int(value uint32) Register         { return b.emit(OpInt, value) }

func (b *Builder) Get(object, key Register) Register {
	return b.emit(OpGet, uint32(object), uint32(key))
}

func (b *Builder) Set(object, key, value Register) Register {
	return b.emit(OpSet, uint32(object), uint32(key), uint32(value))
}

// GetAttr is Get with a text key.
func (b *Builder) GetAttr(object Register, name string) Register {
	return b.Get(object, b.Text(name))
}

// SetAttr is Set with a text key.
func (b *Builder) SetAttr(object Register, name string, value Register) Register {
	return b.Set(object, b.Text(name), value)
}

func (b *Builder) File(content Register) Register      { return b.emit(OpFile, uint32(content)) }
func (b *Builder) Directory(entries Register) Register { return b.emit(OpDirectory, uint32(entries)) }

func (b *Builder) Preopen(mount, entries Register) Register {
	return b.emit(OpPreopen, uint32(mount), uint32(entries))
}

func (b *Builder) Open(dir Register, flags uint32, path Register, oflags uint32) Register {
	return b.emit(OpOpen, uint32(dir), flags, uint32(path), oflags)
}

func (b *Builder) Unzip(archive Register) Register   { return b.emit(OpUnzip, uint32(archive)) }
func (b *Builder) Section(name Register) Register    { return b.emit(OpSection, uint32(name)) }
func (b *Builder) OpenFile(file Register) Register   { return b.emit(OpOpenFile, uint32(file)) }
func (b *Builder) Nop() Register                     { return b.emit(OpNop) }
func (b *Builder) Callable(source Register) Register { return b.emit(OpCallable, uint32(source)) }

func (b *Builder) Inflate(data, codec Register) Register {
	return b.emit(OpInflate, uint32(data), uint32(codec))
}

// Assemble returns the encoded script. The Builder stays usable.
func (b *Builder) Assemble() []byte {
	words := slices.Clone(b.words)
	if len(b.pool) > 0 {
		padded := (len(b.pool) + 3) / 4
		words = append(words, uint32(OpSkip), 1, uint32(padded))
		base := uint32(len(words) * 4)
		for _, index := range b.relocations {
			words[index] += base
		}
	}

	out := make([]byte, 0, len(words)*4+len(b.pool)+3)
	for _, word := range words {
		out = binary.LittleEndian.AppendUint32(out, word)
	}
	out = append(out, b.pool...)
	for len(out)%4 != 0 {
		out = append(out, 0)
	}
	return out
}
