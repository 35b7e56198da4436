// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import "fmt"

// Opcode identifies a script operation.
type Opcode uint32

const (
	OpSkip       Opcode = 1
	OpText       Opcode = 2
	OpStructured Opcode = 3
	OpInt        Opcode = 4
	OpBytes      Opcode = 5
	OpGet        Opcode = 6
	OpSet        Opcode = 7
	OpFile       Opcode = 8
	OpDirectory  Opcode = 9
	OpPreopen    Opcode = 10
	OpOpen       Opcode = 11
	OpUnzip      Opcode = 12
	OpSection    Opcode = 13
	OpOpenFile   Opcode = 14
	OpNop        Opcode = 15
	OpCallable   Opcode = 16
	OpInflate    Opcode = 17
	OpCBOR       Opcode = 18
)

// operandKind says how an operand word is interpreted.
type operandKind byte

const (
	literal  operandKind = 'L'
	register operandKind = 'R'
)

type opcodeInfo struct {
	name     string
	operands []operandKind
}

var opcodes = map[Opcode]opcodeInfo{
	OpSkip:       {"skip", []operandKind{literal}},
	OpText:       {"text", []operandKind{literal, literal}},
	OpStructured: {"structured", []operandKind{literal, literal}},
	OpInt:        {"int", []operandKind{literal}},
	OpBytes:      {"bytes", []operandKind{literal, literal}},
	OpGet:        {"get", []operandKind{register, register}},
	OpSet:        {"set", []operandKind{register, register, register}},
	OpFile:       {"file", []operandKind{register}},
	OpDirectory:  {"directory", []operandKind{register}},
	OpPreopen:    {"preopen", []operandKind{register, register}},
	OpOpen:       {"open", []operandKind{register, literal, register, literal}},
	OpUnzip:      {"unzip", []operandKind{register}},
	OpSection:    {"section", []operandKind{register}},
	OpOpenFile:   {"openfile", []operandKind{register}},
	OpNop:        {"nop", nil},
	OpCallable:   {"callable", []operandKind{register}},
	OpInflate:    {"inflate", []operandKind{register, register}},
	OpCBOR:       {"cbor", []operandKind{literal, literal}},
}

func (op Opcode) String() string {
	if info, ok := opcodes[op]; ok {
		return info.name
	}
	return fmt.Sprintf("op(%d)", uint32(op))
}

// Known reports whether op is a defined opcode.
func (op Opcode) Known() bool {
	_, ok := opcodes[op]
	return ok
}

// Arity returns the operand count op requires.
func (op Opcode) Arity() int {
	return len(opcodes[op].operands)
}
