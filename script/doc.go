// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package script interprets configuration scripts: the linear bytecode
// an artifact carries to build the environment its payload runs in.
//
// A script is a sequence of little-endian 32-bit words. Each
// instruction is [opcode, operand count, operands...]. Depending on the
// opcode an operand is either a literal or an index into the register
// table. The table starts with the configuration object at register 0
// and every executed instruction appends exactly one result, so an
// instruction can only refer to values produced before it. There is no
// control flow beyond a forward skip, which the assembler uses to jump
// over the literal data area.
//
// Execution has two phases. [Decode] checks framing (alignment,
// truncation, unknown opcodes, operand counts, skip targets) for the
// whole script, so a malformed script runs nothing. [Interpreter.Execute]
// then runs the decoded instructions, checking register references
// against the live table. Any failure stops execution with a [*Fault]
// and the partial table is returned next to it for diagnostics.
//
// After execution the configuration object is converted by [Freeze]
// into a vfs.Environment plus the code units and output selection the
// script declared.
//
// [Builder] assembles scripts and [Disassemble] lists them.
package script
