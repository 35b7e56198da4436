// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"encoding/binary"
	"fmt"
)

// Instruction is one decoded instruction.
type Instruction struct {
	// IP is the word offset of the opcode word.
	IP       int
	Opcode   Opcode
	Operands []uint32

	// Next is the word offset execution continues at. For skip it
	// lies past the skipped words.
	Next int
}

// Program is a decoded script. Instructions lists exactly the
// instructions execution visits, in order; words jumped over by a skip
// are data and are not decoded.
type Program struct {
	Raw          []byte
	Instructions []Instruction
}

// Decode validates the framing of raw and lists its instructions.
// Every structural error is found here, so a script that fails to
// decode executes nothing. The returned error is a *Fault.
func Decode(raw []byte) (*Program, error) {
	if len(raw)%4 != 0 {
		return nil, &Fault{IP: len(raw) / 4, Err: fmt.Errorf("%w: %d bytes", ErrMisaligned, len(raw))}
	}
	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}

	program := &Program{Raw: raw}
	ip := 0
	for ip < len(words) {
		if len(words)-ip < 2 {
			return nil, &Fault{IP: ip, Opcode: Opcode(words[ip]), Err: fmt.Errorf("%w: missing operand count", ErrTruncated)}
		}
		op := Opcode(words[ip])
		count := uint64(words[ip+1])
		if uint64(ip)+2+count > uint64(len(words)) {
			return nil, &Fault{IP: ip, Opcode: op, Err: fmt.Errorf("%w: %d operands declared, %d words remain", ErrTruncated, count, len(words)-ip-2)}
		}
		if !op.Known() {
			return nil, &Fault{IP: ip, Opcode: op, Err: ErrUnknownOpcode}
		}
		if int(count) != op.Arity() {
			return nil, &Fault{IP: ip, Opcode: op, Err: fmt.Errorf("%w: %s takes %d, got %d", ErrArity, op, op.Arity(), count)}
		}

		instruction := Instruction{
			IP:       ip,
			Opcode:   op,
			Operands: words[ip+2 : ip+2+int(count)],
			Next:     ip + 2 + int(count),
		}
		if op == OpSkip {
			target := uint64(instruction.Next) + uint64(instruction.Operands[0])
			if target > uint64(len(words)) {
				return nil, &Fault{IP: ip, Opcode: op, Err: fmt.Errorf("%w: target word %d, script has %d", ErrSkipOvershoot, target, len(words))}
			}
			instruction.Next = int(target)
		}
		program.Instructions = append(program.Instructions, instruction)
		ip = instruction.Next
	}
	return program, nil
}

// bytesAt returns raw[offset:offset+length] after a bounds check.
func (p *Program) bytesAt(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(p.Raw)) {
		return nil, fmt.Errorf("%w: bytes %d..%d of %d", ErrByteRange, offset, end, len(p.Raw))
	}
	return p.Raw[offset:end], nil
}
