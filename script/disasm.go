// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"
)

// previewLength caps quoted literals in listings.
const previewLength = 40

// Disassemble renders a listing of raw, one instruction per line:
// word offset, result register, opcode, operands, and a note. Register
// operands print as rN, literals as numbers.
func Disassemble(raw []byte) (string, error) {
	program, err := Decode(raw)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	writer := tabwriter.NewWriter(&builder, 0, 4, 2, ' ', 0)
	for i, instruction := range program.Instructions {
		info := opcodes[instruction.Opcode]
		operands := make([]string, len(instruction.Operands))
		for j, operand := range instruction.Operands {
			if info.operands[j] == register {
				operands[j] = "r" + strconv.FormatUint(uint64(operand), 10)
			} else {
				operands[j] = strconv.FormatUint(uint64(operand), 10)
			}
		}
		fmt.Fprintf(writer, "%04d\tr%d\t%s\t%s\t%s\n",
			instruction.IP, i+1, instruction.Opcode, strings.Join(operands, " "), program.note(instruction))
	}
	if err := writer.Flush(); err != nil {
		return "", err
	}
	return builder.String(), nil
}

func (p *Program) note(instruction Instruction) string {
	operands := instruction.Operands
	switch instruction.Opcode {
	case OpSkip:
		return fmt.Sprintf("; data words %d..%d", instruction.IP+3, instruction.Next)
	case OpText, OpStructured:
		data, err := p.bytesAt(operands[0], operands[1])
		if err != nil {
			return "; out of range"
		}
		if !utf8.Valid(data) {
			return "; invalid UTF-8"
		}
		text := string(data)
		if utf8.RuneCountInString(text) > previewLength {
			text = string([]rune(text)[:previewLength]) + "..."
		}
		return "; " + strconv.Quote(text)
	case OpBytes, OpCBOR:
		if _, err := p.bytesAt(operands[0], operands[1]); err != nil {
			return "; out of range"
		}
		return fmt.Sprintf("; %d bytes", operands[1])
	case OpOpen:
		return fmt.Sprintf("; flags=%#x oflags=%#x", operands[1], operands[3])
	}
	return ""
}
