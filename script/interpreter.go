// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/polyboot/sandbox"
)

// SegmentReader resolves the section opcode. *container.Container
// satisfies it.
type SegmentReader interface {
	Segment(name string) ([]byte, error)
}

// Config configures an Interpreter.
type Config struct {
	// Segments answers section lookups. Nil makes every lookup a
	// missing segment.
	Segments SegmentReader

	// Units builds code units for the callable opcode. Nil disables
	// the opcode: it faults with ErrUnsafeDisabled.
	Units sandbox.UnitLoader

	// Logger receives one debug record per executed instruction.
	Logger *slog.Logger
}

// Interpreter executes configuration scripts. It holds no per-run
// state and may be reused.
type Interpreter struct {
	segments SegmentReader
	units    sandbox.UnitLoader
	logger   *slog.Logger
}

// New creates an Interpreter.
func New(config Config) *Interpreter {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{
		segments: config.Segments,
		units:    config.Units,
		logger:   logger,
	}
}

// Run decodes raw and executes it with seed at register 0. The
// register table is returned even on failure: after a fault it holds
// the seed plus one value per instruction that completed. Every error
// is a *Fault.
func (in *Interpreter) Run(ctx context.Context, raw []byte, seed *Object) ([]any, error) {
	program, err := Decode(raw)
	if err != nil {
		return []any{seed}, err
	}
	return in.Execute(ctx, program, seed)
}

// Execute runs an already decoded program.
func (in *Interpreter) Execute(ctx context.Context, program *Program, seed *Object) ([]any, error) {
	m := &machine{
		ctx:         ctx,
		interpreter: in,
		program:     program,
		table:       make([]any, 1, len(program.Instructions)+1),
	}
	m.table[0] = seed

	for _, instruction := range program.Instructions {
		result, err := m.step(instruction)
		if err != nil {
			in.logger.Debug("script fault",
				"ip", instruction.IP,
				"opcode", instruction.Opcode.String(),
				"error", err,
			)
			return m.table, &Fault{IP: instruction.IP, Opcode: instruction.Opcode, Err: err}
		}
		in.logger.Debug("script instruction",
			"ip", instruction.IP,
			"opcode", instruction.Opcode.String(),
			"operands", instruction.Operands,
			"register", len(m.table),
			"result", TypeName(result),
		)
		m.table = append(m.table, result)
	}
	return m.table, nil
}

// machine is the state of one execution.
type machine struct {
	ctx         context.Context
	interpreter *Interpreter
	program     *Program
	table       []any
}

func (m *machine) step(instruction Instruction) (any, error) {
	if len(instruction.Operands) != instruction.Opcode.Arity() {
		return nil, ErrArity
	}
	if instruction.Opcode == OpSkip {
		return int64(instruction.Next), nil
	}
	operation, ok := operations[instruction.Opcode]
	if !ok {
		return nil, ErrUnknownOpcode
	}
	return operation(m, instruction.Operands)
}

// register reads operand index from the table. Only indices below the
// current length exist, so an instruction can never see its own result
// or a later one.
func (m *machine) register(index uint32) (any, error) {
	if uint64(index) >= uint64(len(m.table)) {
		return nil, fmt.Errorf("%w: r%d, table has %d", ErrRegisterRange, index, len(m.table))
	}
	return m.table[index], nil
}

// registers reads several operands at once.
func (m *machine) registers(indices ...uint32) ([]any, error) {
	values := make([]any, len(indices))
	for i, index := range indices {
		value, err := m.register(index)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}
