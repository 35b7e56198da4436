// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/polyboot/container"
	"github.com/bureau-foundation/polyboot/present"
	"github.com/bureau-foundation/polyboot/script"
)

// wasmMagic distinguishes an artifact from a bare script.
var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}

func disasmCommand() *Command {
	var noColor bool

	return &Command{
		Name:    "disasm",
		Summary: "Print a configuration script listing",
		Description: `Print a listing of a configuration script, one instruction per line:
word offset, result register, opcode, operands, and a note.

The input is either a bare script or an artifact, in which case its
configuration segment is listed.`,
		Usage: "polyboot disasm [flags] <artifact|script>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("disasm", pflag.ContinueOnError)
			flagSet.BoolVar(&noColor, "no-color", false, "disable syntax highlighting")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one input, got %d arguments", len(args))
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return disassemble(os.Stdout, data, !noColor && present.IsTerminal(os.Stdout))
		},
	}
}

// scriptOf returns the configuration script in data.
func scriptOf(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, wasmMagic) {
		return data, nil
	}
	parsed, err := container.Parse(data, container.Options{})
	if err != nil {
		return nil, err
	}
	raw, ok, err := parsed.Optional(container.ConfigSegment)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("artifact has no %s segment", container.ConfigSegment)
	}
	if parsed.Has(container.ConfiguratorSegment) {
		return nil, fmt.Errorf("artifact has a configurator; its %s segment is configurator input, not a script", container.ConfigSegment)
	}
	return raw, nil
}

func disassemble(w io.Writer, data []byte, highlight bool) error {
	raw, err := scriptOf(data)
	if err != nil {
		return err
	}
	listing, err := script.Disassemble(raw)
	if err != nil {
		return err
	}
	if highlight {
		if err := quick.Highlight(w, listing, "nasm", "terminal256", "monokai"); err == nil {
			return nil
		}
	}
	_, err = io.WriteString(w, listing)
	return err
}
