// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(); err != nil {
		// Commands that already reported their outcome return an
		// ExitError carrying the code.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return root().Execute(os.Args[1:])
}

func root() *Command {
	return &Command{
		Name:        "polyboot",
		Description: "polyboot boots staged WebAssembly artifacts.",
		Subcommands: []*Command{
			runCommand(),
			inspectCommand(),
			disasmCommand(),
			compileCommand(),
			watchCommand(),
			reportCommand(),
			versionCommand(),
		},
	}
}
