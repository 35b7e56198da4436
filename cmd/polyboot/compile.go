// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/polyboot/container"
	"github.com/bureau-foundation/polyboot/present"
	"github.com/bureau-foundation/polyboot/wasiconfig"
)

func compileCommand() *Command {
	var output, embed string

	return &Command{
		Name:    "compile",
		Summary: "Compile a config.toml into a configuration script",
		Description: `Compile a declarative config.toml into a configuration script.

With --embed, the script is appended to a copy of the given artifact
as its configuration segment and the artifact is written instead.`,
		Usage: "polyboot compile [flags] <config.toml>",
		Examples: []Example{
			{Description: "Write the script to a file", Command: "polyboot compile -o config.bin config.toml"},
			{Description: "Embed the script into an artifact", Command: "polyboot compile --embed payload.wasm -o site.wasm config.toml"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("compile", pflag.ContinueOnError)
			flagSet.StringVarP(&output, "output", "o", "", "output path (default: stdout unless it is a terminal)")
			flagSet.StringVar(&embed, "embed", "", "artifact to embed the script into")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one config file, got %d arguments", len(args))
			}
			data, err := compileConfig(args[0], embed)
			if err != nil {
				return err
			}
			if output == "" {
				if present.IsTerminal(os.Stdout) {
					return errors.New("refusing to write binary output to a terminal; use -o")
				}
				_, err = os.Stdout.Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
}

// compileConfig compiles the config at path and, when embed is set,
// returns the embedding artifact instead of the bare script.
func compileConfig(path, embed string) ([]byte, error) {
	config, err := wasiconfig.ParseFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := config.Compile()
	if err != nil {
		return nil, err
	}
	if embed == "" {
		return raw, nil
	}

	artifact, err := os.ReadFile(embed)
	if err != nil {
		return nil, err
	}
	parsed, err := container.Parse(artifact, container.Options{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", embed, err)
	}
	if parsed.Has(container.ConfigSegment) {
		return nil, fmt.Errorf("%s already has a %s segment", embed, container.ConfigSegment)
	}
	return container.AppendSegment(artifact, container.ConfigSegment, raw), nil
}
