// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/polyboot/lib/version"
)

func versionCommand() *Command {
	var full bool

	return &Command{
		Name:    "version",
		Summary: "Show version information",
		Usage:   "polyboot version [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("version", pflag.ContinueOnError)
			flagSet.BoolVar(&full, "full", false, "include toolchain, platform, and executable digest")
			return flagSet
		},
		Run: func(args []string) error {
			if !full {
				fmt.Printf("polyboot %s\n", version.Info())
				return nil
			}
			fmt.Printf("polyboot %s\n", version.Full())
			if digest, err := version.SelfDigest(); err == nil {
				fmt.Printf("  Digest: %s\n", digest)
			}
			return nil
		},
	}
}
