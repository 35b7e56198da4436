// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/polyboot/boot"
	"github.com/bureau-foundation/polyboot/lib/codec"
	"github.com/bureau-foundation/polyboot/present"
)

func reportCommand() *Command {
	var diagnostic bool

	return &Command{
		Name:    "report",
		Summary: "Render stage reports written by run --report",
		Description: `Render the stage reports in a file written by "polyboot run --report"
as Markdown, one section per stage. With --diagnostic, print each CBOR
item in diagnostic notation instead.`,
		Usage: "polyboot report [flags] <reports.cbor>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("report", pflag.ContinueOnError)
			flagSet.BoolVar(&diagnostic, "diagnostic", false, "print CBOR diagnostic notation")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one report file, got %d arguments", len(args))
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if diagnostic {
				return diagnoseReports(os.Stdout, data)
			}
			return renderReports(os.Stdout, data)
		},
	}
}

func renderReports(w io.Writer, data []byte) error {
	reports, err := boot.ReadReports(bytes.NewReader(data))
	if err != nil {
		return err
	}
	for i, report := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if _, err := io.WriteString(w, present.Markdown(report)); err != nil {
			return err
		}
	}
	return nil
}

func diagnoseReports(w io.Writer, data []byte) error {
	for len(data) > 0 {
		notation, rest, err := codec.DiagnoseFirst(data)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, notation)
		data = rest
	}
	return nil
}
