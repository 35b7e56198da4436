// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bureau-foundation/polyboot/container"
	"github.com/bureau-foundation/polyboot/lib/binhash"
)

func inspectCommand() *Command {
	return &Command{
		Name:    "inspect",
		Summary: "List an artifact's segments",
		Description: `List an artifact's named segments with their offsets and sizes, and
print the artifact's BLAKE3 digest. Reserved segments are marked.`,
		Usage: "polyboot inspect <artifact>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one artifact, got %d arguments", len(args))
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return inspectArtifact(os.Stdout, data)
		},
	}
}

func inspectArtifact(w io.Writer, data []byte) error {
	parsed, err := container.Parse(data, container.Options{})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "digest:   %s\n", binhash.Sum(data))
	fmt.Fprintf(w, "size:     %d bytes\n", len(data))

	segments := parsed.Segments()
	fmt.Fprintf(w, "segments: %d\n", len(segments))
	if len(segments) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OFFSET\tSIZE\tNAME\tDIGEST")
	for _, segment := range segments {
		name := segment.Name
		if container.Reserved(name) {
			name += " (reserved)"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", segment.Offset, len(segment.Data), name, binhash.Sum(segment.Data).Short())
	}
	return tw.Flush()
}
