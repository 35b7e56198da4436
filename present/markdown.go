// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package present

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/polyboot/boot"
)

// Markdown renders report as a Markdown document. Guest output has
// ANSI escape sequences stripped and is placed in fenced blocks; only
// the streams selected by report.Show are included. A failed report
// always includes its fault.
func Markdown(report *boot.Report) string {
	var builder strings.Builder

	title := fmt.Sprintf("Stage %d %s", report.Stage, report.State)
	if report.Degraded {
		title += " (fallback)"
	}
	fmt.Fprintf(&builder, "## %s\n\n", title)
	fmt.Fprintf(&builder, "- **Artifact**: `%s`\n", report.Artifact)
	if len(report.Segments) > 0 {
		fmt.Fprintf(&builder, "- **Segments**: %s\n", codeList(report.Segments))
	}
	fmt.Fprintf(&builder, "- **Script instructions**: %d\n", report.Instructions)
	if report.Fault == nil || report.Fault.Layer == boot.LayerRuntime {
		fmt.Fprintf(&builder, "- **Exit code**: %d\n", report.ExitCode)
	}
	if report.GuestError != "" {
		fmt.Fprintf(&builder, "- **Guest error**: %s\n", inline(report.GuestError))
	}
	builder.WriteString("\n")

	streams := []struct {
		name string
		show bool
		data []byte
	}{
		{"stdin", report.Show.Stdin, report.Stdin},
		{"stdout", report.Show.Stdout, report.Stdout},
		{"stderr", report.Show.Stderr, report.Stderr},
	}
	for _, stream := range streams {
		if !stream.show || len(stream.data) == 0 {
			continue
		}
		fmt.Fprintf(&builder, "### %s\n\n%s\n", stream.name, fenced(printable(stream.data)))
	}

	if report.Show.Root && len(report.Tree) > 0 {
		builder.WriteString("### Files\n\n")
		for _, entry := range report.Tree {
			if entry.Dir {
				fmt.Fprintf(&builder, "- `%s/`\n", entry.Path)
			} else {
				fmt.Fprintf(&builder, "- `%s` (%d bytes)\n", entry.Path, entry.Size)
			}
		}
		builder.WriteString("\n")
	}

	if fault := report.Fault; fault != nil {
		builder.WriteString("### Fault\n\n")
		fmt.Fprintf(&builder, "**%s**: %s\n\n", fault.Layer, inline(fault.Message))
		if fault.Opcode != "" {
			fmt.Fprintf(&builder, "At word %d, `%s`.\n\n", fault.IP, fault.Opcode)
		}
		if len(fault.Registers) > 0 {
			builder.WriteString("Registers:\n\n")
			builder.WriteString(fenced(strings.Join(fault.Registers, "\n")))
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

// printable strips terminal escapes and replaces invalid UTF-8.
func printable(data []byte) string {
	return ansi.Strip(strings.ToValidUTF8(string(data), string(utf8.RuneError)))
}

// fenced wraps text in a code fence longer than any backtick run it
// contains.
func fenced(text string) string {
	fence := "```"
	for strings.Contains(text, fence) {
		fence += "`"
	}
	return fence + "text\n" + strings.TrimRight(text, "\n") + "\n" + fence + "\n"
}

func inline(text string) string {
	text = strings.ReplaceAll(printable([]byte(text)), "\n", " ")
	return strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`", "<", "&lt;").Replace(text)
}

func codeList(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = "`" + name + "`"
	}
	return strings.Join(quoted, ", ")
}
