// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package present

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/bureau-foundation/polyboot/boot"
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Terminal writes boot progress as text. Colors are used only when
// the Terminal was created with color enabled.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer

	stage   lipgloss.Style
	state   lipgloss.Style
	failed  lipgloss.Style
	heading lipgloss.Style
	faint   lipgloss.Style
}

// NewTerminal creates a Terminal writing to out. Pass
// IsTerminal(out) for color to follow the output.
func NewTerminal(out io.Writer, color bool) *Terminal {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	renderer := lipgloss.NewRenderer(out, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)

	return &Terminal{
		out:     out,
		stage:   renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		state:   renderer.NewStyle().Foreground(lipgloss.Color("10")),
		failed:  renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		heading: renderer.NewStyle().Underline(true),
		faint:   renderer.NewStyle().Faint(true),
	}
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) Shell(document []byte) {
	t.printf("%s\n", t.faint.Render(fmt.Sprintf("presentation shell: %d bytes", len(document))))
}

func (t *Terminal) Status(stage int, state boot.State) {
	style := t.state
	if state == boot.StateFailed {
		style = t.failed
	}
	t.printf("%s %s\n", t.stage.Render(fmt.Sprintf("stage %d", stage)), style.Render(string(state)))
}

func (t *Terminal) Result(report *boot.Report) {
	var builder strings.Builder
	fmt.Fprintf(&builder, "%s exit code %d\n", t.stage.Render(fmt.Sprintf("stage %d", report.Stage)), report.ExitCode)
	if report.GuestError != "" {
		fmt.Fprintf(&builder, "%s %s\n", t.failed.Render("guest error:"), report.GuestError)
	}
	t.stream(&builder, "stdin", report.Show.Stdin, report.Stdin)
	t.stream(&builder, "stdout", report.Show.Stdout, report.Stdout)
	t.stream(&builder, "stderr", report.Show.Stderr, report.Stderr)
	if report.Show.Root && len(report.Tree) > 0 {
		builder.WriteString(t.heading.Render("files") + "\n")
		for _, entry := range report.Tree {
			if entry.Dir {
				fmt.Fprintf(&builder, "  %s/\n", entry.Path)
			} else {
				fmt.Fprintf(&builder, "  %s %s\n", entry.Path, t.faint.Render(fmt.Sprintf("%d bytes", entry.Size)))
			}
		}
	}
	t.printf("%s", builder.String())
}

func (t *Terminal) stream(builder *strings.Builder, name string, show bool, data []byte) {
	if !show || len(data) == 0 {
		return
	}
	builder.WriteString(t.heading.Render(name) + "\n")
	builder.Write(data)
	if data[len(data)-1] != '\n' {
		builder.WriteString("\n")
	}
}

func (t *Terminal) Fault(report *boot.Report) {
	var builder strings.Builder
	fault := report.Fault
	if fault == nil {
		fault = &boot.Fault{Layer: "unknown", Message: "stage failed"}
	}
	fmt.Fprintf(&builder, "%s %s: %s\n",
		t.failed.Render(fmt.Sprintf("stage %d failed", report.Stage)), fault.Layer, fault.Message)
	if fault.Opcode != "" {
		fmt.Fprintf(&builder, "  at word %d (%s)\n", fault.IP, fault.Opcode)
	}
	for _, register := range fault.Registers {
		builder.WriteString("  " + t.faint.Render(register) + "\n")
	}
	t.printf("%s", builder.String())
}
