// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package present

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bureau-foundation/polyboot/boot"
)

// pageTemplate is used when no stage supplied a presentation shell.
const pageTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>polyboot</title></head>
<body>
</body>
</html>
`

// sectionID marks the element Page owns inside the document.
const sectionID = "polyboot-report"

// Page keeps an HTML page at a path in step with the boot. Every event
// rewrites the whole file. The most recent presentation shell is the
// page skeleton; the status log and stage reports are inserted before
// its closing body tag. Write failures are logged, never returned.
type Page struct {
	path     string
	markdown goldmark.Markdown
	logger   *slog.Logger

	mu       sync.Mutex
	shell    []byte
	statuses []string
	reports  [][]byte
}

// NewPage creates a Page writing to path. The file is written on the
// first event.
func NewPage(path string, logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	return &Page{
		path:     path,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:   logger,
	}
}

func (p *Page) Shell(document []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shell = bytes.Clone(document)
	p.flush()
}

func (p *Page) Status(stage int, state boot.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, fmt.Sprintf("stage %d: %s", stage, state))
	p.flush()
}

func (p *Page) Result(report *boot.Report) {
	p.addReport(report)
}

func (p *Page) Fault(report *boot.Report) {
	p.addReport(report)
}

func (p *Page) addReport(report *boot.Report) {
	var rendered bytes.Buffer
	if err := p.markdown.Convert([]byte(Markdown(report)), &rendered); err != nil {
		p.logger.Warn("rendering stage report failed", "stage", report.Stage, "error", err)
		rendered.Reset()
		fmt.Fprintf(&rendered, "<pre>%s</pre>\n", html.EscapeString(Markdown(report)))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, rendered.Bytes())
	p.flush()
}

// Render returns the current document.
func (p *Page) Render() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.render()
}

func (p *Page) render() []byte {
	var section bytes.Buffer
	fmt.Fprintf(&section, "<section id=%q>\n<ol class=\"status\">\n", sectionID)
	for _, status := range p.statuses {
		fmt.Fprintf(&section, "<li>%s</li>\n", html.EscapeString(status))
	}
	section.WriteString("</ol>\n")
	for _, report := range p.reports {
		section.WriteString("<article>\n")
		section.Write(report)
		section.WriteString("</article>\n")
	}
	section.WriteString("</section>\n")

	document := p.shell
	if len(document) == 0 {
		document = []byte(pageTemplate)
	}
	return insertBeforeBodyEnd(document, section.Bytes())
}

// insertBeforeBodyEnd places fragment before the last </body>, or at
// the end when the document has none.
func insertBeforeBodyEnd(document, fragment []byte) []byte {
	index := lastIndexFold(document, bodyEnd)
	if index < 0 {
		return append(bytes.Clone(document), fragment...)
	}
	result := make([]byte, 0, len(document)+len(fragment))
	result = append(result, document[:index]...)
	result = append(result, fragment...)
	return append(result, document[index:]...)
}

var bodyEnd = []byte("</body>")

// lastIndexFold is bytes.LastIndex with ASCII case folding. It compares
// windows of the original bytes, so offsets stay valid for shells that
// are not UTF-8.
func lastIndexFold(document, pattern []byte) int {
	for i := len(document) - len(pattern); i >= 0; i-- {
		if bytes.EqualFold(document[i:i+len(pattern)], pattern) {
			return i
		}
	}
	return -1
}

// flush writes the document through a temporary file and a rename so
// readers never see a partial page. Caller holds p.mu.
func (p *Page) flush() {
	if err := writeAtomic(p.path, p.render()); err != nil {
		p.logger.Warn("writing presentation page failed", "path", p.path, "error", err)
	}
}

func writeAtomic(path string, data []byte) error {
	temp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return err
	}
	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return err
	}
	return os.Rename(temp.Name(), path)
}
