// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package export renders a document into read-only formats: Markdown, YAML,
// TOML and a POSIX shell script. The format follows the target extension.
package export

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"cmd-runner/internal/document"
	"cmd-runner/internal/storage"
	"cmd-runner/internal/util"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/glamour"
	"gopkg.in/yaml.v3"
)

// Kind is an export format.
type Kind string

const (
	KindMarkdown Kind = "md"
	KindYAML     Kind = "yaml"
	KindTOML     Kind = "toml"
	KindShell    Kind = "sh"
)

// Kinds lists the supported formats, default first.
var Kinds = []Kind{KindMarkdown, KindYAML, KindTOML, KindShell}

// KindFor maps a file extension to a format. Unknown extensions export as
// Markdown.
func KindFor(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return KindYAML
	case ".toml":
		return KindTOML
	case ".sh":
		return KindShell
	default:
		return KindMarkdown
	}
}

// Files writes exports to the local file system. It implements
// lifecycle.Exporter.
type Files struct {
	// Shell is the interpreter named in the shebang of exported scripts.
	Shell string
}

// Export renders c in the format implied by path and writes it atomically.
func (f Files) Export(path string, c document.Contents) error {
	data, err := Render(c, KindFor(path), f.Shell)
	if err != nil {
		return err
	}
	return storage.WriteAtomic(path, data)
}

// Render produces the bytes of one export format.
func Render(c document.Contents, kind Kind, shell string) ([]byte, error) {
	switch kind {
	case KindMarkdown:
		return []byte(Markdown(c)), nil
	case KindYAML:
		return renderYAML(c)
	case KindTOML:
		return renderTOML(c)
	case KindShell:
		return []byte(Script(c, shell)), nil
	default:
		return nil, fmt.Errorf("export: unknown format %q", kind)
	}
}

// Markdown renders the document as a heading followed by one section per
// entry with its command in a fenced block.
func Markdown(c document.Contents) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", c.Title)
	if len(c.Entries) == 0 {
		b.WriteString("\n_No commands._\n")
		return b.String()
	}
	for i, e := range c.Entries {
		fmt.Fprintf(&b, "\n## %d. %s\n\n", i+1, e.Label)
		if e.Tooltip != "" && e.Tooltip != e.Label {
			fmt.Fprintf(&b, "%s\n\n", e.Tooltip)
		}
		fence := "```"
		for strings.Contains(e.Command, fence) {
			fence += "`"
		}
		fmt.Fprintf(&b, "%ssh\n%s\n%s\n", fence, e.Command, fence)
	}
	return b.String()
}

// Preview renders the Markdown export for a terminal of the given width.
func Preview(c document.Contents, width int, style string) (string, error) {
	if width < 20 {
		width = 20
	}
	if style == "" {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("export: markdown renderer: %w", err)
	}
	out, err := r.Render(Markdown(c))
	if err != nil {
		return "", fmt.Errorf("export: render markdown: %w", err)
	}
	return out, nil
}

type exportEntry struct {
	Label   string `yaml:"label" toml:"label"`
	Command string `yaml:"command" toml:"command"`
	Tooltip string `yaml:"tooltip,omitempty" toml:"tooltip,omitempty"`
}

type exportDoc struct {
	Title    string        `yaml:"title" toml:"title"`
	Width    int           `yaml:"width" toml:"width"`
	Commands []exportEntry `yaml:"commands" toml:"commands"`
}

func toExportDoc(c document.Contents) exportDoc {
	d := exportDoc{Title: c.Title, Width: c.Width, Commands: make([]exportEntry, 0, len(c.Entries))}
	for _, e := range c.Entries {
		d.Commands = append(d.Commands, exportEntry{Label: e.Label, Command: e.Command, Tooltip: e.Tooltip})
	}
	return d
}

func renderYAML(c document.Contents) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toExportDoc(c)); err != nil {
		return nil, fmt.Errorf("export: yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("export: yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func renderTOML(c document.Contents) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(toExportDoc(c)); err != nil {
		return nil, fmt.Errorf("export: toml: %w", err)
	}
	return buf.Bytes(), nil
}

// Script renders a shell script that runs one entry chosen by label or
// 1-based index, or lists the entries when called without arguments.
func Script(c document.Contents, shell string) string {
	if shell == "" {
		shell = "/bin/sh"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "#!%s\n", shell)
	fmt.Fprintf(&b, "# %s\n", oneLine(c.Title))
	b.WriteString("# Usage: $0 <label|number>\n\n")

	b.WriteString("if [ $# -eq 0 ]; then\n")
	for i, e := range c.Entries {
		fmt.Fprintf(&b, "  echo %s\n", util.QuoteArgForShell(fmt.Sprintf("%d. %s", i+1, oneLine(e.Label))))
	}
	b.WriteString("  exit 0\nfi\n\n")

	b.WriteString("case \"$1\" in\n")
	for i, e := range c.Entries {
		if e.Tooltip != "" && e.Tooltip != e.Label {
			fmt.Fprintf(&b, "  # %s\n", oneLine(e.Tooltip))
		}
		fmt.Fprintf(&b, "  %d|%s)\n", i+1, util.QuoteArgForShell(e.Label))
		fmt.Fprintf(&b, "    echo %s\n", util.QuoteArgForShell("Running "+oneLine(e.Label)+":"))
		fmt.Fprintf(&b, "    %s\n", util.ShellInvocation(shell, e.Command))
		b.WriteString("    ;;\n")
	}
	b.WriteString("  *)\n    echo \"unknown command: $1\" >&2\n    exit 2\n    ;;\nesac\n")
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
