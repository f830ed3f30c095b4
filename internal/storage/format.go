// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"cmd-runner/internal/apperr"
	"cmd-runner/internal/document"

	"gopkg.in/yaml.v3"
)

// fileEntry is one element of the "cmds" array.
type fileEntry struct {
	Button  string `json:"button" yaml:"button"`
	Cmd     string `json:"cmd" yaml:"cmd"`
	Tooltip string `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
}

type fileDoc struct {
	Title string      `json:"title,omitempty" yaml:"title,omitempty"`
	Width int         `json:"width,omitempty" yaml:"width,omitempty"`
	Cmds  []fileEntry `json:"cmds" yaml:"cmds"`
}

// decodedDoc tells an absent or null "cmds" apart from an empty one.
type decodedDoc struct {
	Title string       `json:"title" yaml:"title"`
	Width int          `json:"width" yaml:"width"`
	Cmds  *[]fileEntry `json:"cmds" yaml:"cmds"`
}

var errNoCmds = errors.New(`missing "cmds" list`)

func (d decodedDoc) fileDoc() (fileDoc, error) {
	if d.Cmds == nil {
		return fileDoc{}, errNoCmds
	}
	return fileDoc{Title: d.Title, Width: d.Width, Cmds: *d.Cmds}, nil
}

// Format identifies the encoding of a command file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the encoding from the file extension. Anything that is not
// .yaml or .yml is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a command file in the given format. Both the object form and
// a bare array of entries are accepted. An object without a "cmds" list, a
// null document and a scalar document are parse errors.
func Decode(data []byte, f Format) (document.Contents, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return document.Contents{}, fmt.Errorf("%w: empty file", apperr.ErrParse)
	}

	var (
		doc fileDoc
		err error
	)
	switch f {
	case FormatYAML:
		doc, err = decodeYAML(trimmed)
	default:
		doc, err = decodeJSON(trimmed)
	}
	if err != nil {
		return document.Contents{}, fmt.Errorf("%w: %w", apperr.ErrParse, err)
	}
	if doc.Width < 0 {
		return document.Contents{}, fmt.Errorf("%w: negative width %d", apperr.ErrParse, doc.Width)
	}
	return toContents(doc), nil
}

func decodeJSON(data []byte) (fileDoc, error) {
	var doc fileDoc
	if data[0] == '[' {
		if err := json.Unmarshal(data, &doc.Cmds); err != nil {
			return doc, err
		}
		return doc, nil
	}
	var d decodedDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return doc, err
	}
	return d.fileDoc()
}

func decodeYAML(data []byte) (fileDoc, error) {
	var doc fileDoc
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return doc, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return doc, fmt.Errorf("no document")
	}
	node := root.Content[0]
	switch node.Kind {
	case yaml.SequenceNode:
		err := node.Decode(&doc.Cmds)
		return doc, err
	case yaml.MappingNode:
		var d decodedDoc
		if err := node.Decode(&d); err != nil {
			return doc, err
		}
		return d.fileDoc()
	default:
		return doc, fmt.Errorf("line %d: expected a mapping or a list of commands", node.Line)
	}
}

func toContents(doc fileDoc) document.Contents {
	c := document.Contents{Title: doc.Title, Width: doc.Width}
	c.Entries = make([]document.Entry, 0, len(doc.Cmds))
	for _, e := range doc.Cmds {
		c.Entries = append(c.Entries, document.Entry{Label: e.Button, Command: e.Cmd, Tooltip: e.Tooltip})
	}
	return c
}

func fromContents(c document.Contents) fileDoc {
	doc := fileDoc{Title: c.Title, Width: c.Width, Cmds: make([]fileEntry, 0, len(c.Entries))}
	for _, e := range c.Entries {
		doc.Cmds = append(doc.Cmds, fileEntry{Button: e.Label, Cmd: e.Command, Tooltip: e.Tooltip})
	}
	return doc
}

// Encode renders contents in the object form. JSON is indented by two spaces
// and ends with a newline.
func Encode(c document.Contents, f Format) ([]byte, error) {
	doc := fromContents(c)
	var buf bytes.Buffer
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
