// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package lifecycle implements the file operations of the launcher (New, Open,
// Save, Save As, Revert, Export and Exit) on top of a document.Document. The
// operations that would discard unsaved changes are gated by a
// Save/Discard/Cancel prompt.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"cmd-runner/internal/apperr"
	"cmd-runner/internal/document"
)

// Choice is the answer to a Save/Discard/Cancel prompt.
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceSave
	ChoiceDiscard
)

func (c Choice) String() string {
	switch c {
	case ChoiceSave:
		return "save"
	case ChoiceDiscard:
		return "discard"
	default:
		return "cancel"
	}
}

// Prompter asks the user to resolve unsaved changes or to supply a path.
// Both methods block until the user answers. A cancelled AskText returns
// apperr.ErrCancelled.
type Prompter interface {
	AskSaveDiscardCancel(ctx context.Context, message string) (Choice, error)
	AskText(ctx context.Context, prompt, initial string) (string, error)
}

// Exporter writes a read-only rendering of a document to path.
type Exporter interface {
	Export(path string, c document.Contents) error
}

// UnsavedMessage is shown by the Save/Discard/Cancel gate.
const UnsavedMessage = "The current file is modified. Save it, discard the changes, or cancel and keep editing?"

const untitled = "untitled"

// Controller drives the file lifecycle of one document.
type Controller struct {
	doc      *document.Document
	store    document.Gateway
	prompt   Prompter
	exporter Exporter
	defaults document.Defaults
	log      *slog.Logger

	// unwritten is set while the document's path has no file yet.
	unwritten bool
}

// New returns a controller for doc. The defaults apply to New and to files
// that omit a title or width.
func New(doc *document.Document, store document.Gateway, prompt Prompter, exporter Exporter, defaults document.Defaults, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		doc:      doc,
		store:    store,
		prompt:   prompt,
		exporter: exporter,
		defaults: defaults,
		log:      log.With("component", "lifecycle"),
	}
}

func (c *Controller) Document() *document.Document { return c.doc }

// WindowTitle renders "{title}: {filename}", with " *" appended while there
// are unsaved changes.
func (c *Controller) WindowTitle() string {
	name := untitled
	if c.doc.Path != "" {
		name = filepath.Base(c.doc.Path)
	}
	title := fmt.Sprintf("%s: %s", c.doc.Title, name)
	if c.doc.Modified() {
		title += " *"
	}
	return title
}

// gate resolves unsaved changes before an operation that would lose them. It
// returns nil when the operation may proceed. A failed save aborts the
// operation just like Cancel, leaving the document dirty.
func (c *Controller) gate(ctx context.Context, op string) error {
	if !c.doc.Modified() {
		return nil
	}
	choice, err := c.prompt.AskSaveDiscardCancel(ctx, UnsavedMessage)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.log.Debug("Unsaved changes resolved", "op", op, "choice", choice)

	switch choice {
	case ChoiceSave:
		if err := c.Save(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if c.doc.Modified() {
			// Save As was cancelled from inside Save.
			return fmt.Errorf("%s: %w", op, apperr.ErrCancelled)
		}
		return nil
	case ChoiceDiscard:
		return nil
	default:
		return fmt.Errorf("%s: %w", op, apperr.ErrCancelled)
	}
}

// New replaces the document with an empty, untitled one.
func (c *Controller) New(ctx context.Context) error {
	if err := c.gate(ctx, "new"); err != nil {
		return err
	}
	c.doc.Reset(c.defaults)
	c.unwritten = false
	c.log.Info("New document")
	return nil
}

// Create starts an empty document bound to path, for a file that does not
// exist yet. The first Save writes it even if nothing was edited.
func (c *Controller) Create(path string) {
	c.doc.Replace(document.Contents{}, path, c.defaults)
	c.unwritten = true
	c.log.Info("Started new command file", "path", path)
}

// Open loads path into the document. An empty path is asked for.
func (c *Controller) Open(ctx context.Context, path string) error {
	if err := c.gate(ctx, "open"); err != nil {
		return err
	}

	if path == "" {
		initial := ""
		if c.doc.Path != "" {
			initial = filepath.Dir(c.doc.Path) + string(filepath.Separator)
		}
		p, err := c.askPath(ctx, "Open file", initial)
		if err != nil {
			return fmt.Errorf("open: %w", err)
		}
		path = p
	}

	if err := c.doc.Load(c.store, path, c.defaults); err != nil {
		c.log.Error("Failed to open command file", "path", path, "error", err)
		return fmt.Errorf("open %s: %w", path, err)
	}
	c.unwritten = false
	c.log.Info("Opened command file", "path", path, "entries", c.doc.Len())
	return nil
}

// Save writes the document to its current path. Saving a clean document whose
// file exists is a no-op; a document without a path is saved through SaveAs.
func (c *Controller) Save(ctx context.Context) error {
	if !c.doc.Modified() && !c.unwritten {
		return nil
	}
	if c.doc.Path == "" {
		return c.SaveAs(ctx)
	}
	return c.writeTo(c.doc.Path)
}

// SaveAs asks for a target path and writes the document there.
func (c *Controller) SaveAs(ctx context.Context) error {
	path, err := c.askPath(ctx, "Save as", c.doc.Path)
	if err != nil {
		return fmt.Errorf("save as: %w", err)
	}
	return c.writeTo(path)
}

// writeTo writes the snapshot first and commits only once the write has
// succeeded, so a failed save changes nothing in memory.
func (c *Controller) writeTo(path string) error {
	snap := c.doc.Snapshot()
	if err := c.store.Write(path, snap); err != nil {
		c.log.Error("Failed to save command file", "path", path, "error", err)
		return fmt.Errorf("save %s: %w", path, err)
	}
	c.doc.CommitAll()
	c.doc.SetPath(path)
	c.unwritten = false
	c.log.Info("Saved command file", "path", path, "entries", len(snap.Entries))
	return nil
}

// Revert discards every unsaved change.
func (c *Controller) Revert(_ context.Context) error {
	c.doc.RevertAll()
	c.log.Info("Reverted document", "path", c.doc.Path)
	return nil
}

// Export asks for a path and hands the live, unsaved entries to the exporter.
// The modified state is not touched.
func (c *Controller) Export(ctx context.Context) error {
	if c.exporter == nil {
		return errors.New("export: no exporter configured")
	}
	path, err := c.askPath(ctx, "Export to", c.exportSuggestion())
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := c.exporter.Export(path, c.doc.Resolved()); err != nil {
		c.log.Error("Export failed", "path", path, "error", err)
		return fmt.Errorf("export %s: %w", path, err)
	}
	c.log.Info("Exported document", "path", path)
	return nil
}

func (c *Controller) exportSuggestion() string {
	if c.doc.Path == "" {
		return untitled + ".md"
	}
	return strings.TrimSuffix(c.doc.Path, filepath.Ext(c.doc.Path)) + ".md"
}

// Exit returns nil when the application may terminate.
func (c *Controller) Exit(ctx context.Context) error {
	if err := c.gate(ctx, "exit"); err != nil {
		return err
	}
	c.log.Info("Exiting")
	return nil
}

func (c *Controller) askPath(ctx context.Context, prompt, initial string) (string, error) {
	p, err := c.prompt.AskText(ctx, prompt, initial)
	if err != nil {
		return "", err
	}
	p = strings.TrimSpace(p)
	if p == "" {
		return "", apperr.ErrCancelled
	}
	return p, nil
}
