// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package document

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"cmd-runner/internal/apperr"

	"github.com/google/uuid"
)

const (
	DefaultWidth = 80
	DefaultTitle = "Commands"
)

// Contents is the persisted form of a document. A zero Title or Width means
// the file did not specify one.
type Contents struct {
	Title   string
	Width   int
	Entries []Entry
}

// Gateway reads and writes command files.
type Gateway interface {
	Read(path string) (Contents, error)
	Write(path string, c Contents) error
}

// Defaults supplies the title and width used when a file omits them.
type Defaults struct {
	Title string
	Width int
}

func (d Defaults) withFallbacks() Defaults {
	if d.Title == "" {
		d.Title = DefaultTitle
	}
	if d.Width <= 0 {
		d.Width = DefaultWidth
	}
	return d
}

// Document is the editable, in-memory command file. Title and Width are the
// resolved values used for display; only what the file itself set is written
// back on save.
type Document struct {
	Title string
	Width int
	Path  string

	fileTitle      string
	fileWidth      int
	entries        []*EntryState
	committedOrder []uuid.UUID
	modified       bool
}

// New returns an empty, unmodified document.
func New(defaults Defaults) *Document {
	d := &Document{}
	d.Reset(defaults)
	return d
}

// Reset discards all entries and the current path.
func (d *Document) Reset(defaults Defaults) {
	defaults = defaults.withFallbacks()
	d.Title = defaults.Title
	d.Width = defaults.Width
	d.Path = ""
	d.fileTitle = ""
	d.fileWidth = 0
	d.entries = nil
	d.committedOrder = nil
	d.RefreshModified()
}

// Load replaces the document with the contents of path. On error the document
// is left exactly as it was.
func (d *Document) Load(g Gateway, path string, defaults Defaults) error {
	c, err := g.Read(path)
	if err != nil {
		return err
	}
	d.Replace(c, path, defaults)
	return nil
}

// Replace installs already-read contents as the clean state of the document.
func (d *Document) Replace(c Contents, path string, defaults Defaults) {
	defaults = defaults.withFallbacks()

	title := c.Title
	if title == "" {
		title = fileStem(path)
	}
	if title == "" {
		title = defaults.Title
	}
	width := c.Width
	if width <= 0 {
		width = defaults.Width
	}

	entries := make([]*EntryState, 0, len(c.Entries))
	for _, e := range c.Entries {
		entries = append(entries, NewEntryState(e))
	}

	d.Title = title
	d.Width = width
	d.Path = path
	d.fileTitle = c.Title
	d.fileWidth = max(c.Width, 0)
	d.entries = entries
	d.committedOrder = idsOf(entries)
	d.RefreshModified()
}

// SetPath records where the document now lives. A title the file never set
// follows the new file name.
func (d *Document) SetPath(path string) {
	d.Path = path
	if d.fileTitle != "" {
		return
	}
	if stem := fileStem(path); stem != "" {
		d.Title = stem
	}
}

func fileStem(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func idsOf(entries []*EntryState) []uuid.UUID {
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids
}

// Modified reports the cached document-wide modified flag.
func (d *Document) Modified() bool { return d.modified }

func (d *Document) Len() int { return len(d.entries) }

// Entries returns the entry states in display order. The slice is a copy; the
// states are shared.
func (d *Document) Entries() []*EntryState {
	return slices.Clone(d.entries)
}

// At returns the entry state at index i.
func (d *Document) At(i int) (*EntryState, error) {
	if i < 0 || i >= len(d.entries) {
		return nil, fmt.Errorf("%w: %d (have %d)", apperr.ErrOutOfRange, i, len(d.entries))
	}
	return d.entries[i], nil
}

// IndexOf returns the current position of the entry with the given id.
func (d *Document) IndexOf(id uuid.UUID) int {
	return slices.IndexFunc(d.entries, func(e *EntryState) bool { return e.id == id })
}

// RefreshModified recomputes the modified flag from scratch: the document is
// modified if any entry is, or if the saved entries are no longer in their
// saved order.
func (d *Document) RefreshModified() bool {
	modified := slices.ContainsFunc(d.entries, (*EntryState).Modified)
	if !modified {
		modified = !d.orderIsCommitted()
	}
	d.modified = modified
	return modified
}

func (d *Document) orderIsCommitted() bool {
	i := 0
	for _, e := range d.entries {
		if e.isNew {
			continue
		}
		if i >= len(d.committedOrder) || d.committedOrder[i] != e.id {
			return false
		}
		i++
	}
	return i == len(d.committedOrder)
}

// AddEntry appends a new entry with the given label. The tooltip defaults to
// the label and the command is empty.
func (d *Document) AddEntry(label string) *EntryState {
	s := newAddedEntryState(label)
	d.entries = append(d.entries, s)
	d.RefreshModified()
	return s
}

// EditEntry sets one live field of entry i.
func (d *Document) EditEntry(i int, field Field, value string) error {
	s, err := d.At(i)
	if err != nil {
		return err
	}
	err = s.Edit(field, value)
	d.RefreshModified()
	return err
}

// ToggleDisabled soft-deletes or restores entry i.
func (d *Document) ToggleDisabled(i int) error {
	s, err := d.At(i)
	if err != nil {
		return err
	}
	s.ToggleDisabled()
	d.RefreshModified()
	return nil
}

// RevertEntry discards the live edits of entry i. A never-saved entry is
// removed, in which case removed is true.
func (d *Document) RevertEntry(i int) (removed bool, err error) {
	s, err := d.At(i)
	if err != nil {
		return false, err
	}
	if s.Revert() {
		d.entries = slices.Delete(d.entries, i, i+1)
		removed = true
	}
	d.RefreshModified()
	return removed, nil
}

// Move shifts entry i by delta positions and returns its new index.
func (d *Document) Move(i, delta int) (int, error) {
	if _, err := d.At(i); err != nil {
		return i, err
	}
	j := i + delta
	if j < 0 || j >= len(d.entries) {
		return i, fmt.Errorf("%w: cannot move entry %d to %d", apperr.ErrOutOfRange, i, j)
	}
	s := d.entries[i]
	d.entries = slices.Delete(d.entries, i, i+1)
	d.entries = slices.Insert(d.entries, j, s)
	d.RefreshModified()
	return j, nil
}

// Snapshot returns what a save would write: the title and width as the file
// gave them, and the live values of every entry that is not soft-deleted, in
// display order. Fallback values are never written.
func (d *Document) Snapshot() Contents {
	return Contents{Title: d.fileTitle, Width: d.fileWidth, Entries: d.Export()}
}

// Resolved is Snapshot with the displayed title and width filled in.
func (d *Document) Resolved() Contents {
	return Contents{Title: d.Title, Width: d.Width, Entries: d.Export()}
}

// Export returns the live values of the entries that are not soft-deleted,
// without committing anything.
func (d *Document) Export() []Entry {
	var out []Entry
	for _, e := range d.entries {
		if e.disabled {
			continue
		}
		out = append(out, e.live)
	}
	return out
}

// CommitAll commits every entry and the current order. It must only be
// called once the Snapshot has been written successfully.
func (d *Document) CommitAll() {
	for _, e := range d.entries {
		e.Commit()
	}
	d.committedOrder = idsOf(d.entries)
	d.RefreshModified()
}

// RevertAll drops never-saved entries, reverts the rest, and restores the
// saved order.
func (d *Document) RevertAll() {
	kept := make([]*EntryState, 0, len(d.entries))
	for _, e := range d.entries {
		if e.Revert() {
			continue
		}
		kept = append(kept, e)
	}

	pos := make(map[uuid.UUID]int, len(d.committedOrder))
	for i, id := range d.committedOrder {
		pos[id] = i
	}
	slices.SortStableFunc(kept, func(a, b *EntryState) int {
		return pos[a.id] - pos[b.id]
	})

	d.entries = kept
	d.RefreshModified()
}

// Lookup finds an entry by its 1-based position or, failing that, by exact
// label. It returns the 0-based index.
func (c Contents) Lookup(ref string) (int, Entry, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(c.Entries) {
			return -1, Entry{}, fmt.Errorf("%w: %d (have %d)", apperr.ErrOutOfRange, n, len(c.Entries))
		}
		return n - 1, c.Entries[n-1], nil
	}
	for i, e := range c.Entries {
		if e.Label == ref {
			return i, e, nil
		}
	}
	return -1, Entry{}, fmt.Errorf("%w: %q", apperr.ErrUnknownEntry, ref)
}
