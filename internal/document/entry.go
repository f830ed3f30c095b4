// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package document implements the in-memory model of a command file: the
// entries with their live and committed values, and the document-wide
// modified flag derived from them.
package document

import (
	"fmt"

	"cmd-runner/internal/apperr"

	"github.com/google/uuid"
)

// ModifiedMarker is appended to the display label of a modified entry.
const ModifiedMarker = "*"

// Entry is one command record as stored in a command file.
type Entry struct {
	Label   string
	Command string
	Tooltip string
}

// Field identifies one editable field of an Entry.
type Field int

const (
	FieldLabel Field = iota
	FieldCommand
	FieldTooltip
)

func (f Field) String() string {
	switch f {
	case FieldLabel:
		return "label"
	case FieldCommand:
		return "command"
	case FieldTooltip:
		return "tooltip"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// EntryState tracks the live (edited) and committed values of one entry.
type EntryState struct {
	id        uuid.UUID
	committed Entry
	live      Entry
	disabled  bool
	isNew     bool

	// committedDisabled records that the entry was soft-deleted when the
	// document was last saved, so it is absent from the file.
	committedDisabled bool
}

// NewEntryState wraps an entry read from storage.
func NewEntryState(e Entry) *EntryState {
	return &EntryState{
		id:        uuid.New(),
		committed: e,
		live:      e,
	}
}

// newAddedEntryState creates the state for an entry added by the user. It
// stays modified until it is committed or reverted away.
func newAddedEntryState(label string) *EntryState {
	e := Entry{Label: label, Tooltip: label}
	return &EntryState{
		id:        uuid.New(),
		committed: e,
		live:      e,
		isNew:     true,
	}
}

func (s *EntryState) ID() uuid.UUID    { return s.id }
func (s *EntryState) Live() Entry      { return s.live }
func (s *EntryState) Committed() Entry { return s.committed }
func (s *EntryState) Disabled() bool   { return s.disabled }
func (s *EntryState) IsNew() bool      { return s.isNew }

// Modified reports whether the entry differs from what was last saved.
func (s *EntryState) Modified() bool {
	return s.live != s.committed || s.disabled != s.committedDisabled || s.isNew
}

// DisplayLabel is the live label, with ModifiedMarker appended when the entry
// has unsaved changes.
func (s *EntryState) DisplayLabel() string {
	if s.Modified() {
		return s.live.Label + ModifiedMarker
	}
	return s.live.Label
}

// Edit sets one live field.
func (s *EntryState) Edit(field Field, value string) error {
	switch field {
	case FieldLabel:
		s.live.Label = value
	case FieldCommand:
		s.live.Command = value
	case FieldTooltip:
		s.live.Tooltip = value
	default:
		return fmt.Errorf("%w: %s", apperr.ErrInvalidField, field)
	}
	return nil
}

// ToggleDisabled flips the soft-delete flag.
func (s *EntryState) ToggleDisabled() {
	s.disabled = !s.disabled
}

// Commit makes the live values authoritative. The disabled flag is kept; a
// disabled entry is simply absent from the file that was just written.
func (s *EntryState) Commit() {
	s.committed = s.live
	s.isNew = false
	s.committedDisabled = s.disabled
}

// Revert discards live edits. For a never-saved entry it returns true and the
// caller must remove the entry from its document.
func (s *EntryState) Revert() (remove bool) {
	if s.isNew {
		return true
	}
	s.live = s.committed
	s.disabled = s.committedDisabled
	return false
}
