// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

// state represents the different views or modes of the TUI.
type state int

const (
	stateList    state = iota // Entry list, the main view
	stateEditing              // Inline text input over one field, or a new entry's label
	stateOutput               // Output of the last (or running) command
	stateBusy                 // A file operation is running; only prompt keys are handled
)

// promptKind is the kind of modal question a file operation is waiting on.
type promptKind int

const (
	promptChoice promptKind = iota + 1 // Save / Discard / Cancel
	promptText                         // Free text, e.g. a path
)

const (
	headerHeight = 2 // Title line plus a blank line.
	footerHeight = 3 // Status line, target line and key help.
	labelColumn  = 24
)
