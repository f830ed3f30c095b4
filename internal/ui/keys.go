// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// This file defines the keyboard bindings for the TUI application.
// It maps keys to actions and provides descriptions for the help line.

package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	// Navigation keys
	Up     key.Binding
	Down   key.Binding
	PgUp   key.Binding
	PgDown key.Binding
	Home   key.Binding
	End    key.Binding

	// General UI control
	Quit   key.Binding // Exit, asking about unsaved changes
	Enter  key.Binding // Run the entry / apply an edit
	Esc    key.Binding // Cancel an edit or prompt
	Back   key.Binding // Leave the output view
	Output key.Binding // Show the last run's output

	// Entry editing
	EditCommand key.Binding
	Rename      key.Binding
	EditTooltip key.Binding
	Add         key.Binding
	Delete      key.Binding // Delete/Undelete toggle
	Undo        key.Binding // Revert the entry under the cursor
	MoveUp      key.Binding
	MoveDown    key.Binding
	Copy        key.Binding
	Host        key.Binding // Cycle the run target

	// File operations
	New    key.Binding
	Open   key.Binding
	Save   key.Binding
	SaveAs key.Binding
	Revert key.Binding
	Export key.Binding

	// Save/Discard/Cancel prompt
	ChooseSave    key.Binding
	ChooseDiscard key.Binding
	ChooseCancel  key.Binding
}

// DefaultKeyMap provides the default keybindings.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	PgUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "page up"),
	),
	PgDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("home"),
		key.WithHelp("home", "first"),
	),
	End: key.NewBinding(
		key.WithKeys("end"),
		key.WithHelp("end", "last"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run"),
	),
	Esc: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "b"),
		key.WithHelp("esc/b", "back"),
	),
	Output: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "output"),
	),

	EditCommand: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit command"),
	),
	Rename: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rename"),
	),
	EditTooltip: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "tooltip"),
	),
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete/undelete"),
	),
	Undo: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "revert entry"),
	),
	MoveUp: key.NewBinding(
		key.WithKeys("K"),
		key.WithHelp("K", "move up"),
	),
	MoveDown: key.NewBinding(
		key.WithKeys("J"),
		key.WithHelp("J", "move down"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy"),
	),
	Host: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "target"),
	),

	New: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("^n", "new"),
	),
	Open: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("^o", "open"),
	),
	Save: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("^s", "save"),
	),
	SaveAs: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "save as"),
	),
	Revert: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "revert"),
	),
	Export: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "export"),
	),

	ChooseSave: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "save"),
	),
	ChooseDiscard: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "discard"),
	),
	ChooseCancel: key.NewBinding(
		key.WithKeys("c", "esc", "ctrl+c"),
		key.WithHelp("c/esc", "cancel"),
	),
}
