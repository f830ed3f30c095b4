// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

import (
	"fmt"
	"strings"

	"cmd-runner/internal/document"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// --- State-Specific View Renderers ---
// These functions generate the body and footer content for specific UI states.
// The main View() method combines them with the header.

func (m *model) renderListView() (string, string) {
	body := m.renderListBody()
	if m.currentState == stateEditing && m.editIndex < 0 {
		body += "\n" + cursorStyle.Render("+ ") + m.input.View()
	}

	var help string
	if m.currentState == stateEditing {
		help = m.helpLine(
			helpItem{m.keymap.Enter.Help().Key, "apply"},
			helpItem{m.keymap.Esc.Help().Key, "cancel"},
		)
	} else {
		help = m.helpLine(
			bindingItem(m.keymap.Enter), bindingItem(m.keymap.EditCommand), bindingItem(m.keymap.Rename),
			bindingItem(m.keymap.EditTooltip), bindingItem(m.keymap.Add), bindingItem(m.keymap.Delete),
			bindingItem(m.keymap.Undo), helpItem{"K/J", "move"}, bindingItem(m.keymap.Copy),
			bindingItem(m.keymap.Host), bindingItem(m.keymap.New), bindingItem(m.keymap.Open),
			bindingItem(m.keymap.Save), bindingItem(m.keymap.SaveAs), bindingItem(m.keymap.Revert),
			bindingItem(m.keymap.Export), bindingItem(m.keymap.Quit),
		)
	}
	return body, m.renderFooter(help)
}

// renderListBody renders the visible entry rows. It is also used as the
// frozen picture of the list while a file operation runs.
func (m *model) renderListBody() string {
	entries := m.doc.Entries()
	if len(entries) == 0 {
		return statusStyle.Render(fmt.Sprintf("No entries. Press %s to add one.", m.keymap.Add.Help().Key))
	}

	end := min(len(entries), m.offset+m.listHeight())
	b := strings.Builder{}
	for i := m.offset; i < end; i++ {
		if i > m.offset {
			b.WriteString("\n")
		}
		b.WriteString(m.renderRow(i, entries[i]))
	}
	return b.String()
}

func (m *model) renderRow(i int, es *document.EntryState) string {
	cursor := "  "
	if i == m.cursor {
		cursor = cursorStyle.Render("> ")
	}
	live := es.Live()

	label := padRight(truncate(es.DisplayLabel(), labelColumn), labelColumn)
	switch {
	case es.Disabled():
		label = deletedStyle.Render(label)
	case es.Modified():
		label = modifiedStyle.Render(label)
	}

	if m.currentState == stateEditing && i == m.editIndex {
		return cursor + label + "  " + m.input.View()
	}

	command := truncate(live.Command, max(1, m.doc.Width))
	if es.Disabled() {
		command = deletedStyle.Render(command)
	} else {
		command = commandStyle.Render(command)
	}
	row := cursor + label + "  " + command
	if live.Tooltip != "" && live.Tooltip != live.Label {
		row += "  " + tooltipStyle.Render("# "+live.Tooltip)
	}
	return row
}

func (m *model) renderOutputView() (string, string) {
	help := m.helpLine(
		helpItem{m.keymap.Up.Help().Key + "/" + m.keymap.Down.Help().Key + "/" + m.keymap.PgUp.Help().Key + "/" + m.keymap.PgDown.Help().Key, "scroll"},
		bindingItem(m.keymap.Back),
		bindingItem(m.keymap.Quit),
	)
	return m.viewport.View(), m.renderFooter(help)
}

func (m *model) renderBusyView() (string, string) {
	body := m.frozen
	var help string
	switch m.prompt {
	case promptChoice:
		box := m.promptMessage + "\n\n" + m.helpLine(
			bindingItem(m.keymap.ChooseSave),
			bindingItem(m.keymap.ChooseDiscard),
			bindingItem(m.keymap.ChooseCancel),
		)
		body += "\n\n" + promptBoxStyle.Render(box)
	case promptText:
		box := m.promptMessage + "\n" + m.input.View()
		body += "\n\n" + promptBoxStyle.Render(box)
		help = m.helpLine(
			helpItem{m.keymap.Enter.Help().Key, "ok"},
			helpItem{m.keymap.Esc.Help().Key, "cancel"},
		)
	default:
		help = statusStyle.Render(fmt.Sprintf("Working: %s...", m.busyOp))
	}
	return body, m.renderFooter(help)
}

// renderFooter renders the status line, the run target and the key help.
func (m *model) renderFooter(help string) string {
	footer := strings.Builder{}
	footer.WriteString("\n")

	switch {
	case m.lastError != nil:
		footer.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.lastError)))
	case m.running && m.currentState == stateOutput:
		footer.WriteString(statusStyle.Render(fmt.Sprintf("Running %q on %s...", m.runStep.Label, m.runStep.Target.ServerName)))
	case m.warning != "":
		footer.WriteString(warnStyle.Render(m.warning))
	case m.status != "":
		footer.WriteString(statusStyle.Render(m.status))
	}
	footer.WriteString("\n")

	footer.WriteString(footerDescStyle.Render("target: ") + serverNameStyle.Render(m.target().ServerName))
	// The document belongs to the running operation while busy.
	if m.currentState != stateBusy {
		footer.WriteString(footerSeparatorStyle.Render(" | ") + footerDescStyle.Render(fmt.Sprintf("%d entries", m.doc.Len())))
		if m.doc.Modified() {
			footer.WriteString(footerSeparatorStyle.Render(" | ") + successStyle.Render("unsaved"))
		}
	}

	if help != "" {
		footer.WriteString("\n" + lipgloss.NewStyle().Width(max(m.width, 1)).Render(help))
	}
	return footer.String()
}

type helpItem struct {
	key  string
	desc string
}

func bindingItem(b key.Binding) helpItem {
	return helpItem{key: b.Help().Key, desc: b.Help().Desc}
}

func (m *model) helpLine(items ...helpItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, footerKeyStyle.Render(it.key)+footerDescStyle.Render(": "+it.desc))
	}
	return strings.Join(parts, footerSeparatorStyle.Render(" | "))
}

func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

func padRight(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
