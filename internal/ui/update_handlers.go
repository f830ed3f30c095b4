// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cmd-runner/internal/document"
	"cmd-runner/internal/lifecycle"
	"cmd-runner/internal/runner"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// --- Update Handlers ---
// These methods handle key presses for specific UI states.

func (m *model) handleListKeys(msg tea.KeyMsg) []tea.Cmd {
	var cmds []tea.Cmd
	m.status, m.warning, m.lastError = "", "", nil

	switch {
	case key.Matches(msg, m.keymap.Quit):
		cmds = append(cmds, m.startOp("exit", m.ctrl.Exit))

	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keymap.Down):
		if m.cursor < m.doc.Len()-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keymap.Home):
		m.cursor = 0
	case key.Matches(msg, m.keymap.End):
		m.cursor = m.doc.Len() - 1
	case key.Matches(msg, m.keymap.PgUp):
		m.cursor -= m.listHeight()
	case key.Matches(msg, m.keymap.PgDown):
		m.cursor += m.listHeight()

	case key.Matches(msg, m.keymap.Enter):
		cmds = append(cmds, m.runEntry())
	case key.Matches(msg, m.keymap.Output):
		if m.outputContent != "" {
			m.currentState = stateOutput
		}

	case key.Matches(msg, m.keymap.EditCommand):
		cmds = append(cmds, m.startEdit(document.FieldCommand))
	case key.Matches(msg, m.keymap.Rename):
		cmds = append(cmds, m.startEdit(document.FieldLabel))
	case key.Matches(msg, m.keymap.EditTooltip):
		cmds = append(cmds, m.startEdit(document.FieldTooltip))
	case key.Matches(msg, m.keymap.Add):
		cmds = append(cmds, m.startAdd())

	case key.Matches(msg, m.keymap.Delete):
		if m.doc.Len() > 0 {
			if err := m.doc.ToggleDisabled(m.cursor); err != nil {
				m.lastError = err
			}
		}
	case key.Matches(msg, m.keymap.Undo):
		if m.doc.Len() > 0 {
			removed, err := m.doc.RevertEntry(m.cursor)
			switch {
			case err != nil:
				m.lastError = err
			case removed:
				m.status = "Removed the unsaved entry"
			}
		}
	case key.Matches(msg, m.keymap.MoveUp), key.Matches(msg, m.keymap.MoveDown):
		delta := 1
		if key.Matches(msg, m.keymap.MoveUp) {
			delta = -1
		}
		if m.doc.Len() > 1 {
			// Moving past either end is a no-op.
			if i, err := m.doc.Move(m.cursor, delta); err == nil {
				m.cursor = i
			}
		}

	case key.Matches(msg, m.keymap.Copy):
		if es, err := m.doc.At(m.cursor); err == nil {
			live := es.Live()
			cmds = append(cmds, copyCmd(live.Label, live.Command))
		}
	case key.Matches(msg, m.keymap.Host):
		m.hostIdx++
		if m.hostIdx >= len(m.hosts) {
			m.hostIdx = -1
		}
		m.status = "Commands now run on " + m.target().ServerName

	case key.Matches(msg, m.keymap.New):
		cmds = append(cmds, m.startOp("new", m.ctrl.New))
	case key.Matches(msg, m.keymap.Open):
		cmds = append(cmds, m.startOp("open", func(ctx context.Context) error {
			return m.ctrl.Open(ctx, "")
		}))
	case key.Matches(msg, m.keymap.Save):
		cmds = append(cmds, m.startOp("save", m.ctrl.Save))
	case key.Matches(msg, m.keymap.SaveAs):
		cmds = append(cmds, m.startOp("save as", m.ctrl.SaveAs))
	case key.Matches(msg, m.keymap.Revert):
		cmds = append(cmds, m.startOp("revert", m.ctrl.Revert))
	case key.Matches(msg, m.keymap.Export):
		cmds = append(cmds, m.startOp("export", m.ctrl.Export))
	}

	m.clampCursor()
	return cmds
}

// startEdit opens the inline input on one field of the entry under the cursor.
func (m *model) startEdit(field document.Field) tea.Cmd {
	es, err := m.doc.At(m.cursor)
	if err != nil {
		return nil
	}
	live := es.Live()
	value := live.Command
	switch field {
	case document.FieldLabel:
		value = live.Label
	case document.FieldTooltip:
		value = live.Tooltip
	}

	m.editIndex = m.cursor
	m.editField = field
	m.input.Prompt = field.String() + ": "
	m.input.Placeholder = ""
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.currentState = stateEditing
	return m.input.Focus()
}

func (m *model) startAdd() tea.Cmd {
	m.editIndex = -1
	m.editField = document.FieldLabel
	m.input.Prompt = "new entry: "
	m.input.Placeholder = "label"
	m.input.SetValue("")
	m.currentState = stateEditing
	return m.input.Focus()
}

func (m *model) handleEditKeys(msg tea.KeyMsg) []tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Enter):
		value := m.input.Value()
		m.endEdit()
		if m.editIndex < 0 {
			label := strings.TrimSpace(value)
			if label == "" {
				m.status = "Nothing added"
				return nil
			}
			m.doc.AddEntry(label)
			m.cursor = m.doc.Len() - 1
			m.clampCursor()
			return nil
		}
		if err := m.doc.EditEntry(m.editIndex, m.editField, value); err != nil {
			m.lastError = err
		}
		return nil

	case key.Matches(msg, m.keymap.Esc):
		m.endEdit()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return []tea.Cmd{cmd}
}

func (m *model) endEdit() {
	m.input.Blur()
	m.currentState = stateList
}

func (m *model) handleOutputKeys(msg tea.KeyMsg) []tea.Cmd {
	var cmds []tea.Cmd
	switch {
	case key.Matches(msg, m.keymap.Back):
		m.currentState = stateList
	case key.Matches(msg, m.keymap.Quit):
		m.currentState = stateList
		cmds = append(cmds, m.startOp("exit", m.ctrl.Exit))
	case key.Matches(msg, m.keymap.Home):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keymap.End):
		m.viewport.GotoBottom()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return cmds
}

// handleBusyKeys only answers an open prompt. Everything else waits for the
// file operation to finish.
func (m *model) handleBusyKeys(msg tea.KeyMsg) []tea.Cmd {
	switch m.prompt {
	case promptChoice:
		switch {
		case key.Matches(msg, m.keymap.ChooseSave):
			m.answerChoice(lifecycle.ChoiceSave)
		case key.Matches(msg, m.keymap.ChooseDiscard):
			m.answerChoice(lifecycle.ChoiceDiscard)
		case key.Matches(msg, m.keymap.ChooseCancel):
			m.answerChoice(lifecycle.ChoiceCancel)
		}
	case promptText:
		switch {
		case key.Matches(msg, m.keymap.Enter):
			m.answerText(textAnswer{text: m.input.Value()})
		case key.Matches(msg, m.keymap.Esc):
			m.answerText(textAnswer{cancelled: true})
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return []tea.Cmd{cmd}
		}
	}
	return nil
}

func (m *model) answerChoice(c lifecycle.Choice) {
	if m.choiceReply != nil {
		m.choiceReply <- c
	}
	m.clearPrompt()
}

func (m *model) answerText(a textAnswer) {
	if m.textReply != nil {
		m.textReply <- a
	}
	m.input.Blur()
	m.clearPrompt()
}

func (m *model) clearPrompt() {
	m.prompt = 0
	m.promptMessage = ""
	m.choiceReply = nil
	m.textReply = nil
}

// runEntry starts the live command of the entry under the cursor.
func (m *model) runEntry() tea.Cmd {
	es, err := m.doc.At(m.cursor)
	if err != nil {
		return nil
	}
	if m.running {
		m.warning = "A command is still running"
		return nil
	}
	live := es.Live()
	if es.Disabled() {
		m.warning = fmt.Sprintf("%q is deleted; press %s to undelete it", live.Label, m.keymap.Delete.Help().Key)
		return nil
	}

	step := runner.Step{Label: live.Label, Command: live.Command, Target: m.target()}
	m.running = true
	m.runStep = step
	m.runFile = m.doc.Path
	m.runStarted = time.Now()
	m.outputContent = runner.Banner(step.Label) + "\n"
	if step.Target.IsRemote {
		m.outputContent = fmt.Sprintf("%s (%s)\n", runner.Banner(step.Label), step.Target.ServerName)
	}
	m.viewport.SetContent(m.outputContent)
	m.viewport.GotoTop()
	m.currentState = stateOutput
	return runStepCmd(m.runner, step)
}

// listHeight is the number of entry rows that fit on screen.
func (m *model) listHeight() int {
	h := m.height - headerHeight - footerHeight
	if m.height == 0 || h < 1 {
		return 1 << 30
	}
	return h
}

// clampCursor keeps the cursor on an entry and scrolls the list to it.
func (m *model) clampCursor() {
	n := m.doc.Len()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset > 0 && n-m.offset < h {
		m.offset = max(0, n-h)
	}
}
