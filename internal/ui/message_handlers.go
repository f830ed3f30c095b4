// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

import (
	"errors"
	"fmt"
	"time"

	"cmd-runner/internal/apperr"
	"cmd-runner/internal/lifecycle"
	"cmd-runner/internal/runner"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// --- Message Handlers ---
// These functions handle specific message types received by the model's Update function.

func handleWindowSizeMsg(m *model, msg tea.WindowSizeMsg) tea.Cmd {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := max(1, m.height-headerHeight-footerHeight)
	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.viewport.SetContent(m.outputContent)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	m.input.Width = max(10, m.width-labelColumn-4)
	if m.currentState != stateBusy {
		m.clampCursor()
	}
	return nil
}

func handleChannelsAvailableMsg(m *model, msg channelsAvailableMsg) tea.Cmd {
	if !m.running {
		return nil
	}
	m.outputChan = msg.outChan
	m.errorChan = msg.errChan
	return waitForOutputCmd(m.outputChan, m.errorChan)
}

func handleOutputLineMsg(m *model, msg outputLineMsg) tea.Cmd {
	if m.outputChan == nil {
		return nil
	}
	// Append the raw chunk; the terminal handles ANSI sequences.
	m.outputContent += msg.line.Line
	m.viewport.SetContent(m.outputContent)
	m.viewport.GotoBottom()
	return waitForOutputCmd(m.outputChan, m.errorChan)
}

func handleRunFinishedMsg(m *model, msg runFinishedMsg) tea.Cmd {
	m.outputChan = nil
	m.errorChan = nil
	m.running = false

	res := runner.Result{Started: m.runStarted, Duration: time.Since(m.runStarted), Err: msg.err}
	if msg.err != nil {
		m.outputContent += "\n" + errorStyle.Render(fmt.Sprintf("Error: %v", msg.err)) + "\n"
	}
	m.outputContent += ruleStyle.Render(runner.Rule()) + "\n"
	m.viewport.SetContent(m.outputContent)
	m.viewport.GotoBottom()

	if msg.err != nil {
		m.log.Warn("Command failed", "label", m.runStep.Label, "error", msg.err)
	} else {
		m.status = fmt.Sprintf("%q finished in %s", m.runStep.Label, res.Duration.Round(time.Millisecond))
	}
	return recordRunCmd(m.history, runner.HistoryRun(m.runFile, m.runStep, res))
}

func handleChoiceRequestMsg(m *model, msg choiceRequestMsg) tea.Cmd {
	if m.currentState != stateBusy {
		// Only file operations prompt; anything else is answered with Cancel.
		msg.reply <- lifecycle.ChoiceCancel
		return nil
	}
	m.prompt = promptChoice
	m.promptMessage = msg.message
	m.choiceReply = msg.reply
	return nil
}

func handleTextRequestMsg(m *model, msg textRequestMsg) tea.Cmd {
	if m.currentState != stateBusy {
		msg.reply <- textAnswer{cancelled: true}
		return nil
	}
	m.prompt = promptText
	m.promptMessage = msg.prompt
	m.textReply = msg.reply
	m.input.Prompt = "> "
	m.input.Placeholder = ""
	m.input.SetValue(msg.initial)
	m.input.CursorEnd()
	return m.input.Focus()
}

func handleOpFinishedMsg(m *model, msg opFinishedMsg) tea.Cmd {
	m.currentState = stateList
	m.busyOp = ""
	m.frozen = ""
	m.frozenTitle = ""
	m.clearPrompt()
	m.clampCursor()

	switch {
	case msg.err == nil:
		if msg.op == "exit" {
			m.quitting = true
			m.stopWatch()
			return tea.Quit
		}
		m.status = opStatus(msg.op, m.doc.Path)
	case errors.Is(msg.err, errNewFile):
		m.status = "New file " + m.doc.Path
	case apperr.IsCancelled(msg.err):
		m.status = "Cancelled"
	default:
		m.lastError = msg.err
	}
	return m.syncWatch()
}

func opStatus(op, path string) string {
	switch op {
	case "new":
		return "New document"
	case "open":
		return "Opened " + path
	case "save", "save as":
		if path == "" {
			return "Nothing to save"
		}
		return "Saved " + path
	case "revert":
		return "Reverted all changes"
	case "export":
		return "Exported"
	default:
		return ""
	}
}

// handleFileChangedMsg reloads a clean document whose file was changed by
// someone else. Unsaved edits are never overwritten. While busy the document
// belongs to the running operation, so it is not even read.
func handleFileChangedMsg(m *model, msg fileChangedMsg) tea.Cmd {
	if m.currentState == stateBusy {
		return nil
	}
	if msg.path != m.doc.Path {
		return nil
	}
	if m.doc.Modified() || m.currentState == stateEditing {
		m.warning = "File changed on disk; keeping your unsaved changes"
		return nil
	}
	if err := m.doc.Load(m.store, msg.path, m.defaults); err != nil {
		m.lastError = fmt.Errorf("reload: %w", err)
		return nil
	}
	m.clampCursor()
	m.status = "Reloaded " + msg.path
	m.log.Info("Reloaded command file after external change", "path", msg.path)
	return nil
}
