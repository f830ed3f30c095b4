// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package ui is the Bubble Tea front end of cmd-runner: the entry list, inline
// editing, command output and the modal prompts of the file operations.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cmd-runner/internal/apperr"
	"cmd-runner/internal/config"
	"cmd-runner/internal/document"
	"cmd-runner/internal/export"
	"cmd-runner/internal/history"
	"cmd-runner/internal/lifecycle"
	"cmd-runner/internal/logger"
	"cmd-runner/internal/runner"
	"cmd-runner/internal/storage"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Options configures the TUI.
type Options struct {
	Path    string // File opened at startup; empty starts an untitled document
	Width   int    // Fallback width for files without one
	Config  config.Config
	Store   *storage.File
	Runner  *runner.Runner
	History history.Recorder
	Logger  *slog.Logger
}

// errNewFile marks a startup path that does not exist yet.
var errNewFile = errors.New("new file")

type model struct {
	keymap   KeyMap
	doc      *document.Document
	ctrl     *lifecycle.Controller
	store    *storage.File
	runner   *runner.Runner
	history  history.Recorder
	defaults document.Defaults
	log      *slog.Logger
	bridge   *bridge

	initialPath string

	currentState state
	cursor       int
	offset       int // First visible list row
	width        int
	height       int
	ready        bool

	// Inline editing. editIndex is -1 while adding an entry.
	input     textinput.Model
	editIndex int
	editField document.Field

	// Command output
	viewport      viewport.Model
	outputContent string
	running       bool
	runStep       runner.Step
	runFile       string
	runStarted    time.Time
	outputChan    <-chan runner.OutputLine
	errorChan     <-chan error

	// Run targets; hostIdx -1 is local.
	hosts   []config.SSHHost
	hostIdx int

	// File operation in progress
	busyOp        string
	frozen        string
	frozenTitle   string
	prompt        promptKind
	promptMessage string
	choiceReply   chan<- lifecycle.Choice
	textReply     chan<- textAnswer

	status      string
	warning     string
	lastError   error
	windowTitle string

	watchPath   string
	watchCancel context.CancelFunc
	quitting    bool
}

// NewModel builds the TUI model. The program's Send must be attached with
// SetSender before it runs, or prompts and file watching are unavailable.
func NewModel(opts Options) *model {
	log := opts.Logger
	if log == nil {
		log = logger.Logger()
	}
	store := opts.Store
	if store == nil {
		store = storage.NewFile()
	}
	r := opts.Runner
	if r == nil {
		r = &runner.Runner{Shell: opts.Config.Shell}
	}
	rec := opts.History
	if rec == nil {
		rec = history.Nop{}
	}
	width := opts.Width
	if width <= 0 {
		width = opts.Config.DefaultWidth
	}
	defaults := document.Defaults{Width: width}

	b := &bridge{}
	doc := document.New(defaults)
	ctrl := lifecycle.New(doc, store, &prompter{bridge: b}, export.Files{Shell: r.Shell}, defaults, log)

	input := textinput.New()
	input.CharLimit = 0

	return &model{
		keymap:       DefaultKeyMap,
		doc:          doc,
		ctrl:         ctrl,
		store:        store,
		runner:       r,
		history:      rec,
		defaults:     defaults,
		log:          log.With("component", "ui"),
		bridge:       b,
		initialPath:  opts.Path,
		currentState: stateList,
		input:        input,
		editIndex:    -1,
		hosts:        opts.Config.EnabledHosts(),
		hostIdx:      -1,
	}
}

// SetSender attaches the function used to deliver messages from background
// goroutines, normally (*tea.Program).Send.
func (m *model) SetSender(send func(tea.Msg)) {
	m.bridge.send = send
}

func (m *model) Init() tea.Cmd {
	if m.initialPath == "" {
		return m.titleCmd()
	}
	path := m.initialPath
	return m.startOp("open", func(ctx context.Context) error {
		err := m.ctrl.Open(ctx, path)
		if errors.Is(err, apperr.ErrNotFound) {
			m.ctrl.Create(path)
			return errNewFile
		}
		return err
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		cmds = append(cmds, handleWindowSizeMsg(m, msg))

	case tea.KeyMsg:
		switch m.currentState {
		case stateList:
			cmds = append(cmds, m.handleListKeys(msg)...)
		case stateEditing:
			cmds = append(cmds, m.handleEditKeys(msg)...)
		case stateOutput:
			cmds = append(cmds, m.handleOutputKeys(msg)...)
		case stateBusy:
			cmds = append(cmds, m.handleBusyKeys(msg)...)
		}

	case channelsAvailableMsg:
		cmds = append(cmds, handleChannelsAvailableMsg(m, msg))
	case outputLineMsg:
		cmds = append(cmds, handleOutputLineMsg(m, msg))
	case runFinishedMsg:
		cmds = append(cmds, handleRunFinishedMsg(m, msg))

	case choiceRequestMsg:
		cmds = append(cmds, handleChoiceRequestMsg(m, msg))
	case textRequestMsg:
		cmds = append(cmds, handleTextRequestMsg(m, msg))
	case opFinishedMsg:
		cmds = append(cmds, handleOpFinishedMsg(m, msg))

	case fileChangedMsg:
		cmds = append(cmds, handleFileChangedMsg(m, msg))
	case watchErrorMsg:
		m.log.Warn("File watcher stopped", "path", m.watchPath, "error", msg.err)
		m.watchPath = ""
	case clipboardMsg:
		if msg.err != nil {
			m.lastError = fmt.Errorf("copy to clipboard: %w", msg.err)
		} else {
			m.status = fmt.Sprintf("Copied the command of %q", msg.label)
		}
	case historyErrorMsg:
		m.log.Warn("Recording run failed", "error", msg.err)

	default:
		// Let the focused text input blink.
		if m.currentState == stateEditing || m.prompt == promptText {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if m.currentState != stateBusy && !m.quitting {
		cmds = append(cmds, m.titleCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m *model) View() string {
	if m.quitting {
		return ""
	}

	title := m.frozenTitle
	if m.currentState != stateBusy {
		title = m.ctrl.WindowTitle()
	}
	header := titleStyle.Render(title)

	var body, footer string
	switch m.currentState {
	case stateList, stateEditing:
		body, footer = m.renderListView()
	case stateOutput:
		body, footer = m.renderOutputView()
	case stateBusy:
		body, footer = m.renderBusyView()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, footer)
}

// startOp freezes the list and runs fn in the background. Until
// opFinishedMsg arrives the document belongs to fn.
func (m *model) startOp(op string, fn func(ctx context.Context) error) tea.Cmd {
	m.frozen = m.renderListBody()
	m.frozenTitle = m.ctrl.WindowTitle()
	m.busyOp = op
	m.currentState = stateBusy
	m.status, m.warning, m.lastError = "", "", nil
	m.log.Debug("File operation started", "op", op)
	return opCmd(op, fn)
}

// titleCmd updates the terminal title when it has changed.
func (m *model) titleCmd() tea.Cmd {
	t := m.ctrl.WindowTitle()
	if t == m.windowTitle {
		return nil
	}
	m.windowTitle = t
	return tea.SetWindowTitle(t)
}

// syncWatch points the file watcher at the document's current path.
func (m *model) syncWatch() tea.Cmd {
	path := m.doc.Path
	if path == m.watchPath {
		return nil
	}
	m.stopWatch()
	if path == "" || m.bridge.send == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.watchPath, m.watchCancel = path, cancel
	return watchCmd(ctx, path, m.store, m.bridge, m.log)
}

func (m *model) stopWatch() {
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	m.watchPath = ""
}

// target is where the next run goes.
func (m *model) target() runner.Target {
	if m.hostIdx < 0 || m.hostIdx >= len(m.hosts) {
		return runner.LocalTarget()
	}
	return runner.RemoteTarget(m.hosts[m.hostIdx])
}

// Run starts the TUI and blocks until it exits.
func Run(opts Options) error {
	m := NewModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.SetSender(p.Send)
	_, err := p.Run()
	m.stopWatch()
	return err
}
