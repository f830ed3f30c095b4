// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package ui's commands.go file contains Bubble Tea commands that perform
// asynchronous work: running entries, file operations, the file watcher,
// the clipboard and the run history.

package ui

import (
	"context"
	"log/slog"

	"cmd-runner/internal/history"
	"cmd-runner/internal/runner"
	"cmd-runner/internal/watch"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// runStepCmd starts step and hands its channels back to the model.
func runStepCmd(r *runner.Runner, step runner.Step) tea.Cmd {
	return func() tea.Msg {
		// TUI always uses cliMode: false for channel-based output
		outChan, errChan := r.Stream(step, false)
		return channelsAvailableMsg{outChan: outChan, errChan: errChan}
	}
}

// waitForOutputCmd waits for the next chunk of output. Once the output
// channel is closed it reads the final error, so runFinishedMsg always
// arrives after the last outputLineMsg.
func waitForOutputCmd(outChan <-chan runner.OutputLine, errChan <-chan error) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-outChan
		if !ok {
			return runFinishedMsg{err: <-errChan}
		}
		return outputLineMsg{line}
	}
}

// opCmd runs a file operation off the Update goroutine. The operation may
// block on prompts answered through the model.
func opCmd(op string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opFinishedMsg{op: op, err: fn(context.Background())}
	}
}

// watchCmd watches path until ctx is cancelled.
func watchCmd(ctx context.Context, path string, detector watch.ChangeDetector, b *bridge, log *slog.Logger) tea.Cmd {
	return func() tea.Msg {
		err := watch.File(ctx, path, detector, log, func(p string) {
			b.Send(fileChangedMsg{path: p})
		})
		if err != nil {
			return watchErrorMsg{err}
		}
		return nil
	}
}

func copyCmd(label, command string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{label: label, err: clipboard.WriteAll(command)}
	}
}

func recordRunCmd(rec history.Recorder, run history.Run) tea.Cmd {
	return func() tea.Msg {
		if err := rec.Record(context.Background(), run); err != nil {
			return historyErrorMsg{err}
		}
		return nil
	}
}
