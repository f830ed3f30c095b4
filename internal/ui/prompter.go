// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

import (
	"context"
	"errors"

	"cmd-runner/internal/apperr"
	"cmd-runner/internal/lifecycle"

	tea "github.com/charmbracelet/bubbletea"
)

var errNoProgram = errors.New("ui: no program to prompt through")

// bridge carries messages from background goroutines into the Bubble Tea
// program. send is set once, before the program starts.
type bridge struct {
	send func(tea.Msg)
}

func (b *bridge) Send(msg tea.Msg) bool {
	if b == nil || b.send == nil {
		return false
	}
	b.send(msg)
	return true
}

// prompter implements lifecycle.Prompter as modal dialogs. It is only called
// from the goroutine running a file operation, never from Update.
type prompter struct {
	bridge *bridge
}

var _ lifecycle.Prompter = (*prompter)(nil)

func (p *prompter) AskSaveDiscardCancel(ctx context.Context, message string) (lifecycle.Choice, error) {
	reply := make(chan lifecycle.Choice, 1)
	if !p.bridge.Send(choiceRequestMsg{message: message, reply: reply}) {
		return lifecycle.ChoiceCancel, errNoProgram
	}
	select {
	case c := <-reply:
		return c, nil
	case <-ctx.Done():
		return lifecycle.ChoiceCancel, ctx.Err()
	}
}

func (p *prompter) AskText(ctx context.Context, prompt, initial string) (string, error) {
	reply := make(chan textAnswer, 1)
	if !p.bridge.Send(textRequestMsg{prompt: prompt, initial: initial, reply: reply}) {
		return "", errNoProgram
	}
	select {
	case a := <-reply:
		if a.cancelled {
			return "", apperr.ErrCancelled
		}
		return a.text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
