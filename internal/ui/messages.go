// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package ui's messages.go file defines the message types used in the Bubble Tea
// Model-View-Update architecture.

package ui

import (
	"cmd-runner/internal/lifecycle"
	"cmd-runner/internal/runner"
)

// Command execution messages
type channelsAvailableMsg struct {
	outChan <-chan runner.OutputLine
	errChan <-chan error
}
type outputLineMsg struct{ line runner.OutputLine }
type runFinishedMsg struct{ err error } // Sent once all output has been read

// File operation messages
type opFinishedMsg struct {
	op  string
	err error
}

// choiceRequestMsg and textRequestMsg are sent by the prompter from the
// goroutine running a file operation. The operation blocks until the model
// answers on reply.
type choiceRequestMsg struct {
	message string
	reply   chan<- lifecycle.Choice
}

type textAnswer struct {
	text      string
	cancelled bool
}

type textRequestMsg struct {
	prompt  string
	initial string
	reply   chan<- textAnswer
}

// Background results
type fileChangedMsg struct{ path string }
type watchErrorMsg struct{ err error }
type clipboardMsg struct {
	label string
	err   error
}
type historyErrorMsg struct{ err error }
