// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package apperr defines the sentinel error kinds shared across the application.
// Callers wrap them with fmt.Errorf("...: %w", err) and test with errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a command file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrParse is returned when a command file is malformed.
	ErrParse = errors.New("parse error")

	// ErrIO is returned when writing a command file fails.
	ErrIO = errors.New("i/o error")

	// ErrCancelled is returned when the user cancels a prompt. It is a clean
	// abort, not a failure.
	ErrCancelled = errors.New("cancelled by user")

	ErrOutOfRange   = errors.New("entry index out of range")
	ErrInvalidField = errors.New("invalid entry field")
	ErrUnknownEntry = errors.New("unknown entry")
)

// IsCancelled reports whether err is (or wraps) ErrCancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
