// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package tui

import (
	"fmt"

	"cmd-runner/internal/logger"
	"cmd-runner/internal/ui"
)

// RunTUI runs the Bubble Tea TUI until the user quits.
func RunTUI(opts ui.Options) error {
	logger.Info("Starting TUI", "path", opts.Path)
	if err := ui.Run(opts); err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	return nil
}
