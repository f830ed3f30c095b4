// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package main

import "cmd-runner/cmd/cli"

func main() {
	// With no subcommand the root command opens the TUI.
	cli.RunCLI()
}
