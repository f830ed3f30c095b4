// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package cli implements the cmd-runner command line. Without a subcommand it
// opens the TUI on a command file; the subcommands list, run, export and
// serve command files without opening it.
package cli

import (
	"fmt"
	"os"

	"cmd-runner/cmd/tui"
	"cmd-runner/internal/config"
	"cmd-runner/internal/history"
	"cmd-runner/internal/logger"
	"cmd-runner/internal/runner"
	"cmd-runner/internal/ssh"
	"cmd-runner/internal/storage"
	"cmd-runner/internal/ui"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	sshManager      *ssh.Manager
	appConfig       config.Config
	statusColor     = color.New(color.FgCyan)
	errorColor      = color.New(color.FgRed)
	stepColor       = color.New(color.FgYellow)
	successColor    = color.New(color.FgGreen)
	identifierColor = color.New(color.FgBlue)
	// dimColor is used for less important/secondary text in the CLI output
	dimColor = color.New(color.Faint)
)

var cmdWidth int

var rootCmd = &cobra.Command{
	Use:   "cmd-runner [commandFile]",
	Short: "Launch commands from a JSON command file",
	Long: `cmd-runner shows the entries of a command file as a list. Each entry is a
label and a shell command; pick one to run it locally or on a configured SSH
host. Entries can be edited, added, deleted and reordered, and the file saved.

Without a file argument the default_file from
~/.config/cmd-runner/config.yaml is opened, or an empty untitled document.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The TUI owns the terminal, so it only logs to the file.
		logger.InitLogger(cmd == cmd.Root())

		if err := config.EnsureConfigDir(); err != nil {
			return fmt.Errorf("failed to ensure config directory: %w", err)
		}
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		appConfig = cfg
		sshManager = ssh.NewManager()
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		closeSSH()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := appConfig.DefaultFile
		if len(args) == 1 {
			path = args[0]
		}
		if path != "" {
			resolved, err := config.ResolvePath(path)
			if err != nil {
				return err
			}
			path = resolved
		}

		width := 0
		if cmd.Flags().Changed("cmdWidth") {
			if cmdWidth < 1 || cmdWidth > config.MaxWidth {
				return fmt.Errorf("--cmdWidth must be between 1 and %d", config.MaxWidth)
			}
			width = cmdWidth
		}

		r, err := runner.New(appConfig, sshManager)
		if err != nil {
			return err
		}
		rec, closeHistory, err := history.OpenDefault(appConfig.HistoryEnabled())
		if err != nil {
			logger.Warn("Run history disabled", "error", err)
		}
		defer closeHistory()

		return tui.RunTUI(ui.Options{
			Path:    path,
			Width:   width,
			Config:  appConfig,
			Store:   storage.NewFile(),
			Runner:  r,
			History: rec,
			Logger:  logger.Logger(),
		})
	},
}

func closeSSH() {
	if sshManager != nil {
		sshManager.CloseAll()
	}
}

// exit releases SSH connections before leaving with code. Commands that fail
// call it instead of os.Exit so remote sessions are closed.
func exit(code int) {
	closeSSH()
	os.Exit(code)
}

// RunCLI executes the root command and exits 1 on failure.
func RunCLI() {
	if err := rootCmd.Execute(); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().IntVarP(&cmdWidth, "cmdWidth", "w", config.DefaultWidth, "maximum width of the command column")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
}
