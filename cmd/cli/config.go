// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"cmd-runner/internal/config"
	"cmd-runner/internal/logger"

	"github.com/spf13/cobra"
)

// configCmd is the parent command for all configuration-related subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage cmd-runner configuration",
	Long: `Provides subcommands to manage the cmd-runner configuration in
~/.config/cmd-runner/config.yaml: display defaults, the shell used to run
commands, the default command file and SSH hosts.`,
}

// updateConfig loads the configuration, applies fn and saves it.
func updateConfig(fn func(cfg *config.Config) error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Errorf("Error loading configuration: %v", err)
		exit(1)
	}
	if err := fn(&cfg); err != nil {
		logger.Errorf("Error: %v", err)
		exit(1)
	}
	if err := config.SaveConfig(cfg); err != nil {
		logger.Errorf("Error saving configuration: %v", err)
		exit(1)
	}
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := config.DefaultConfigPath()
		cfg := appConfig

		fmt.Printf("Config file:   %s\n", dimColor.Sprint(path))
		fmt.Printf("Default width: %s\n", identifierColor.Sprint(cfg.DefaultWidth))
		fmt.Printf("Shell:         %s\n", identifierColor.Sprint(cfg.Shell))
		if cfg.DefaultFile != "" {
			fmt.Printf("Default file:  %s\n", identifierColor.Sprint(cfg.DefaultFile))
		} else {
			fmt.Printf("Default file:  %s\n", dimColor.Sprint("[none: start untitled]"))
		}
		if cfg.EnvFile != "" {
			fmt.Printf("Env file:      %s\n", cfg.EnvFile)
		}
		fmt.Printf("History:       %t\n", cfg.HistoryEnabled())
		fmt.Printf("Listen addr:   %s\n", cfg.ListenAddr)
		fmt.Printf("SSH hosts:     %d (%d enabled)\n", len(cfg.SSHHosts), len(cfg.EnabledHosts()))
	},
}

var configSetWidthCmd = &cobra.Command{
	Use:   "set-width <columns>",
	Short: "Set the command column width used when a file has none",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		width, err := strconv.Atoi(args[0])
		if err != nil {
			logger.Errorf("Error: width must be a number, got %q", args[0])
			exit(1)
		}
		updateConfig(func(cfg *config.Config) error {
			cfg.DefaultWidth = width
			return nil
		})
		successColor.Printf("Default width set to: %d\n", width)
	},
}

var configSetShellCmd = &cobra.Command{
	Use:   "set-shell <path>",
	Short: "Set the shell commands run with",
	Long: `Sets the shell used to run every command as "<shell> -c <command>".
Remote hosts use the same shell. An empty value restores /bin/sh.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		shell := args[0]
		if shell == "" {
			shell = config.DefaultShell
		}
		updateConfig(func(cfg *config.Config) error {
			cfg.Shell = shell
			return nil
		})
		successColor.Printf("Shell set to: %s\n", shell)
	},
}

var configSetDefaultFileCmd = &cobra.Command{
	Use:   "set-default-file <path>",
	Short: "Set the command file opened when none is given",
	Long: `Sets the command file the TUI opens when started without a file argument.
Use an absolute path or a path starting with '~/'. To start untitled instead,
set it to an empty string: cmd-runner config set-default-file ""`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		if path != "" && !isAbsOrHome(path) {
			logger.Error("Error: Path must be absolute or start with '~/'")
			exit(1)
		}
		updateConfig(func(cfg *config.Config) error {
			cfg.DefaultFile = path
			return nil
		})
		if path == "" {
			successColor.Println("Default file cleared; cmd-runner starts untitled.")
		} else {
			successColor.Printf("Default file set to: %s\n", path)
		}
	},
}

func isAbsOrHome(path string) bool {
	return filepath.IsAbs(path) || strings.HasPrefix(path, "~/")
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetWidthCmd)
	configCmd.AddCommand(configSetShellCmd)
	configCmd.AddCommand(configSetDefaultFileCmd)

	rootCmd.AddCommand(configCmd)
}
