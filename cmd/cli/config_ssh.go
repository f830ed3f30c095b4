// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package cli's config_ssh.go file implements the commands that manage the SSH
// hosts entries can be run on: listing, importing from ~/.ssh/config and
// removing them.

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cmd-runner/internal/config"
	"cmd-runner/internal/logger"

	"github.com/spf13/cobra"
)

// sshCmd is the parent command for SSH-specific configuration subcommands
var sshCmd = &cobra.Command{
	Use:   "ssh",
	Short: "Manage SSH host configurations",
	Long: `List, import or remove the SSH hosts cmd-runner can run commands on.
A host is selected with "run --host <name>" or the h key in the TUI.`,
}

func describeHost(h config.SSHHost) string {
	details := fmt.Sprintf("%s@%s", h.User, h.Hostname)
	if h.Port != 0 && h.Port != 22 {
		details += fmt.Sprintf(":%d", h.Port)
	}
	return details
}

var sshListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured SSH hosts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if len(appConfig.SSHHosts) == 0 {
			fmt.Println("No SSH hosts configured.")
			return
		}

		statusColor.Println("Configured SSH Hosts:")
		for i, host := range appConfig.SSHHosts {
			fmt.Printf("%d: %s (%s)\n", i+1, identifierColor.Sprint(host.Name), describeHost(host))
			if host.WorkDir != "" {
				fmt.Printf("   Work Dir:    %s\n", host.WorkDir)
			} else {
				fmt.Printf("   Work Dir:    %s\n", dimColor.Sprint("[Default: login directory]"))
			}
			switch {
			case host.KeyPath != "":
				fmt.Printf("   Key Path:    %s\n", host.KeyPath)
			case host.Password != "":
				fmt.Printf("   Password:    %s\n", errorColor.Sprint("[set, stored insecurely]"))
			default:
				fmt.Printf("   Auth:        %s\n", dimColor.Sprint("ssh-agent"))
			}
			if host.Disabled {
				fmt.Printf("   Status:      %s\n", errorColor.Sprint("Disabled"))
			}
		}
	},
}

var sshRemoveCmd = &cobra.Command{
	Use:               "remove <name>",
	Short:             "Remove an SSH host configuration",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: hostCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		idx := -1
		for i, h := range appConfig.SSHHosts {
			if h.Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			logger.Errorf("Error: SSH host '%s' not found in configuration.", name)
			exit(1)
		}

		confirmed, err := promptConfirm(fmt.Sprintf("Are you sure you want to remove host '%s'?", name))
		if err != nil {
			logger.Errorf("Error reading confirmation: %v", err)
			exit(1)
		}
		if !confirmed {
			fmt.Println("Removal cancelled.")
			return
		}

		updateConfig(func(cfg *config.Config) error {
			cfg.SSHHosts = removeHost(cfg.SSHHosts, name)
			return nil
		})
		successColor.Printf("Successfully removed SSH host '%s'.\n", name)
	},
}

func removeHost(hosts []config.SSHHost, name string) []config.SSHHost {
	out := make([]config.SSHHost, 0, len(hosts))
	for _, h := range hosts {
		if h.Name != name {
			out = append(out, h)
		}
	}
	return out
}

// importableHosts drops ssh config entries whose alias is already a
// configured host name.
func importableHosts(potential []config.PotentialHost, current []config.SSHHost) []config.PotentialHost {
	names := make(map[string]bool, len(current))
	for _, h := range current {
		names[h.Name] = true
	}
	var out []config.PotentialHost
	for _, p := range potential {
		if !names[p.Alias] {
			out = append(out, p)
		}
	}
	return out
}

// parseSelection turns "all" or a comma-separated list of 1-based numbers into
// the selected hosts. Duplicates are ignored.
func parseSelection(input string, hosts []config.PotentialHost) ([]config.PotentialHost, error) {
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, "all") {
		return hosts, nil
	}
	seen := make(map[int]bool)
	var out []config.PotentialHost
	for _, part := range strings.Split(input, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 || n > len(hosts) {
			return nil, fmt.Errorf("invalid selection '%s'. Please enter numbers corresponding to the list", strings.TrimSpace(part))
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, hosts[n-1])
		}
	}
	return out, nil
}

var sshImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import hosts from ~/.ssh/config interactively",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		potentialHosts, err := config.ParseSSHConfig()
		if err != nil {
			logger.Errorf("Error parsing ~/.ssh/config: %v", err)
			exit(1)
		}
		candidates := importableHosts(potentialHosts, appConfig.SSHHosts)
		if len(candidates) == 0 {
			fmt.Println("No new hosts found in ~/.ssh/config to import.")
			return
		}

		fmt.Println("Found potential hosts in ~/.ssh/config:")
		for i, p := range candidates {
			fmt.Printf("  %d: %s (Hostname: %s, User: %s, Port: %d)\n", i+1, identifierColor.Sprint(p.Alias), p.Hostname, p.User, p.Port)
			if p.KeyPath != "" {
				fmt.Printf("     Key: %s\n", p.KeyPath)
			}
		}

		fmt.Println("\nEnter the numbers of the hosts you want to import (comma-separated), or 'all':")
		choice, err := promptString("Import selection:", true)
		if err != nil {
			logger.Errorf("Error reading selection: %v", err)
			exit(1)
		}
		selected, err := parseSelection(choice, candidates)
		if err != nil {
			logger.Errorf("Import selection failed: %v", err)
			exit(1)
		}

		var imported []config.SSHHost
		for _, p := range selected {
			workDir, err := promptString(fmt.Sprintf("Work directory on %s (optional):", identifierColor.Sprint(p.Alias)), false)
			if err != nil {
				logger.Errorf("Error reading work directory: %v", err)
				exit(1)
			}
			h, err := config.ToSSHHost(p, p.Alias, workDir)
			if err != nil {
				logger.Errorf("Skipping import for '%s': %v", p.Alias, err)
				continue
			}
			imported = append(imported, h)
		}
		if len(imported) == 0 {
			fmt.Println("\nNo hosts were imported.")
			return
		}

		updateConfig(func(cfg *config.Config) error {
			cfg.SSHHosts = append(cfg.SSHHosts, imported...)
			return nil
		})
		successColor.Printf("\nSuccessfully imported %d SSH host(s).\n", len(imported))
	},
}

func init() {
	sshCmd.AddCommand(sshListCmd)
	sshCmd.AddCommand(sshRemoveCmd)
	sshCmd.AddCommand(sshImportCmd)

	configCmd.AddCommand(sshCmd)
}

var reader = bufio.NewReader(os.Stdin)

func promptString(prompt string, required bool) (string, error) {
	fmt.Print(prompt + " ")
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	input = strings.TrimSpace(input)
	if required && input == "" {
		return "", fmt.Errorf("input is required")
	}
	return input, nil
}

func promptConfirm(prompt string) (bool, error) {
	fmt.Print(prompt + " (y/N): ")
	input, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes", nil
}
