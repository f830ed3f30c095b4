// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"strconv"
	"strings"

	"cmd-runner/internal/config"
	"cmd-runner/internal/document"

	"github.com/spf13/cobra"
)

// entrySuggestions lists the labels and 1-based positions of c that start
// with prefix.
func entrySuggestions(c document.Contents, prefix string) []string {
	var out []string
	for i, e := range c.Entries {
		if strings.HasPrefix(e.Label, prefix) {
			out = append(out, e.Label)
		}
		if n := strconv.Itoa(i + 1); prefix != "" && strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	return out
}

// entryCompletionFunc completes the command file first, then the entries it
// contains.
func entryCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
	case 1:
		// Ignore load errors during completion
		_, c, err := loadCommandFile(args[0])
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return entrySuggestions(c, toComplete), cobra.ShellCompDirectiveNoFileComp
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

// hostSuggestions returns "local" and the host names that start with prefix.
func hostSuggestions(hosts []config.SSHHost, prefix string) []string {
	var out []string
	if strings.HasPrefix("local", prefix) {
		out = append(out, "local")
	}
	for _, h := range hosts {
		if strings.HasPrefix(h.Name, prefix) {
			out = append(out, h.Name)
		}
	}
	return out
}

// hostCompletionFunc provides dynamic completion for host names.
func hostCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.LoadConfig()
	// Ignore config load errors during completion
	if err != nil {
		return []string{"local"}, cobra.ShellCompDirectiveNoFileComp
	}
	return hostSuggestions(cfg.EnabledHosts(), toComplete), cobra.ShellCompDirectiveNoFileComp
}
