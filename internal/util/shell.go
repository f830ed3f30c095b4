// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package util

import "strings"

// QuoteArgForShell quotes an argument for safe use in a POSIX shell command.
// It uses single quotes and escapes any internal single quotes.
// A leading "~/" is left unquoted so the shell still expands it.
func QuoteArgForShell(arg string) string {
	if strings.HasPrefix(arg, "~/") {
		quotedPart := strings.ReplaceAll(arg[2:], "'", `'\''`)
		return `~/'` + quotedPart + `'`
	}
	return `'` + strings.ReplaceAll(arg, "'", `'\''`) + `'`
}

// ShellInvocation renders "<shell> -c '<command>'" as a single command line,
// for transports that only accept a string (SSH sessions, exported scripts).
func ShellInvocation(shell, command string) string {
	if shell == "" {
		shell = "/bin/sh"
	}
	return shell + " -c " + QuoteArgForShell(command)
}
