// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"fmt"
	"os"
	"strings"

	"cmd-runner/internal/config"
	"cmd-runner/internal/document"
	"cmd-runner/internal/export"
	"cmd-runner/internal/logger"
	"cmd-runner/internal/storage"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loadCommandFile resolves arg and reads the command file it names.
func loadCommandFile(arg string) (string, document.Contents, error) {
	path, err := config.ResolvePath(arg)
	if err != nil {
		return arg, document.Contents{}, err
	}
	c, err := storage.NewFile().Read(path)
	if err != nil {
		return path, document.Contents{}, err
	}
	return path, c, nil
}

func mustLoad(arg string) (string, document.Contents) {
	path, c, err := loadCommandFile(arg)
	if err != nil {
		logger.Errorf("Error loading %s: %v", arg, err)
		exit(1)
	}
	return path, c
}

// titleOf returns the document title, falling back like the TUI does.
func titleOf(path string, c document.Contents) string {
	d := document.New(document.Defaults{Width: appConfig.DefaultWidth})
	d.Replace(c, path, document.Defaults{Width: appConfig.DefaultWidth})
	return d.Title
}

func widthOf(c document.Contents) int {
	if c.Width > 0 {
		return c.Width
	}
	if appConfig.DefaultWidth > 0 {
		return appConfig.DefaultWidth
	}
	return config.DefaultWidth
}

// formatEntry renders one numbered list line. The command is cut to width
// and flattened onto one line.
func formatEntry(n int, e document.Entry, width int) string {
	command := strings.Join(strings.Fields(e.Command), " ")
	if r := []rune(command); width > 0 && len(r) > width {
		command = string(r[:max(width-1, 0)]) + "…"
	}
	line := fmt.Sprintf("%3d. %s  %s", n, identifierColor.Sprint(e.Label), command)
	if e.Tooltip != "" && e.Tooltip != e.Label {
		line += "  " + dimColor.Sprint("# "+e.Tooltip)
	}
	return line
}

var listCmd = &cobra.Command{
	Use:     "list <commandFile>",
	Aliases: []string{"ls"},
	Short:   "List the entries of a command file",
	Example: "  cmd-runner list ~/cmds.json",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path, c := mustLoad(args[0])

		statusColor.Printf("%s (%s)\n", titleOf(path, c), path)
		if len(c.Entries) == 0 {
			fmt.Println("No entries.")
			return
		}
		width := widthOf(c)
		for i, e := range c.Entries {
			fmt.Println(formatEntry(i+1, e, width))
		}
	},
}

var showStyle string

var showCmd = &cobra.Command{
	Use:   "show <commandFile>",
	Short: "Render a command file as Markdown in the terminal",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path, c := mustLoad(args[0])
		if c.Title == "" {
			c.Title = titleOf(path, c)
		}

		width := widthOf(c)
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
		out, err := export.Preview(c, width, showStyle)
		if err != nil {
			logger.Errorf("Error rendering %s: %v", path, err)
			exit(1)
		}
		fmt.Print(out)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <commandFile>...",
	Short: "Check that command files parse",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		failed := 0
		for _, arg := range args {
			path, c, err := loadCommandFile(arg)
			if err != nil {
				failed++
				errorColor.Fprintf(os.Stderr, "FAIL %s: %v\n", arg, err)
				continue
			}
			successColor.Print("ok   ")
			fmt.Printf("%s: %d entries, title %q\n", path, len(c.Entries), titleOf(path, c))
		}
		if failed > 0 {
			errorColor.Fprintf(os.Stderr, "%d of %d files failed\n", failed, len(args))
			exit(1)
		}
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <commandFile> <output>",
	Short: "Export a command file to Markdown, YAML, TOML or a shell script",
	Long: `Writes the entries of a command file to output. The format follows the
output extension: .yaml/.yml, .toml, .sh, and Markdown for anything else.`,
	Example: "  cmd-runner export cmds.json cmds.md\n  cmd-runner export cmds.json run-all.sh",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		path, c := mustLoad(args[0])
		if c.Title == "" {
			c.Title = titleOf(path, c)
		}
		out, err := config.ResolvePath(args[1])
		if err != nil {
			logger.Errorf("Error resolving %s: %v", args[1], err)
			exit(1)
		}

		if err := (export.Files{Shell: appConfig.Shell}).Export(out, c); err != nil {
			logger.Errorf("Error exporting %s: %v", path, err)
			exit(1)
		}
		successColor.Printf("Exported %d entries to %s (%s)\n", len(c.Entries), out, export.KindFor(out))
	},
}

func init() {
	showCmd.Flags().StringVar(&showStyle, "style", "dark", "glamour style (dark, light, notty, ...)")
}
