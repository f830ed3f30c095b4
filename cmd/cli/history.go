// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cmd-runner/internal/history"
	"cmd-runner/internal/logger"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the most recent command runs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !appConfig.HistoryEnabled() {
			fmt.Println(dimColor.Sprint("History recording is disabled in the configuration."))
		}
		path, err := history.DefaultPath()
		if err != nil {
			logger.Errorf("Error locating history: %v", err)
			exit(1)
		}
		store, err := history.Open(path)
		if err != nil {
			logger.Errorf("Error opening history: %v", err)
			exit(1)
		}
		defer store.Close()

		runs, err := store.Recent(context.Background(), historyLimit)
		if err != nil {
			logger.Errorf("Error reading history: %v", err)
			exit(1)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return
		}

		fmt.Printf("%-19s  %-12s  %-24s  %4s  %9s  %s\n", "STARTED", "TARGET", "LABEL", "EXIT", "DURATION", "FILE")
		fmt.Printf("%-19s  %-12s  %-24s  %4s  %9s  %s\n",
			strings.Repeat("-", 19), strings.Repeat("-", 12), strings.Repeat("-", 24),
			strings.Repeat("-", 4), strings.Repeat("-", 9), strings.Repeat("-", 4))
		for _, r := range runs {
			fmt.Println(formatRun(r))
		}
	},
}

func formatRun(r history.Run) string {
	code := fmt.Sprintf("%4d", r.ExitCode)
	if r.ExitCode == 0 && r.Error == "" {
		code = successColor.Sprint(code)
	} else {
		code = errorColor.Sprint(code)
	}
	return fmt.Sprintf("%-19s  %-12s  %-24s  %s  %9s  %s",
		r.Started.Local().Format(time.DateTime),
		identifierColor.Sprintf("%-12s", r.Target),
		r.Label,
		code,
		r.Duration.Round(time.Millisecond),
		dimColor.Sprint(r.File),
	)
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
}
