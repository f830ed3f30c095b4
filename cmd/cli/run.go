// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"cmd-runner/internal/config"
	"cmd-runner/internal/history"
	"cmd-runner/internal/logger"
	"cmd-runner/internal/runner"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

// resolveTarget maps a --host value to a run target. Empty and "local" run
// on this machine.
func resolveTarget(cfg config.Config, host string) (runner.Target, error) {
	if host == "" || host == "local" {
		return runner.LocalTarget(), nil
	}
	h, ok := cfg.FindHost(host)
	if !ok {
		return runner.Target{}, fmt.Errorf("host %q is not configured or is disabled", host)
	}
	return runner.RemoteTarget(h), nil
}

// spinnerWriter stops the spinner before the first byte of output.
type spinnerWriter struct {
	w    io.Writer
	stop func()
}

func (sw spinnerWriter) Write(p []byte) (int, error) {
	sw.stop()
	return sw.w.Write(p)
}

var runHost string

var runCmd = &cobra.Command{
	Use:   "run <commandFile> <label|index>",
	Short: "Run one entry of a command file",
	Long: `Runs the command of one entry with the configured shell. The entry is
chosen by its 1-based position or its exact label. With --host the command runs
on a configured SSH host instead of this machine.`,
	Example:           "  cmd-runner run cmds.json 2\n  cmd-runner run cmds.json \"Disk usage\" --host server1",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: entryCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		path, c := mustLoad(args[0])
		_, entry, err := c.Lookup(args[1])
		if err != nil {
			logger.Errorf("Error: %v", err)
			exit(1)
		}
		target, err := resolveTarget(appConfig, runHost)
		if err != nil {
			logger.Errorf("Error: %v", err)
			exit(1)
		}

		r, err := runner.New(appConfig, sshManager)
		if err != nil {
			logger.Errorf("Error preparing runner: %v", err)
			exit(1)
		}
		rec, closeHistory, err := history.OpenDefault(appConfig.HistoryEnabled())
		if err != nil {
			logger.Warn("Run history disabled", "error", err)
		}

		step := runner.Step{Label: entry.Label, Command: entry.Command, Target: target}
		if target.IsRemote {
			stepColor.Printf("%s (%s)\n", runner.Banner(step.Label), identifierColor.Sprint(target.ServerName))
		} else {
			stepColor.Println(runner.Banner(step.Label))
		}

		res := runStep(r, step)
		fmt.Println(runner.Rule())

		if err := rec.Record(context.Background(), runner.HistoryRun(path, step, res)); err != nil {
			logger.Warn("Recording run failed", "error", err)
		}
		closeHistory()

		if res.Err != nil {
			errorColor.Fprintf(os.Stderr, "Error running '%s': %v\n", step.Label, res.Err)
			code := res.ExitCode()
			if code <= 0 {
				code = 1
			}
			exit(code)
		}
		successColor.Printf("'%s' finished in %s\n", step.Label, res.Duration.Round(time.Millisecond))
	},
}

// runStep runs step with output going straight to the terminal. Remote runs
// show a spinner until the first output arrives.
func runStep(r *runner.Runner, step runner.Step) runner.Result {
	var s *spinner.Spinner
	if step.Target.IsRemote {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Color("cyan")
		s.Suffix = fmt.Sprintf(" Waiting for %s...", identifierColor.Sprint(step.Target.ServerName))
		s.Writer = os.Stderr
		s.Start()

		var once sync.Once
		stop := func() { once.Do(s.Stop) }
		r.Stdout = spinnerWriter{w: os.Stdout, stop: stop}
		r.Stderr = spinnerWriter{w: os.Stderr, stop: stop}
	}

	start := time.Now()
	outChan, errChan := r.Stream(step, true)
	for range outChan {
		// CLI mode writes to the terminal directly; nothing arrives here.
	}
	err := <-errChan
	if s != nil {
		s.Stop()
	}
	return runner.Result{Started: start, Duration: time.Since(start), Err: err}
}

func init() {
	runCmd.Flags().StringVar(&runHost, "host", "", "run on this configured SSH host instead of locally")
	_ = runCmd.RegisterFlagCompletionFunc("host", hostCompletionFunc)
}
