// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package runner executes the command string of an entry with the configured
// shell, either locally or on an SSH host, and streams its output.
package runner

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"time"

	"cmd-runner/internal/config"
	"cmd-runner/internal/history"
	"cmd-runner/internal/logger"
	"cmd-runner/internal/ssh"
	"cmd-runner/internal/util"

	"github.com/joho/godotenv"
	gossh "golang.org/x/crypto/ssh"
)

// RuleWidth is the length of the separator printed after each run.
const RuleWidth = 80

type OutputLine struct {
	Line    string
	IsError bool // True if the line came from stderr
}

// Target is where a command runs: locally, or on a configured SSH host.
type Target struct {
	IsRemote   bool
	HostConfig *config.SSHHost // Only set if IsRemote is true
	ServerName string          // "local" or the remote host name
}

func LocalTarget() Target {
	return Target{ServerName: "local"}
}

func RemoteTarget(h config.SSHHost) Target {
	return Target{IsRemote: true, HostConfig: &h, ServerName: h.Name}
}

// Step is one launch of an entry's command.
type Step struct {
	Label   string
	Command string
	Target  Target
}

// Runner launches steps. The zero value runs with /bin/sh, the process
// environment and no SSH support.
type Runner struct {
	Shell string
	// Env holds extra KEY=VALUE pairs added to every command's environment.
	Env []string
	SSH *ssh.Manager

	// Stdout and Stderr receive output in CLI mode. They default to the
	// process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// New builds a Runner from the configuration, loading the optional env file.
func New(cfg config.Config, mgr *ssh.Manager) (*Runner, error) {
	r := &Runner{Shell: cfg.Shell, SSH: mgr}
	if cfg.EnvFile == "" {
		return r, nil
	}
	path, err := config.ResolvePath(cfg.EnvFile)
	if err != nil {
		return nil, err
	}
	env, err := LoadEnvFile(path)
	if err != nil {
		return nil, err
	}
	r.Env = env
	return r, nil
}

// LoadEnvFile reads a dotenv file into sorted KEY=VALUE pairs. A missing file
// is not an error.
func LoadEnvFile(path string) ([]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("Env file not found, ignoring", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	env := make([]string, 0, len(vars))
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		env = append(env, k+"="+vars[k])
	}
	return env, nil
}

func (r *Runner) shell() string {
	if r.Shell == "" {
		return config.DefaultShell
	}
	return r.Shell
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

// Banner is printed before a command's output.
func Banner(label string) string {
	return fmt.Sprintf("Running %s:", label)
}

// Rule is printed after a command finishes.
func Rule() string {
	return strings.Repeat("=", RuleWidth)
}

// Stream runs step in the background.
// If cliMode is true, output goes directly to the runner's Stdout/Stderr.
// If cliMode is false, output is sent in raw chunks over the output channel.
// The error channel yields at most one error and both channels are closed
// when the command has finished.
func (r *Runner) Stream(step Step, cliMode bool) (<-chan OutputLine, <-chan error) {
	// Buffer channel slightly for TUI mode to prevent blocking on rapid output
	outChan := make(chan OutputLine, 10)
	errChan := make(chan error, 1)

	go func() {
		defer close(outChan)
		defer close(errChan)

		cmdDesc := fmt.Sprintf("'%s' on %s", step.Label, step.Target.ServerName)
		if strings.TrimSpace(step.Command) == "" {
			errChan <- fmt.Errorf("%s has no command", cmdDesc)
			return
		}
		logger.Info("Running command", "label", step.Label, "target", step.Target.ServerName)

		if step.Target.IsRemote {
			if step.Target.HostConfig == nil {
				errChan <- fmt.Errorf("internal error: HostConfig is nil for remote host %s", step.Target.ServerName)
				return
			}
			r.runSSHCommand(*step.Target.HostConfig, r.remoteCommandString(step), cmdDesc, cliMode, outChan, errChan)
			return
		}

		cmd := exec.Command(r.shell(), "-c", step.Command)
		cmd.Env = append(os.Environ(), r.Env...)
		r.runLocalCommand(cmd, cmdDesc, cliMode, outChan, errChan)
	}()

	return outChan, errChan
}

// remoteCommandString builds the single command line sent to an SSH session:
// an optional cd into the host's work dir, the extra environment, and the
// shell invocation.
func (r *Runner) remoteCommandString(step Step) string {
	var parts []string
	if wd := step.Target.HostConfig.WorkDir; wd != "" {
		parts = append(parts, "cd", util.QuoteArgForShell(wd), "&&")
	}
	if len(r.Env) > 0 {
		parts = append(parts, "env")
		for _, kv := range r.Env {
			parts = append(parts, util.QuoteArgForShell(kv))
		}
	}
	parts = append(parts, util.ShellInvocation(r.shell(), step.Command))
	return strings.Join(parts, " ")
}

// Result is the collected outcome of a finished run.
type Result struct {
	Stdout   string
	Stderr   string
	Started  time.Time
	Duration time.Duration
	Err      error
}

// ExitCode returns the exit status of the run, or -1 if it did not exit
// normally.
func (res Result) ExitCode() int {
	return ExitCode(res.Err)
}

// Run executes step to completion and collects its output.
func (r *Runner) Run(step Step) Result {
	start := time.Now()
	outChan, errChan := r.Stream(step, false)
	var stdout, stderr strings.Builder
	for line := range outChan {
		if line.IsError {
			stderr.WriteString(line.Line)
		} else {
			stdout.WriteString(line.Line)
		}
	}
	return Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Started:  start,
		Duration: time.Since(start),
		Err:      <-errChan,
	}
}

// HistoryRun describes a finished run of step from file for the history log.
func HistoryRun(file string, step Step, res Result) history.Run {
	run := history.Run{
		File:     file,
		Label:    step.Label,
		Command:  step.Command,
		Target:   step.Target.ServerName,
		Started:  res.Started,
		Duration: res.Duration,
		ExitCode: res.ExitCode(),
	}
	if run.Target == "" {
		run.Target = "local"
	}
	if res.Err != nil {
		run.Error = res.Err.Error()
	}
	return run
}

// ExitCode extracts the exit status from a run error: 0 for nil, -1 when the
// command never produced one.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	var sshExitErr *gossh.ExitError
	if errors.As(err, &sshExitErr) {
		return sshExitErr.ExitStatus()
	}
	return -1
}

// streamPipe reads raw chunks from the pipe and sends them over the outChan.
// This is used for TUI mode where raw output (including control characters) is needed.
func streamPipe(pipe io.Reader, outChan chan<- OutputLine, wg *sync.WaitGroup, isError bool) {
	defer wg.Done()
	buf := make([]byte, 1024)
	for {
		n, err := pipe.Read(buf)
		if n > 0 {
			outChan <- OutputLine{Line: string(buf[:n]), IsError: isError}
		}
		if err != nil {
			if err != io.EOF && !errors.Is(err, os.ErrClosed) {
				logger.Warn("Pipe read error", "stderr", isError, "error", err)
			}
			return
		}
	}
}

func exitErrorf(cmdDesc string, exitCode int, cmdErr error) error {
	if exitCode != -1 {
		return fmt.Errorf("%s exited with status %d: %w", cmdDesc, exitCode, cmdErr)
	}
	return fmt.Errorf("%s failed: %w", cmdDesc, cmdErr)
}
