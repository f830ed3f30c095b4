// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package runner

import (
	"fmt"
	"io"
	"sync"

	"cmd-runner/internal/config"
	"cmd-runner/internal/logger"

	gossh "golang.org/x/crypto/ssh"
)

// runSSHCommand executes remoteCmdString in a new session on hostConfig.
// If cliMode is true, output goes directly to the runner's Stdout/Stderr and
// a PTY is requested so remote programs keep their colours.
// If cliMode is false, output is sent in chunks over outChan.
func (r *Runner) runSSHCommand(
	hostConfig config.SSHHost,
	remoteCmdString string,
	cmdDesc string,
	cliMode bool,
	outChan chan<- OutputLine,
	errChan chan<- error,
) {
	if r.SSH == nil {
		errChan <- fmt.Errorf("ssh manager not initialized for %s", cmdDesc)
		return
	}

	client, err := r.SSH.GetClient(hostConfig)
	if err != nil {
		errChan <- fmt.Errorf("failed to get ssh client for %s: %w", cmdDesc, err)
		return
	}

	session, err := client.NewSession()
	if err != nil {
		errChan <- fmt.Errorf("failed to create ssh session for %s: %w", cmdDesc, err)
		return
	}
	defer session.Close()

	stdoutPipe, err := session.StdoutPipe()
	if err != nil {
		errChan <- fmt.Errorf("failed to get ssh stdout pipe for %s: %w", cmdDesc, err)
		return
	}
	stderrPipe, err := session.StderrPipe()
	if err != nil {
		errChan <- fmt.Errorf("failed to get ssh stderr pipe for %s: %w", cmdDesc, err)
		return
	}

	if cliMode {
		modes := gossh.TerminalModes{
			gossh.ECHO:          0,
			gossh.TTY_OP_ISPEED: 14400,
			gossh.TTY_OP_OSPEED: 14400,
		}
		if err := session.RequestPty("xterm-256color", 40, config.DefaultWidth, modes); err != nil {
			logger.Warn("Failed to request pty, continuing without one", "target", hostConfig.Name, "error", err)
		}
	}

	logger.Debug("Starting remote command", "target", hostConfig.Name, "command", remoteCmdString)
	if err := session.Start(remoteCmdString); err != nil {
		errChan <- fmt.Errorf("failed to start remote command for %s: %w", cmdDesc, err)
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	if cliMode {
		go func() {
			defer wg.Done()
			_, _ = io.Copy(r.stdout(), stdoutPipe)
		}()
		go func() {
			defer wg.Done()
			_, _ = io.Copy(r.stderr(), stderrPipe)
		}()
	} else {
		go streamPipe(stdoutPipe, outChan, &wg, false)
		go streamPipe(stderrPipe, outChan, &wg, true)
	}
	wg.Wait()

	if cmdErr := session.Wait(); cmdErr != nil {
		errChan <- exitErrorf(cmdDesc, ExitCode(cmdErr), cmdErr)
	}
}
