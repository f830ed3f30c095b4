// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package runner

import (
	"fmt"
	"os/exec"
	"sync"
)

// runLocalCommand executes cmd on this machine.
// If cliMode is true, output goes directly to the runner's Stdout/Stderr.
// If cliMode is false, output is sent in chunks over outChan.
func (r *Runner) runLocalCommand(cmd *exec.Cmd, cmdDesc string, cliMode bool, outChan chan<- OutputLine, errChan chan<- error) {
	var cmdErr error
	if cliMode {
		cmd.Stdout = r.stdout()
		cmd.Stderr = r.stderr()

		if err := cmd.Start(); err != nil {
			errChan <- fmt.Errorf("failed to start %s: %w", cmdDesc, err)
			return
		}
		cmdErr = cmd.Wait()
	} else {
		stdoutPipe, err := cmd.StdoutPipe()
		if err != nil {
			errChan <- fmt.Errorf("failed to get stdout pipe for %s: %w", cmdDesc, err)
			return
		}
		stderrPipe, err := cmd.StderrPipe()
		if err != nil {
			errChan <- fmt.Errorf("failed to get stderr pipe for %s: %w", cmdDesc, err)
			return
		}

		if err := cmd.Start(); err != nil {
			errChan <- fmt.Errorf("failed to start %s: %w", cmdDesc, err)
			return
		}

		// Drain both pipes before Wait, which closes them.
		var wg sync.WaitGroup
		wg.Add(2)
		go streamPipe(stdoutPipe, outChan, &wg, false)
		go streamPipe(stderrPipe, outChan, &wg, true)
		wg.Wait()

		cmdErr = cmd.Wait()
	}

	if cmdErr != nil {
		errChan <- exitErrorf(cmdDesc, ExitCode(cmdErr), cmdErr)
	}
}
