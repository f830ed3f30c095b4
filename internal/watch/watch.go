// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package watch reports external modifications of the open command file.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce collapses bursts of events (editors often write in several steps).
const Debounce = 200 * time.Millisecond

// ChangeDetector tells whether a file differs from what the application last
// read or wrote itself.
type ChangeDetector interface {
	ChangedOnDisk(path string) (bool, error)
}

// File watches path until ctx is cancelled and calls onChange after each
// burst of events that left the file different from the detector's record.
// The parent directory is watched so atomic replace-by-rename is seen too.
func File(ctx context.Context, path string, detector ChangeDetector, logger *slog.Logger, onChange func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Debug("watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("watcher: stopped", slog.String("path", abs))
			return nil

		case <-fire:
			fire = nil
			changed, err := detector.ChangedOnDisk(abs)
			if err != nil {
				// Removed or mid-rename; a later event will settle it.
				logger.Debug("watcher: check failed", slog.String("path", abs), slog.String("error", err.Error()))
				continue
			}
			if changed {
				logger.Info("watcher: file changed on disk", slog.String("path", abs))
				onChange(path)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(Debounce)
			} else {
				timer.Reset(Debounce)
			}
			fire = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
