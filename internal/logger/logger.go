// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package logger holds the process-wide structured logger. The TUI logs only
// to a file under the XDG state directory; CLI commands also log to stderr.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var defaultLogger *slog.Logger

// StateDir returns the application's XDG state directory. The history
// database lives next to the log file.
func StateDir() (string, error) {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}
	return filepath.Join(stateDir, "cmd-runner"), nil
}

func logFilePath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "app.log"), nil
}

// levelFromEnv reads CMD_RUNNER_LOG_LEVEL (debug, info, warn, error).
func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("CMD_RUNNER_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openLogFile() (io.Writer, string, error) {
	path, err := logFilePath()
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, path, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return nil, path, fmt.Errorf("opening log file: %w", err)
	}
	return f, path, nil
}

// InitLogger initializes the logger for the given mode. It must be called
// once, before the first log call.
func InitLogger(isTUI bool) {
	var writers []io.Writer

	file, path, err := openLogFile()
	if err != nil {
		if !isTUI {
			fmt.Fprintf(os.Stderr, "File logging disabled: %v\n", err)
		}
	} else {
		writers = append(writers, file)
	}
	if !isTUI {
		writers = append(writers, os.Stderr)
	}

	var w io.Writer
	switch len(writers) {
	case 0:
		// TUI without a log file: stay silent rather than corrupt the screen.
		w = io.Discard
	case 1:
		w = writers[0]
	default:
		w = io.MultiWriter(writers...)
	}

	defaultLogger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelFromEnv()}))
	if file != nil {
		defaultLogger.Debug("Logging configured.", "file", path, "tui", isTUI)
	}
}

// SetLogger replaces the logger. Tests use it to capture or silence output.
func SetLogger(l *slog.Logger) {
	defaultLogger = l
}

// Logger returns the current logger, initializing CLI defaults if needed.
func Logger() *slog.Logger {
	checkLogger()
	return defaultLogger
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func checkLogger() {
	if defaultLogger == nil {
		InitLogger(false)
	}
}

func Info(msg string, args ...any) {
	checkLogger()
	defaultLogger.Info(msg, args...)
}

func Infof(format string, v ...any) {
	checkLogger()
	defaultLogger.Info(fmt.Sprintf(format, v...))
}

func Error(msg string, args ...any) {
	checkLogger()
	defaultLogger.Error(msg, args...)
}

func Errorf(format string, v ...any) {
	checkLogger()
	defaultLogger.Error(fmt.Sprintf(format, v...))
}

func Debug(msg string, args ...any) {
	checkLogger()
	defaultLogger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	checkLogger()
	defaultLogger.Warn(msg, args...)
}

func Warnf(format string, v ...any) {
	checkLogger()
	defaultLogger.Warn(fmt.Sprintf(format, v...))
}
