// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package history records every command launch in a SQLite database under the
// XDG state directory.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cmd-runner/internal/logger"

	_ "modernc.org/sqlite"
)

// Run is one recorded launch.
type Run struct {
	ID       int64
	File     string
	Label    string
	Command  string
	Target   string
	Started  time.Time
	Duration time.Duration
	ExitCode int
	Error    string
}

// Recorder is implemented by Store. Callers that may run without history take
// a Recorder and get Nop when it is disabled.
type Recorder interface {
	Record(ctx context.Context, r Run) error
}

// Nop discards every record.
type Nop struct{}

func (Nop) Record(context.Context, Run) error { return nil }

// Store is the SQLite-backed history.
type Store struct {
	db *sql.DB
}

// DefaultPath is history.db next to the application log.
func DefaultPath() (string, error) {
	dir, err := logger.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("history: mkdir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		file        TEXT NOT NULL DEFAULT '',
		label       TEXT NOT NULL,
		command     TEXT NOT NULL,
		target      TEXT NOT NULL DEFAULT 'local',
		started_at  INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		exit_code   INTEGER NOT NULL DEFAULT 0,
		error       TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a run.
func (s *Store) Record(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO runs (file, label, command, target, started_at, duration_ms, exit_code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.File, r.Label, r.Command, r.Target,
		r.Started.UnixMilli(), r.Duration.Milliseconds(), r.ExitCode, r.Error)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, file, label, command, target, started_at, duration_ms, exit_code, error
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r          Run
			startedMs  int64
			durationMs int64
		)
		if err := rows.Scan(&r.ID, &r.File, &r.Label, &r.Command, &r.Target, &startedMs, &durationMs, &r.ExitCode, &r.Error); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		r.Started = time.UnixMilli(startedMs)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// OpenDefault opens the default store when enabled, or returns Nop. The returned
// close function is always safe to call.
func OpenDefault(enabled bool) (Recorder, func(), error) {
	if !enabled {
		return Nop{}, func() {}, nil
	}
	path, err := DefaultPath()
	if err != nil {
		return Nop{}, func() {}, err
	}
	s, err := Open(path)
	if err != nil {
		return Nop{}, func() {}, err
	}
	return s, func() {
		if err := s.Close(); err != nil {
			logger.Warn("Closing history database failed", "error", err)
		}
	}, nil
}
