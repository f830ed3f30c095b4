// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package storage reads and writes command files on the local file system.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"cmd-runner/internal/apperr"
	"cmd-runner/internal/document"
)

// File implements document.Gateway. It remembers the checksum of the bytes it
// last read or wrote for each path, so a watcher can tell its own writes
// apart from external edits.
type File struct {
	mu   sync.Mutex
	sums map[string]string
}

func NewFile() *File {
	return &File{sums: make(map[string]string)}
}

var _ document.Gateway = (*File)(nil)

// Read loads and parses path. A missing file is apperr.ErrNotFound and a
// malformed one apperr.ErrParse.
func (f *File) Read(path string) (document.Contents, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return document.Contents{}, fmt.Errorf("storage: read %s: %w", path, apperr.ErrNotFound)
		}
		return document.Contents{}, fmt.Errorf("storage: read %s: %w: %w", path, apperr.ErrIO, err)
	}
	c, err := Decode(data, FormatFor(path))
	if err != nil {
		return document.Contents{}, fmt.Errorf("storage: %s: %w", path, err)
	}
	f.remember(path, data)
	return c, nil
}

// Write encodes c and atomically replaces path: temp file, fsync, rename.
func (f *File) Write(path string, c document.Contents) error {
	data, err := Encode(c, FormatFor(path))
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w: %w", path, apperr.ErrIO, err)
	}
	if err := WriteAtomic(path, data); err != nil {
		return err
	}
	f.remember(path, data)
	return nil
}

// WriteAtomic writes data to path through a temp file in the same directory.
// Errors wrap apperr.ErrIO.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w: %w", apperr.ErrIO, err)
	}

	tmp, err := os.CreateTemp(dir, ".cmd-runner-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w: %w", apperr.ErrIO, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w: %w", apperr.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w: %w", apperr.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w: %w", apperr.ErrIO, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("storage: chmod: %w: %w", apperr.ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w: %w", apperr.ErrIO, err)
	}
	success = true
	return nil
}

// LastChecksum returns the checksum recorded by the last Read or Write of
// path, or "" if there was none.
func (f *File) LastChecksum(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sums[key(path)]
}

// ChangedOnDisk reports whether the file at path differs from what this
// gateway last read or wrote.
func (f *File) ChangedOnDisk(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return Checksum(data) != f.LastChecksum(path), nil
}

func (f *File) remember(path string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sums[key(path)] = Checksum(data)
}

func key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Checksum is the hex sha256 of data.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
