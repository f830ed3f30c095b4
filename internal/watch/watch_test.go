// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cmd-runner/internal/document"
	"cmd-runner/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWatch(t *testing.T, path string, store *storage.File) <-chan string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- File(ctx, path, store, quietLogger(), func(p string) { changes <- p })
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("watch returned %v", err)
		}
	})
	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	return changes
}

func TestExternalWriteIsReported(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cmds.json")
	store := storage.NewFile()
	if err := store.Write(p, document.Contents{Title: "A"}); err != nil {
		t.Fatal(err)
	}
	changes := startWatch(t, p, store)

	if err := os.WriteFile(p, []byte(`{"cmds":[{"button":"X","cmd":"true"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		if got != p {
			t.Errorf("changed path = %s, want %s", got, p)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("external change not reported")
	}
}

func TestOwnWriteIsIgnored(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cmds.json")
	store := storage.NewFile()
	if err := store.Write(p, document.Contents{Title: "A"}); err != nil {
		t.Fatal(err)
	}
	changes := startWatch(t, p, store)

	if err := store.Write(p, document.Contents{Title: "B"}); err != nil {
		t.Fatal(err)
	}
	// Unrelated file in the same directory.
	if err := os.WriteFile(filepath.Join(filepath.Dir(p), "other.json"), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		t.Fatalf("unexpected change reported for %s", got)
	case <-time.After(Debounce + 400*time.Millisecond):
	}
}
