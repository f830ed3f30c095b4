// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ssh

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cmd-runner/internal/config"
	"cmd-runner/internal/logger"
)

func TestMain(m *testing.M) {
	logger.SetLogger(logger.Discard())
	os.Exit(m.Run())
}

func TestAddress(t *testing.T) {
	if got := Address(config.SSHHost{Hostname: "example.com"}); got != "example.com:22" {
		t.Errorf("Address = %s", got)
	}
	if got := Address(config.SSHHost{Hostname: "::1", Port: 2200}); got != "[::1]:2200" {
		t.Errorf("Address = %s", got)
	}
}

func TestGetClientWithoutAuth(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	m := NewManager()
	_, err := m.GetClient(config.SSHHost{Name: "box", Hostname: "127.0.0.1", User: "me"})
	if err == nil || !strings.Contains(err.Error(), "no suitable authentication method") {
		t.Fatalf("err = %v", err)
	}
	if len(m.Connected()) != 0 {
		t.Errorf("unexpected cached clients: %v", m.Connected())
	}
}

func TestGetClientBadKeyFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "id_bad")
	if err := os.WriteFile(keyPath, []byte("not a key"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := NewManager().GetClient(config.SSHHost{Name: "box", Hostname: "127.0.0.1", User: "me", KeyPath: keyPath})
	if err == nil || !strings.Contains(err.Error(), "failed to parse private key") {
		t.Fatalf("err = %v", err)
	}
}

func TestHostKeyCallbackMissingFileFallsBack(t *testing.T) {
	m := NewManager()
	m.KnownHostsPath = filepath.Join(t.TempDir(), "known_hosts")
	cb, err := m.hostKeyCallback()
	if err != nil || cb == nil {
		t.Fatalf("cb=%v err=%v", cb, err)
	}
}

func TestCloseUnknownHostIsNoOp(t *testing.T) {
	m := NewManager()
	m.Close("nobody")
	m.CloseAll()
}
