// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 80, cfg.DefaultWidth)
	assert.Equal(t, "/bin/sh", cfg.Shell)
	assert.True(t, cfg.HistoryEnabled())
}

func TestLoadConfigFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
default_width: 120
default_file: ~/cmds.json
shell: /bin/bash
history: false
ssh_hosts:
  - name: web
    hostname: web.example.com
    user: deploy
    work_dir: /srv/app
  - name: old
    hostname: old.example.com
    user: root
    disabled: true
`), 0o600))

	cfg, err := LoadConfigFrom(p)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.DefaultWidth)
	assert.Equal(t, "/bin/bash", cfg.Shell)
	assert.False(t, cfg.HistoryEnabled())
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	require.Len(t, cfg.SSHHosts, 2)
	require.Len(t, cfg.EnabledHosts(), 1)

	h, ok := cfg.FindHost("web")
	require.True(t, ok)
	assert.Equal(t, "/srv/app", h.WorkDir)
	_, ok = cfg.FindHost("old")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"width too large", func(c *Config) { c.DefaultWidth = 5000 }, "defaultwidth"},
		{"negative width", func(c *Config) { c.DefaultWidth = -1 }, "defaultwidth"},
		{"host without user", func(c *Config) {
			c.SSHHosts = []SSHHost{{Name: "a", Hostname: "h"}}
		}, "user"},
		{"duplicate host", func(c *Config) {
			h := SSHHost{Name: "a", Hostname: "h", User: "u"}
			c.SSHHosts = []SSHHost{h, h}
		}, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, strings.ToLower(err.Error()), tt.wantErr)
		})
	}
}

func TestInvalidFileIsRejected(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("default_width: 0\nshell: \"\"\nssh_hosts:\n  - name: x\n"), 0o600))
	_, err := LoadConfigFrom(p)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.DefaultFile = "/tmp/cmds.json"
	cfg.SSHHosts = []SSHHost{{Name: "box", Hostname: "10.0.0.2", User: "me", Port: 2222}}

	require.NoError(t, SaveConfigTo(p, cfg))
	got, err := LoadConfigFrom(p)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSaveRefusesInvalid(t *testing.T) {
	cfg := Default()
	cfg.Shell = ""
	assert.Error(t, SaveConfigTo(filepath.Join(t.TempDir(), "c.yaml"), cfg))
}

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ResolvePath("~/x/cmds.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x", "cmds.json"), got)

	got, err = ResolvePath("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}

func TestParseSSHConfigFrom(t *testing.T) {
	src := `
Host *
  ServerAliveInterval 30

Host web
  HostName web.example.com
  User deploy
  Port 2200
  IdentityFile /keys/web

Host nouser
  HostName 10.0.0.9

Host bare
  User admin
`
	hosts, err := ParseSSHConfigFrom(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, hosts, 2)

	assert.Equal(t, PotentialHost{Alias: "web", Hostname: "web.example.com", User: "deploy", Port: 2200, KeyPath: "/keys/web"}, hosts[0])
	assert.Equal(t, "bare", hosts[1].Hostname)
	assert.Equal(t, 22, hosts[1].Port)

	h, err := ToSSHHost(hosts[0], "web", "/srv")
	require.NoError(t, err)
	assert.NoError(t, h.Validate())
	assert.Equal(t, "/srv", h.WorkDir)

	_, err = ToSSHHost(hosts[0], "", "")
	assert.Error(t, err)
}
