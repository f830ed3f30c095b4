// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cmd-runner/internal/apperr"
	"cmd-runner/internal/config"
	"cmd-runner/internal/document"
	"cmd-runner/internal/logger"
	"cmd-runner/internal/runner"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	logger.SetLogger(logger.Discard())
	appConfig = config.Default()
	os.Exit(m.Run())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCommandFile(t *testing.T) {
	path := writeFile(t, "tools.json", `{"cmds": [{"button": "Hello", "cmd": "echo hello"}]}`)

	got, c, err := loadCommandFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	require.Len(t, c.Entries, 1)
	assert.Equal(t, "Hello", c.Entries[0].Label)
	assert.Equal(t, "tools", titleOf(path, c), "title falls back to the file name")
	assert.Equal(t, config.DefaultWidth, widthOf(c))

	_, _, err = loadCommandFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	broken := writeFile(t, "broken.json", `{"cmds": [`)
	_, _, err = loadCommandFile(broken)
	assert.True(t, errors.Is(err, apperr.ErrParse))
}

func TestFormatEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry document.Entry
		width int
		want  string
	}{
		{"plain", document.Entry{Label: "Hello", Command: "echo hello"}, 80, "  1. Hello  echo hello"},
		{"tooltip", document.Entry{Label: "Hello", Command: "echo hello", Tooltip: "Say hi"}, 80, "  1. Hello  echo hello  # Say hi"},
		{"tooltip equal to label is hidden", document.Entry{Label: "Hello", Command: "ls", Tooltip: "Hello"}, 80, "  1. Hello  ls"},
		{"truncated", document.Entry{Label: "Hello", Command: "echo hello"}, 5, "  1. Hello  echo…"},
		{"multi-line command", document.Entry{Label: "Multi", Command: "cd /tmp &&\n  ls"}, 80, "  1. Multi  cd /tmp && ls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatEntry(1, tt.entry, tt.width))
		})
	}
}

func TestResolveTarget(t *testing.T) {
	cfg := config.Default()
	cfg.SSHHosts = []config.SSHHost{
		{Name: "server1", Hostname: "10.0.0.1", User: "me"},
		{Name: "old", Hostname: "10.0.0.2", User: "me", Disabled: true},
	}

	for _, host := range []string{"", "local"} {
		target, err := resolveTarget(cfg, host)
		require.NoError(t, err)
		assert.False(t, target.IsRemote)
	}

	target, err := resolveTarget(cfg, "server1")
	require.NoError(t, err)
	assert.True(t, target.IsRemote)
	assert.Equal(t, "server1", target.ServerName)

	_, err = resolveTarget(cfg, "old")
	assert.Error(t, err, "disabled hosts cannot be targeted")
	_, err = resolveTarget(cfg, "nope")
	assert.Error(t, err)
}

func TestRunStepLocal(t *testing.T) {
	var out bytes.Buffer
	r := &runner.Runner{Stdout: &out, Stderr: &out}

	res := runStep(r, runner.Step{Label: "Hello", Command: "echo hello", Target: runner.LocalTarget()})
	require.NoError(t, res.Err)
	assert.Equal(t, "hello\n", out.String())
	assert.False(t, res.Started.IsZero())

	res = runStep(r, runner.Step{Label: "Fail", Command: "exit 3", Target: runner.LocalTarget()})
	require.Error(t, res.Err)
	assert.Equal(t, 3, res.ExitCode())
}

func TestEntrySuggestions(t *testing.T) {
	c := document.Contents{Entries: []document.Entry{
		{Label: "Build"}, {Label: "Bench"}, {Label: "Deploy"},
	}}
	assert.Equal(t, []string{"Build", "Bench"}, entrySuggestions(c, "B"))
	assert.Equal(t, []string{"Build", "Bench", "Deploy"}, entrySuggestions(c, ""))
	assert.Equal(t, []string{"2"}, entrySuggestions(c, "2"))
}

func TestHostSuggestions(t *testing.T) {
	hosts := []config.SSHHost{{Name: "server1"}, {Name: "laptop"}}
	assert.Equal(t, []string{"local", "server1", "laptop"}, hostSuggestions(hosts, ""))
	assert.Equal(t, []string{"local", "laptop"}, hostSuggestions(hosts, "l"))
	assert.Equal(t, []string{"server1"}, hostSuggestions(hosts, "s"))
}

func TestImportSelection(t *testing.T) {
	potential := []config.PotentialHost{{Alias: "a"}, {Alias: "b"}, {Alias: "c"}}
	candidates := importableHosts(potential, []config.SSHHost{{Name: "b"}})
	require.Equal(t, []config.PotentialHost{{Alias: "a"}, {Alias: "c"}}, candidates)

	got, err := parseSelection("all", candidates)
	require.NoError(t, err)
	assert.Equal(t, candidates, got)

	got, err = parseSelection(" 2, 1,2 ", candidates)
	require.NoError(t, err)
	assert.Equal(t, []config.PotentialHost{{Alias: "c"}, {Alias: "a"}}, got)

	_, err = parseSelection("3", candidates)
	assert.Error(t, err)
	_, err = parseSelection("x", candidates)
	assert.Error(t, err)
}

func TestRemoveHost(t *testing.T) {
	hosts := []config.SSHHost{{Name: "a"}, {Name: "b"}}
	assert.Equal(t, []config.SSHHost{{Name: "a"}}, removeHost(hosts, "b"))
	assert.Equal(t, hosts, removeHost(hosts, "zzz"))
}

func TestIsAbsOrHome(t *testing.T) {
	assert.True(t, isAbsOrHome("/etc/cmds.json"))
	assert.True(t, isAbsOrHome("~/cmds.json"))
	assert.False(t, isAbsOrHome("cmds.json"))
}
