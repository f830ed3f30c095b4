// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"cmd-runner/internal/config"
	"cmd-runner/internal/history"
	"cmd-runner/internal/logger"
	"cmd-runner/internal/runner"
	"cmd-runner/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "title": "Tools",
  "width": 90,
  "cmds": [
    {"button": "Hello", "cmd": "echo hello", "tooltip": "Say hi"},
    {"button": "Fail", "cmd": "echo oops >&2; exit 4"}
  ]
}
`

type recorder struct {
	mu   sync.Mutex
	runs []history.Run
}

func (r *recorder) Record(_ context.Context, run history.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func TestMain(m *testing.M) {
	logger.SetLogger(logger.Discard())
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, content string) (*httptest.Server, *recorder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tools.json")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	cfg := config.Default()
	cfg.SSHHosts = []config.SSHHost{
		{Name: "web", Hostname: "web.example.com", User: "deploy", Password: "secret"},
		{Name: "old", Hostname: "old.example.com", User: "deploy", Disabled: true},
	}
	rec := &recorder{}
	srv := NewServer(path, storage.NewFile(), &runner.Runner{}, cfg, rec, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, rec, path
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestGetDocument(t *testing.T) {
	ts, _, path := newTestServer(t, sample)

	var doc DocumentJSON
	status := getJSON(t, ts.URL+"/api/document", &doc)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Tools", doc.Title)
	assert.Equal(t, 90, doc.Width)
	assert.Equal(t, path, doc.Path)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, EntryJSON{Index: 1, Label: "Hello", Command: "echo hello", Tooltip: "Say hi"}, doc.Entries[0])
	assert.Equal(t, 2, doc.Entries[1].Index)
}

func TestGetDocumentReadsFilePerRequest(t *testing.T) {
	ts, _, path := newTestServer(t, sample)

	require.NoError(t, os.WriteFile(path, []byte(`[{"button":"Only","cmd":"true"}]`), 0o644))
	var doc DocumentJSON
	getJSON(t, ts.URL+"/api/document", &doc)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "Only", doc.Entries[0].Label)
	assert.Equal(t, "tools", doc.Title)
}

func TestGetDocumentErrors(t *testing.T) {
	ts, _, _ := newTestServer(t, "")
	var body map[string]string
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/document", &body))
	assert.NotEmpty(t, body["error"])

	ts, _, _ = newTestServer(t, "{not json")
	assert.Equal(t, http.StatusUnprocessableEntity, getJSON(t, ts.URL+"/api/document", &body))
}

func TestListHostsHidesSecrets(t *testing.T) {
	ts, _, _ := newTestServer(t, sample)

	resp, err := http.Get(ts.URL + "/api/hosts")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "secret")
	var hosts []HostJSON
	require.NoError(t, json.Unmarshal(raw, &hosts))
	require.Len(t, hosts, 1)
	assert.Equal(t, "web", hosts[0].Name)
}

func TestRunEntry(t *testing.T) {
	ts, rec, path := newTestServer(t, sample)

	tests := []struct {
		name     string
		ref      string
		body     string
		status   int
		output   string
		exitCode int
	}{
		{"by index", "1", "", http.StatusOK, "hello\n", 0},
		{"by label", "Hello", `{"host":"local"}`, http.StatusOK, "hello\n", 0},
		{"failing command", "2", "", http.StatusOK, "", 4},
		{"out of range", "3", "", http.StatusNotFound, "", 0},
		{"unknown label", "Nope", "", http.StatusNotFound, "", 0},
		{"unknown host", "1", `{"host":"nowhere"}`, http.StatusBadRequest, "", 0},
		{"disabled host", "1", `{"host":"old"}`, http.StatusBadRequest, "", 0},
		{"bad body", "1", `{`, http.StatusBadRequest, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/entries/"+tt.ref+"/run", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tt.status, resp.StatusCode)
			if tt.status != http.StatusOK {
				return
			}
			var out RunOutput
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.Equal(t, tt.output, out.Output)
			assert.Equal(t, tt.exitCode, out.ExitCode)
			assert.Equal(t, "local", out.Host)
		})
	}

	require.Len(t, rec.runs, 3)
	assert.Equal(t, path, rec.runs[0].File)
	assert.Equal(t, "Fail", rec.runs[2].Label)
	assert.Equal(t, 4, rec.runs[2].ExitCode)
}

func TestStreamEntry(t *testing.T) {
	ts, rec, _ := newTestServer(t, sample)

	resp, err := http.Get(ts.URL + "/api/entries/Fail/run/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)

	assert.True(t, strings.HasPrefix(body, "event: step\ndata: Fail\n\n"), body)
	assert.Contains(t, body, "event: stderr\ndata: oops\n\n")
	assert.Contains(t, body, "event: error\ndata: Error running 'Fail':")
	assert.True(t, strings.HasSuffix(body, "event: done\ndata: Command finished\n\n"), body)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, 4, rec.runs[0].ExitCode)
}

func TestStreamUnknownEntry(t *testing.T) {
	ts, _, _ := newTestServer(t, sample)

	resp, err := http.Get(ts.URL + "/api/entries/9/run/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
