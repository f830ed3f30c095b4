// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cmd-runner/internal/runner"

	"github.com/gorilla/mux"
)

// RunRequest is the optional JSON body of POST /api/entries/{ref}/run.
type RunRequest struct {
	Host string `json:"host"` // "" or "local" runs locally, otherwise an SSH host name
}

// RunOutput is the result of a synchronous run.
type RunOutput struct {
	Label    string `json:"label"`
	Host     string `json:"host"`
	Output   string `json:"output"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exitCode"`
	Duration int64  `json:"durationMs"`
	Error    string `json:"error,omitempty"`
}

var errUnknownHost = errors.New("unknown SSH host")

func (s *Server) registerRunnerRoutes(router *mux.Router) {
	router.HandleFunc("/api/entries/{ref}/run", s.runEntryHandler).Methods("POST")
	router.HandleFunc("/api/entries/{ref}/run/stream", s.streamEntryHandler).Methods("GET")
}

// stepFor resolves the entry reference and host name into a runnable step.
func (s *Server) stepFor(ref, host string) (runner.Step, error) {
	c, err := s.load()
	if err != nil {
		return runner.Step{}, err
	}
	_, e, err := c.Lookup(ref)
	if err != nil {
		return runner.Step{}, err
	}

	target := runner.LocalTarget()
	if host != "" && host != "local" {
		h, ok := s.cfg.FindHost(host)
		if !ok {
			return runner.Step{}, fmt.Errorf("%w: %q", errUnknownHost, host)
		}
		target = runner.RemoteTarget(h)
	}
	return runner.Step{Label: e.Label, Command: e.Command, Target: target}, nil
}

func (s *Server) stepError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUnknownHost) {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.writeError(w, err)
}

func (s *Server) record(r *http.Request, step runner.Step, res runner.Result) {
	if err := s.history.Record(r.Context(), runner.HistoryRun(s.path, step, res)); err != nil {
		s.log.Warn("Recording run failed", "label", step.Label, "error", err)
	}
}

func (s *Server) runEntryHandler(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("error reading request body: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}
	}
	if req.Host == "" {
		req.Host = r.URL.Query().Get("host")
	}

	step, err := s.stepFor(mux.Vars(r)["ref"], req.Host)
	if err != nil {
		s.stepError(w, err)
		return
	}

	s.log.Info("Running entry", "label", step.Label, "host", step.Target.ServerName)
	res := s.runner.Run(step)
	s.record(r, step, res)

	out := RunOutput{
		Label:    step.Label,
		Host:     step.Target.ServerName,
		Output:   res.Stdout,
		Stderr:   res.Stderr,
		ExitCode: res.ExitCode(),
		Duration: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	s.writeJSON(w, http.StatusOK, out)
}

// streamEntryHandler serves GET /api/entries/{ref}/run/stream. The run is
// streamed as Server-Sent Events: one "step" event with the label, "stdout"
// and "stderr" events per output line, an "error" event if the command failed
// and a final "done".
func (s *Server) streamEntryHandler(w http.ResponseWriter, r *http.Request) {
	step, err := s.stepFor(mux.Vars(r)["ref"], r.URL.Query().Get("host"))
	if err != nil {
		s.stepError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	fmt.Fprintf(w, "event: step\ndata: %s\n\n", escapeEvent(step.Label))
	flusher.Flush()

	start := time.Now()
	outChan, errChan := s.runner.Stream(step, false)
	for outputLine := range outChan {
		event := "stdout"
		if outputLine.IsError {
			event = "stderr"
		}
		for _, line := range strings.Split(strings.TrimRight(outputLine.Line, " \t\r\n"), "\n") {
			if trimmed := strings.TrimRight(line, " \t\r"); trimmed != "" {
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, trimmed)
			}
		}
		flusher.Flush()
	}

	runErr := <-errChan
	s.record(r, step, runner.Result{Started: start, Duration: time.Since(start), Err: runErr})
	if runErr != nil {
		fmt.Fprintf(w, "event: error\ndata: Error running '%s': %s\n\n", escapeEvent(step.Label), escapeEvent(runErr.Error()))
		flusher.Flush()
	}

	fmt.Fprintf(w, "event: done\ndata: Command finished\n\n")
	flusher.Flush()
}

// escapeEvent keeps a value on a single SSE data line.
func escapeEvent(v string) string {
	return strings.ReplaceAll(strings.TrimRight(v, " \t\r\n"), "\n", "\\n")
}
