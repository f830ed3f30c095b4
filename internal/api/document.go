// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package api serves a saved command file over HTTP: the entries as JSON and
// endpoints to run them, synchronously or as a Server-Sent Events stream.
// The file is re-read on every request and never written.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"cmd-runner/internal/apperr"
	"cmd-runner/internal/config"
	"cmd-runner/internal/document"
	"cmd-runner/internal/history"
	"cmd-runner/internal/runner"

	"github.com/gorilla/mux"
)

// Server holds what the handlers need. Build it with NewServer.
type Server struct {
	path    string
	store   document.Gateway
	runner  *runner.Runner
	cfg     config.Config
	history history.Recorder
	log     *slog.Logger
}

func NewServer(path string, store document.Gateway, r *runner.Runner, cfg config.Config, rec history.Recorder, log *slog.Logger) *Server {
	if rec == nil {
		rec = history.Nop{}
	}
	return &Server{path: path, store: store, runner: r, cfg: cfg, history: rec, log: log.With("component", "api")}
}

// Router registers every route on a new mux router.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/document", s.documentHandler).Methods("GET")
	router.HandleFunc("/api/hosts", s.hostsHandler).Methods("GET")
	s.registerRunnerRoutes(router)
	return router
}

// EntryJSON is one entry as served by the API. Index is 1-based.
type EntryJSON struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Command string `json:"command"`
	Tooltip string `json:"tooltip,omitempty"`
}

type DocumentJSON struct {
	Title   string      `json:"title"`
	Width   int         `json:"width"`
	Path    string      `json:"path"`
	Entries []EntryJSON `json:"entries"`
}

type HostJSON struct {
	Name     string `json:"name"`
	Hostname string `json:"hostname"`
	User     string `json:"user"`
	Port     int    `json:"port,omitempty"`
}

// load reads the command file with the same title and width fallbacks the
// TUI applies.
func (s *Server) load() (document.Contents, error) {
	doc := document.New(document.Defaults{Width: s.cfg.DefaultWidth})
	if err := doc.Load(s.store, s.path, document.Defaults{Width: s.cfg.DefaultWidth}); err != nil {
		return document.Contents{}, err
	}
	return doc.Resolved(), nil
}

func (s *Server) documentHandler(w http.ResponseWriter, r *http.Request) {
	c, err := s.load()
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := DocumentJSON{Title: c.Title, Width: c.Width, Path: s.path, Entries: make([]EntryJSON, 0, len(c.Entries))}
	for i, e := range c.Entries {
		out.Entries = append(out.Entries, EntryJSON{Index: i + 1, Label: e.Label, Command: e.Command, Tooltip: e.Tooltip})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) hostsHandler(w http.ResponseWriter, r *http.Request) {
	hosts := make([]HostJSON, 0, len(s.cfg.SSHHosts))
	for _, h := range s.cfg.EnabledHosts() {
		hosts = append(hosts, HostJSON{Name: h.Name, Hostname: h.Hostname, User: h.User, Port: h.Port})
	}
	s.writeJSON(w, http.StatusOK, hosts)
}

// statusFor maps the application's error kinds onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrUnknownEntry), errors.Is(err, apperr.ErrOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrParse):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.Error("Request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeJSON writes a JSON response with CORS headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("Encoding response failed", "error", err)
	}
}
