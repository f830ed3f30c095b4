// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cmd-runner/internal/api"
	"cmd-runner/internal/history"
	"cmd-runner/internal/logger"
	"cmd-runner/internal/runner"
	"cmd-runner/internal/storage"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve <commandFile>",
	Short: "Serve a command file over HTTP",
	Long: `Starts an HTTP server exposing the saved entries of a command file and
running them on request. The file is read on every request and never written.

  GET  /api/document
  GET  /api/hosts
  POST /api/entries/{index|label}/run
  GET  /api/entries/{index|label}/run/stream   (server-sent events)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Fail early on a missing or broken file.
		path, _, err := loadCommandFile(args[0])
		if err != nil {
			return err
		}
		addr := serveAddr
		if addr == "" {
			addr = appConfig.ListenAddr
		}
		return runWebServer(cmd.Context(), path, addr)
	},
}

// runWebServer serves the API until interrupted.
func runWebServer(ctx context.Context, path, addr string) error {
	// Note: SSH manager is already initialized in PersistentPreRunE of rootCmd
	r, err := runner.New(appConfig, sshManager)
	if err != nil {
		return err
	}
	rec, closeHistory, err := history.OpenDefault(appConfig.HistoryEnabled())
	if err != nil {
		logger.Warn("Run history disabled", "error", err)
	}
	defer closeHistory()

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(path, storage.NewFile(), r, appConfig, rec, logger.Logger()).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	statusColor.Printf("Serving %s on http://%s\n", identifierColor.Sprint(path), addr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	rootCmd.AddCommand(serveCmd)
}
