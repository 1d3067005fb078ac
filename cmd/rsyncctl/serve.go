// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/jseifertscionics/wazuh-rsync/httpapi"
	"github.com/jseifertscionics/wazuh-rsync/rsync"
	"github.com/jseifertscionics/wazuh-rsync/sqlitedataset"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr   string
	DBPath string
}

func newServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an rsync.Manager over HTTP against a SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8085", "listen address")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	db, err := sql.Open("sqlite3", opts.DBPath)
	if err != nil {
		return exitError("failed to open database", err)
	}
	defer db.Close()

	manager := rsync.NewManager(logger, nil)
	defer manager.Teardown()

	resolver := httpapi.DatasetResolverFunc(func(syncID string, cfg *rsync.Config) (rsync.Dataset, error) {
		return sqlitedataset.NewAdapter(db, logger), nil
	})
	handlers := httpapi.NewHandlers(manager, resolver, logger)

	srv := &http.Server{Addr: opts.Addr, Handler: handlers.Router()}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("rsyncctl: shutting down")
			_ = srv.Shutdown(context.Background())
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("rsyncctl: listening", "addr", opts.Addr, "db", opts.DBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return exitError("server error", err)
	}
	return nil
}
