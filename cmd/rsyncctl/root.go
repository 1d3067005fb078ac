// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Command rsyncctl is the CLI harness for SPEC_FULL.md's C11: a thin
// wrapper over rsync.Manager and httpapi.Handlers for running a responder
// process against a SQLite dataset, and for driving it from the shell.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by every subcommand.
type RootOptions struct {
	Verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rsyncctl",
		Short: "rsyncctl runs and drives a range-checksum reconciliation responder",
		Long: `rsyncctl hosts an rsync.Manager over HTTP against a SQLite-backed
dataset, and can push inbound frames to a running instance for manual
testing.`,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newCreateCommand(opts))
	cmd.AddCommand(newRegisterCommand(opts))
	cmd.AddCommand(newPushCommand(opts))

	return cmd
}

func exitError(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
