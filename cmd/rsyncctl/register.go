// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jseifertscionics/wazuh-rsync/httpapi"
)

// RegisterOptions holds flags for the register and create commands.
type RegisterOptions struct {
	*RootOptions
	URL        string
	Handle     uint64
	SyncID     string
	ConfigPath string
}

func newRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a sync_id and its config against a running handle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "http://localhost:8085", "base URL of a running rsyncctl serve instance")
	cmd.Flags().Uint64Var(&opts.Handle, "handle", 0, "target handle (required)")
	cmd.Flags().StringVar(&opts.SyncID, "sync-id", "", "sync_id to register (required)")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to a registration config JSON file (required)")
	_ = cmd.MarkFlagRequired("handle")
	_ = cmd.MarkFlagRequired("sync-id")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runRegister(opts *RegisterOptions, cmd *cobra.Command) error {
	configJSON, err := os.ReadFile(opts.ConfigPath)
	if err != nil {
		return exitError("failed to read config file", err)
	}

	body, err := json.Marshal(httpapi.RegisterRequest{SyncID: opts.SyncID, Config: configJSON})
	if err != nil {
		return exitError("failed to encode register request", err)
	}

	url := fmt.Sprintf("%s/handles/%d/sync", opts.URL, opts.Handle)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return exitError("failed to reach rsyncctl serve instance", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp httpapi.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("register rejected: %s: %s", errResp.Error, errResp.Message)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sync_id %q registered on handle %d\n", opts.SyncID, opts.Handle)
	return nil
}

func newCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Allocate a new handle on a running rsyncctl serve instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Post(opts.URL+"/handles", "application/json", bytes.NewReader(nil))
			if err != nil {
				return exitError("failed to reach rsyncctl serve instance", err)
			}
			defer resp.Body.Close()

			var created httpapi.CreateHandleResponse
			if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
				return exitError("failed to decode create response", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), created.Handle)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "http://localhost:8085", "base URL of a running rsyncctl serve instance")
	return cmd
}
