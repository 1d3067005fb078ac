// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jseifertscionics/wazuh-rsync/httpapi"
)

// PushOptions holds flags for the push command.
type PushOptions struct {
	*RootOptions
	URL    string
	Handle uint64
	Frame  string
}

func newPushCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PushOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push a single inbound frame to a running rsyncctl serve instance",
		Long: `Push sends one wire frame (sync_id SP op SP json) to a running
instance's /handles/{handle}/push endpoint. If --frame is omitted, the
frame is read from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "http://localhost:8085", "base URL of a running rsyncctl serve instance")
	cmd.Flags().Uint64Var(&opts.Handle, "handle", 0, "target handle (required)")
	cmd.Flags().StringVar(&opts.Frame, "frame", "", "frame to push; reads stdin if omitted")
	_ = cmd.MarkFlagRequired("handle")

	return cmd
}

func runPush(opts *PushOptions, cmd *cobra.Command) error {
	frame := []byte(opts.Frame)
	if opts.Frame == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return exitError("failed to read frame from stdin", err)
		}
		frame = data
	}

	body, err := json.Marshal(httpapi.PushRequest{Frame: frame})
	if err != nil {
		return exitError("failed to encode push request", err)
	}

	url := fmt.Sprintf("%s/handles/%d/push", opts.URL, opts.Handle)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return exitError("failed to reach rsyncctl serve instance", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		var errResp httpapi.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("push rejected: %s: %s", errResp.Error, errResp.Message)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "frame accepted")
	return nil
}
