// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package rsync

import (
	"encoding/json"
	"strings"
)

// decodeFrame parses an inbound text frame of the form
// "<sync_id> SP <op> SP <json-object>" (spec.md §4.2). A frame that does
// not match the grammar returns ErrDecodeError; it never panics.
func decodeFrame(frame []byte) (SyncInputData, error) {
	s := string(frame)

	first := strings.IndexByte(s, ' ')
	if first < 0 {
		return SyncInputData{}, newDecodeError("missing op/json after sync_id")
	}
	syncID := s[:first]
	rest := s[first+1:]

	second := strings.IndexByte(rest, ' ')
	if second < 0 {
		return SyncInputData{}, newDecodeError("missing json body after op")
	}
	op := rest[:second]
	body := rest[second+1:]

	if syncID == "" {
		return SyncInputData{}, newDecodeError("empty sync_id")
	}
	if op != OpChecksumFail && op != OpNoData {
		return SyncInputData{}, newDecodeError("unknown op: " + op)
	}

	var payload struct {
		Begin string `json:"begin"`
		End   string `json:"end"`
		ID    int64  `json:"id"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return SyncInputData{}, newDecodeError("malformed json: " + err.Error())
	}

	return SyncInputData{
		Component: syncID,
		Op:        op,
		Begin:     payload.Begin,
		End:       payload.End,
		ID:        payload.ID,
	}, nil
}

type decodeError struct{ msg string }

func (e *decodeError) Error() string { return "rsync: decode error: " + e.msg }
func (e *decodeError) Unwrap() error { return ErrDecodeError }

func newDecodeError(msg string) error { return &decodeError{msg: msg} }
