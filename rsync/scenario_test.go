// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package rsync

import (
	"errors"
	"testing"
)



// TestScenario_MalformedConfigStillClosesCleanly exercises S5: a
// registration whose query templates are malformed (simulated here by a
// Dataset Adapter that always fails, standing in for a store that rejects
// "WHEREx") still registers successfully; inbound frames cause dataset
// errors and zero outbound envelopes, and Close still succeeds.
func TestScenario_MalformedConfigStillClosesCleanly(t *testing.T) {
	m := NewManager(nil, nil)
	h := m.Create()

	cfg := testConfig("test_component")
	ds := failingDataset{err: errors.New("syntax error near WHEREx")}
	var out []string
	sink := func(msg string) { out = append(out, msg) }

	if err := m.RegisterSyncID(h, "test_id", ds, mustConfigJSON(t, cfg), sink); err != nil {
		t.Fatalf("registration should succeed despite a bad query template: %v", err)
	}

	if err := m.Push(h, []byte(`test_id checksum_fail {"begin":"/a","end":"/z","id":1}`)); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}
	if err := m.Push(h, []byte(`test_id no_data {"begin":"","end":"","id":1}`)); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}

	// Register a second, healthy sync_id on the same handle and push a
	// frame for it after the two bad ones: FIFO ordering guarantees its
	// sink fires only once both malformed-config frames have already been
	// processed (successfully or not).
	probeDone := make(chan struct{})
	probeDS := newFakeDataset("path", []Row{row("/a", "h0", 1)})
	if err := m.RegisterSyncID(h, "probe", probeDS, mustConfigJSON(t, testConfig("probe_component")), func(string) {
		select {
		case <-probeDone:
		default:
			close(probeDone)
		}
	}); err != nil {
		t.Fatalf("unexpected probe registration error: %v", err)
	}
	if err := m.Push(h, []byte(`probe checksum_fail {"begin":"/a","end":"/a","id":1}`)); err != nil {
		t.Fatalf("unexpected probe push error: %v", err)
	}
	waitFor(t, func() bool {
		select {
		case <-probeDone:
			return true
		default:
			return false
		}
	})

	if err := m.Close(h); err != nil {
		t.Fatalf("close should still return Ok: %v", err)
	}

	if len(out) != 0 {
		t.Fatalf("expected zero outbound envelopes, got %d", len(out))
	}
}
