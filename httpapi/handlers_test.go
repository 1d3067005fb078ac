// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/jseifertscionics/wazuh-rsync/rsync"
)

// emptyDataset reports zero rows for every range, enough to exercise the
// integrity_clear path (spec.md scenario S1) through the HTTP surface.
type emptyDataset struct{}

func (emptyDataset) Count(context.Context, *rsync.Config, string, string) (uint64, error) {
	return 0, nil
}
func (emptyDataset) RowByIndex(context.Context, *rsync.Config, string) (rsync.Row, error) {
	return rsync.Row{}, rsync.ErrRowNotFound
}
func (emptyDataset) IterateRange(context.Context, *rsync.Config, string, string, rsync.RowVisitor) error {
	return nil
}
func (emptyDataset) IterateAll(context.Context, *rsync.Config, rsync.RowVisitor) error {
	return nil
}

func testConfigJSON() []byte {
	cfg := map[string]any{
		"decoder_type":   rsync.DecoderTypeJSONRange,
		"table":          "files",
		"component":      "test_component",
		"index":          "path",
		"last_event":     "last_event",
		"checksum_field": "checksum",
		"no_data_query_json": map[string]any{
			"row_filter":  "1 = 1",
			"column_list": "path, checksum, last_event",
		},
		"count_range_query_json": map[string]any{
			"row_filter":       "path BETWEEN ? AND ?",
			"column_list":      "COUNT(*) AS count",
			"count_field_name": "count",
		},
		"row_data_query_json": map[string]any{
			"row_filter":  "path = ?",
			"column_list": "path, checksum, last_event",
		},
		"range_checksum_query_json": map[string]any{
			"row_filter":  "path BETWEEN ? AND ?",
			"column_list": "path, checksum, last_event",
		},
	}
	raw, _ := json.Marshal(cfg)
	return raw
}

func newTestHandlers() *Handlers {
	manager := rsync.NewManager(nil, nil)
	resolver := DatasetResolverFunc(func(syncID string, cfg *rsync.Config) (rsync.Dataset, error) {
		return emptyDataset{}, nil
	})
	return NewHandlers(manager, resolver, nil)
}

func TestHandleCreate(t *testing.T) {
	h := newTestHandlers()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/handles", nil)
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var resp CreateHandleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Handle == 0 {
		t.Fatalf("expected nonzero handle")
	}
}

func TestHandleCreate_RejectsWrongMethod(t *testing.T) {
	h := newTestHandlers()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/handles", nil)
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandleRegisterAndPushAndResults(t *testing.T) {
	h := newTestHandlers()

	createRec := httptest.NewRecorder()
	h.HandleCreate(createRec, httptest.NewRequest(http.MethodPost, "/handles", nil))
	var created CreateHandleResponse
	if err := json.Unmarshal(createRec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}

	regBody, _ := json.Marshal(RegisterRequest{SyncID: "sync_1", Config: testConfigJSON()})
	regReq := httptest.NewRequest(http.MethodPost, "/handles/"+itoa(created.Handle)+"/sync", bytes.NewReader(regBody))
	regReq.SetPathValue("handle", itoa(created.Handle))
	regRec := httptest.NewRecorder()
	h.HandleRegister(regRec, regReq)
	if regRec.Code != http.StatusOK {
		t.Fatalf("unexpected register status: %d body=%s", regRec.Code, regRec.Body.String())
	}

	frame := []byte(`sync_1 checksum_fail {"begin":"a","end":"z","id":1}`)
	pushBody, _ := json.Marshal(PushRequest{Frame: frame})
	pushReq := httptest.NewRequest(http.MethodPost, "/handles/"+itoa(created.Handle)+"/push", bytes.NewReader(pushBody))
	pushReq.SetPathValue("handle", itoa(created.Handle))
	pushRec := httptest.NewRecorder()
	h.HandlePush(pushRec, pushReq)
	if pushRec.Code != http.StatusAccepted {
		t.Fatalf("unexpected push status: %d", pushRec.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	var results []string
	for time.Now().Before(deadline) {
		resultsReq := httptest.NewRequest(http.MethodGet, "/handles/"+itoa(created.Handle)+"/results", nil)
		resultsReq.SetPathValue("handle", itoa(created.Handle))
		resultsRec := httptest.NewRecorder()
		h.HandleResults(resultsRec, resultsReq)
		if err := json.Unmarshal(resultsRec.Body.Bytes(), &results); err != nil {
			t.Fatalf("failed to decode results: %v", err)
		}
		if len(results) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 buffered envelope, got %d: %v", len(results), results)
	}
}

func TestHandleClose_UnknownHandleIsNotFound(t *testing.T) {
	h := newTestHandlers()
	req := httptest.NewRequest(http.MethodDelete, "/handles/999", nil)
	req.SetPathValue("handle", "999")
	rec := httptest.NewRecorder()
	h.HandleClose(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func itoa(n uint64) string {
	return strconv.FormatUint(n, 10)
}
