// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Package httpapi exposes rsync.Manager over HTTP (SPEC_FULL.md C10), in the
// same handler shape as the teacher's oversync.HTTPSyncHandlers: one method
// per route, a shared writeError helper, and a method check as the first
// line of every handler.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/jseifertscionics/wazuh-rsync/rsync"
)

// DatasetResolver builds the Dataset collaborator for a sync_id being
// registered. The HTTP layer never constructs postgresdataset/sqlitedataset
// adapters itself; it asks the resolver, which is wired up by the process
// that owns the underlying connection pool or *sql.DB.
type DatasetResolver interface {
	Resolve(syncID string, cfg *rsync.Config) (rsync.Dataset, error)
}

// DatasetResolverFunc adapts a function to a DatasetResolver.
type DatasetResolverFunc func(syncID string, cfg *rsync.Config) (rsync.Dataset, error)

func (f DatasetResolverFunc) Resolve(syncID string, cfg *rsync.Config) (rsync.Dataset, error) {
	return f(syncID, cfg)
}

// Handlers provides HTTP handlers over a rsync.Manager. Outbound envelopes
// produced by the engine (the sink argument to RegisterSyncID) are buffered
// per handle so a caller can poll for them with HandleResults.
type Handlers struct {
	manager  *rsync.Manager
	datasets DatasetResolver
	logger   *slog.Logger

	mu     sync.Mutex
	outbox map[rsync.Handle][]string
}

// NewHandlers creates the HTTP surface over manager. A nil logger falls
// back to slog.Default(), matching rsync.NewManager's convention.
func NewHandlers(manager *rsync.Manager, datasets DatasetResolver, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		manager:  manager,
		datasets: datasets,
		logger:   logger,
		outbox:   make(map[rsync.Handle][]string),
	}
}

// HandleCreate processes POST /handles, allocating a new rsync.Handle.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is allowed")
		return
	}
	handle := h.manager.Create()
	h.mu.Lock()
	h.outbox[handle] = nil
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CreateHandleResponse{Handle: uint64(handle)})
}

// HandleRegister processes POST /handles/{handle}/sync, registering a
// sync_id and its Dataset against the handle.
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is allowed")
		return
	}
	handle, err := parseHandle(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse register request")
		return
	}
	if req.SyncID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "sync_id is required")
		return
	}

	cfg, err := rsync.ParseConfig(req.Config)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_config", err.Error())
		return
	}

	dataset, err := h.datasets.Resolve(req.SyncID, cfg)
	if err != nil {
		h.logger.Error("failed to resolve dataset", "error", err, "sync_id", req.SyncID)
		h.writeError(w, http.StatusInternalServerError, "dataset_unavailable", err.Error())
		return
	}

	sink := func(message string) {
		h.mu.Lock()
		h.outbox[handle] = append(h.outbox[handle], message)
		h.mu.Unlock()
	}

	if err := h.manager.RegisterSyncID(handle, req.SyncID, dataset, req.Config, sink); err != nil {
		h.logger.Error("failed to register sync_id", "error", err, "sync_id", req.SyncID)
		status := http.StatusInternalServerError
		if errors.Is(err, rsync.ErrInvalidArgument) || errors.Is(err, rsync.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		h.writeError(w, status, "register_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{Handle: uint64(handle), Alive: true})
}

// HandlePush processes POST /handles/{handle}/push, enqueuing a raw inbound
// frame onto the handle's dispatcher.
func (h *Handlers) HandlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is allowed")
		return
	}
	handle, err := parseHandle(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var req PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse push request")
		return
	}

	if err := h.manager.Push(handle, req.Frame); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, rsync.ErrInvalidArgument) {
			status = http.StatusBadRequest
		}
		h.writeError(w, status, "push_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleResults processes GET /handles/{handle}/results, draining and
// returning every envelope the engine has emitted for that handle so far.
func (h *Handlers) HandleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET is allowed")
		return
	}
	handle, err := parseHandle(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	h.mu.Lock()
	messages := h.outbox[handle]
	h.outbox[handle] = nil
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

// HandleClose processes DELETE /handles/{handle}, stopping its dispatcher
// and dropping its registrations.
func (h *Handlers) HandleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only DELETE is allowed")
		return
	}
	handle, err := parseHandle(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.manager.Close(handle); err != nil {
		h.writeError(w, http.StatusNotFound, "unknown_handle", err.Error())
		return
	}

	h.mu.Lock()
	delete(h.outbox, handle)
	h.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// parseHandle extracts the {handle} path segment, expecting routes mounted
// as /handles/{handle}/... under net/http's ServeMux pattern matching.
func parseHandle(r *http.Request) (rsync.Handle, error) {
	v := r.PathValue("handle")
	if v == "" {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		for i, p := range parts {
			if p == "handles" && i+1 < len(parts) {
				v = parts[i+1]
				break
			}
		}
	}
	if v == "" {
		return 0, errors.New("missing handle in path")
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, errors.New("handle must be a positive integer")
	}
	return rsync.Handle(n), nil
}

func (h *Handlers) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: errorCode, Message: message})
	h.logger.Debug("http error response", "status_code", statusCode, "error_code", errorCode, "message", message)
}
