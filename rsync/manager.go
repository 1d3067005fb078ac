// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package rsync

import (
	"log/slog"
	"sync"
)

// Manager is the process-wide handle table (C5 Registry + C6 Handle
// Manager, spec.md §4.5/§9). The original contract is a single instance
// with a mutex-guarded map; here it is an owned value created by NewManager
// and torn down by Teardown, passed by reference, rather than a hidden
// package-level singleton.
type Manager struct {
	mu      sync.Mutex
	logger  *slog.Logger
	metrics StageMetricsRecorder
	engine  *Engine
	next    uint64
	handles map[Handle]*handleState
}

type handleState struct {
	registry   *registry
	dispatcher *dispatcher
}

// NewManager corresponds to the control surface's initialize(log_fn)
// (spec.md §6.1). A nil logger falls back to slog.Default().
func NewManager(logger *slog.Logger, metrics StageMetricsRecorder) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:  logger,
		metrics: metrics,
		engine:  NewEngine(logger, metrics),
		handles: make(map[Handle]*handleState),
	}
}

// Create allocates a fresh handle and starts its dispatcher (spec.md §4.5).
func (m *Manager) Create() Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	h := Handle(m.next)
	reg := newRegistry()
	m.handles[h] = &handleState{
		registry:   reg,
		dispatcher: newDispatcher(m.logger, m.engine, reg),
	}
	return h
}

// RegisterSyncID inserts a Registration for syncID on handle h (spec.md
// §4.5/§6.1). Re-registering the same sync_id replaces the previous entry.
// Returns ErrInvalidArgument if any required input is missing and
// ErrInvalidConfig if configJSON fails schema validation.
func (m *Manager) RegisterSyncID(h Handle, syncID string, dataset Dataset, configJSON []byte, sink ResultCallback) error {
	if syncID == "" {
		return newArgError("sync_id")
	}
	if dataset == nil {
		return newArgError("dataset")
	}
	if sink == nil {
		return newArgError("sink")
	}

	cfg, err := ParseConfig(configJSON)
	if err != nil {
		return err
	}

	st, err := m.lookup(h)
	if err != nil {
		return err
	}

	st.registry.put(&Registration{
		SyncID:  syncID,
		Config:  cfg,
		Dataset: dataset,
		Sink:    sink,
	})
	m.logger.Debug("rsync: registered sync_id", "sync_id", syncID, "component", cfg.Component)
	return nil
}

// Push enqueues a raw inbound buffer onto handle h's dispatcher (spec.md
// §4.4/§6.1). It never blocks on the dataset.
func (m *Manager) Push(h Handle, data []byte) error {
	if len(data) == 0 {
		return newArgError("data")
	}
	st, err := m.lookup(h)
	if err != nil {
		return err
	}
	return st.dispatcher.push(data)
}

// StartSync is reserved; it currently always returns nil (spec.md §6.1).
func (m *Manager) StartSync(h Handle) error {
	if _, err := m.lookup(h); err != nil {
		return err
	}
	return nil
}

// Close stops and drains handle h's dispatcher, then drops its
// registrations (release_context, spec.md §4.5/§6.1).
func (m *Manager) Close(h Handle) error {
	m.mu.Lock()
	st, ok := m.handles[h]
	if !ok {
		m.mu.Unlock()
		return newArgError("handle")
	}
	delete(m.handles, h)
	m.mu.Unlock()

	st.dispatcher.stop()
	st.registry.clear()
	return nil
}

// Teardown releases every live handle (spec.md §4.5/§6.1, the global
// release()).
func (m *Manager) Teardown() {
	m.mu.Lock()
	handles := make([]Handle, 0, len(m.handles))
	for h := range m.handles {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	for _, h := range handles {
		_ = m.Close(h)
	}
}

func (m *Manager) lookup(h Handle) (*handleState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.handles[h]
	if !ok {
		return nil, newArgError("handle")
	}
	return st, nil
}
