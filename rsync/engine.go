// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package rsync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// Engine is the Range Engine (C3, spec.md §4.3). It is stateless across
// frames: every call to Process performs exactly one response volley and
// does not recurse on its own.
type Engine struct {
	logger  *slog.Logger
	metrics StageMetricsRecorder
}

// NewEngine constructs an Engine. A nil logger falls back to slog.Default();
// a nil metrics recorder disables stage timing.
func NewEngine(logger *slog.Logger, metrics StageMetricsRecorder) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger, metrics: metrics}
}

// Process decodes the op and dispatches to the no_data or checksum_fail
// path. It never returns an error to the caller: failures are logged and
// the response volley is simply cut short, per spec.md §4.3/§7.
func (e *Engine) Process(ctx context.Context, reg *Registration, in SyncInputData) {
	switch in.Op {
	case OpNoData:
		e.handleNoData(ctx, reg, in)
	case OpChecksumFail:
		e.handleChecksumFail(ctx, reg, in)
	default:
		e.logger.Warn("rsync: engine received unknown op", "component", reg.SyncID, "op", in.Op)
	}
}

func (e *Engine) observe(ctx context.Context, component, stage string, start time.Time, rows int, hadErr bool) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveStage(ctx, StageTiming{
		Component: component,
		Stage:     stage,
		Duration:  time.Since(start),
		RowCount:  rows,
		Error:     hadErr,
	})
}

// handleNoData implements spec.md §4.3.1: dump every row, in index order,
// as a "state" envelope. No integrity messages are emitted.
func (e *Engine) handleNoData(ctx context.Context, reg *Registration, in SyncInputData) {
	start := time.Now()
	n := 0
	err := reg.Dataset.IterateAll(ctx, reg.Config, func(row Row) error {
		index := fmt.Sprint(row.Get(reg.Config.Index))
		msg, err := stateEnvelope(reg.Config.Component, row, index, reg.Config)
		if err != nil {
			return err
		}
		reg.Sink(msg)
		n++
		return nil
	})
	e.observe(ctx, reg.SyncID, StageEngineDump, start, n, err != nil)
	if err != nil {
		e.logger.Error("rsync: no_data dump failed", "component", reg.SyncID, "error", err)
	}
}

// handleChecksumFail implements spec.md §4.3.2: converge a divergent range
// by subdivision.
func (e *Engine) handleChecksumFail(ctx context.Context, reg *Registration, in SyncInputData) {
	start := time.Now()

	n, err := reg.Dataset.Count(ctx, reg.Config, in.Begin, in.End)
	if err != nil {
		e.logger.Error("rsync: count failed", "component", reg.SyncID, "begin", in.Begin, "end", in.End, "error", err)
		return
	}

	switch {
	case n == 0:
		e.emitClear(reg, in)
		e.observe(ctx, reg.SyncID, StageEngineComplete, start, 0, false)
	case n == 1:
		e.emitSingleton(ctx, reg, in)
		e.observe(ctx, reg.SyncID, StageEngineComplete, start, 1, false)
	default:
		e.emitSplit(ctx, reg, in, int(n))
		e.observe(ctx, reg.SyncID, StageEngineSplit, start, int(n), false)
	}
}

func (e *Engine) emitClear(reg *Registration, in SyncInputData) {
	msg, err := integrityClearEnvelope(reg.Config.Component, in.ID)
	if err != nil {
		e.logger.Error("rsync: failed to format integrity_clear", "component", reg.SyncID, "error", err)
		return
	}
	reg.Sink(msg)
}

// emitSingleton implements spec.md §4.3.2 step 3: a range of size 1
// terminates recursion with a state message, followed by a singleton
// integrity_check_global (spec.md §9, Open Question: preserve state-then-
// global ordering).
func (e *Engine) emitSingleton(ctx context.Context, reg *Registration, in SyncInputData) {
	key := in.Begin
	row, err := reg.Dataset.RowByIndex(ctx, reg.Config, key)
	if err != nil {
		e.logger.Error("rsync: row lookup failed", "component", reg.SyncID, "key", key, "error", err)
		return
	}

	stateMsg, err := stateEnvelope(reg.Config.Component, row, key, reg.Config)
	if err != nil {
		e.logger.Error("rsync: failed to format state", "component", reg.SyncID, "error", err)
		return
	}
	reg.Sink(stateMsg)

	checksum, err := completeChecksum(ctx, reg, in.Begin, in.End)
	if err != nil {
		e.logger.Error("rsync: complete checksum failed", "component", reg.SyncID, "error", err)
		return
	}
	globalMsg, err := integrityCheckGlobalEnvelope(reg.Config.Component, in.Begin, in.End, checksum, in.ID)
	if err != nil {
		e.logger.Error("rsync: failed to format integrity_check_global", "component", reg.SyncID, "error", err)
		return
	}
	reg.Sink(globalMsg)
}

// emitSplit implements spec.md §4.3.2 step 4-5: stream [begin, end] through
// two running SHA-256 hashers, the first k = n/2 rows feeding the left
// hasher and the remainder feeding the right one, then emit
// integrity_check_left followed by integrity_check_right.
func (e *Engine) emitSplit(ctx context.Context, reg *Registration, in SyncInputData, n int) {
	k := n / 2

	hl := sha256.New()
	hr := sha256.New()

	var left, right splitContext
	left.id, right.id = in.ID, in.ID
	left.side, right.side = sideLeft, sideRight

	i := 0
	var prevIndex string
	err := reg.Dataset.IterateRange(ctx, reg.Config, in.Begin, in.End, func(row Row) error {
		index := fmt.Sprint(row.Get(reg.Config.Index))
		bytes := checksumFieldBytes(row, reg.Config)

		if i == 0 {
			left.begin = index
		}
		if i < k {
			hl.Write(bytes)
			left.end = index
		} else {
			if i == k {
				right.begin = index
				left.tail = index
			}
			hr.Write(bytes)
			right.end = index
		}
		prevIndex = index
		i++
		return nil
	})
	if err != nil {
		e.logger.Error("rsync: split iteration failed", "component", reg.SyncID, "begin", in.Begin, "end", in.End, "error", err)
		return
	}
	if i != n {
		e.logger.Warn("rsync: row count changed between count() and iteration", "component", reg.SyncID, "counted", n, "iterated", i)
	}
	if right.end == "" {
		right.end = prevIndex
	}

	left.checksum = hex.EncodeToString(hl.Sum(nil))
	right.checksum = hex.EncodeToString(hr.Sum(nil))

	leftMsg, err := integrityCheckLeftEnvelope(reg.Config.Component, left)
	if err != nil {
		e.logger.Error("rsync: failed to format integrity_check_left", "component", reg.SyncID, "error", err)
		return
	}
	reg.Sink(leftMsg)

	rightMsg, err := integrityCheckRightEnvelope(reg.Config.Component, right)
	if err != nil {
		e.logger.Error("rsync: failed to format integrity_check_right", "component", reg.SyncID, "error", err)
		return
	}
	reg.Sink(rightMsg)
}

// completeChecksum folds the checksum_field bytes of every row in
// [begin, end], in index order, into a single SHA-256 hasher (spec.md §4.3,
// "Complete checksum"). Used for whole-range confirmation; unused rows are
// never materialized, keeping memory O(1).
func completeChecksum(ctx context.Context, reg *Registration, begin, end string) (string, error) {
	h := sha256.New()
	err := reg.Dataset.IterateRange(ctx, reg.Config, begin, end, func(row Row) error {
		h.Write(checksumFieldBytes(row, reg.Config))
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// checksumFieldBytes returns the raw UTF-8 byte value of the configured
// checksum_field column (spec.md §4.3 step 4).
func checksumFieldBytes(row Row, cfg *Config) []byte {
	v := row.Get(cfg.ChecksumField)
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		return t
	case string:
		return []byte(t)
	case fmt.Stringer:
		return []byte(t.String())
	default:
		return []byte(fmt.Sprint(t))
	}
}
