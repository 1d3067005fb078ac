// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package rsync

import (
	"context"
	"time"
)

// StageTiming records the duration of one Range Engine response volley
// (SPEC_FULL.md §4.8), adapted from oversync.StageTiming.
type StageTiming struct {
	Component string
	Stage     string
	Duration  time.Duration
	RowCount  int
	Error     bool
}

// StageMetricsRecorder is an injectable sink for StageTiming observations.
type StageMetricsRecorder interface {
	ObserveStage(ctx context.Context, timing StageTiming)
}

// StageMetricsRecorderFunc adapts a plain function to StageMetricsRecorder.
type StageMetricsRecorderFunc func(ctx context.Context, timing StageTiming)

func (f StageMetricsRecorderFunc) ObserveStage(ctx context.Context, timing StageTiming) {
	f(ctx, timing)
}
