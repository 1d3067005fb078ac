// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package postgresdataset

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jseifertscionics/wazuh-rsync/rsync"
)

// isRetryablePGTxError classifies serialization failures, deadlocks, and
// lock timeouts as retryable, adapted from oversync/retry.go.
func isRetryablePGTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.SQLState() {
	case "40001", // serialization_failure
		"40P01", // deadlock_detected
		"55P03": // lock_not_available (incl. lock_timeout)
		return true
	default:
		return false
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// datasetError wraps rsync.ErrDatasetError with the underlying driver error.
type datasetError struct{ err error }

func (e *datasetError) Error() string { return "postgresdataset: " + e.err.Error() }

// Unwrap exposes both the sentinel (for errors.Is(err, rsync.ErrDatasetError))
// and the underlying driver error via errors.Join semantics.
func (e *datasetError) Unwrap() []error { return []error{rsync.ErrDatasetError, e.err} }

func rsyncDatasetError(err error) error {
	if err == nil {
		return nil
	}
	return &datasetError{err: err}
}
