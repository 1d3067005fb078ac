// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package rsync

import "context"

// RowVisitor is invoked once per row by Dataset.IterateRange and
// Dataset.IterateAll, in ascending index order. Returning an error aborts
// iteration, and that error is returned to the caller unchanged.
type RowVisitor func(row Row) error

// Dataset is the contract the Range Engine relies on (spec.md §4.1/§6.2).
// It is out of scope for this module's implementation of the core
// algorithms -- concrete adapters live in sibling packages (postgresdataset,
// sqlitedataset) -- but the engine only ever talks to this interface.
//
// Implementations must be safe for concurrent calls from at most one
// goroutine at a time: the owning handle's dispatcher consumer task is the
// only caller.
type Dataset interface {
	// Count executes the configured range/count query template bound to
	// [begin, end] and returns the row count.
	Count(ctx context.Context, cfg *Config, begin, end string) (uint64, error)

	// RowByIndex returns the single row whose index column equals key, or
	// ErrRowNotFound if no such row exists.
	RowByIndex(ctx context.Context, cfg *Config, key string) (Row, error)

	// IterateRange yields rows of [begin, end] in ascending index order.
	IterateRange(ctx context.Context, cfg *Config, begin, end string, visit RowVisitor) error

	// IterateAll yields every row of the table, unfiltered, in ascending
	// index order.
	IterateAll(ctx context.Context, cfg *Config, visit RowVisitor) error
}

// ErrRowNotFound is returned by Dataset.RowByIndex when no row matches.
var ErrRowNotFound = newSentinel("rsync: row not found")

type sentinelError string

func (e sentinelError) Error() string { return string(e) }

func newSentinel(msg string) error { return sentinelError(msg) }
