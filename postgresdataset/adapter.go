// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Package postgresdataset is a concrete rsync.Dataset backed by
// jackc/pgx/v5 and pgxpool, executing the query templates named in a
// registration config (SPEC_FULL.md §4.6) against a real Postgres table.
package postgresdataset

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jseifertscionics/wazuh-rsync/rsync"
)

// Adapter implements rsync.Dataset against a pgxpool.Pool.
type Adapter struct {
	pool   *pgxpool.Pool
	logger *slog.Logger

	maxRetries int
	retryBase  time.Duration
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRetry overrides the bounded retry policy applied to retryable
// Postgres errors (serialization failures, deadlocks, lock timeouts).
func WithRetry(maxRetries int, base time.Duration) Option {
	return func(a *Adapter) {
		a.maxRetries = maxRetries
		a.retryBase = base
	}
}

// NewAdapter constructs a Postgres-backed Dataset. A nil logger falls back
// to slog.Default(), matching the teacher's NewSyncService pattern.
func NewAdapter(pool *pgxpool.Pool, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		pool:       pool,
		logger:     logger,
		maxRetries: 3,
		retryBase:  50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Count implements rsync.Dataset.
func (a *Adapter) Count(ctx context.Context, cfg *rsync.Config, begin, end string) (uint64, error) {
	sql, err := buildSelect(cfg.Table, cfg.CountRangeQuery.QueryTemplate, "")
	if err != nil {
		return 0, rsyncDatasetError(err)
	}

	var n int64
	err = a.withRetry(ctx, func() error {
		return a.pool.QueryRow(ctx, sql, begin, end).Scan(&n)
	})
	if err != nil {
		return 0, rsyncDatasetError(fmt.Errorf("count_range_query failed: %w", err))
	}
	if n < 0 {
		return 0, rsyncDatasetError(fmt.Errorf("count_range_query returned negative count %d", n))
	}
	return uint64(n), nil
}

// RowByIndex implements rsync.Dataset.
func (a *Adapter) RowByIndex(ctx context.Context, cfg *rsync.Config, key string) (rsync.Row, error) {
	sql, err := buildSelect(cfg.Table, cfg.RowDataQuery, "")
	if err != nil {
		return rsync.Row{}, rsyncDatasetError(err)
	}

	var row rsync.Row
	found := false
	err = a.withRetry(ctx, func() error {
		found = false
		rows, err := a.pool.Query(ctx, sql, key)
		if err != nil {
			return err
		}
		defer rows.Close()
		if rows.Next() {
			row, err = scanRow(rows)
			if err != nil {
				return err
			}
			found = true
		}
		return rows.Err()
	})
	if err != nil {
		return rsync.Row{}, rsyncDatasetError(fmt.Errorf("row_data_query failed: %w", err))
	}
	if !found {
		return rsync.Row{}, rsync.ErrRowNotFound
	}
	return row, nil
}

// IterateRange implements rsync.Dataset, streaming rows of [begin, end] in
// ascending index order.
func (a *Adapter) IterateRange(ctx context.Context, cfg *rsync.Config, begin, end string, visit rsync.RowVisitor) error {
	sql, err := buildSelect(cfg.Table, cfg.RangeChecksumQuery, orderByIndex(cfg))
	if err != nil {
		return rsyncDatasetError(err)
	}
	return a.iterate(ctx, sql, visit, begin, end)
}

// IterateAll implements rsync.Dataset, streaming every row in ascending
// index order.
func (a *Adapter) IterateAll(ctx context.Context, cfg *rsync.Config, visit rsync.RowVisitor) error {
	sql, err := buildSelect(cfg.Table, cfg.NoDataQuery, orderByIndex(cfg))
	if err != nil {
		return rsyncDatasetError(err)
	}
	return a.iterate(ctx, sql, visit)
}

func (a *Adapter) iterate(ctx context.Context, sql string, visit rsync.RowVisitor, args ...any) error {
	rows, err := a.pool.Query(ctx, sql, args...)
	if err != nil {
		return rsyncDatasetError(fmt.Errorf("query failed: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return rsyncDatasetError(fmt.Errorf("scan failed: %w", err))
		}
		if err := visit(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return rsyncDatasetError(fmt.Errorf("row iteration failed: %w", err))
	}
	return nil
}

func (a *Adapter) withRetry(ctx context.Context, op func() error) error {
	backoff := a.retryBase
	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isRetryablePGTxError(lastErr) || attempt == a.maxRetries {
			return lastErr
		}
		if err := sleepWithContext(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
	}
	return lastErr
}

// scanRow decodes the current row of rows into a rsync.Row, preserving
// column order since pgx does not guarantee map ordering.
func scanRow(rows pgx.Rows) (rsync.Row, error) {
	fields := rows.FieldDescriptions()
	values, err := rows.Values()
	if err != nil {
		return rsync.Row{}, err
	}
	columns := make([]string, len(fields))
	m := make(map[string]any, len(fields))
	for i, f := range fields {
		columns[i] = string(f.Name)
		m[columns[i]] = values[i]
	}
	return rsync.Row{Columns: columns, Values: m}, nil
}

// orderByIndex returns the ORDER BY clause that guarantees the index
// ordering the Range Engine relies on (spec.md §3 invariants).
func orderByIndex(cfg *rsync.Config) string {
	return cfg.Index + " ASC"
}

// buildSelect renders "SELECT [distinct_opt] column_list FROM table
// [WHERE row_filter] [ORDER BY ...]", rewriting the template's "?"
// placeholders into pgx's positional "$1", "$2", ... syntax (spec.md §6.3).
func buildSelect(table string, qt rsync.QueryTemplate, orderBy string) (string, error) {
	if table == "" {
		return "", fmt.Errorf("empty table name")
	}
	if qt.ColumnList == "" {
		return "", fmt.Errorf("empty column_list")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if qt.DistinctOpt != "" {
		b.WriteString(qt.DistinctOpt)
		b.WriteString(" ")
	}
	b.WriteString(qt.ColumnList)
	b.WriteString(" FROM ")
	b.WriteString(table)
	if qt.RowFilter != "" {
		b.WriteString(" WHERE ")
		b.WriteString(rewritePlaceholders(qt.RowFilter))
	}
	if qt.OrderByOpt != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(qt.OrderByOpt)
	} else if orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBy)
	}
	return b.String(), nil
}

// rewritePlaceholders rewrites "?" placeholders into "$1", "$2", ...,
// substituted in left-to-right order (begin then end for range queries,
// or the index value for row-data queries, per spec.md §6.3).
func rewritePlaceholders(filter string) string {
	var b strings.Builder
	n := 0
	for _, r := range filter {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
