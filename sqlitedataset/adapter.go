// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Package sqlitedataset is a concrete rsync.Dataset backed by
// database/sql and mattn/go-sqlite3, for embedded deployments where the
// reconciled table lives in a local SQLite file (SPEC_FULL.md §4.7).
package sqlitedataset

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jseifertscionics/wazuh-rsync/rsync"
)

// Adapter implements rsync.Dataset against a *sql.DB opened with the
// sqlite3 driver.
type Adapter struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAdapter constructs a SQLite-backed Dataset. A nil logger falls back
// to slog.Default().
func NewAdapter(db *sql.DB, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{db: db, logger: logger}
}

// Count implements rsync.Dataset.
func (a *Adapter) Count(ctx context.Context, cfg *rsync.Config, begin, end string) (uint64, error) {
	sqlText, err := buildSelect(cfg.Table, cfg.CountRangeQuery.QueryTemplate, "")
	if err != nil {
		return 0, rsyncDatasetError(err)
	}
	var n int64
	if err := a.db.QueryRowContext(ctx, sqlText, begin, end).Scan(&n); err != nil {
		return 0, rsyncDatasetError(fmt.Errorf("count_range_query failed: %w", err))
	}
	if n < 0 {
		return 0, rsyncDatasetError(fmt.Errorf("count_range_query returned negative count %d", n))
	}
	return uint64(n), nil
}

// RowByIndex implements rsync.Dataset.
func (a *Adapter) RowByIndex(ctx context.Context, cfg *rsync.Config, key string) (rsync.Row, error) {
	sqlText, err := buildSelect(cfg.Table, cfg.RowDataQuery, "")
	if err != nil {
		return rsync.Row{}, rsyncDatasetError(err)
	}

	rows, err := a.db.QueryContext(ctx, sqlText, key)
	if err != nil {
		return rsync.Row{}, rsyncDatasetError(fmt.Errorf("row_data_query failed: %w", err))
	}
	defer rows.Close()

	if !rows.Next() {
		return rsync.Row{}, rsync.ErrRowNotFound
	}
	row, err := scanRow(rows)
	if err != nil {
		return rsync.Row{}, rsyncDatasetError(fmt.Errorf("scan failed: %w", err))
	}
	return row, rows.Err()
}

// IterateRange implements rsync.Dataset.
func (a *Adapter) IterateRange(ctx context.Context, cfg *rsync.Config, begin, end string, visit rsync.RowVisitor) error {
	sqlText, err := buildSelect(cfg.Table, cfg.RangeChecksumQuery, orderByIndex(cfg))
	if err != nil {
		return rsyncDatasetError(err)
	}
	return a.iterate(ctx, sqlText, visit, begin, end)
}

// IterateAll implements rsync.Dataset.
func (a *Adapter) IterateAll(ctx context.Context, cfg *rsync.Config, visit rsync.RowVisitor) error {
	sqlText, err := buildSelect(cfg.Table, cfg.NoDataQuery, orderByIndex(cfg))
	if err != nil {
		return rsyncDatasetError(err)
	}
	return a.iterate(ctx, sqlText, visit)
}

func (a *Adapter) iterate(ctx context.Context, sqlText string, visit rsync.RowVisitor, args ...any) error {
	rows, err := a.db.QueryContext(ctx, sqlText, args...)
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

// scanRow decodes the current row into a rsync.Row, preserving column
// order the way database/sql reports it.
func scanRow(rows *sql.Rows) (rsync.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return rsync.Row{}, err
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return rsync.Row{}, err
	}

	m := make(map[string]any, len(columns))
	for i, c := range columns {
		if b, ok := values[i].([]byte); ok {
			m[c] = string(b)
		} else {
			m[c] = values[i]
		}
	}
	return rsync.Row{Columns: columns, Values: m}, nil
}

func orderByIndex(cfg *rsync.Config) string {
	return cfg.Index + " ASC"
}

// buildSelect mirrors postgresdataset's query-template rendering, but
// SQLite accepts "?" placeholders natively so no rewriting is needed
// (spec.md §6.3).
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
		b.WriteString(qt.RowFilter)
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
