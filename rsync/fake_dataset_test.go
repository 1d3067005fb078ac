// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package rsync

import (
	"context"
	"sort"
)

// fakeDataset is an in-memory Dataset used by the test suite. Rows are
// held pre-sorted by their index column, mirroring the ORDER BY <index>
// contract a real adapter provides.
type fakeDataset struct {
	index string
	rows  []Row
}

func newFakeDataset(index string, rows []Row) *fakeDataset {
	sorted := append([]Row(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Get(index).(string) < sorted[j].Get(index).(string)
	})
	return &fakeDataset{index: index, rows: sorted}
}

func (f *fakeDataset) inRange(row Row, begin, end string) bool {
	key := row.Get(f.index).(string)
	return key >= begin && key <= end
}

func (f *fakeDataset) Count(_ context.Context, cfg *Config, begin, end string) (uint64, error) {
	var n uint64
	for _, r := range f.rows {
		if f.inRange(r, begin, end) {
			n++
		}
	}
	return n, nil
}

func (f *fakeDataset) RowByIndex(_ context.Context, cfg *Config, key string) (Row, error) {
	for _, r := range f.rows {
		if r.Get(f.index).(string) == key {
			return r, nil
		}
	}
	return Row{}, ErrRowNotFound
}

func (f *fakeDataset) IterateRange(_ context.Context, cfg *Config, begin, end string, visit RowVisitor) error {
	for _, r := range f.rows {
		if f.inRange(r, begin, end) {
			if err := visit(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *fakeDataset) IterateAll(_ context.Context, cfg *Config, visit RowVisitor) error {
	for _, r := range f.rows {
		if err := visit(r); err != nil {
			return err
		}
	}
	return nil
}

// failingDataset always returns an error, used to exercise DatasetError
// abort paths.
type failingDataset struct{ err error }

func (f failingDataset) Count(context.Context, *Config, string, string) (uint64, error) {
	return 0, f.err
}
func (f failingDataset) RowByIndex(context.Context, *Config, string) (Row, error) {
	return Row{}, f.err
}
func (f failingDataset) IterateRange(context.Context, *Config, string, string, RowVisitor) error {
	return f.err
}
func (f failingDataset) IterateAll(context.Context, *Config, RowVisitor) error {
	return f.err
}

func testConfig(component string) *Config {
	return &Config{
		DecoderType:   DecoderTypeJSONRange,
		Table:         "files",
		Component:     component,
		Index:         "path",
		LastEvent:     "last_event",
		ChecksumField: "checksum",
		NoDataQuery:          QueryTemplate{RowFilter: "1=1", ColumnList: "*"},
		CountRangeQuery:      CountRangeQueryTemplate{QueryTemplate: QueryTemplate{RowFilter: "path BETWEEN ? AND ?", ColumnList: "*"}, CountFieldName: "count"},
		RowDataQuery:         QueryTemplate{RowFilter: "path = ?", ColumnList: "*"},
		RangeChecksumQuery:   QueryTemplate{RowFilter: "path BETWEEN ? AND ?", ColumnList: "*"},
	}
}

func row(path, checksum string, lastEvent int64) Row {
	return Row{
		Columns: []string{"path", "checksum", "last_event"},
		Values: map[string]any{
			"path":       path,
			"checksum":   checksum,
			"last_event": lastEvent,
		},
	}
}
