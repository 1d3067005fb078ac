// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package postgresdataset

import (
	"testing"

	"github.com/jseifertscionics/wazuh-rsync/rsync"
)

func TestRewritePlaceholders(t *testing.T) {
	got := rewritePlaceholders("path BETWEEN ? AND ?")
	want := "path BETWEEN $1 AND $2"
	if got != want {
		t.Fatalf("rewritePlaceholders() = %q, want %q", got, want)
	}
}

func TestRewritePlaceholders_NoPlaceholders(t *testing.T) {
	got := rewritePlaceholders("1 = 1")
	if got != "1 = 1" {
		t.Fatalf("rewritePlaceholders() = %q, want unchanged", got)
	}
}

func TestBuildSelect_RendersFilterDistinctAndOrder(t *testing.T) {
	qt := rsync.QueryTemplate{
		RowFilter:   "path BETWEEN ? AND ?",
		ColumnList:  "path, checksum",
		DistinctOpt: "DISTINCT",
		OrderByOpt:  "path ASC",
	}
	sql, err := buildSelect("files", qt, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT DISTINCT path, checksum FROM files WHERE path BETWEEN $1 AND $2 ORDER BY path ASC"
	if sql != want {
		t.Fatalf("buildSelect() = %q, want %q", sql, want)
	}
}

func TestBuildSelect_FallsBackToGivenOrderBy(t *testing.T) {
	qt := rsync.QueryTemplate{RowFilter: "1 = 1", ColumnList: "*"}
	sql, err := buildSelect("files", qt, "path ASC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT * FROM files WHERE 1 = 1 ORDER BY path ASC"
	if sql != want {
		t.Fatalf("buildSelect() = %q, want %q", sql, want)
	}
}

func TestBuildSelect_RejectsEmptyColumnList(t *testing.T) {
	_, err := buildSelect("files", rsync.QueryTemplate{RowFilter: "1 = 1"}, "")
	if err == nil {
		t.Fatalf("expected error for empty column_list")
	}
}
