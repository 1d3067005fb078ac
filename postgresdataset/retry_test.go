// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package postgresdataset

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsRetryablePGTxError(t *testing.T) {
	cases := []struct {
		sqlState string
		want     bool
	}{
		{"40001", true},
		{"40P01", true},
		{"55P03", true},
		{"23505", false},
	}
	for _, c := range cases {
		err := &pgconn.PgError{Code: c.sqlState}
		if got := isRetryablePGTxError(err); got != c.want {
			t.Errorf("isRetryablePGTxError(%s) = %v, want %v", c.sqlState, got, c.want)
		}
	}
}

func TestIsRetryablePGTxError_NonPGError(t *testing.T) {
	if isRetryablePGTxError(errors.New("boom")) {
		t.Fatalf("expected false for a non-pgconn error")
	}
}
