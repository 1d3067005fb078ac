// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package sqlitedataset

import "github.com/jseifertscionics/wazuh-rsync/rsync"

// datasetError wraps rsync.ErrDatasetError with the underlying driver error.
type datasetError struct{ err error }

func (e *datasetError) Error() string    { return "sqlitedataset: " + e.err.Error() }
func (e *datasetError) Unwrap() []error { return []error{rsync.ErrDatasetError, e.err} }

func rsyncDatasetError(err error) error {
	if err == nil {
		return nil
	}
	return &datasetError{err: err}
}
