// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package rsync

import "errors"

// Error kinds returned at the control-surface boundary (spec.md §7).
// Consumer-task errors (DatasetError, DecodeError, UnknownSyncId) are never
// returned from Push; they are only observable through the logger.
var (
	// ErrInvalidArgument marks a null/empty input at the API boundary.
	ErrInvalidArgument = errors.New("rsync: invalid argument")
	// ErrInvalidConfig marks a registration config that failed schema validation.
	ErrInvalidConfig = errors.New("rsync: invalid config")
	// ErrDatasetError marks a failure reported by the Dataset Adapter.
	ErrDatasetError = errors.New("rsync: dataset error")
	// ErrDecodeError marks an inbound frame that does not match the grammar.
	ErrDecodeError = errors.New("rsync: decode error")
	// ErrUnknownSyncId marks a frame whose sync_id has no registration.
	ErrUnknownSyncId = errors.New("rsync: unknown sync_id")
)

// configError wraps ErrInvalidConfig with the field that failed validation.
type configError struct {
	field string
	msg   string
}

func (e *configError) Error() string {
	return "rsync: invalid config: " + e.field + ": " + e.msg
}

func (e *configError) Unwrap() error { return ErrInvalidConfig }

func newConfigError(field, msg string) error {
	return &configError{field: field, msg: msg}
}

// argError wraps ErrInvalidArgument with the argument name that was missing.
type argError struct {
	arg string
}

func (e *argError) Error() string {
	return "rsync: invalid argument: " + e.arg + " is required"
}

func (e *argError) Unwrap() error { return ErrInvalidArgument }

func newArgError(arg string) error {
	return &argError{arg: arg}
}
