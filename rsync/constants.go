// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package rsync

// Inbound op constants, the second token of a frame (spec.md §4.2).
const (
	OpChecksumFail = "checksum_fail"
	OpNoData       = "no_data"
)

// Outbound envelope type constants (spec.md §4.2/§6.4).
const (
	TypeIntegrityCheckLeft   = "integrity_check_left"
	TypeIntegrityCheckRight  = "integrity_check_right"
	TypeIntegrityCheckGlobal = "integrity_check_global"
	TypeIntegrityClear       = "integrity_clear"
	TypeState                = "state"
)

// Split-half tags used internally by ChecksumContext (spec.md §3).
const (
	sideLeft  = "LEFT"
	sideRight = "RIGHT"
)

// checksumTypeComplete and checksumTypeSplit select the ChecksumContext shape.
const (
	checksumTypeComplete = "COMPLETE"
	checksumTypeSplit    = "SPLIT"
)

// DecoderTypeJSONRange is the only currently recognized registration decoder
// (spec.md §6.3).
const DecoderTypeJSONRange = "JSON_RANGE"

// Metrics stage names recorded via StageMetricsRecorder (SPEC_FULL.md §4.8).
const (
	StageEngineComplete = "engine_complete"
	StageEngineSplit    = "engine_split"
	StageEngineDump     = "engine_dump"
)
