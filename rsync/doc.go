// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Package rsync implements the responder half of a Merkle-range-checksum
// reconciliation protocol: it reconciles a locally held indexed dataset
// against a remote peer's view of the same dataset by computing ordered
// checksums over key ranges, narrowing on mismatch, and emitting the row
// states the peer needs to converge.
//
// The package never initiates a sync session; it only reacts to inbound
// frames pushed onto a handle via Manager.Push.
package rsync
