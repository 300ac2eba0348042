// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the durable user table and usage ledger.
//
// The in-memory state is the source of truth. Every mutation runs through
// Store.mutate, which applies the change and synchronously rewrites both
// sqlite tables (gpt_users and requests) as a full snapshot. There is no
// incremental persistence; write amplification is bounded by human chat
// activity, not request volume.
//
// A single mutex serializes every mutation with its snapshot, so a snapshot
// can never capture a torn state.
package store
