// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package completion dispatches completion requests and classifies their
// outcomes.
//
// Every attempted call, successful or not, produces exactly one ledger
// entry: the provider's usage figures on success, a local tiktoken estimate
// on failure paths where the provider reports none. Outcome decides the
// user-visible action: deliver the reply in ordered 1700-character chunks,
// force-close the thread on context overflow, or surface the provider's
// error text.
//
// The delegated-file path handles non-text attachments through an ephemeral
// assistant scoped to a single uploaded file, with bounded status polling
// and unconditional teardown of every remote resource.
package completion
