// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tokens provides pre-flight token estimation mirroring the
// provider's tokenizer.
//
// Counts are produced with the real BPE encoder for the selected model via
// tiktoken. When the model name is unrecognized the estimator degrades to
// the generic cl100k_base encoding, and when no encoding can be loaded at
// all it degrades further to a character/word blend approximation. The
// estimator never fails the caller.
//
// The chat-format accounting in FromMessages reproduces the provider's
// constant scheme exactly: 3 tokens per message, the encoded length of every
// field value, 1 extra token per name field, and 3 tokens of batch overhead.
// Cost estimates are only comparable across implementations if these
// constants match.
package tokens
