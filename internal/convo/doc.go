// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package convo assembles prompt-ready conversations from thread history.
//
// The platform delivers history most-recent-first; assembly maps entries to
// domain messages, unwraps the synthetic thread-start record, drops entries
// with no extractable text, pulls in .txt attachments, and reverses the
// whole sequence exactly once so the result is always chronological.
//
// Threads past the 200-message cap are rejected outright rather than
// truncated: the cap forces a session restart instead of silently dropping
// context.
package convo
