// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package platform defines the chat-platform contract the core depends on.
//
// The core never imports a platform SDK directly; it sees channels, threads
// and message events through these interfaces. The Discord implementation
// lives in platform/discord.
package platform

import "context"

// =============================================================================
// INBOUND EVENTS
// =============================================================================

// Attachment describes a file attached to an inbound message.
type Attachment struct {
	Filename string
	URL      string
	Size     int
}

// MessageEvent is one inbound platform message, already stripped down to
// what the core needs.
type MessageEvent struct {
	ID          string
	AuthorID    string
	AuthorName  string
	AuthorIsBot bool
	ChannelID   string
	Content     string
	Attachments []Attachment
}

// HistoryEntry is one entry of a thread's history. ThreadStarter is set on
// the synthetic record a platform inserts when a thread is spawned from a
// channel message; it embeds the original message.
type HistoryEntry struct {
	AuthorName    string
	Content       string
	ThreadStarter *HistoryEntry
}

// =============================================================================
// LIVE HANDLES
// =============================================================================

// Notice is a titled user-visible message. The adapter decides presentation
// (Discord renders these as embeds).
type Notice struct {
	Title       string
	Description string
}

// Channel is a live handle on a user's home channel.
type Channel interface {
	ID() string
	Send(ctx context.Context, text string) error
	SendError(ctx context.Context, n Notice) error
	// CreateThread spawns a new thread under this channel.
	CreateThread(ctx context.Context, name string) (Thread, error)
}

// Thread is a live handle on a chat thread.
type Thread interface {
	ID() string
	Name() string
	ParentID() string
	OwnerID() string
	Archived() bool
	Locked() bool

	Send(ctx context.Context, text string) error
	SendError(ctx context.Context, n Notice) error
	SendNotice(ctx context.Context, n Notice) error

	// History returns up to limit entries, most-recent-first.
	History(ctx context.Context, limit int) ([]HistoryEntry, error)
	// MessageCount counts every message in the thread, unbounded.
	MessageCount(ctx context.Context) (int, error)

	ArchiveAndLock(ctx context.Context) error
	AddUser(ctx context.Context, userID string) error
	// Typing signals the platform that a reply is being generated.
	Typing(ctx context.Context)
}
