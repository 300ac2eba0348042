// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the chat-session lifecycle state machine.
//
// Per (user, home channel) pair a session is either idle or active on one
// thread. The reserved phrases "start chat", "close chat", "stop chat" and
// "restart chat" drive transitions; a message whose entire content is one of
// them is always consumed as a command and never reaches the model.
//
// Lifecycle commands inside a thread only act when the thread passes the
// ownership guard: created by the bot, not archived or locked, and named
// with the reserved "GPT Chat - " prefix. Messages failing the guard are
// ignored without a reply; the machine must not act on threads it does not
// own.
//
// A per-user mutex serializes each user's turns, making the
// at-most-one-active-session invariant structural.
package session
