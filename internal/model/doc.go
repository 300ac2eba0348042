// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for users, conversations and
// completion requests.
//
// This package defines the core domain types used throughout the bot
// for representing chat messages, assembled conversations, rendered
// prompts, the model catalogue, and per-user usage records.
//
// # Key Types
//
//   - User: A registered user with their dedicated channel and chat state
//   - Channel: Per-user completion settings (model, temperature, max tokens)
//   - Message: Single conversation message with author and optional text
//   - Conversation: Ordered message sequence, oldest first
//   - Prompt: System instructions + examples + conversation, rendered for the API
//   - Info: Model catalogue entry with per-1K token pricing
//   - Request: Immutable usage record for one completion attempt
package model
