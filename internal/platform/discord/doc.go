// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package discord implements the platform contract on top of discordgo.
//
// It wraps Discord channels and threads in the platform.Channel and
// platform.Thread interfaces, fans inbound messages into the session
// machine and the completion pipeline, and registers the slash command
// surface (setup, settings, billing, models, delete) plus the owner-only
// sync text command.
package discord
