// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// USER AND CHANNEL
// =============================================================================

// Channel holds the per-user completion settings bound to the user's
// dedicated home channel. Settings are validated at the settings boundary:
// CurrentTemperature stays within [0, 2] and CurrentMaxTokens is positive.
type Channel struct {
	ID                 string  `json:"id"`
	CurrentModel       string  `json:"current_model"`
	CurrentMaxTokens   int     `json:"current_max_tokens"`
	CurrentTemperature float32 `json:"current_temperature"`
}

// NewChannel creates channel settings with the original defaults.
func NewChannel(id string) Channel {
	return Channel{
		ID:                 id,
		CurrentModel:       DefaultModel.Name,
		CurrentMaxTokens:   4096,
		CurrentTemperature: 1.0,
	}
}

// User is a registered user of the bot. Chats counts every chat the user has
// ever started; CurrentlyChatting tracks whether a session is active.
// A user owns exactly one Channel.
type User struct {
	ID                string  `json:"id"`
	Chats             int     `json:"chats"`
	CurrentlyChatting bool    `json:"currently_chatting"`
	Channel           Channel `json:"channel"`
}

// =============================================================================
// USAGE REQUEST
// =============================================================================

// Request records one completion attempt against a user. Requests are
// immutable once created; failed calls still produce one with the estimated
// prompt tokens and zero output tokens.
type Request struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}
