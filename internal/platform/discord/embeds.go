// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// Embed colors. Informational embeds are black, errors red.
const (
	colorBlack = 0x000000
	colorRed   = 0xED4245
	colorBlue  = 0x3498DB
)

const (
	embedAuthor  = "GPTHelper"
	embedFooter  = "GPTHelper"
	embedIconURL = "https://darkmg1.dev/logos/Dark%20Services%20Main%20Solid.png"
)

// =============================================================================
// EMBED BUILDER
// =============================================================================

// EmbedBuilder assembles a Discord embed fluently.
type EmbedBuilder struct {
	embed *discordgo.MessageEmbed
}

// NewEmbedBuilder creates a builder with the bot's base identity: author,
// footer, icon, timestamp and the default blue color.
func NewEmbedBuilder() *EmbedBuilder {
	return &EmbedBuilder{embed: &discordgo.MessageEmbed{
		Color:     colorBlue,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Author:    &discordgo.MessageEmbedAuthor{Name: embedAuthor},
		Footer: &discordgo.MessageEmbedFooter{
			Text:    embedFooter,
			IconURL: embedIconURL,
		},
	}}
}

// Title sets the embed title.
func (b *EmbedBuilder) Title(title string) *EmbedBuilder {
	b.embed.Title = title
	return b
}

// Description sets the embed description.
func (b *EmbedBuilder) Description(description string) *EmbedBuilder {
	b.embed.Description = description
	return b
}

// Color sets the embed color.
func (b *EmbedBuilder) Color(color int) *EmbedBuilder {
	b.embed.Color = color
	return b
}

// Black sets the informational black color.
func (b *EmbedBuilder) Black() *EmbedBuilder {
	return b.Color(colorBlack)
}

// Field appends a field.
func (b *EmbedBuilder) Field(name, value string, inline bool) *EmbedBuilder {
	b.embed.Fields = append(b.embed.Fields, &discordgo.MessageEmbedField{
		Name:   name,
		Value:  value,
		Inline: inline,
	})
	return b
}

// Build returns the assembled embed.
func (b *EmbedBuilder) Build() *discordgo.MessageEmbed {
	return b.embed
}

// =============================================================================
// STOCK EMBEDS
// =============================================================================

// errorEmbed is the stock failure presentation: an "Unavailable" shell with
// the concrete reason as a field.
func errorEmbed(fieldName, fieldValue string) *discordgo.MessageEmbed {
	return NewEmbedBuilder().
		Title("Unavailable").
		Description("Error has occurred. Please see reason below.").
		Field(fieldName, fieldValue, false).
		Build()
}

// noPermsEmbed is shown when a caller lacks the required permission.
func noPermsEmbed() *discordgo.MessageEmbed {
	return NewEmbedBuilder().
		Title("No Permission").
		Description("You do not have permission to use this command.").
		Color(colorRed).
		Build()
}

// noticeEmbed renders a titled informational notice.
func noticeEmbed(title, description string) *discordgo.MessageEmbed {
	return NewEmbedBuilder().
		Title(title).
		Description(description).
		Black().
		Build()
}
