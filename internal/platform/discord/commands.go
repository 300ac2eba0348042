// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package discord

import (
	"fmt"
	"log"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/jeranaias/gpthelper/internal/model"
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

func commandDefs() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "setup",
			Description: "Set up the bot.",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The user to set up the bot for.",
				Required:    true,
			}},
		},
		{
			Name:        "settings",
			Description: "Modify the settings of the chat",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "model",
					Description: "The model to use for the chat",
				},
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "temperature",
					Description: "Controls randomness. Higher values mean more randomness. Between 0 and 2",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "max_tokens",
					Description: "How many tokens the model should output at max for each message.",
				},
			},
		},
		{
			Name:        "billing",
			Description: "Get the billing information.",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The user to get the billing information for.",
			}},
		},
		{
			Name:        "models",
			Description: "Show all the models available",
		},
		{
			Name:        "delete",
			Description: "Deletes a user's data and channel from the bot",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The user to delete the data for.",
				Required:    true,
			}},
		},
	}
}

// registerCommands registers the slash command surface on the configured
// guild.
func (b *Bot) registerCommands() error {
	appID := b.dg.State.User.ID
	for _, cmd := range commandDefs() {
		if _, err := b.dg.ApplicationCommandCreate(appID, b.cfg.GuildID, cmd); err != nil {
			return fmt.Errorf("register command %s: %w", cmd.Name, err)
		}
	}
	return nil
}

// =============================================================================
// DISPATCH
// =============================================================================

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	var err error
	switch i.ApplicationCommandData().Name {
	case "setup":
		err = b.cmdSetup(s, i)
	case "settings":
		err = b.cmdSettings(s, i)
	case "billing":
		err = b.cmdBilling(s, i)
	case "models":
		err = b.cmdModels(s, i)
	case "delete":
		err = b.cmdDelete(s, i)
	default:
		return
	}
	if err != nil {
		log.Printf("discord: command %s: %v", i.ApplicationCommandData().Name, err)
	}
}

// respond sends the interaction response. Every command replies ephemerally
// except where noted.
func respond(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func respondText(s *discordgo.Session, i *discordgo.InteractionCreate, text string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: text},
	})
}

// invoker returns the calling user, whether the command came from a guild
// or a DM.
func invoker(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// isAdmin reports whether the calling member has administrator permission.
func (b *Bot) isAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	if inv := invoker(i); inv != nil && inv.ID == b.cfg.OwnerID {
		return true
	}
	return i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// optionMap indexes command options by name.
func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

// =============================================================================
// SETUP
// =============================================================================

func (b *Bot) cmdSetup(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !b.isAdmin(i) {
		return respond(s, i, noPermsEmbed(), true)
	}

	opts := optionMap(i)
	target := opts["user"].UserValue(s)
	if target == nil {
		return respond(s, i, errorEmbed("Member null", "Message sender as member is null"), true)
	}

	if b.cfg.CategoryID == "" {
		return respond(s, i, errorEmbed("Category null", "Category is null or not a category"), true)
	}

	denyView := int64(discordgo.PermissionViewChannel | discordgo.PermissionSendMessages)
	ch, err := s.GuildChannelCreateComplex(b.cfg.GuildID, discordgo.GuildChannelCreateData{
		Name:             "GPT Chat - " + target.Username,
		Type:             discordgo.ChannelTypeGuildText,
		Topic:            fmt.Sprintf("This channel is for %s to ask questions to the bot.", target.Username),
		ParentID:         b.cfg.CategoryID,
		RateLimitPerUser: 5,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				// @everyone shares its ID with the guild.
				ID:   b.cfg.GuildID,
				Type: discordgo.PermissionOverwriteTypeRole,
				Deny: denyView,
			},
			{
				ID:    target.ID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: denyView,
			},
		},
	})
	if err != nil {
		return respond(s, i, errorEmbed("Channel null", "Channel is null"), true)
	}

	if err := b.store.AddUser(target.ID, ch.ID); err != nil {
		return respond(s, i, errorEmbed("User exists", "This user is already set up."), true)
	}

	if err := respondText(s, i, fmt.Sprintf("Channel created: <#%s>", ch.ID)); err != nil {
		return err
	}

	welcome, err := s.ChannelMessageSendEmbed(ch.ID, noticeEmbed("Welcome",
		"Welcome to GPTHelper. To use the bot, simply say \"start chat\" and the bot will "+
			"create a thread within the channel. To archive the thread, simply say \"close chat\". "+
			"The entire thread history is sent each time you ask a question. Keep in mind this "+
			"will increase the cost of each time you use the bot.\nIf you would like to start "+
			"fresh, just say the \"restart chat\"."))
	if err != nil {
		return err
	}
	settings, err := s.ChannelMessageSendEmbed(ch.ID, noticeEmbed("Settings",
		"To modify the bot's settings, use the /settings command. You can modify the "+
			"temperature, max tokens, and model. The bot will remember your settings for future use."))
	if err != nil {
		return err
	}

	if err := s.ChannelMessagePin(ch.ID, welcome.ID); err != nil {
		return err
	}
	return s.ChannelMessagePin(ch.ID, settings.ID)
}

// =============================================================================
// SETTINGS
// =============================================================================

func (b *Bot) cmdSettings(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	// Defaults when an option is omitted.
	modelName := model.DefaultModel.Name
	temperature := 1.0
	maxTokens := 4096

	opts := optionMap(i)
	if opt, ok := opts["model"]; ok {
		modelName = opt.StringValue()
	}
	if opt, ok := opts["temperature"]; ok {
		temperature = opt.FloatValue()
	}
	if opt, ok := opts["max_tokens"]; ok {
		maxTokens = int(opt.IntValue())
	}

	channelID, err := b.homeChannelID(s, i.ChannelID)
	if err != nil {
		return err
	}
	user, ok := b.store.Find(invoker(i).ID, channelID)
	if !ok {
		return respond(s, i, errorEmbed("Unavailable",
			"You can only use this command in a chat thread or a chat channel."), true)
	}
	if !user.CurrentlyChatting {
		return respond(s, i, errorEmbed("Unavailable", "You don't have an active chat thread."), true)
	}

	if _, ok := model.Lookup(modelName); !ok {
		return respond(s, i, errorEmbed("Invalid model", "The model you provided is invalid."), true)
	}
	if temperature < 0 || temperature > 2 {
		return respond(s, i, errorEmbed("Invalid temperature", "The temperature you provided is invalid."), true)
	}
	if maxTokens < 1 {
		return respond(s, i, errorEmbed("Invalid max tokens", "The max tokens you provided is invalid."), true)
	}

	err = b.store.UpdateUser(user.ID, func(u *model.User) {
		u.Channel.CurrentModel = modelName
		u.Channel.CurrentTemperature = float32(temperature)
		u.Channel.CurrentMaxTokens = maxTokens
	})
	if err != nil {
		return err
	}

	embed := NewEmbedBuilder().
		Title("Settings updated").
		Field("Model", modelName, false).
		Field("Temperature", strconv.FormatFloat(temperature, 'g', -1, 64), false).
		Field("Max Tokens", strconv.Itoa(maxTokens), false).
		Black().
		Build()
	return respond(s, i, embed, true)
}

// homeChannelID maps the interaction channel to the user's home channel:
// inside a thread the parent counts.
func (b *Bot) homeChannelID(s *discordgo.Session, channelID string) (string, error) {
	ch, err := b.channelInfo(s, channelID)
	if err != nil {
		return "", err
	}
	if ch.IsThread() {
		return ch.ParentID, nil
	}
	return ch.ID, nil
}

// =============================================================================
// BILLING
// =============================================================================

func (b *Bot) cmdBilling(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	target := invoker(i)
	opts := optionMap(i)
	if opt, ok := opts["user"]; ok {
		// Only admins may read another user's billing.
		if !b.isAdmin(i) {
			return respond(s, i, noPermsEmbed(), true)
		}
		target = opt.UserValue(s)
	}

	billing, ok := b.store.BillingSummary(target.ID)
	if !ok {
		embed := NewEmbedBuilder().
			Title("No Information").
			Description("No billing information available for this user.").
			Color(colorRed).
			Build()
		return respond(s, i, embed, true)
	}

	embed := NewEmbedBuilder().
		Title("Billing Information").
		Description("Below is the breakdown for the user's usage of the bot").
		Field("Username", target.Username, true).
		Field("GPT Requests", strconv.Itoa(billing.Count), true).
		Field("Input Cost", fmt.Sprintf("$%.5f", billing.InputCost), true).
		Field("Output Cost", fmt.Sprintf("$%.5f", billing.OutputCost), true).
		Field("Total Cost", fmt.Sprintf("$%.5f", billing.TotalCost), true).
		Black().
		Build()
	return respond(s, i, embed, true)
}

// =============================================================================
// MODELS
// =============================================================================

func (b *Bot) cmdModels(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	eb := NewEmbedBuilder().
		Title("Models Supported").
		Description("Below are the models this bot currently supports. When wanting to " +
			"specify a specific model, use the exact model name used below.").
		Black()
	for _, info := range model.Catalogue {
		eb.Field(info.Name,
			fmt.Sprintf("Input: $%g\nOutput: $%g", info.InputCost, info.OutputCost), true)
	}
	return respond(s, i, eb.Build(), true)
}

// =============================================================================
// DELETE
// =============================================================================

func (b *Bot) cmdDelete(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !b.isAdmin(i) {
		return respond(s, i, noPermsEmbed(), true)
	}

	opts := optionMap(i)
	target := opts["user"].UserValue(s)
	user, ok := b.store.User(target.ID)
	if !ok {
		return respond(s, i, errorEmbed("User not found",
			"The user specified was not found. Please try again."), true)
	}

	if err := b.store.RemoveUser(user.ID); err != nil {
		return err
	}
	if _, err := s.ChannelDelete(user.Channel.ID); err != nil {
		log.Printf("discord: delete channel %s: %v", user.Channel.ID, err)
	}

	embed := NewEmbedBuilder().
		Title("Successfully Deleted User").
		Description(fmt.Sprintf("Successfully deleted %s's data and channel.", target.Username)).
		Black().
		Build()
	return respond(s, i, embed, false)
}

// =============================================================================
// SYNC
// =============================================================================

// handleSync re-registers the slash commands. Owner-only text command.
func (b *Bot) handleSync(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID != b.cfg.OwnerID {
		return
	}

	if err := b.registerCommands(); err != nil {
		log.Printf("discord: sync commands: %v", err)
		if _, err := s.ChannelMessageSendEmbed(m.ChannelID,
			errorEmbed("Sync failed", "Could not register the commands.")); err != nil {
			log.Printf("discord: sync reply: %v", err)
		}
		return
	}

	defs := commandDefs()
	eb := NewEmbedBuilder().
		Title("Synced Commands").
		Description(fmt.Sprintf("Synced %d commands. The commands are below.", len(defs))).
		Black()
	for _, cmd := range defs {
		eb.Field(cmd.Name, cmd.Description, true)
	}
	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, eb.Build()); err != nil {
		log.Printf("discord: sync reply: %v", err)
	}
}
