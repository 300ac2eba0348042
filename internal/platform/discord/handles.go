// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/jeranaias/gpthelper/internal/platform"
)

// historyPageSize is the Discord API ceiling per history request.
const historyPageSize = 100

// =============================================================================
// CHANNEL HANDLE
// =============================================================================

// channelHandle adapts a Discord text channel to platform.Channel.
type channelHandle struct {
	s  *discordgo.Session
	id string
}

// Channel wraps a Discord channel ID in a platform handle.
func Channel(s *discordgo.Session, id string) platform.Channel {
	return &channelHandle{s: s, id: id}
}

func (c *channelHandle) ID() string { return c.id }

func (c *channelHandle) Send(ctx context.Context, text string) error {
	_, err := c.s.ChannelMessageSend(c.id, text, discordgo.WithContext(ctx))
	return err
}

func (c *channelHandle) SendError(ctx context.Context, n platform.Notice) error {
	_, err := c.s.ChannelMessageSendEmbed(c.id, errorEmbed(n.Title, n.Description), discordgo.WithContext(ctx))
	return err
}

func (c *channelHandle) CreateThread(ctx context.Context, name string) (platform.Thread, error) {
	ch, err := c.s.ThreadStartComplex(c.id, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: 1440,
		Type:                discordgo.ChannelTypeGuildPublicThread,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("create thread %q: %w", name, err)
	}
	return Thread(c.s, ch), nil
}

// =============================================================================
// THREAD HANDLE
// =============================================================================

// threadHandle adapts a Discord thread to platform.Thread. The metadata
// fields are a snapshot from resolution time.
type threadHandle struct {
	s        *discordgo.Session
	id       string
	name     string
	parentID string
	ownerID  string
	archived bool
	locked   bool
}

// Thread wraps a resolved Discord thread channel in a platform handle.
func Thread(s *discordgo.Session, ch *discordgo.Channel) platform.Thread {
	t := &threadHandle{
		s:        s,
		id:       ch.ID,
		name:     ch.Name,
		parentID: ch.ParentID,
		ownerID:  ch.OwnerID,
	}
	if ch.ThreadMetadata != nil {
		t.archived = ch.ThreadMetadata.Archived
		t.locked = ch.ThreadMetadata.Locked
	}
	return t
}

func (t *threadHandle) ID() string       { return t.id }
func (t *threadHandle) Name() string     { return t.name }
func (t *threadHandle) ParentID() string { return t.parentID }
func (t *threadHandle) OwnerID() string  { return t.ownerID }
func (t *threadHandle) Archived() bool   { return t.archived }
func (t *threadHandle) Locked() bool     { return t.locked }

func (t *threadHandle) Send(ctx context.Context, text string) error {
	_, err := t.s.ChannelMessageSend(t.id, text, discordgo.WithContext(ctx))
	return err
}

func (t *threadHandle) SendError(ctx context.Context, n platform.Notice) error {
	_, err := t.s.ChannelMessageSendEmbed(t.id, errorEmbed(n.Title, n.Description), discordgo.WithContext(ctx))
	return err
}

func (t *threadHandle) SendNotice(ctx context.Context, n platform.Notice) error {
	_, err := t.s.ChannelMessageSendEmbed(t.id, noticeEmbed(n.Title, n.Description), discordgo.WithContext(ctx))
	return err
}

// History returns up to limit entries, most-recent-first, paging through
// the Discord API 100 messages at a time.
func (t *threadHandle) History(ctx context.Context, limit int) ([]platform.HistoryEntry, error) {
	entries := make([]platform.HistoryEntry, 0, limit)
	before := ""
	for len(entries) < limit {
		pageSize := limit - len(entries)
		if pageSize > historyPageSize {
			pageSize = historyPageSize
		}
		msgs, err := t.s.ChannelMessages(t.id, pageSize, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("thread history %s: %w", t.id, err)
		}
		if len(msgs) == 0 {
			break
		}
		entries = append(entries, mapMessages(msgs)...)
		before = msgs[len(msgs)-1].ID
		if len(msgs) < pageSize {
			break
		}
	}
	return entries, nil
}

// MessageCount counts every message in the thread, unbounded.
func (t *threadHandle) MessageCount(ctx context.Context) (int, error) {
	count := 0
	before := ""
	for {
		msgs, err := t.s.ChannelMessages(t.id, historyPageSize, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return 0, fmt.Errorf("thread message count %s: %w", t.id, err)
		}
		count += len(msgs)
		if len(msgs) < historyPageSize {
			return count, nil
		}
		before = msgs[len(msgs)-1].ID
	}
}

func (t *threadHandle) ArchiveAndLock(ctx context.Context) error {
	archived, locked := true, true
	_, err := t.s.ChannelEditComplex(t.id, &discordgo.ChannelEdit{
		Archived: &archived,
		Locked:   &locked,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("archive thread %s: %w", t.id, err)
	}
	t.archived = true
	t.locked = true
	return nil
}

func (t *threadHandle) AddUser(ctx context.Context, userID string) error {
	return t.s.ThreadMemberAdd(t.id, userID, discordgo.WithContext(ctx))
}

func (t *threadHandle) Typing(ctx context.Context) {
	// Best effort; a failed typing indicator never blocks a reply.
	_ = t.s.ChannelTyping(t.id, discordgo.WithContext(ctx))
}

// =============================================================================
// MESSAGE MAPPING
// =============================================================================

// mapMessages converts raw Discord messages into history entries. The
// synthetic thread-starter message keeps the original channel message as a
// nested entry so assembly can unwrap it.
func mapMessages(msgs []*discordgo.Message) []platform.HistoryEntry {
	entries := make([]platform.HistoryEntry, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, mapMessage(msg))
	}
	return entries
}

func mapMessage(msg *discordgo.Message) platform.HistoryEntry {
	entry := platform.HistoryEntry{Content: msg.Content}
	if msg.Author != nil {
		entry.AuthorName = msg.Author.Username
	}
	if msg.Type == discordgo.MessageTypeThreadStarterMessage && msg.ReferencedMessage != nil {
		starter := mapMessage(msg.ReferencedMessage)
		entry.ThreadStarter = &starter
	}
	return entry
}

// mapEvent converts an inbound message-create event into the platform shape.
func mapEvent(msg *discordgo.Message) platform.MessageEvent {
	ev := platform.MessageEvent{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		Content:   msg.Content,
	}
	if msg.Author != nil {
		ev.AuthorID = msg.Author.ID
		ev.AuthorName = msg.Author.Username
		ev.AuthorIsBot = msg.Author.Bot
	}
	for _, att := range msg.Attachments {
		ev.Attachments = append(ev.Attachments, platform.Attachment{
			Filename: att.Filename,
			URL:      att.URL,
			Size:     att.Size,
		})
	}
	return ev
}
