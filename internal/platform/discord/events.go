// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package discord

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/jeranaias/gpthelper/internal/completion"
	"github.com/jeranaias/gpthelper/internal/config"
	"github.com/jeranaias/gpthelper/internal/convo"
	"github.com/jeranaias/gpthelper/internal/llm"
	"github.com/jeranaias/gpthelper/internal/platform"
	"github.com/jeranaias/gpthelper/internal/session"
	"github.com/jeranaias/gpthelper/internal/store"
	"github.com/jeranaias/gpthelper/internal/tokens"
)

// presenceText is the activity shown under the bot's name.
const presenceText = "OpenAI Completion"

// delegatedFileAnnouncement is sent before a non-text attachment is handed
// to the assistants path.
const delegatedFileAnnouncement = "Sending file through Assistants API Beta. This may take a while."

// =============================================================================
// BOT
// =============================================================================

// Bot wires the Discord gateway into the chat core.
type Bot struct {
	dg    *discordgo.Session
	cfg   *config.Config
	store *store.Store

	assembler *convo.Assembler
	orch      *completion.Orchestrator
	files     *completion.FileRunner

	mu      sync.RWMutex
	machine *session.Machine
}

// New builds the bot on an unopened discordgo session.
func New(dg *discordgo.Session, cfg *config.Config, st *store.Store, client *llm.Client) *Bot {
	est := tokens.NewEstimator()
	fetcher := NewHTTPFetcher(cfg.Timeout())

	b := &Bot{
		dg:        dg,
		cfg:       cfg,
		store:     st,
		assembler: convo.NewAssembler(fetcher),
		orch: completion.NewOrchestrator(client, est, st, completion.Config{
			BotName:      cfg.BotName,
			Instructions: cfg.Instructions,
			Examples:     cfg.ExampleConversations(),
		}),
		files: completion.NewFileRunner(client, fetcher, est, st),
	}

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onMessageCreate)
	dg.AddHandler(b.onInteraction)
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	return b
}

// Start opens the gateway connection and registers the command surface.
func (b *Bot) Start() error {
	if err := b.dg.Open(); err != nil {
		return err
	}
	return b.registerCommands()
}

// Close shuts down the gateway connection.
func (b *Bot) Close() error {
	return b.dg.Close()
}

func (b *Bot) sessionMachine() *session.Machine {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.machine
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.mu.Lock()
	b.machine = session.NewMachine(b.store, r.User.ID)
	b.mu.Unlock()

	if err := s.UpdateGameStatus(0, presenceText); err != nil {
		log.Printf("discord: set presence: %v", err)
	}
	log.Printf("discord: logged in as %s", r.User.Username)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}
	if m.Content == "!sync" {
		b.handleSync(s, m)
		return
	}
	machine := b.sessionMachine()
	if machine == nil {
		return
	}

	ev, err := b.resolveEvent(s, m.Message)
	if err != nil {
		log.Printf("discord: resolve message %s: %v", m.ID, err)
		return
	}

	ctx := context.Background()
	err = machine.Do(m.Author.ID, func() error {
		handled, err := machine.Handle(ctx, ev)
		if err != nil || handled {
			return err
		}
		return b.completionTurn(ctx, machine, ev)
	})
	if err != nil {
		log.Printf("discord: handle message %s: %v", m.ID, err)
	}
}

// resolveEvent locates the message: thread messages carry both the thread
// handle and the parent channel handle, channel messages just the channel.
func (b *Bot) resolveEvent(s *discordgo.Session, msg *discordgo.Message) (session.Event, error) {
	ch, err := b.channelInfo(s, msg.ChannelID)
	if err != nil {
		return session.Event{}, err
	}

	ev := session.Event{Msg: mapEvent(msg)}
	if ch.IsThread() {
		ev.Thread = Thread(s, ch)
		ev.Channel = Channel(s, ch.ParentID)
	} else {
		ev.Channel = Channel(s, ch.ID)
	}
	return ev, nil
}

// channelInfo reads a channel from the gateway state, falling back to the
// REST API on a cache miss.
func (b *Bot) channelInfo(s *discordgo.Session, channelID string) (*discordgo.Channel, error) {
	if ch, err := s.State.Channel(channelID); err == nil {
		return ch, nil
	}
	return s.Channel(channelID)
}

// =============================================================================
// COMPLETION TURN
// =============================================================================

// completionTurn runs one conversational exchange inside an active thread.
// Holds the caller's per-user lock.
func (b *Bot) completionTurn(ctx context.Context, machine *session.Machine, ev session.Event) error {
	if ev.Thread == nil || !machine.GuardThread(ev.Thread) {
		return nil
	}
	user, ok := b.store.Find(ev.Msg.AuthorID, ev.Channel.ID())
	if !ok {
		return nil
	}

	result, err := b.assembler.Assemble(ctx, ev.Thread, ev.Msg)
	if err != nil {
		if errors.Is(err, convo.ErrHistoryOverflow) {
			return ev.Thread.SendError(ctx, platform.Notice{
				Title:       "Too many messages",
				Description: "You have sent too many messages in this thread. Please restart the chat.",
			})
		}
		return err
	}

	for _, warning := range result.Warnings {
		if err := ev.Thread.Send(ctx, warning); err != nil {
			return err
		}
	}

	for _, att := range result.DelegatedFiles {
		if err := ev.Thread.Send(ctx, delegatedFileAnnouncement); err != nil {
			return err
		}
		reply, err := b.files.Run(ctx, user, att, ev.Msg.Content)
		if err != nil {
			log.Printf("discord: delegated file %s: %v", att.Filename, err)
			if err := ev.Thread.SendError(ctx, platform.Notice{
				Title:       "Error",
				Description: "Could not process the attached file. Please try again.",
			}); err != nil {
				return err
			}
			continue
		}
		if err := b.files.DeliverFile(ctx, ev.Thread, reply); err != nil {
			return err
		}
	}

	ev.Thread.Typing(ctx)
	out := b.orch.GenerateReply(ctx, result.Conversation, user.Channel)
	return b.orch.Deliver(ctx, ev.Thread, user, out)
}
