// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jeranaias/gpthelper/internal/model"
	"github.com/jeranaias/gpthelper/internal/platform"
	"github.com/jeranaias/gpthelper/internal/store"
)

// ThreadPrefix is the reserved naming convention for bot-owned chat threads.
// The trailing space is part of the prefix and is checked everywhere.
const ThreadPrefix = "GPT Chat - "

// Reserved lifecycle phrases. Matching is exact and case-sensitive.
const (
	KeywordStart   = "start chat"
	KeywordClose   = "close chat"
	KeywordStop    = "stop chat"
	KeywordRestart = "restart chat"
)

// IsLifecycleKeyword reports whether content is exactly one of the reserved
// phrases.
func IsLifecycleKeyword(content string) bool {
	switch content {
	case KeywordStart, KeywordClose, KeywordStop, KeywordRestart:
		return true
	}
	return false
}

// =============================================================================
// MACHINE
// =============================================================================

// Event is one inbound message after the adapter resolved its location.
// Thread is nil when the message was sent directly in the home channel.
type Event struct {
	Msg     platform.MessageEvent
	Channel platform.Channel
	Thread  platform.Thread
}

// Machine processes lifecycle commands against the user store.
type Machine struct {
	store     *store.Store
	botUserID string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMachine creates a state machine bound to the store. botUserID is the
// platform identity of the bot, used for the thread ownership guard.
func NewMachine(st *store.Store, botUserID string) *Machine {
	return &Machine{
		store:     st,
		botUserID: botUserID,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Do runs fn while holding the user's lock. Every turn for a user (lifecycle
// or completion) runs through here, so session state and ledger mutations
// for one user never interleave.
func (m *Machine) Do(userID string, fn func() error) error {
	m.mu.Lock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn()
}

// GuardThread reports whether a thread is one the machine owns: created by
// the bot, live, and carrying the reserved name prefix.
func (m *Machine) GuardThread(t platform.Thread) bool {
	return t.OwnerID() == m.botUserID &&
		!t.Archived() &&
		!t.Locked() &&
		strings.HasPrefix(t.Name(), ThreadPrefix)
}

// Handle processes one event. It returns true when the event was consumed
// (a lifecycle command, a guard rejection, or plain home-channel chatter);
// false means the message is conversational input for the completion path.
//
// The caller must have verified the author is a registered, non-bot user
// whose home channel matches ev.Channel.
func (m *Machine) Handle(ctx context.Context, ev Event) (bool, error) {
	user, ok := m.store.Find(ev.Msg.AuthorID, ev.Channel.ID())
	if !ok {
		// Not one of ours.
		return true, nil
	}

	if ev.Msg.Content == KeywordStart {
		return true, m.startChat(ctx, ev, user)
	}

	if ev.Thread == nil {
		// Anything else in the home channel is ignored.
		return true, nil
	}

	if !m.GuardThread(ev.Thread) {
		// Wrong thread: no transition, no reply.
		return true, nil
	}

	switch ev.Msg.Content {
	case KeywordClose, KeywordStop:
		return true, m.closeChat(ctx, ev)
	case KeywordRestart:
		return true, m.restartChat(ctx, ev, user)
	}

	// Conversational content inside a valid thread.
	return false, nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// startChat creates a new thread and activates the session. Starting while
// already active is rejected without touching the chat counter.
func (m *Machine) startChat(ctx context.Context, ev Event, user model.User) error {
	if user.CurrentlyChatting {
		return ev.Channel.SendError(ctx, platform.Notice{
			Title:       "You have already started a chat",
			Description: "You can only start one chat at a time",
		})
	}

	var chats int
	if err := m.store.UpdateUser(user.ID, func(u *model.User) {
		u.CurrentlyChatting = true
		u.Chats++
		chats = u.Chats
	}); err != nil {
		return err
	}

	thread, err := ev.Channel.CreateThread(ctx, threadName(ev.Msg.AuthorName, chats))
	if err != nil {
		return fmt.Errorf("create chat thread: %w", err)
	}
	if err := thread.AddUser(ctx, user.ID); err != nil {
		return fmt.Errorf("add user to thread: %w", err)
	}

	return ev.Channel.Send(ctx,
		"Created chat thread. You can now chat with the bot. Type `close chat` to close the chat.")
}

// closeChat deactivates the session and archives the thread.
func (m *Machine) closeChat(ctx context.Context, ev Event) error {
	if err := m.store.UpdateUser(ev.Msg.AuthorID, func(u *model.User) {
		u.CurrentlyChatting = false
	}); err != nil {
		return err
	}

	if err := ev.Thread.SendNotice(ctx, platform.Notice{
		Title:       "Thread Closed",
		Description: "The thread has been closed by the user.",
	}); err != nil {
		return err
	}
	return ev.Thread.ArchiveAndLock(ctx)
}

// restartChat rotates the session onto a fresh thread: the old one is
// archived and locked, the chat counter advances, and the session stays
// active on the new thread.
func (m *Machine) restartChat(ctx context.Context, ev Event, user model.User) error {
	if err := ev.Thread.ArchiveAndLock(ctx); err != nil {
		return fmt.Errorf("archive old thread: %w", err)
	}

	var chats int
	if err := m.store.UpdateUser(user.ID, func(u *model.User) {
		u.Chats++
		chats = u.Chats
	}); err != nil {
		return err
	}

	thread, err := ev.Channel.CreateThread(ctx, threadName(ev.Msg.AuthorName, chats))
	if err != nil {
		return fmt.Errorf("create replacement thread: %w", err)
	}
	return thread.AddUser(ctx, user.ID)
}

// threadName builds the reserved thread name for a user's nth chat.
func threadName(username string, chats int) string {
	return fmt.Sprintf("%s%s - %d", ThreadPrefix, username, chats)
}
