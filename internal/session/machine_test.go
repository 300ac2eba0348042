// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gpthelper/internal/model"
	"github.com/jeranaias/gpthelper/internal/platform"
	"github.com/jeranaias/gpthelper/internal/store"
)

const botID = "bot-1"

// =============================================================================
// PLATFORM FAKES
// =============================================================================

type fakeThread struct {
	id       string
	name     string
	parent   string
	owner    string
	archived bool
	locked   bool

	sent    []string
	notices []platform.Notice
	errs    []platform.Notice
	members []string
}

func (t *fakeThread) ID() string       { return t.id }
func (t *fakeThread) Name() string     { return t.name }
func (t *fakeThread) ParentID() string { return t.parent }
func (t *fakeThread) OwnerID() string  { return t.owner }
func (t *fakeThread) Archived() bool   { return t.archived }
func (t *fakeThread) Locked() bool     { return t.locked }

func (t *fakeThread) Send(_ context.Context, text string) error {
	t.sent = append(t.sent, text)
	return nil
}

func (t *fakeThread) SendError(_ context.Context, n platform.Notice) error {
	t.errs = append(t.errs, n)
	return nil
}

func (t *fakeThread) SendNotice(_ context.Context, n platform.Notice) error {
	t.notices = append(t.notices, n)
	return nil
}

func (t *fakeThread) History(context.Context, int) ([]platform.HistoryEntry, error) {
	return nil, nil
}

func (t *fakeThread) MessageCount(context.Context) (int, error) { return len(t.sent), nil }

func (t *fakeThread) ArchiveAndLock(context.Context) error {
	t.archived = true
	t.locked = true
	return nil
}

func (t *fakeThread) AddUser(_ context.Context, userID string) error {
	t.members = append(t.members, userID)
	return nil
}

func (t *fakeThread) Typing(context.Context) {}

type fakeChannel struct {
	id      string
	sent    []string
	errs    []platform.Notice
	threads []*fakeThread
}

func (c *fakeChannel) ID() string { return c.id }

func (c *fakeChannel) Send(_ context.Context, text string) error {
	c.sent = append(c.sent, text)
	return nil
}

func (c *fakeChannel) SendError(_ context.Context, n platform.Notice) error {
	c.errs = append(c.errs, n)
	return nil
}

func (c *fakeChannel) CreateThread(_ context.Context, name string) (platform.Thread, error) {
	t := &fakeThread{
		id:     "thread-" + name,
		name:   name,
		parent: c.id,
		owner:  botID,
	}
	c.threads = append(c.threads, t)
	return t, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func newTestMachine(t *testing.T) (*Machine, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "database.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.AddUser("42", "100"))
	return NewMachine(st, botID), st
}

func event(content string, channel *fakeChannel, thread *fakeThread) Event {
	ev := Event{
		Msg: platform.MessageEvent{
			AuthorID:   "42",
			AuthorName: "Lewis",
			Content:    content,
		},
		Channel: channel,
	}
	if thread != nil {
		ev.Thread = thread
	}
	return ev
}

func validThread(channel *fakeChannel) *fakeThread {
	return &fakeThread{
		id:     "t1",
		name:   ThreadPrefix + "Lewis - 1",
		parent: channel.id,
		owner:  botID,
	}
}

// =============================================================================
// TESTS
// =============================================================================

func TestIsLifecycleKeyword(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"start chat", true},
		{"close chat", true},
		{"stop chat", true},
		{"restart chat", true},
		{"Start Chat", false}, // case-sensitive
		{"start chat ", false},
		{"what is 2+2?", false},
	}
	for _, tt := range tests {
		if got := IsLifecycleKeyword(tt.content); got != tt.want {
			t.Errorf("IsLifecycleKeyword(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestStartChat_FromIdle(t *testing.T) {
	m, st := newTestMachine(t)
	channel := &fakeChannel{id: "100"}

	handled, err := m.Handle(context.Background(), event(KeywordStart, channel, nil))
	require.NoError(t, err)
	require.True(t, handled)

	u, _ := st.User("42")
	require.True(t, u.CurrentlyChatting)
	require.Equal(t, 1, u.Chats)

	require.Len(t, channel.threads, 1)
	require.Equal(t, "GPT Chat - Lewis - 1", channel.threads[0].name)
	require.Equal(t, []string{"42"}, channel.threads[0].members)
	require.Len(t, channel.sent, 1, "confirmation should be sent")
}

func TestStartChat_AlreadyActive(t *testing.T) {
	m, st := newTestMachine(t)
	channel := &fakeChannel{id: "100"}

	_, err := m.Handle(context.Background(), event(KeywordStart, channel, nil))
	require.NoError(t, err)

	handled, err := m.Handle(context.Background(), event(KeywordStart, channel, nil))
	require.NoError(t, err)
	require.True(t, handled)

	u, _ := st.User("42")
	require.Equal(t, 1, u.Chats, "chat counter must not change")
	require.Len(t, channel.threads, 1, "no second thread")
	require.Len(t, channel.errs, 1, "already-started notice expected")
}

func TestCloseChat_ValidThread(t *testing.T) {
	m, st := newTestMachine(t)
	channel := &fakeChannel{id: "100"}

	_, err := m.Handle(context.Background(), event(KeywordStart, channel, nil))
	require.NoError(t, err)
	thread := channel.threads[0]

	for _, keyword := range []string{KeywordClose, KeywordStop} {
		t.Run(keyword, func(t *testing.T) {
			thread.archived, thread.locked = false, false
			require.NoError(t, st.UpdateUser("42", func(u *model.User) { u.CurrentlyChatting = true }))

			handled, err := m.Handle(context.Background(), event(keyword, channel, thread))
			require.NoError(t, err)
			require.True(t, handled)

			u, _ := st.User("42")
			require.False(t, u.CurrentlyChatting)
			require.True(t, thread.archived)
			require.True(t, thread.locked)
			require.NotEmpty(t, thread.notices)
		})
	}
}

func TestCloseChat_GuardRejections(t *testing.T) {
	m, st := newTestMachine(t)
	channel := &fakeChannel{id: "100"}
	require.NoError(t, st.UpdateUser("42", func(u *model.User) { u.CurrentlyChatting = true }))

	tests := []struct {
		name   string
		mutate func(*fakeThread)
	}{
		{"foreign owner", func(th *fakeThread) { th.owner = "someone-else" }},
		{"archived", func(th *fakeThread) { th.archived = true }},
		{"locked", func(th *fakeThread) { th.locked = true }},
		{"wrong name", func(th *fakeThread) { th.name = "General Discussion" }},
		{"prefix without trailing space", func(th *fakeThread) { th.name = "GPT Chat -Lewis" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thread := validThread(channel)
			tt.mutate(thread)

			handled, err := m.Handle(context.Background(), event(KeywordClose, channel, thread))
			require.NoError(t, err)
			require.True(t, handled, "guard rejection is consumed silently")

			u, _ := st.User("42")
			require.True(t, u.CurrentlyChatting, "no transition on guard rejection")
			require.Empty(t, thread.notices, "no reply on guard rejection")
		})
	}
}

func TestRestartChat_RotatesThread(t *testing.T) {
	m, st := newTestMachine(t)
	channel := &fakeChannel{id: "100"}

	_, err := m.Handle(context.Background(), event(KeywordStart, channel, nil))
	require.NoError(t, err)
	oldThread := channel.threads[0]

	handled, err := m.Handle(context.Background(), event(KeywordRestart, channel, oldThread))
	require.NoError(t, err)
	require.True(t, handled)

	u, _ := st.User("42")
	require.True(t, u.CurrentlyChatting, "session stays active across restart")
	require.Equal(t, 2, u.Chats)
	require.True(t, oldThread.archived)
	require.True(t, oldThread.locked)

	require.Len(t, channel.threads, 2)
	require.Equal(t, "GPT Chat - Lewis - 2", channel.threads[1].name)
	require.Equal(t, []string{"42"}, channel.threads[1].members)
}

func TestHandle_LifecycleKeywordsNoOpInIdleThreadless(t *testing.T) {
	m, st := newTestMachine(t)
	channel := &fakeChannel{id: "100"}

	for _, keyword := range []string{KeywordClose, KeywordStop, KeywordRestart} {
		handled, err := m.Handle(context.Background(), event(keyword, channel, nil))
		require.NoError(t, err)
		require.True(t, handled, "%s in home channel is consumed", keyword)
	}

	u, _ := st.User("42")
	require.False(t, u.CurrentlyChatting, "only start chat leaves idle")
	require.Equal(t, 0, u.Chats)
	require.Empty(t, channel.threads)
}

func TestHandle_ConversationContentNotHandled(t *testing.T) {
	m, _ := newTestMachine(t)
	channel := &fakeChannel{id: "100"}

	_, err := m.Handle(context.Background(), event(KeywordStart, channel, nil))
	require.NoError(t, err)
	thread := channel.threads[0]

	handled, err := m.Handle(context.Background(), event("What is 2+2?", channel, thread))
	require.NoError(t, err)
	require.False(t, handled, "conversational input goes to the completion path")
}

func TestHandle_UnregisteredPairIgnored(t *testing.T) {
	m, _ := newTestMachine(t)
	wrongChannel := &fakeChannel{id: "999"}

	handled, err := m.Handle(context.Background(), event(KeywordStart, wrongChannel, nil))
	require.NoError(t, err)
	require.True(t, handled, "traffic outside the user's home channel is ignored")
	require.Empty(t, wrongChannel.threads)
}
