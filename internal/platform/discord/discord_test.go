// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package discord

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

// =============================================================================
// EMBEDS
// =============================================================================

func TestEmbedBuilderBase(t *testing.T) {
	embed := NewEmbedBuilder().Title("Hello").Description("World").Build()

	if embed.Title != "Hello" || embed.Description != "World" {
		t.Errorf("unexpected title/description: %q %q", embed.Title, embed.Description)
	}
	if embed.Author == nil || embed.Author.Name != embedAuthor {
		t.Error("base embed should carry the bot author")
	}
	if embed.Footer == nil || embed.Footer.Text != embedFooter {
		t.Error("base embed should carry the bot footer")
	}
	if embed.Color != colorBlue {
		t.Errorf("default color = %#x, want %#x", embed.Color, colorBlue)
	}
}

func TestErrorEmbed(t *testing.T) {
	embed := errorEmbed("Too many messages", "Please restart the chat.")

	if embed.Title != "Unavailable" {
		t.Errorf("title = %q, want Unavailable", embed.Title)
	}
	if len(embed.Fields) != 1 {
		t.Fatalf("got %d fields, want 1", len(embed.Fields))
	}
	if embed.Fields[0].Name != "Too many messages" {
		t.Errorf("field name = %q", embed.Fields[0].Name)
	}
}

func TestNoPermsEmbedIsRed(t *testing.T) {
	if embed := noPermsEmbed(); embed.Color != colorRed {
		t.Errorf("color = %#x, want %#x", embed.Color, colorRed)
	}
}

// =============================================================================
// MESSAGE MAPPING
// =============================================================================

func TestMapMessagePlain(t *testing.T) {
	entry := mapMessage(&discordgo.Message{
		Content: "hello",
		Author:  &discordgo.User{Username: "Lewis"},
	})
	if entry.AuthorName != "Lewis" || entry.Content != "hello" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.ThreadStarter != nil {
		t.Error("plain message should not carry a thread starter")
	}
}

func TestMapMessageThreadStarter(t *testing.T) {
	entry := mapMessage(&discordgo.Message{
		Type:   discordgo.MessageTypeThreadStarterMessage,
		Author: &discordgo.User{Username: "bot"},
		ReferencedMessage: &discordgo.Message{
			Content: "start of it all",
			Author:  &discordgo.User{Username: "Lewis"},
		},
	})
	if entry.ThreadStarter == nil {
		t.Fatal("expected a thread starter entry")
	}
	if entry.ThreadStarter.AuthorName != "Lewis" || entry.ThreadStarter.Content != "start of it all" {
		t.Errorf("unexpected starter: %+v", entry.ThreadStarter)
	}
}

func TestMapEvent(t *testing.T) {
	ev := mapEvent(&discordgo.Message{
		ID:        "msg-1",
		ChannelID: "chan-1",
		Content:   "hi",
		Author:    &discordgo.User{ID: "42", Username: "Lewis", Bot: false},
		Attachments: []*discordgo.MessageAttachment{
			{Filename: "notes.txt", URL: "https://cdn/notes.txt", Size: 12},
		},
	})

	if ev.AuthorID != "42" || ev.AuthorName != "Lewis" || ev.AuthorIsBot {
		t.Errorf("unexpected author mapping: %+v", ev)
	}
	if len(ev.Attachments) != 1 || ev.Attachments[0].Filename != "notes.txt" {
		t.Errorf("unexpected attachments: %+v", ev.Attachments)
	}
}

// =============================================================================
// FETCHER
// =============================================================================

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("file body"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	data, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(data) != "file body" {
		t.Errorf("got %q", data)
	}
}

func TestHTTPFetcherNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error on 404")
	}
}
