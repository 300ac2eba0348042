// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convo

import (
	"context"
	"errors"
	"testing"

	"github.com/jeranaias/gpthelper/internal/platform"
)

type fakeHistory struct {
	entries []platform.HistoryEntry
	count   int
}

func (f *fakeHistory) History(context.Context, int) ([]platform.HistoryEntry, error) {
	return f.entries, nil
}

func (f *fakeHistory) MessageCount(context.Context) (int, error) {
	if f.count > 0 {
		return f.count, nil
	}
	return len(f.entries), nil
}

type fakeFetcher struct {
	files map[string][]byte
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	data, ok := f.files[url]
	if !ok {
		return nil, errors.New("404")
	}
	return data, nil
}

func trigger(attachments ...platform.Attachment) platform.MessageEvent {
	return platform.MessageEvent{
		AuthorID:    "42",
		AuthorName:  "Lewis",
		Attachments: attachments,
	}
}

func TestAssemble_ChronologicalOrder(t *testing.T) {
	// Platform delivers most-recent-first.
	thread := &fakeHistory{entries: []platform.HistoryEntry{
		{AuthorName: "GPTHelper", Content: "4"},
		{AuthorName: "Lewis", Content: "What is 2+2?"},
		{AuthorName: "Lewis", Content: "start chat"},
	}}

	a := NewAssembler(&fakeFetcher{})
	result, err := a.Assemble(context.Background(), thread, trigger())
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	msgs := result.Conversation.Messages
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	want := []string{"start chat", "What is 2+2?", "4"}
	for i, text := range want {
		if *msgs[i].Text != text {
			t.Errorf("message %d = %q, want %q (oldest first)", i, *msgs[i].Text, text)
		}
	}
}

func TestAssemble_UnwrapsThreadStarter(t *testing.T) {
	thread := &fakeHistory{entries: []platform.HistoryEntry{
		{AuthorName: "GPTHelper", Content: "Hello"},
		{
			AuthorName:    "system",
			ThreadStarter: &platform.HistoryEntry{AuthorName: "Lewis", Content: "original question"},
		},
	}}

	a := NewAssembler(&fakeFetcher{})
	result, err := a.Assemble(context.Background(), thread, trigger())
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	msgs := result.Conversation.Messages
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Author != "Lewis" || *msgs[0].Text != "original question" {
		t.Errorf("thread starter not unwrapped: %+v", msgs[0])
	}
}

func TestAssemble_DropsTextlessEntries(t *testing.T) {
	thread := &fakeHistory{entries: []platform.HistoryEntry{
		{AuthorName: "Lewis", Content: "hello"},
		{AuthorName: "Lewis", Content: ""}, // e.g. an image post
	}}

	a := NewAssembler(&fakeFetcher{})
	result, err := a.Assemble(context.Background(), thread, trigger())
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(result.Conversation.Messages) != 1 {
		t.Errorf("expected textless entry to be dropped, got %d messages", len(result.Conversation.Messages))
	}
}

func TestAssemble_HistoryOverflow(t *testing.T) {
	thread := &fakeHistory{count: HistoryCap + 1}

	a := NewAssembler(&fakeFetcher{})
	_, err := a.Assemble(context.Background(), thread, trigger())
	if !errors.Is(err, ErrHistoryOverflow) {
		t.Fatalf("expected ErrHistoryOverflow, got %v", err)
	}
}

func TestAssemble_ExactlyAtCapIsAllowed(t *testing.T) {
	thread := &fakeHistory{count: HistoryCap}

	a := NewAssembler(&fakeFetcher{})
	if _, err := a.Assemble(context.Background(), thread, trigger()); err != nil {
		t.Fatalf("cap is exclusive; Assemble failed: %v", err)
	}
}

func TestAssemble_TextAttachments(t *testing.T) {
	thread := &fakeHistory{entries: []platform.HistoryEntry{
		{AuthorName: "Lewis", Content: "summarize this"},
	}}
	fetcher := &fakeFetcher{files: map[string][]byte{
		"http://cdn/notes.txt": []byte("file contents"),
	}}

	a := NewAssembler(fetcher)
	result, err := a.Assemble(context.Background(), thread, trigger(
		platform.Attachment{Filename: "notes.txt", URL: "http://cdn/notes.txt"},
	))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	msgs := result.Conversation.Messages
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	// Appended to the raw (most-recent-first) sequence, so the single
	// reverse puts attachment content first.
	if *msgs[0].Text != "file contents" || msgs[0].Author != "Lewis" {
		t.Errorf("attachment message = %+v", msgs[0])
	}
}

func TestAssemble_AttachmentFetchFailureContinues(t *testing.T) {
	thread := &fakeHistory{entries: []platform.HistoryEntry{
		{AuthorName: "Lewis", Content: "hello"},
	}}
	fetcher := &fakeFetcher{files: map[string][]byte{
		"http://cdn/good.txt": []byte("good"),
	}}

	a := NewAssembler(fetcher)
	result, err := a.Assemble(context.Background(), thread, trigger(
		platform.Attachment{Filename: "missing.txt", URL: "http://cdn/missing.txt"},
		platform.Attachment{Filename: "good.txt", URL: "http://cdn/good.txt"},
	))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(result.Warnings))
	}
	if len(result.Conversation.Messages) != 2 {
		t.Errorf("remaining attachments must still be processed, got %d messages", len(result.Conversation.Messages))
	}
}

func TestAssemble_NonTextAttachmentsDelegated(t *testing.T) {
	thread := &fakeHistory{entries: []platform.HistoryEntry{
		{AuthorName: "Lewis", Content: "look at this"},
	}}

	a := NewAssembler(&fakeFetcher{})
	result, err := a.Assemble(context.Background(), thread, trigger(
		platform.Attachment{Filename: "report.pdf", URL: "http://cdn/report.pdf"},
	))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(result.DelegatedFiles) != 1 || result.DelegatedFiles[0].Filename != "report.pdf" {
		t.Errorf("non-text attachment should be flagged for delegation: %+v", result.DelegatedFiles)
	}
	if len(result.Conversation.Messages) != 1 {
		t.Errorf("non-text attachment must not join the conversation")
	}
}
