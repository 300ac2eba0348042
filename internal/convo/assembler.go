// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/gpthelper/internal/model"
	"github.com/jeranaias/gpthelper/internal/platform"
)

// HistoryCap is the hard ceiling on thread size. Threads past it are not
// assembled; the user is told to restart instead.
const HistoryCap = 200

// ErrHistoryOverflow indicates the thread exceeded HistoryCap.
var ErrHistoryOverflow = errors.New("too many messages in thread")

// Fetcher downloads attachment content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// History is the slice of a thread the assembler reads.
type History interface {
	// History returns up to limit entries, most-recent-first.
	History(ctx context.Context, limit int) ([]platform.HistoryEntry, error)
	// MessageCount counts every message in the thread, unbounded.
	MessageCount(ctx context.Context) (int, error)
}

// =============================================================================
// ASSEMBLER
// =============================================================================

// Result is one assembled conversation plus the side products of assembly.
type Result struct {
	// Conversation is chronological, oldest first.
	Conversation model.Conversation

	// DelegatedFiles are the non-text attachments of the triggering message.
	// They are excluded from the conversation and handled by the
	// delegated-file path instead.
	DelegatedFiles []platform.Attachment

	// Warnings are per-attachment fetch failures. A failed attachment never
	// aborts assembly; the remaining ones are still processed.
	Warnings []string
}

// Assembler converts thread history and attachments into conversations.
type Assembler struct {
	fetcher Fetcher
}

// NewAssembler creates an assembler using fetcher for attachment downloads.
func NewAssembler(fetcher Fetcher) *Assembler {
	return &Assembler{fetcher: fetcher}
}

// Assemble builds the conversation for one completion turn from the active
// thread and the triggering message. Returns ErrHistoryOverflow when the
// thread exceeds HistoryCap.
func (a *Assembler) Assemble(ctx context.Context, thread History, trigger platform.MessageEvent) (Result, error) {
	count, err := thread.MessageCount(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count thread messages: %w", err)
	}
	if count > HistoryCap {
		return Result{}, ErrHistoryOverflow
	}

	entries, err := thread.History(ctx, HistoryCap)
	if err != nil {
		return Result{}, fmt.Errorf("fetch thread history: %w", err)
	}

	// Most-recent-first at this point; reversed once at the end.
	messages := make([]model.Message, 0, len(entries))
	for _, entry := range entries {
		if msg, ok := entryToMessage(entry); ok {
			messages = append(messages, msg)
		}
	}

	var result Result
	for _, att := range trigger.Attachments {
		if !strings.HasSuffix(att.Filename, ".txt") {
			result.DelegatedFiles = append(result.DelegatedFiles, att)
			continue
		}
		data, err := a.fetcher.Fetch(ctx, att.URL)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Warning: Could not download file with name: %s", att.Filename))
			continue
		}
		messages = append(messages, model.NewMessage(trigger.AuthorName, string(data)))
	}

	reverse(messages)
	result.Conversation = model.Conversation{Messages: messages}
	return result, nil
}

// entryToMessage maps one history entry to a domain message. The synthetic
// thread-start record is unwrapped to its embedded channel message. Entries
// with no extractable text are dropped.
func entryToMessage(entry platform.HistoryEntry) (model.Message, bool) {
	if entry.ThreadStarter != nil {
		entry = *entry.ThreadStarter
	}
	if entry.Content == "" {
		return model.Message{}, false
	}
	return model.NewMessage(entry.AuthorName, entry.Content), true
}

func reverse(messages []model.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
