// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// Sentinel is the reserved token that separates rendered conversations and
// doubles as the model's stop sequence. The tokenizer must treat it as a
// single allowed special token.
const Sentinel = "<|endoftext|>"

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single conversation message. Text is nil for non-text events
// (e.g. an image); such messages still render with just the author label.
type Message struct {
	Author string  `json:"author"`
	Text   *string `json:"text,omitempty"`
}

// NewMessage creates a message with text.
func NewMessage(author, text string) Message {
	return Message{Author: author, Text: &text}
}

// Render formats the message as "Author: text", or just "Author:" when the
// message carries no text.
func (m Message) Render() string {
	result := m.Author + ":"
	if m.Text != nil {
		result += " " + *m.Text
	}
	return result
}

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is an ordered message sequence, oldest first.
type Conversation struct {
	Messages []Message `json:"messages"`
}

// Prepend inserts a message at the front of the conversation and returns the
// conversation for chaining.
func (c *Conversation) Prepend(msg Message) *Conversation {
	c.Messages = append([]Message{msg}, c.Messages...)
	return c
}

// Render joins the rendered messages with the sentinel separator.
func (c *Conversation) Render() string {
	rendered := make([]string, 0, len(c.Messages))
	for _, msg := range c.Messages {
		rendered = append(rendered, msg.Render())
	}
	return strings.Join(rendered, "\n"+Sentinel)
}

// =============================================================================
// CHAT MESSAGE (provider wire format)
// =============================================================================

// ChatMessage is a provider-agnostic chat message in the role/name/content
// shape the completions API consumes.
type ChatMessage struct {
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// =============================================================================
// PROMPT TYPE
// =============================================================================

// Prompt is the fully assembled input for one completion call: a system
// header, few-shot example conversations, and the live conversation.
type Prompt struct {
	Header   Message
	Examples []Conversation
	Convo    Conversation
}

// FullRender produces the chat message list for the completions API: one
// system message followed by the conversation mapped onto user/assistant
// roles. Messages whose author contains botName become assistant messages.
func (p Prompt) FullRender(botName string) []ChatMessage {
	messages := []ChatMessage{
		{Role: "system", Content: p.RenderSystemPrompt()},
	}
	for _, msg := range p.Convo.Messages {
		var text string
		if msg.Text != nil {
			text = *msg.Text
		}
		if strings.Contains(msg.Author, botName) {
			messages = append(messages, ChatMessage{
				Role:    "assistant",
				Name:    botName,
				Content: text,
			})
		} else {
			messages = append(messages, ChatMessage{
				Role:    "user",
				Name:    msg.Author,
				Content: text,
			})
		}
	}
	return messages
}

// RenderSystemPrompt renders the header and example conversations, joined by
// the sentinel so the model sees each example as a separate exchange.
func (p Prompt) RenderSystemPrompt() string {
	parts := []string{
		p.Header.Render(),
		NewMessage("System", "Example conversations:").Render(),
	}
	for _, example := range p.Examples {
		parts = append(parts, example.Render())
	}
	parts = append(parts,
		NewMessage("System", "Now, you will work with the actual current conversation.").Render(),
	)
	return strings.Join(parts, "\n"+Sentinel)
}
