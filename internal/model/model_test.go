// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

func TestMessage_Render(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "with text",
			msg:  NewMessage("Lewis", "Hello!"),
			want: "Lewis: Hello!",
		},
		{
			name: "without text",
			msg:  Message{Author: "Lewis"},
			want: "Lewis:",
		},
		{
			name: "empty text still renders",
			msg:  NewMessage("Lewis", ""),
			want: "Lewis: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConversation_Render(t *testing.T) {
	convo := Conversation{Messages: []Message{
		NewMessage("Alice", "What is the weather like today?"),
		NewMessage("GPTHelper", "The weather today is sunny."),
	}}

	got := convo.Render()
	want := "Alice: What is the weather like today?\n" + Sentinel + "GPTHelper: The weather today is sunny."
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestConversation_Prepend(t *testing.T) {
	convo := Conversation{Messages: []Message{NewMessage("Alice", "second")}}
	convo.Prepend(NewMessage("Bob", "first"))

	if len(convo.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(convo.Messages))
	}
	if convo.Messages[0].Author != "Bob" {
		t.Errorf("first message author = %q, want Bob", convo.Messages[0].Author)
	}
}

func TestPrompt_FullRender(t *testing.T) {
	prompt := Prompt{
		Header: NewMessage("system", "Instructions for GPTHelper: be helpful"),
		Examples: []Conversation{
			{Messages: []Message{
				NewMessage("Lewis", "Hello!"),
				NewMessage("GPTHelper", "Hello. Please ask a question."),
			}},
		},
		Convo: Conversation{Messages: []Message{
			NewMessage("Alice", "What is 2+2?"),
			NewMessage("GPTHelper", "4"),
		}},
	}

	messages := prompt.FullRender("GPTHelper")
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}

	if messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", messages[0].Role)
	}
	if !strings.Contains(messages[0].Content, "Example conversations:") {
		t.Error("system prompt missing example framing")
	}
	if !strings.Contains(messages[0].Content, Sentinel) {
		t.Error("system prompt missing sentinel separators")
	}
	if !strings.Contains(messages[0].Content, "Lewis: Hello!") {
		t.Error("system prompt missing rendered example conversation")
	}

	if messages[1].Role != "user" || messages[1].Name != "Alice" {
		t.Errorf("user message = %+v, want role user, name Alice", messages[1])
	}
	if messages[2].Role != "assistant" || messages[2].Name != "GPTHelper" {
		t.Errorf("assistant message = %+v, want role assistant, name GPTHelper", messages[2])
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		model  string
		wantOK bool
	}{
		{"known model", "gpt-4-0125-preview", true},
		{"known cheap model", "gpt-3.5-turbo-0125", true},
		{"unknown model", "gpt-9000", false},
		{"empty name", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := Lookup(tt.model)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.model, ok, tt.wantOK)
			}
			if ok && info.Name != tt.model {
				t.Errorf("Lookup(%q) returned %q", tt.model, info.Name)
			}
		})
	}
}

func TestNewChannel_Defaults(t *testing.T) {
	ch := NewChannel("123")
	if ch.CurrentModel != DefaultModel.Name {
		t.Errorf("CurrentModel = %q, want %q", ch.CurrentModel, DefaultModel.Name)
	}
	if ch.CurrentMaxTokens != 4096 {
		t.Errorf("CurrentMaxTokens = %d, want 4096", ch.CurrentMaxTokens)
	}
	if ch.CurrentTemperature != 1.0 {
		t.Errorf("CurrentTemperature = %v, want 1.0", ch.CurrentTemperature)
	}
}
