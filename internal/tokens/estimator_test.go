// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tokens

import (
	"strings"
	"testing"

	"github.com/jeranaias/gpthelper/internal/model"
)

// wordEncoder is a deterministic test encoder: one token per
// whitespace-separated word.
type wordEncoder struct{}

func (wordEncoder) Count(text string) int {
	return len(strings.Fields(text))
}

func newTestEstimator() *Estimator {
	return &Estimator{
		cache:  make(map[string]encoder),
		loader: func(string) encoder { return wordEncoder{} },
	}
}

func TestFromMessages_EmptyListIsBatchOverheadOnly(t *testing.T) {
	e := newTestEstimator()
	if got := e.FromMessages(nil, "gpt-4-0125-preview"); got != 3 {
		t.Errorf("FromMessages(empty) = %d, want 3", got)
	}
}

func TestFromMessages_ConstantScheme(t *testing.T) {
	e := newTestEstimator()

	tests := []struct {
		name     string
		messages []model.ChatMessage
		want     int
	}{
		{
			name: "single message without name",
			// 3 base + 1 (role) + 2 (content) + 3 batch = 9
			messages: []model.ChatMessage{
				{Role: "system", Content: "hello world"},
			},
			want: 9,
		},
		{
			name: "single message with name",
			// 3 base + 1 (role) + 2 (content) + 1 (name) + 1 name overhead + 3 batch = 11
			messages: []model.ChatMessage{
				{Role: "user", Name: "Alice", Content: "hello world"},
			},
			want: 11,
		},
		{
			name: "two messages",
			// (3+1+1) + (3+1+2+1+1) + 3 = 16
			messages: []model.ChatMessage{
				{Role: "system", Content: "hi"},
				{Role: "user", Name: "Bob", Content: "what's up"},
			},
			want: 16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.FromMessages(tt.messages, "gpt-4-0125-preview"); got != tt.want {
				t.Errorf("FromMessages() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFromAssistantMessages_SkipsNonAssistant(t *testing.T) {
	e := newTestEstimator()
	messages := []model.ChatMessage{
		{Role: "user", Content: "one two three"},
		{Role: "assistant", Content: "four five"}, // 3 + 2
		{Role: "assistant", Content: "six"},       // 3 + 1
	}
	if got := e.FromAssistantMessages(messages, "gpt-4-0125-preview"); got != 9 {
		t.Errorf("FromAssistantMessages() = %d, want 9", got)
	}
}

func TestFromBytes_InvalidUTF8FallsBackToLatin1(t *testing.T) {
	e := newTestEstimator()
	// 0xe9 alone is invalid UTF-8 but a valid Latin-1 "é".
	data := []byte{'c', 'a', 'f', 0xe9, ' ', 'o', 'k'}
	if got := e.FromBytes(data, "gpt-4-0125-preview"); got != 2 {
		t.Errorf("FromBytes() = %d, want 2 words", got)
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"valid utf-8", []byte("héllo"), "héllo"},
		{"latin-1 byte", []byte{0xe9}, "é"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeText(tt.data); got != tt.want {
				t.Errorf("decodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncoderFor_CachesPerModel(t *testing.T) {
	calls := 0
	e := &Estimator{
		cache: make(map[string]encoder),
		loader: func(string) encoder {
			calls++
			return wordEncoder{}
		},
	}

	e.FromString("a b", "gpt-4-0125-preview")
	e.FromString("c d", "gpt-4-0125-preview")
	e.FromString("e f", "gpt-3.5-turbo-0125")

	if calls != 2 {
		t.Errorf("loader called %d times, want 2", calls)
	}
}

func TestApproxEncoder_Blend(t *testing.T) {
	// (words + chars/4) / 2
	text := "one two three" // 3 words, 13 chars -> (3+3)/2 = 3
	if got := (approxEncoder{}).Count(text); got != 3 {
		t.Errorf("approx Count() = %d, want 3", got)
	}
}
