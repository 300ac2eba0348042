// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tokens

import (
	"log"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/jeranaias/gpthelper/internal/model"
)

// Chat-format accounting constants. These must match the provider's own
// accounting for estimates to line up with reported usage.
const (
	tokensPerMessage = 3
	tokensPerName    = 1
	tokensPerBatch   = 3
)

// fallbackEncoding is used when the model name has no registered encoding.
const fallbackEncoding = "cl100k_base"

// =============================================================================
// ENCODER SELECTION
// =============================================================================

// encoder counts tokens for a piece of text.
type encoder interface {
	Count(text string) int
}

// bpeEncoder wraps a tiktoken encoding. The sentinel is passed as an allowed
// special token so prompts containing it encode instead of erroring.
type bpeEncoder struct {
	enc *tiktoken.Tiktoken
}

func (b bpeEncoder) Count(text string) int {
	return len(b.enc.Encode(text, []string{model.Sentinel}, nil))
}

// approxEncoder is the last-resort encoder when no BPE data is available:
// a blend of word and character estimates (~4 chars per token).
type approxEncoder struct{}

func (approxEncoder) Count(text string) int {
	words := len(strings.Fields(text))
	chars := len(text)
	return (words + chars/4) / 2
}

// =============================================================================
// ESTIMATOR
// =============================================================================

// Estimator selects a model-specific encoder and caches it per model name.
type Estimator struct {
	mu    sync.Mutex
	cache map[string]encoder

	// loader is swapped in tests for a deterministic encoder.
	loader func(modelName string) encoder
}

// NewEstimator creates an estimator backed by tiktoken encodings.
func NewEstimator() *Estimator {
	return &Estimator{
		cache:  make(map[string]encoder),
		loader: loadEncoder,
	}
}

// loadEncoder resolves the encoding for a model name, degrading to
// cl100k_base for unknown models and to the approximate encoder when no
// encoding data can be loaded.
func loadEncoder(modelName string) encoder {
	enc, err := tiktoken.EncodingForModel(modelName)
	if err == nil {
		return bpeEncoder{enc: enc}
	}
	log.Printf("tokens: model %q not found, using %s encoding", modelName, fallbackEncoding)

	enc, err = tiktoken.GetEncoding(fallbackEncoding)
	if err == nil {
		return bpeEncoder{enc: enc}
	}
	log.Printf("tokens: %s encoding unavailable (%v), using approximate counts", fallbackEncoding, err)
	return approxEncoder{}
}

// encoderFor returns the cached encoder for a model name.
func (e *Estimator) encoderFor(modelName string) encoder {
	e.mu.Lock()
	defer e.mu.Unlock()

	if enc, ok := e.cache[modelName]; ok {
		return enc
	}
	enc := e.loader(modelName)
	e.cache[modelName] = enc
	return enc
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// FromMessages counts the tokens a chat message list will consume, using the
// provider's fixed overhead scheme. An empty list costs exactly the batch
// overhead.
func (e *Estimator) FromMessages(messages []model.ChatMessage, modelName string) int {
	if len(messages) == 0 {
		return tokensPerBatch
	}

	enc := e.encoderFor(modelName)
	numTokens := 0
	for _, msg := range messages {
		numTokens += tokensPerMessage
		numTokens += enc.Count(msg.Role)
		numTokens += enc.Count(msg.Content)
		if msg.Name != "" {
			numTokens += enc.Count(msg.Name)
			numTokens += tokensPerName
		}
	}
	numTokens += tokensPerBatch
	return numTokens
}

// FromAssistantMessages counts the tokens of the assistant-authored entries
// of a message list, 3 tokens of overhead plus content per message. Used to
// estimate output usage on the delegated-file path, where the provider
// reports none.
func (e *Estimator) FromAssistantMessages(messages []model.ChatMessage, modelName string) int {
	enc := e.encoderFor(modelName)
	numTokens := 0
	for _, msg := range messages {
		if msg.Role != "assistant" {
			continue
		}
		numTokens += tokensPerMessage
		numTokens += enc.Count(msg.Content)
	}
	return numTokens
}

// FromBytes decodes a byte buffer and counts its tokens. Invalid UTF-8 is
// reinterpreted as Latin-1, which maps every byte to a code point, so the
// decode step cannot fail.
func (e *Estimator) FromBytes(data []byte, modelName string) int {
	return e.FromString(decodeText(data), modelName)
}

// FromString counts the tokens of a plain string.
func (e *Estimator) FromString(text string, modelName string) int {
	return e.encoderFor(modelName).Count(text)
}

// decodeText interprets raw bytes as UTF-8, falling back to Latin-1.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}
