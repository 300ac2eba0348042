// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import "fmt"

// =============================================================================
// OUTCOME
// =============================================================================

// Status classifies the result of one completion attempt.
type Status int

const (
	// StatusOK means the provider returned a reply.
	StatusOK Status = iota
	// StatusTooLong means the prompt exceeded the model's context window.
	StatusTooLong
	// StatusInvalidRequest means the provider rejected the request for any
	// other client-side reason.
	StatusInvalidRequest
	// StatusOtherError covers every remaining failure (network, server).
	StatusOtherError
)

// String returns the human-readable name of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusTooLong:
		return "TooLong"
	case StatusInvalidRequest:
		return "InvalidRequest"
	case StatusOtherError:
		return "OtherError"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome is the classified result of one completion attempt. PromptTokens
// is provider-reported on StatusOK and locally estimated otherwise;
// CompletionTokens is zero on every failure path.
type Outcome struct {
	Status           Status
	ReplyText        string
	PromptTokens     int
	CompletionTokens int
	StatusText       string
}

// =============================================================================
// REPLY CHUNKING
// =============================================================================

// ChunkSize is the fixed reply chunk length in characters. Chunk boundaries
// ignore word breaks.
const ChunkSize = 1700

// SplitMessage splits a reply into ordered ChunkSize-character chunks.
func SplitMessage(text string) []string {
	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/ChunkSize+1)
	for start := 0; start < len(runes); start += ChunkSize {
		end := start + ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
