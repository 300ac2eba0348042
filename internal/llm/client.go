// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jeranaias/gpthelper/internal/model"
)

// DefaultTimeout bounds every non-streaming API request.
const DefaultTimeout = 120 * time.Second

// ErrNotConfigured indicates the API key is not set.
var ErrNotConfigured = errors.New("OpenAI API key not configured")

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// CompletionRequest is one chat-completion call.
type CompletionRequest struct {
	Model       string
	Messages    []model.ChatMessage
	Temperature float32
	MaxTokens   int
	TopP        float32
	Stop        []string
}

// CompletionResponse carries the first choice and the provider-reported
// usage figures.
type CompletionResponse struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a thin wrapper over the OpenAI SDK.
type Client struct {
	api     *openai.Client
	apiKey  string
	timeout time.Duration
}

// New creates a client. A zero timeout uses DefaultTimeout.
func New(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		api:     openai.NewClient(strings.TrimSpace(apiKey)),
		apiKey:  strings.TrimSpace(apiKey),
		timeout: timeout,
	}
}

// IsConfigured returns true if the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// KeyFingerprint returns a SHA-256 fingerprint of the API key for logging.
// The key itself is never logged.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

// CreateCompletion performs one chat-completion call.
func (c *Client) CreateCompletion(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	if !c.IsConfigured() {
		return CompletionResponse{}, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Name:    msg.Name,
			Content: msg.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
		Stop:        req.Stop,
	})
	if err != nil {
		return CompletionResponse{}, err
	}
	if len(resp.Choices) == 0 {
		return CompletionResponse{}, fmt.Errorf("completion returned no choices")
	}

	return CompletionResponse{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// contextLengthMarker is the phrase the provider puts in the bad-request
// message when the prompt exceeds the model's context window.
const contextLengthMarker = "maximum context length"

// IsBadRequest reports whether err is a client-reported bad request
// (HTTP 400 / invalid_request_error).
func IsBadRequest(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.HTTPStatusCode == 400 || apiErr.Type == "invalid_request_error"
}

// IsContextTooLong reports whether err is the "context length exceeded"
// class of bad request.
func IsContextTooLong(err error) bool {
	return IsBadRequest(err) && strings.Contains(err.Error(), contextLengthMarker)
}

// ErrorMessage extracts the provider's message text from err, falling back
// to the plain error string.
func ErrorMessage(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
