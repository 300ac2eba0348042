// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jeranaias/gpthelper/internal/model"
)

// assistantInstructions is the fixed instruction set for ephemeral
// delegated-file assistants.
const assistantInstructions = "You answer the user's question about the single attached file. Be concise."

// =============================================================================
// DELEGATED-FILE SUB-API
// =============================================================================

// UploadFile uploads raw bytes for assistant use and returns the file ID.
func (c *Client) UploadFile(ctx context.Context, name string, data []byte) (string, error) {
	file, err := c.api.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    name,
		Bytes:   data,
		Purpose: openai.PurposeAssistants,
	})
	if err != nil {
		return "", fmt.Errorf("upload file %s: %w", name, err)
	}
	return file.ID, nil
}

// CreateAssistant creates an ephemeral single-purpose assistant.
func (c *Client) CreateAssistant(ctx context.Context, modelName string) (string, error) {
	name := "gpthelper-file"
	instructions := assistantInstructions
	assistant, err := c.api.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        modelName,
		Name:         &name,
		Instructions: &instructions,
		Tools:        []openai.AssistantTool{{Type: openai.AssistantToolTypeFileSearch}},
	})
	if err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}
	return assistant.ID, nil
}

// CreateFileThread creates a provider-side thread seeded with the user's
// prompt and the uploaded file.
func (c *Client) CreateFileThread(ctx context.Context, prompt, fileID string) (string, error) {
	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{
		Messages: []openai.ThreadMessage{{
			Role:    openai.ThreadMessageRoleUser,
			Content: prompt,
			Attachments: []openai.ThreadAttachment{{
				FileID: fileID,
				Tools:  []openai.ThreadAttachmentTool{{Type: string(openai.AssistantToolTypeFileSearch)}},
			}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("create file thread: %w", err)
	}
	return thread.ID, nil
}

// StartRun starts the assistant on the thread and returns the run ID.
func (c *Client) StartRun(ctx context.Context, threadID, assistantID string) (string, error) {
	run, err := c.api.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: assistantID})
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return run.ID, nil
}

// RunStatus returns the provider's current status string for a run.
func (c *Client) RunStatus(ctx context.Context, threadID, runID string) (string, error) {
	run, err := c.api.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return "", fmt.Errorf("retrieve run: %w", err)
	}
	return string(run.Status), nil
}

// ThreadMessages lists the thread's messages as provider-agnostic chat
// messages, flattening the text content parts.
func (c *Client) ThreadMessages(ctx context.Context, threadID string) ([]model.ChatMessage, error) {
	list, err := c.api.ListMessage(ctx, threadID, nil, nil, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list thread messages: %w", err)
	}

	messages := make([]model.ChatMessage, 0, len(list.Messages))
	for _, msg := range list.Messages {
		var content string
		for _, part := range msg.Content {
			if part.Text != nil {
				content = part.Text.Value
				break
			}
		}
		messages = append(messages, model.ChatMessage{
			Role:    msg.Role,
			Content: content,
		})
	}
	return messages, nil
}

// Teardown deletes every ephemeral remote resource of one delegated-file
// turn. Empty IDs are skipped; individual failures are logged and do not
// stop the remaining deletions.
func (c *Client) Teardown(ctx context.Context, assistantID, threadID, fileID string) {
	if threadID != "" {
		if _, err := c.api.DeleteThread(ctx, threadID); err != nil {
			log.Printf("llm: delete thread %s: %v", threadID, err)
		}
	}
	if fileID != "" {
		if err := c.api.DeleteFile(ctx, fileID); err != nil {
			log.Printf("llm: delete file %s: %v", fileID, err)
		}
	}
	if assistantID != "" {
		if _, err := c.api.DeleteAssistant(ctx, assistantID); err != nil {
			log.Printf("llm: delete assistant %s: %v", assistantID, err)
		}
	}
}
