// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jeranaias/gpthelper/internal/llm"
	"github.com/jeranaias/gpthelper/internal/model"
	"github.com/jeranaias/gpthelper/internal/platform"
	"github.com/jeranaias/gpthelper/internal/tokens"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Completer performs one chat-completion call. Satisfied by *llm.Client.
type Completer interface {
	CreateCompletion(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error)
}

// Recorder appends one usage record to a user's ledger. Satisfied by
// *store.Store.
type Recorder interface {
	AddRequest(userID string, req model.Request) error
}

// Config is the bot personality fed into every prompt.
type Config struct {
	// BotName is the persona name. Conversation authors containing it are
	// mapped to the assistant role.
	BotName string
	// Instructions is the free-form system instruction text.
	Instructions string
	// Examples are few-shot conversations rendered into the system prompt.
	Examples []model.Conversation
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator turns an assembled conversation into a completion call and
// delivers the classified outcome back to the thread.
type Orchestrator struct {
	client Completer
	est    *tokens.Estimator
	ledger Recorder
	cfg    Config
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(client Completer, est *tokens.Estimator, ledger Recorder, cfg Config) *Orchestrator {
	return &Orchestrator{client: client, est: est, ledger: ledger, cfg: cfg}
}

// buildPrompt wraps a conversation with the configured header and examples.
func (o *Orchestrator) buildPrompt(convo model.Conversation) model.Prompt {
	header := model.NewMessage("System",
		fmt.Sprintf("Instructions for %s: %s", o.cfg.BotName, o.cfg.Instructions))
	return model.Prompt{
		Header:   header,
		Examples: o.cfg.Examples,
		Convo:    convo,
	}
}

// GenerateReply runs one completion call under the channel's settings and
// classifies the result. It never returns an error; failures become a
// non-OK Outcome with locally estimated prompt tokens, so every attempt can
// be recorded.
func (o *Orchestrator) GenerateReply(ctx context.Context, convo model.Conversation, ch model.Channel) Outcome {
	prompt := o.buildPrompt(convo)
	messages := prompt.FullRender(o.cfg.BotName)

	resp, err := o.client.CreateCompletion(ctx, llm.CompletionRequest{
		Model:       ch.CurrentModel,
		Messages:    messages,
		Temperature: ch.CurrentTemperature,
		MaxTokens:   ch.CurrentMaxTokens,
		TopP:        1.0,
		Stop:        []string{model.Sentinel},
	})
	if err != nil {
		estimated := o.est.FromMessages(messages, ch.CurrentModel)
		status := StatusOtherError
		switch {
		case llm.IsContextTooLong(err):
			status = StatusTooLong
		case llm.IsBadRequest(err):
			status = StatusInvalidRequest
		}
		if status != StatusTooLong {
			log.Printf("completion: %s call failed: %v", ch.CurrentModel, err)
		}
		return Outcome{
			Status:       status,
			PromptTokens: estimated,
			StatusText:   llm.ErrorMessage(err),
		}
	}

	return Outcome{
		Status:           StatusOK,
		ReplyText:        strings.TrimSpace(resp.Content),
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
	}
}

// Deliver records the outcome against the user's ledger and presents it in
// the thread. The ledger entry is written on every path, before any thread
// traffic, so failed calls still bill their estimated prompt tokens.
func (o *Orchestrator) Deliver(ctx context.Context, thread platform.Thread, user model.User, out Outcome) error {
	if err := o.ledger.AddRequest(user.ID, model.Request{
		Model:        user.Channel.CurrentModel,
		InputTokens:  out.PromptTokens,
		OutputTokens: out.CompletionTokens,
	}); err != nil {
		log.Printf("completion: record request for user %s: %v", user.ID, err)
	}

	switch out.Status {
	case StatusOK:
		if out.ReplyText == "" {
			return thread.SendError(ctx, platform.Notice{
				Title:       "Error",
				Description: "No response from the model. Please try again.",
			})
		}
		for _, chunk := range SplitMessage(out.ReplyText) {
			if err := thread.Send(ctx, chunk); err != nil {
				return err
			}
		}
		return nil

	case StatusTooLong:
		if err := thread.SendNotice(ctx, platform.Notice{
			Title:       "Thread Closed",
			Description: "The thread has reached the model's context limit. Please restart the chat and ask the question again.",
		}); err != nil {
			return err
		}
		return thread.ArchiveAndLock(ctx)

	case StatusInvalidRequest:
		return thread.SendError(ctx, platform.Notice{
			Title:       "Invalid Request",
			Description: fmt.Sprintf("**Error** - %s", out.StatusText),
		})

	default:
		return thread.SendError(ctx, platform.Notice{
			Title:       "Error",
			Description: fmt.Sprintf("**Error** - %s", out.StatusText),
		})
	}
}
