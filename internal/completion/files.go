// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/gpthelper/internal/model"
	"github.com/jeranaias/gpthelper/internal/platform"
	"github.com/jeranaias/gpthelper/internal/tokens"
)

// =============================================================================
// RUN RESULTS
// =============================================================================

// RunResult is the closed set of delegated-file run outcomes. Provider
// status strings outside the known terminal set map to RunUnknown rather
// than failing.
type RunResult int

const (
	RunCompleted RunResult = iota
	RunFailed
	RunCancelled
	RunExpired
	RunUnknown
	// RunTimedOut means the poll budget ran out before the provider
	// reported a terminal status.
	RunTimedOut
)

// String returns the human-readable name of the result.
func (r RunResult) String() string {
	switch r {
	case RunCompleted:
		return "Completed"
	case RunFailed:
		return "Failed"
	case RunCancelled:
		return "Cancelled"
	case RunExpired:
		return "Expired"
	case RunTimedOut:
		return "TimedOut"
	default:
		return "Unknown"
	}
}

// runResultFromStatus maps a provider terminal status string onto the
// result enumeration.
func runResultFromStatus(status string) RunResult {
	switch status {
	case "completed":
		return RunCompleted
	case "failed":
		return RunFailed
	case "cancelled":
		return RunCancelled
	case "expired":
		return RunExpired
	default:
		return RunUnknown
	}
}

// runPending reports whether the provider is still working on the run.
func runPending(status string) bool {
	return status == "queued" || status == "in_progress"
}

// =============================================================================
// FILE RUNNER
// =============================================================================

// AssistantAPI is the provider sub-API the delegated-file path needs.
// Satisfied by *llm.Client.
type AssistantAPI interface {
	UploadFile(ctx context.Context, name string, data []byte) (string, error)
	CreateAssistant(ctx context.Context, modelName string) (string, error)
	CreateFileThread(ctx context.Context, prompt, fileID string) (string, error)
	StartRun(ctx context.Context, threadID, assistantID string) (string, error)
	RunStatus(ctx context.Context, threadID, runID string) (string, error)
	ThreadMessages(ctx context.Context, threadID string) ([]model.ChatMessage, error)
	Teardown(ctx context.Context, assistantID, threadID, fileID string)
}

// Fetcher downloads an attachment by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

const (
	// DefaultPollInterval is the sleep between run status checks.
	DefaultPollInterval = 10 * time.Second
	// DefaultRunDeadline bounds the total time spent polling one run.
	DefaultRunDeadline = 5 * time.Minute
)

// FileReply is the outcome of one delegated-file run.
type FileReply struct {
	Result       RunResult
	Text         string
	InputTokens  int
	OutputTokens int
}

// FileRunner handles non-text attachments through an ephemeral assistant:
// upload the file, run a single-turn session over it, and tear everything
// down again. Each run records one ledger entry with estimated tokens,
// since the provider reports no usage on this path.
type FileRunner struct {
	api     AssistantAPI
	fetcher Fetcher
	est     *tokens.Estimator
	ledger  Recorder

	pollInterval time.Duration
	deadline     time.Duration
}

// NewFileRunner creates a runner with the default poll budget.
func NewFileRunner(api AssistantAPI, fetcher Fetcher, est *tokens.Estimator, ledger Recorder) *FileRunner {
	return &FileRunner{
		api:          api,
		fetcher:      fetcher,
		est:          est,
		ledger:       ledger,
		pollInterval: DefaultPollInterval,
		deadline:     DefaultRunDeadline,
	}
}

// Run executes the full delegated-file flow for one attachment. Remote
// resources are deleted regardless of outcome; setup failures before the
// run starts are returned as errors and record nothing.
func (r *FileRunner) Run(ctx context.Context, user model.User, att platform.Attachment, prompt string) (FileReply, error) {
	data, err := r.fetcher.Fetch(ctx, att.URL)
	if err != nil {
		return FileReply{}, fmt.Errorf("fetch attachment %s: %w", att.Filename, err)
	}

	modelName := user.Channel.CurrentModel

	// Unique upload name so concurrent runs over same-named files never
	// collide provider-side.
	uploadName := uuid.NewString() + "-" + att.Filename
	fileID, err := r.api.UploadFile(ctx, uploadName, data)
	if err != nil {
		return FileReply{}, err
	}

	var assistantID, threadID string
	defer func() {
		// Teardown must run even when ctx is already cancelled.
		r.api.Teardown(context.WithoutCancel(ctx), assistantID, threadID, fileID)
	}()

	assistantID, err = r.api.CreateAssistant(ctx, modelName)
	if err != nil {
		return FileReply{}, err
	}
	threadID, err = r.api.CreateFileThread(ctx, prompt, fileID)
	if err != nil {
		return FileReply{}, err
	}
	runID, err := r.api.StartRun(ctx, threadID, assistantID)
	if err != nil {
		return FileReply{}, err
	}

	reply := FileReply{
		InputTokens: r.est.FromBytes(data, modelName) + r.est.FromString(prompt, modelName),
	}
	reply.Result, err = r.poll(ctx, threadID, runID)
	if err != nil {
		r.record(user, reply)
		return reply, err
	}

	if reply.Result == RunCompleted {
		messages, err := r.api.ThreadMessages(ctx, threadID)
		if err != nil {
			r.record(user, reply)
			return reply, err
		}
		reply.Text = firstAssistantText(messages)
		reply.OutputTokens = r.est.FromAssistantMessages(messages, modelName)
	}

	r.record(user, reply)
	return reply, nil
}

// poll checks the run status every pollInterval until the provider reports
// a terminal status or the deadline budget runs out.
func (r *FileRunner) poll(ctx context.Context, threadID, runID string) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.deadline)
	defer cancel()

	for {
		status, err := r.api.RunStatus(ctx, threadID, runID)
		if err != nil {
			if ctx.Err() != nil {
				return RunTimedOut, nil
			}
			return RunUnknown, err
		}
		if !runPending(status) {
			return runResultFromStatus(status), nil
		}

		select {
		case <-ctx.Done():
			return RunTimedOut, nil
		case <-time.After(r.pollInterval):
		}
	}
}

// record writes the ledger entry for an attempted run.
func (r *FileRunner) record(user model.User, reply FileReply) {
	err := r.ledger.AddRequest(user.ID, model.Request{
		Model:        user.Channel.CurrentModel,
		InputTokens:  reply.InputTokens,
		OutputTokens: reply.OutputTokens,
	})
	if err != nil {
		log.Printf("completion: record file request for user %s: %v", user.ID, err)
	}
}

// firstAssistantText returns the first assistant-authored message content.
func firstAssistantText(messages []model.ChatMessage) string {
	for _, msg := range messages {
		if msg.Role == "assistant" {
			return msg.Content
		}
	}
	return ""
}

// DeliverFile presents a delegated-file outcome in the thread: chunked text
// on completion, an error notice otherwise.
func (r *FileRunner) DeliverFile(ctx context.Context, thread platform.Thread, reply FileReply) error {
	if reply.Result == RunCompleted && reply.Text != "" {
		for _, chunk := range SplitMessage(reply.Text) {
			if err := thread.Send(ctx, chunk); err != nil {
				return err
			}
		}
		return nil
	}

	desc := fmt.Sprintf("The file request did not complete (status: %s). Please try again.", reply.Result)
	if reply.Result == RunCompleted {
		desc = "No response from the model. Please try again."
	}
	return thread.SendError(ctx, platform.Notice{Title: "Error", Description: desc})
}
