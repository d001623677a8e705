// Package engine drives assistant runs and composes them into stage turns.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/compasshq/compass/pkg/assistant"
	"github.com/compasshq/compass/pkg/config"
)

// RunExecutor submits a run and polls it to a terminal state. The poll loop
// waits a fixed interval between status reads and is bounded both by a
// wall-clock deadline and an attempt cap.
type RunExecutor struct {
	remote assistant.Service
	cfg    *config.AssistantConfig
}

// NewRunExecutor creates a new RunExecutor
func NewRunExecutor(remote assistant.Service, cfg *config.AssistantConfig) *RunExecutor {
	return &RunExecutor{remote: remote, cfg: cfg}
}

// Execute runs the persona over the conversation and returns the newest
// assistant message's text. A terminal status other than completed surfaces
// as RunFailedError without any further reads; exceeding the deadline or the
// attempt cap surfaces as RunTimeoutError.
func (e *RunExecutor) Execute(ctx context.Context, conversationID, personaID, instructions string) (string, error) {
	run, err := e.remote.SubmitRun(ctx, conversationID, personaID, instructions)
	if err != nil {
		return "", err
	}

	start := time.Now()
	deadline := start.Add(e.cfg.RunTimeout)
	attempts := 0

	for run.InFlight() {
		if attempts >= e.cfg.MaxPollAttempts || time.Now().After(deadline) {
			slog.Warn("Run poll loop exhausted",
				"run_id", run.ID,
				"conversation_id", conversationID,
				"status", run.Status,
				"attempts", attempts)
			return "", &RunTimeoutError{
				Elapsed:  time.Since(start),
				Attempts: attempts,
			}
		}

		// One suspension per non-terminal observation
		if err := sleepCtx(ctx, e.cfg.PollInterval); err != nil {
			return "", err
		}

		run, err = e.remote.GetRun(ctx, conversationID, run.ID)
		if err != nil {
			return "", err
		}
		attempts++
	}

	if run.Status != assistant.RunStatusCompleted {
		return "", &RunFailedError{Status: run.Status}
	}

	messages, err := e.remote.ListMessages(ctx, conversationID)
	if err != nil {
		return "", err
	}

	// Messages arrive newest first; the first assistant message is the
	// run's output.
	for _, msg := range messages {
		if msg.Role == assistant.RoleAssistant {
			return msg.Content, nil
		}
	}

	return "", &NoAssistantOutputError{
		ConversationID: conversationID,
		RunID:          run.ID,
	}
}

// sleepCtx waits for the duration unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
