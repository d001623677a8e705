package engine

import (
	"fmt"
	"time"
)

// RunFailedError means the remote run reached a terminal status other than
// completed. The status is surfaced verbatim, never normalized. Fatal, no
// retry, and no fabricated assistant turn.
type RunFailedError struct {
	Status string
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("run failed with status: %s", e.Status)
}

// RunTimeoutError means the run stayed queued or in_progress past the
// executor's deadline or attempt cap.
type RunTimeoutError struct {
	Elapsed  time.Duration
	Attempts int
}

func (e *RunTimeoutError) Error() string {
	return fmt.Sprintf("run still in flight after %s (%d polls)", e.Elapsed.Round(time.Millisecond), e.Attempts)
}

// NoAssistantOutputError means a run completed but the conversation holds no
// assistant message to return.
type NoAssistantOutputError struct {
	ConversationID string
	RunID          string
}

func (e *NoAssistantOutputError) Error() string {
	return fmt.Sprintf("run %s completed but conversation %s has no assistant output", e.RunID, e.ConversationID)
}
