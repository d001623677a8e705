package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compasshq/compass/pkg/assistant"
	"github.com/compasshq/compass/pkg/config"
)

// scriptedService walks a run through a fixed status sequence.
type scriptedService struct {
	statuses  []string // First entry is the submit status, the rest are poll observations
	pollIndex int
	messages  []*assistant.Message

	submitCalls int
	getCalls    int
	listCalls   int
}

func (s *scriptedService) CreateConversation(context.Context) (string, error) {
	return "conv_1", nil
}

func (s *scriptedService) AppendMessage(_ context.Context, _, role, content string) (*assistant.Message, error) {
	return &assistant.Message{ID: "msg_x", Role: role, Content: content}, nil
}

func (s *scriptedService) ListMessages(context.Context, string) ([]*assistant.Message, error) {
	s.listCalls++
	return s.messages, nil
}

func (s *scriptedService) SubmitRun(_ context.Context, conversationID, personaID, _ string) (*assistant.Run, error) {
	s.submitCalls++
	return &assistant.Run{
		ID:             "run_1",
		ConversationID: conversationID,
		Status:         s.statuses[0],
		PersonaID:      personaID,
	}, nil
}

func (s *scriptedService) GetRun(_ context.Context, conversationID, runID string) (*assistant.Run, error) {
	s.getCalls++
	s.pollIndex++
	idx := s.pollIndex
	if idx >= len(s.statuses) {
		idx = len(s.statuses) - 1
	}
	return &assistant.Run{
		ID:             runID,
		ConversationID: conversationID,
		Status:         s.statuses[idx],
	}, nil
}

func testExecutorConfig() *config.AssistantConfig {
	return &config.AssistantConfig{
		PollInterval:    time.Millisecond,
		RunTimeout:      time.Second,
		MaxPollAttempts: 10,
	}
}

func TestExecuteHappyPath(t *testing.T) {
	svc := &scriptedService{
		statuses: []string{assistant.RunStatusQueued, assistant.RunStatusInProgress, assistant.RunStatusCompleted},
		messages: []*assistant.Message{
			{ID: "msg_2", Role: assistant.RoleAssistant, Content: "the answer"},
			{ID: "msg_1", Role: assistant.RoleUser, Content: "the question"},
		},
	}
	executor := NewRunExecutor(svc, testExecutorConfig())

	text, err := executor.Execute(context.Background(), "conv_1", "asst_1", "instructions")
	require.NoError(t, err)
	assert.Equal(t, "the answer", text)

	// One poll per non-terminal observation: queued, then in_progress
	assert.Equal(t, 2, svc.getCalls)
	assert.Equal(t, 1, svc.listCalls)
}

func TestExecuteRunFailed(t *testing.T) {
	svc := &scriptedService{
		statuses: []string{assistant.RunStatusQueued, assistant.RunStatusFailed},
	}
	executor := NewRunExecutor(svc, testExecutorConfig())

	_, err := executor.Execute(context.Background(), "conv_1", "asst_1", "")
	require.Error(t, err)

	var rfe *RunFailedError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, "failed", rfe.Status)

	// No message reads after a failed run
	assert.Zero(t, svc.listCalls)
}

func TestExecuteUnknownStatusIsTerminal(t *testing.T) {
	svc := &scriptedService{
		statuses: []string{"requires_action"},
	}
	executor := NewRunExecutor(svc, testExecutorConfig())

	_, err := executor.Execute(context.Background(), "conv_1", "asst_1", "")

	var rfe *RunFailedError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, "requires_action", rfe.Status, "status surfaced verbatim")
	assert.Zero(t, svc.getCalls, "terminal on submit, no polling")
}

func TestExecuteAttemptCap(t *testing.T) {
	svc := &scriptedService{
		statuses: []string{assistant.RunStatusInProgress},
	}
	cfg := testExecutorConfig()
	cfg.MaxPollAttempts = 3
	executor := NewRunExecutor(svc, cfg)

	_, err := executor.Execute(context.Background(), "conv_1", "asst_1", "")
	require.Error(t, err)

	var rte *RunTimeoutError
	require.ErrorAs(t, err, &rte)
	assert.Equal(t, 3, rte.Attempts)
	assert.Equal(t, 3, svc.getCalls)
}

func TestExecuteDeadline(t *testing.T) {
	svc := &scriptedService{
		statuses: []string{assistant.RunStatusInProgress},
	}
	cfg := testExecutorConfig()
	cfg.RunTimeout = 5 * time.Millisecond
	cfg.PollInterval = 2 * time.Millisecond
	executor := NewRunExecutor(svc, cfg)

	_, err := executor.Execute(context.Background(), "conv_1", "asst_1", "")

	var rte *RunTimeoutError
	require.ErrorAs(t, err, &rte)
	assert.GreaterOrEqual(t, rte.Elapsed, 5*time.Millisecond)
}

func TestExecuteNoAssistantOutput(t *testing.T) {
	svc := &scriptedService{
		statuses: []string{assistant.RunStatusCompleted},
		messages: []*assistant.Message{
			{ID: "msg_1", Role: assistant.RoleUser, Content: "only the question"},
		},
	}
	executor := NewRunExecutor(svc, testExecutorConfig())

	_, err := executor.Execute(context.Background(), "conv_1", "asst_1", "")

	var noe *NoAssistantOutputError
	require.ErrorAs(t, err, &noe)
	assert.Equal(t, "conv_1", noe.ConversationID)
}

func TestExecuteContextCancelled(t *testing.T) {
	svc := &scriptedService{
		statuses: []string{assistant.RunStatusQueued},
	}
	cfg := testExecutorConfig()
	cfg.PollInterval = time.Minute
	executor := NewRunExecutor(svc, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := executor.Execute(ctx, "conv_1", "asst_1", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
