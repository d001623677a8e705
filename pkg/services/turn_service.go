package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/compasshq/compass/ent"
	"github.com/compasshq/compass/ent/turn"
	"github.com/compasshq/compass/pkg/assistant"
)

// TurnService mirrors conversation messages into local turn rows. The remote
// append happens first; only a message the remote service accepted is
// persisted locally.
type TurnService struct {
	client *ent.Client
	remote assistant.Service
}

// NewTurnService creates a new TurnService
func NewTurnService(client *ent.Client, remote assistant.Service) *TurnService {
	return &TurnService{client: client, remote: remote}
}

// AppendTurn appends a message to the remote conversation and persists the
// local mirror row. A local failure after the remote accepted surfaces as
// RemoteAppliedError carrying the remote message id.
func (s *TurnService) AppendTurn(httpCtx context.Context, threadID, role, content string, metadata map[string]interface{}) (*ent.Turn, error) {
	if threadID == "" {
		return nil, NewValidationError("thread_id", "required")
	}
	if role != assistant.RoleUser && role != assistant.RoleAssistant {
		return nil, NewValidationError("role", "must be 'user' or 'assistant'")
	}
	if content == "" {
		return nil, NewValidationError("content", "required")
	}

	msg, err := s.remote.AppendMessage(httpCtx, threadID, role, content)
	if err != nil {
		return nil, fmt.Errorf("failed to append message to conversation %s: %w", threadID, err)
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	builder := s.client.Turn.Create().
		SetID(uuid.New().String()).
		SetThreadID(threadID).
		SetRole(turn.Role(role)).
		SetContent(content).
		SetCreatedAt(time.Now())
	if metadata != nil {
		builder.SetMetadata(metadata)
	}

	t, err := builder.Save(ctx)
	if err != nil {
		return nil, &RemoteAppliedError{
			Op:       "append turn",
			RemoteID: msg.ID,
			Err:      err,
		}
	}
	return t, nil
}

// RecordTurn persists a local turn row for a message that already exists
// remotely (assistant output read back from a completed run).
func (s *TurnService) RecordTurn(httpCtx context.Context, threadID, role, content string, metadata map[string]interface{}) (*ent.Turn, error) {
	if threadID == "" {
		return nil, NewValidationError("thread_id", "required")
	}
	if content == "" {
		return nil, NewValidationError("content", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	builder := s.client.Turn.Create().
		SetID(uuid.New().String()).
		SetThreadID(threadID).
		SetRole(turn.Role(role)).
		SetContent(content).
		SetCreatedAt(time.Now())
	if metadata != nil {
		builder.SetMetadata(metadata)
	}

	t, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to record turn: %w", err)
	}
	return t, nil
}

// ListTurns returns the thread's turns in conversation order (oldest first).
func (s *TurnService) ListTurns(httpCtx context.Context, threadID string) ([]*ent.Turn, error) {
	if threadID == "" {
		return nil, NewValidationError("thread_id", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	turns, err := s.client.Turn.Query().
		Where(turn.ThreadID(threadID)).
		Order(ent.Asc(turn.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	return turns, nil
}
