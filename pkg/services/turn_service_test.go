package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compasshq/compass/ent"
	"github.com/compasshq/compass/pkg/assistant"
)

func setupThreadForTurns(t *testing.T, client *ent.Client, remote *fakeAssistant) string {
	t.Helper()
	owner := createTestUser(t, client, "turns@example.com")
	th, _, err := NewThreadService(client, remote).GetOrCreateThread(context.Background(), owner.ID, "swot", false)
	require.NoError(t, err)
	return th.ID
}

func TestAppendTurn(t *testing.T) {
	client := setupTestClient(t)
	remote := newFakeAssistant()
	svc := NewTurnService(client, remote)
	ctx := context.Background()
	threadID := setupThreadForTurns(t, client, remote)

	turn1, err := svc.AppendTurn(ctx, threadID, assistant.RoleUser, "What are my strengths?", map[string]interface{}{"stage": "swot"})
	require.NoError(t, err)
	assert.Equal(t, "user", string(turn1.Role))
	assert.Equal(t, "What are my strengths?", turn1.Content)

	// Message reached the remote conversation
	messages, err := remote.ListMessages(ctx, threadID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "What are my strengths?", messages[0].Content)
}

func TestAppendTurnRemoteFailure(t *testing.T) {
	client := setupTestClient(t)
	remote := newFakeAssistant()
	svc := NewTurnService(client, remote)
	ctx := context.Background()
	threadID := setupThreadForTurns(t, client, remote)

	remote.appendErr = errors.New("rate limited")

	_, err := svc.AppendTurn(ctx, threadID, assistant.RoleUser, "hello", nil)
	require.Error(t, err)

	// Remote rejected: no local row either
	turns, terr := svc.ListTurns(ctx, threadID)
	require.NoError(t, terr)
	assert.Empty(t, turns)
}

func TestAppendTurnLocalFailure(t *testing.T) {
	client := setupTestClient(t)
	remote := newFakeAssistant()
	svc := NewTurnService(client, remote)
	ctx := context.Background()

	// Conversation exists remotely but there is no local thread row, so the
	// FK fails after the remote append succeeded.
	convID, err := remote.CreateConversation(ctx)
	require.NoError(t, err)

	_, err = svc.AppendTurn(ctx, convID, assistant.RoleUser, "hello", nil)
	require.Error(t, err)

	var rae *RemoteAppliedError
	require.ErrorAs(t, err, &rae)
	assert.Equal(t, "append turn", rae.Op)
	assert.NotEmpty(t, rae.RemoteID)
}

func TestAppendTurnValidation(t *testing.T) {
	svc := NewTurnService(setupTestClient(t), newFakeAssistant())
	ctx := context.Background()

	_, err := svc.AppendTurn(ctx, "", assistant.RoleUser, "hello", nil)
	assert.True(t, IsValidationError(err))

	_, err = svc.AppendTurn(ctx, "thread", "system", "hello", nil)
	assert.True(t, IsValidationError(err))

	_, err = svc.AppendTurn(ctx, "thread", assistant.RoleUser, "", nil)
	assert.True(t, IsValidationError(err))
}

func TestListTurnsOrder(t *testing.T) {
	client := setupTestClient(t)
	remote := newFakeAssistant()
	svc := NewTurnService(client, remote)
	ctx := context.Background()
	threadID := setupThreadForTurns(t, client, remote)

	_, err := svc.AppendTurn(ctx, threadID, assistant.RoleUser, "first", nil)
	require.NoError(t, err)
	_, err = svc.RecordTurn(ctx, threadID, assistant.RoleAssistant, "second", nil)
	require.NoError(t, err)
	_, err = svc.AppendTurn(ctx, threadID, assistant.RoleUser, "third", nil)
	require.NoError(t, err)

	turns, err := svc.ListTurns(ctx, threadID)
	require.NoError(t, err)
	require.Len(t, turns, 3)

	// Oldest first
	assert.Equal(t, "first", turns[0].Content)
	assert.Equal(t, "second", turns[1].Content)
	assert.Equal(t, "third", turns[2].Content)
}
