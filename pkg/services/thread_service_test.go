package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compasshq/compass/ent/thread"
)

func TestGetOrCreateThread(t *testing.T) {
	client := setupTestClient(t)
	remote := newFakeAssistant()
	svc := NewThreadService(client, remote)
	ctx := context.Background()
	owner := createTestUser(t, client, "threads@example.com")

	t.Run("creates thread backed by remote conversation", func(t *testing.T) {
		th, created, err := svc.GetOrCreateThread(ctx, owner.ID, "swot", false)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "conv_1", th.ID, "thread id is the remote conversation id")
		assert.Equal(t, thread.StatusActive, th.Status)
	})

	t.Run("second call returns the same thread", func(t *testing.T) {
		th, created, err := svc.GetOrCreateThread(ctx, owner.ID, "swot", false)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "conv_1", th.ID)
	})

	t.Run("force new archives the old thread", func(t *testing.T) {
		th, created, err := svc.GetOrCreateThread(ctx, owner.ID, "swot", true)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, "conv_1", th.ID)

		old, err := client.Thread.Get(ctx, "conv_1")
		require.NoError(t, err)
		assert.Equal(t, thread.StatusArchived, old.Status)
	})

	t.Run("different stages get different threads", func(t *testing.T) {
		th, created, err := svc.GetOrCreateThread(ctx, owner.ID, "okr", false)
		require.NoError(t, err)
		assert.True(t, created)

		swot, _, err := svc.GetOrCreateThread(ctx, owner.ID, "swot", false)
		require.NoError(t, err)
		assert.NotEqual(t, th.ID, swot.ID)
	})
}

func TestGetOrCreateThreadRemoteFailure(t *testing.T) {
	client := setupTestClient(t)
	remote := newFakeAssistant()
	remote.createErr = errors.New("service unavailable")
	svc := NewThreadService(client, remote)
	owner := createTestUser(t, client, "remote-fail@example.com")

	_, _, err := svc.GetOrCreateThread(context.Background(), owner.ID, "swot", false)
	require.Error(t, err)

	var tce *ThreadCreationError
	assert.ErrorAs(t, err, &tce)

	// Nothing persisted locally
	count, cerr := client.Thread.Query().Count(context.Background())
	require.NoError(t, cerr)
	assert.Zero(t, count)
}

func TestGetOrCreateThreadLocalFailure(t *testing.T) {
	client := setupTestClient(t)
	remote := newFakeAssistant()
	svc := NewThreadService(client, remote)

	// No user row: the FK on owner_id fails after the remote conversation
	// was created, and no concurrent winner exists to fall back to.
	_, _, err := svc.GetOrCreateThread(context.Background(), "missing-owner", "swot", false)
	require.Error(t, err)

	var rae *RemoteAppliedError
	require.ErrorAs(t, err, &rae)
	assert.Equal(t, "create thread", rae.Op)
	assert.Equal(t, "conv_1", rae.RemoteID, "error carries the orphaned remote id")
}

func TestGetOrCreateThreadValidation(t *testing.T) {
	svc := NewThreadService(setupTestClient(t), newFakeAssistant())

	_, _, err := svc.GetOrCreateThread(context.Background(), "", "swot", false)
	assert.True(t, IsValidationError(err))

	_, _, err = svc.GetOrCreateThread(context.Background(), "owner", "", false)
	assert.True(t, IsValidationError(err))
}

func TestGetThread(t *testing.T) {
	client := setupTestClient(t)
	remote := newFakeAssistant()
	svc := NewThreadService(client, remote)
	ctx := context.Background()
	owner := createTestUser(t, client, "get@example.com")
	other := createTestUser(t, client, "other@example.com")

	created, _, err := svc.GetOrCreateThread(ctx, owner.ID, "mission", false)
	require.NoError(t, err)

	th, err := svc.GetThread(ctx, owner.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, th.ID)

	// Another owner cannot see the thread
	_, err = svc.GetThread(ctx, other.ID, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetThread(ctx, owner.ID, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListThreads(t *testing.T) {
	client := setupTestClient(t)
	remote := newFakeAssistant()
	svc := NewThreadService(client, remote)
	ctx := context.Background()
	owner := createTestUser(t, client, "list@example.com")

	for _, stage := range []string{"mission", "swot", "okr"} {
		_, _, err := svc.GetOrCreateThread(ctx, owner.ID, stage, false)
		require.NoError(t, err)
	}

	threads, err := svc.ListThreads(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, threads, 3)
}
