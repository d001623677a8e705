// Package services contains business logic service layer implementations.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/compasshq/compass/ent"
	"github.com/compasshq/compass/ent/thread"
	"github.com/compasshq/compass/pkg/assistant"
)

// ThreadService correlates (owner, stage) pairs to remote conversations.
// The remote conversation is created first; its id becomes the thread id, so
// a thread row never exists without a backing conversation.
type ThreadService struct {
	client *ent.Client
	remote assistant.Service
}

// NewThreadService creates a new ThreadService
func NewThreadService(client *ent.Client, remote assistant.Service) *ThreadService {
	return &ThreadService{client: client, remote: remote}
}

// GetOrCreateThread returns the owner's active thread for the stage, creating
// one if none exists. With forceNew, any existing active thread is archived
// first. Returns (thread, created, error).
func (s *ThreadService) GetOrCreateThread(httpCtx context.Context, ownerID, stage string, forceNew bool) (*ent.Thread, bool, error) {
	if ownerID == "" {
		return nil, false, NewValidationError("owner_id", "required")
	}
	if stage == "" {
		return nil, false, NewValidationError("stage", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	existing, err := s.activeThread(ctx, ownerID, stage)
	if err != nil && !ent.IsNotFound(err) {
		return nil, false, fmt.Errorf("failed to query threads: %w", err)
	}

	if existing != nil {
		if !forceNew {
			return existing, false, nil
		}
		// Archive before creating so the partial unique index admits the
		// replacement.
		if err := s.client.Thread.UpdateOneID(existing.ID).
			SetStatus(thread.StatusArchived).
			Exec(ctx); err != nil {
			return nil, false, fmt.Errorf("failed to archive thread %s: %w", existing.ID, err)
		}
		slog.Info("Archived thread for forced recreation",
			"thread_id", existing.ID, "owner_id", ownerID, "stage", stage)
	}

	// Remote first: the conversation id becomes the thread id.
	conversationID, err := s.remote.CreateConversation(httpCtx)
	if err != nil {
		return nil, false, &ThreadCreationError{Err: err}
	}

	created, err := s.client.Thread.Create().
		SetID(conversationID).
		SetOwnerID(ownerID).
		SetStage(stage).
		SetTitle(stage).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			// Lost a race with a concurrent request for the same
			// (owner, stage). The winner's thread is the thread; our remote
			// conversation is orphaned and only logged.
			winner, qerr := s.activeThread(ctx, ownerID, stage)
			if qerr == nil {
				slog.Warn("Concurrent thread creation lost race, orphaning remote conversation",
					"orphaned_conversation_id", conversationID,
					"winner_thread_id", winner.ID,
					"owner_id", ownerID, "stage", stage)
				return winner, false, nil
			}
		}
		return nil, false, &RemoteAppliedError{
			Op:       "create thread",
			RemoteID: conversationID,
			Err:      err,
		}
	}

	return created, true, nil
}

// GetThread returns the thread if it exists and belongs to the owner.
func (s *ThreadService) GetThread(httpCtx context.Context, ownerID, threadID string) (*ent.Thread, error) {
	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	th, err := s.client.Thread.Get(ctx, threadID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	if th.OwnerID != ownerID {
		// Ownership mismatch is indistinguishable from absence to the caller
		return nil, ErrNotFound
	}
	return th, nil
}

// ListThreads returns all of the owner's threads, newest first.
func (s *ThreadService) ListThreads(httpCtx context.Context, ownerID string) ([]*ent.Thread, error) {
	if ownerID == "" {
		return nil, NewValidationError("owner_id", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	threads, err := s.client.Thread.Query().
		Where(thread.OwnerID(ownerID)).
		Order(ent.Desc(thread.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return threads, nil
}

func (s *ThreadService) activeThread(ctx context.Context, ownerID, stage string) (*ent.Thread, error) {
	return s.client.Thread.Query().
		Where(
			thread.OwnerID(ownerID),
			thread.StageEQ(stage),
			thread.StatusEQ(thread.StatusActive),
		).
		Order(ent.Desc(thread.FieldCreatedAt)).
		First(ctx)
}
