package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/compasshq/compass/ent"
	"github.com/compasshq/compass/ent/answer"
	"github.com/compasshq/compass/pkg/config"
)

// AnswerService stores per-stage questionnaire answers, one row per
// (owner, stage, question). Stages with a configured question list only
// accept those keys; unknown keys are dropped on batch saves and rejected on
// single-question updates.
type AnswerService struct {
	client *ent.Client
	stages *config.StageRegistry
}

// NewAnswerService creates a new AnswerService
func NewAnswerService(client *ent.Client, stages *config.StageRegistry) *AnswerService {
	return &AnswerService{client: client, stages: stages}
}

// SaveAnswers upserts a batch of answers for the stage. Empty responses and
// keys outside the stage's question list are dropped; at least one answer
// must survive the filter. Returns the stored rows in question order.
func (s *AnswerService) SaveAnswers(httpCtx context.Context, ownerID, stage string, answers map[string]string) ([]*ent.Answer, error) {
	if ownerID == "" {
		return nil, NewValidationError("owner_id", "required")
	}
	if stage == "" {
		return nil, NewValidationError("stage", "required")
	}

	valid := s.filterAnswers(stage, answers)
	if len(valid) == 0 {
		return nil, NewValidationError("answers", "at least one valid answer is required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 10*time.Second)
	defer cancel()

	questions := make([]string, 0, len(valid))
	for q := range valid {
		questions = append(questions, q)
	}
	sort.Strings(questions)

	saved := make([]*ent.Answer, 0, len(questions))
	for _, q := range questions {
		a, err := s.saveOne(ctx, ownerID, stage, q, valid[q])
		if err != nil {
			return nil, err
		}
		saved = append(saved, a)
	}
	return saved, nil
}

// UpdateAnswer upserts a single question's answer. Unknown questions for a
// stage with a configured question list are rejected.
func (s *AnswerService) UpdateAnswer(httpCtx context.Context, ownerID, stage, question, response string) (*ent.Answer, error) {
	if ownerID == "" {
		return nil, NewValidationError("owner_id", "required")
	}
	if stage == "" {
		return nil, NewValidationError("stage", "required")
	}
	if question == "" {
		return nil, NewValidationError("question", "required")
	}
	if response == "" {
		return nil, NewValidationError("response", "required")
	}
	if allowed := s.stages.Questions(stage); len(allowed) > 0 && !slices.Contains(allowed, question) {
		return nil, NewValidationError("question", fmt.Sprintf("unknown question '%s' for stage '%s'", question, stage))
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	return s.saveOne(ctx, ownerID, stage, question, response)
}

// ListAnswers returns the owner's answers for a stage in question order.
func (s *AnswerService) ListAnswers(httpCtx context.Context, ownerID, stage string) ([]*ent.Answer, error) {
	if ownerID == "" {
		return nil, NewValidationError("owner_id", "required")
	}
	if stage == "" {
		return nil, NewValidationError("stage", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	answers, err := s.client.Answer.Query().
		Where(answer.OwnerID(ownerID), answer.Stage(stage)).
		Order(ent.Asc(answer.FieldQuestion)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

// DeleteAnswers removes every answer the owner stored for the stage and
// returns the number of rows removed.
func (s *AnswerService) DeleteAnswers(httpCtx context.Context, ownerID, stage string) (int, error) {
	if ownerID == "" {
		return 0, NewValidationError("owner_id", "required")
	}
	if stage == "" {
		return 0, NewValidationError("stage", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	n, err := s.client.Answer.Delete().
		Where(answer.OwnerID(ownerID), answer.Stage(stage)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete answers: %w", err)
	}
	return n, nil
}

func (s *AnswerService) saveOne(ctx context.Context, ownerID, stage, question, response string) (*ent.Answer, error) {
	existing, err := s.client.Answer.Query().
		Where(answer.OwnerID(ownerID), answer.Stage(stage), answer.Question(question)).
		Only(ctx)
	if err == nil {
		updated, uerr := s.client.Answer.UpdateOne(existing).
			SetResponse(response).
			SetUpdatedAt(time.Now()).
			Save(ctx)
		if uerr != nil {
			return nil, fmt.Errorf("failed to update answer %s: %w", existing.ID, uerr)
		}
		return updated, nil
	}
	if !ent.IsNotFound(err) {
		return nil, fmt.Errorf("failed to query answer: %w", err)
	}

	created, err := s.client.Answer.Create().
		SetID(uuid.New().String()).
		SetOwnerID(ownerID).
		SetStage(stage).
		SetQuestion(question).
		SetResponse(response).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			// Lost a create race or the owner row is gone; a concurrent
			// winner's row satisfies the save, otherwise report the miss.
			winner, qerr := s.client.Answer.Query().
				Where(answer.OwnerID(ownerID), answer.Stage(stage), answer.Question(question)).
				Only(ctx)
			if qerr != nil {
				return nil, ErrNotFound
			}
			return s.client.Answer.UpdateOne(winner).
				SetResponse(response).
				SetUpdatedAt(time.Now()).
				Save(ctx)
		}
		return nil, fmt.Errorf("failed to create answer: %w", err)
	}
	return created, nil
}

// filterAnswers drops empty responses and, when the stage restricts its
// questionnaire, keys outside the configured list.
func (s *AnswerService) filterAnswers(stage string, answers map[string]string) map[string]string {
	allowed := s.stages.Questions(stage)
	valid := make(map[string]string, len(answers))
	for q, r := range answers {
		if q == "" || r == "" {
			continue
		}
		if len(allowed) > 0 && !slices.Contains(allowed, q) {
			continue
		}
		valid[q] = r
	}
	return valid
}
