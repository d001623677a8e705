package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compasshq/compass/ent"
	"github.com/compasshq/compass/pkg/config"
)

func setupAnswerTest(t *testing.T) (*ent.Client, *AnswerService, string) {
	t.Helper()
	client := setupTestClient(t)
	owner := createTestUser(t, client, "answers@example.com")
	stages := config.NewStageRegistry(map[string]*config.StageConfig{
		"mission": {
			PersonaID:    "asst_mission",
			Instructions: "Mission exercise.",
			Questions:    []string{"motivating_activities", "beneficiaries", "decision_values"},
		},
		"freeform": {
			PersonaID:    "asst_free",
			Instructions: "Open questions.",
		},
	})
	return client, NewAnswerService(client, stages), owner.ID
}

func TestSaveAnswersCreatesThenUpdates(t *testing.T) {
	client, svc, ownerID := setupAnswerTest(t)
	ctx := context.Background()

	saved, err := svc.SaveAnswers(ctx, ownerID, "mission", map[string]string{
		"motivating_activities": "Teaching",
		"beneficiaries":         "Students",
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "beneficiaries", saved[0].Question)
	assert.Equal(t, "motivating_activities", saved[1].Question)

	// Re-saving a question updates its row instead of inserting another
	saved, err = svc.SaveAnswers(ctx, ownerID, "mission", map[string]string{
		"motivating_activities": "Mentoring",
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Mentoring", saved[0].Response)

	count, err := client.Answer.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSaveAnswersFiltersUnknownQuestions(t *testing.T) {
	client, svc, ownerID := setupAnswerTest(t)
	ctx := context.Background()

	saved, err := svc.SaveAnswers(ctx, ownerID, "mission", map[string]string{
		"motivating_activities": "Writing",
		"not_a_question":        "dropped",
		"beneficiaries":         "",
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "motivating_activities", saved[0].Question)

	count, err := client.Answer.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Nothing survives the filter
	_, err = svc.SaveAnswers(ctx, ownerID, "mission", map[string]string{
		"not_a_question": "dropped",
	})
	assert.True(t, IsValidationError(err))
}

func TestSaveAnswersFreeformStage(t *testing.T) {
	_, svc, ownerID := setupAnswerTest(t)
	ctx := context.Background()

	// No configured question list: any non-empty key is accepted
	saved, err := svc.SaveAnswers(ctx, ownerID, "freeform", map[string]string{
		"anything": "goes",
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "anything", saved[0].Question)
}

func TestUpdateAnswer(t *testing.T) {
	_, svc, ownerID := setupAnswerTest(t)
	ctx := context.Background()

	a, err := svc.UpdateAnswer(ctx, ownerID, "mission", "decision_values", "Integrity")
	require.NoError(t, err)
	assert.Equal(t, "Integrity", a.Response)

	updated, err := svc.UpdateAnswer(ctx, ownerID, "mission", "decision_values", "Integrity and curiosity")
	require.NoError(t, err)
	assert.Equal(t, a.ID, updated.ID)
	assert.Equal(t, "Integrity and curiosity", updated.Response)

	t.Run("unknown question rejected", func(t *testing.T) {
		_, err := svc.UpdateAnswer(ctx, ownerID, "mission", "not_a_question", "x")
		assert.True(t, IsValidationError(err))
	})

	t.Run("empty response rejected", func(t *testing.T) {
		_, err := svc.UpdateAnswer(ctx, ownerID, "mission", "decision_values", "")
		assert.True(t, IsValidationError(err))
	})
}

func TestListAndDeleteAnswers(t *testing.T) {
	_, svc, ownerID := setupAnswerTest(t)
	ctx := context.Background()

	_, err := svc.SaveAnswers(ctx, ownerID, "mission", map[string]string{
		"decision_values":       "Honesty",
		"motivating_activities": "Building",
	})
	require.NoError(t, err)
	_, err = svc.SaveAnswers(ctx, ownerID, "freeform", map[string]string{"other": "kept"})
	require.NoError(t, err)

	answers, err := svc.ListAnswers(ctx, ownerID, "mission")
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, "decision_values", answers[0].Question)
	assert.Equal(t, "motivating_activities", answers[1].Question)

	n, err := svc.DeleteAnswers(ctx, ownerID, "mission")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	answers, err = svc.ListAnswers(ctx, ownerID, "mission")
	require.NoError(t, err)
	assert.Empty(t, answers)

	// Other stages untouched
	answers, err = svc.ListAnswers(ctx, ownerID, "freeform")
	require.NoError(t, err)
	assert.Len(t, answers, 1)
}

func TestSaveAnswersMissingOwner(t *testing.T) {
	_, svc, _ := setupAnswerTest(t)

	_, err := svc.SaveAnswers(context.Background(), "no-such-user", "freeform", map[string]string{"q": "a"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnswerValidation(t *testing.T) {
	_, svc, ownerID := setupAnswerTest(t)
	ctx := context.Background()

	_, err := svc.SaveAnswers(ctx, "", "mission", map[string]string{"decision_values": "x"})
	assert.True(t, IsValidationError(err))

	_, err = svc.SaveAnswers(ctx, ownerID, "", map[string]string{"decision_values": "x"})
	assert.True(t, IsValidationError(err))

	_, err = svc.ListAnswers(ctx, ownerID, "")
	assert.True(t, IsValidationError(err))

	_, err = svc.DeleteAnswers(ctx, "", "mission")
	assert.True(t, IsValidationError(err))
}
