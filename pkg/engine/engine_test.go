package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compasshq/compass/ent"
	"github.com/compasshq/compass/ent/report"
	"github.com/compasshq/compass/pkg/assistant"
	"github.com/compasshq/compass/pkg/config"
	"github.com/compasshq/compass/pkg/services"
	testdb "github.com/compasshq/compass/test/database"
)

// workshopFake is an in-memory assistant.Service whose runs walk a status
// sequence and deliver a scripted assistant reply on completion.
type workshopFake struct {
	mu            sync.Mutex
	conversations map[string][]*assistant.Message
	nextConv      int
	nextMsg       int
	nextRun       int

	// Script
	runStatuses []string // Status sequence per run; defaults to queued, in_progress, completed
	replies     []string // Assistant reply per run, consumed in order

	runs             map[string]*fakeRun
	lastPersonaID    string
	lastInstructions string
}

type fakeRun struct {
	conversationID string
	statuses       []string
	observed       int
	delivered      bool
	reply          string
}

func newWorkshopFake(replies ...string) *workshopFake {
	return &workshopFake{
		conversations: make(map[string][]*assistant.Message),
		runs:          make(map[string]*fakeRun),
		runStatuses:   []string{assistant.RunStatusQueued, assistant.RunStatusInProgress, assistant.RunStatusCompleted},
		replies:       replies,
	}
}

func (f *workshopFake) CreateConversation(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextConv++
	id := fmt.Sprintf("conv_%d", f.nextConv)
	f.conversations[id] = nil
	return id, nil
}

func (f *workshopFake) AppendMessage(_ context.Context, conversationID, role, content string) (*assistant.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendLocked(conversationID, role, content), nil
}

func (f *workshopFake) appendLocked(conversationID, role, content string) *assistant.Message {
	f.nextMsg++
	msg := &assistant.Message{
		ID:        fmt.Sprintf("msg_%d", f.nextMsg),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().Unix(),
	}
	f.conversations[conversationID] = append(f.conversations[conversationID], msg)
	return msg
}

func (f *workshopFake) ListMessages(_ context.Context, conversationID string) ([]*assistant.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.conversations[conversationID]
	out := make([]*assistant.Message, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

func (f *workshopFake) SubmitRun(_ context.Context, conversationID, personaID, instructions string) (*assistant.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextRun++
	id := fmt.Sprintf("run_%d", f.nextRun)

	reply := ""
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}

	run := &fakeRun{
		conversationID: conversationID,
		statuses:       f.runStatuses,
		reply:          reply,
	}
	f.runs[id] = run
	f.lastPersonaID = personaID
	f.lastInstructions = instructions

	f.deliverIfDone(run, run.statuses[0])
	return &assistant.Run{ID: id, ConversationID: conversationID, Status: run.statuses[0], PersonaID: personaID}, nil
}

func (f *workshopFake) GetRun(_ context.Context, conversationID, runID string) (*assistant.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok {
		return nil, fmt.Errorf("unknown run %s", runID)
	}
	run.observed++
	idx := run.observed
	if idx >= len(run.statuses) {
		idx = len(run.statuses) - 1
	}
	status := run.statuses[idx]
	f.deliverIfDone(run, status)
	return &assistant.Run{ID: runID, ConversationID: conversationID, Status: status}, nil
}

func (f *workshopFake) deliverIfDone(run *fakeRun, status string) {
	if status == assistant.RunStatusCompleted && !run.delivered && run.reply != "" {
		f.appendLocked(run.conversationID, assistant.RoleAssistant, run.reply)
		run.delivered = true
	}
}

func setupEngine(t *testing.T, fake *workshopFake, stages map[string]*config.StageConfig) (*Engine, *ent.Client, string) {
	t.Helper()
	client := testdb.NewTestClient(t).Client

	cfg := &config.Config{
		Stages: config.NewStageRegistry(stages),
		Assistant: &config.AssistantConfig{
			PollInterval:    time.Millisecond,
			RunTimeout:      time.Second,
			MaxPollAttempts: 20,
		},
		Report: &config.ReportConfig{
			VerifyAttempts: 3,
			VerifyBackoff:  time.Millisecond,
		},
	}

	threads := services.NewThreadService(client, fake)
	turns := services.NewTurnService(client, fake)
	reports := services.NewReportService(client, cfg.Report)
	executor := NewRunExecutor(fake, cfg.Assistant)

	owner, err := client.User.Create().
		SetID("owner_1").
		SetEmail("engine@example.com").
		SetFullName("Engine Test").
		SetPasswordHash("x").
		Save(context.Background())
	require.NoError(t, err)

	return New(cfg, threads, turns, reports, executor), client, owner.ID
}

func defaultStages() map[string]*config.StageConfig {
	return map[string]*config.StageConfig{
		"swot": {
			PersonaID:    "asst_swot",
			Instructions: "Run the SWOT analysis.",
		},
		config.DefaultStageName: {
			PersonaID:    "asst_default",
			Instructions: "General workshop guidance.",
		},
	}
}

func TestRunStageTurnWithDirective(t *testing.T) {
	fake := newWorkshopFake("Done! [UPDATE_REPORT:true][NEW_CONTENT:New SWOT summary][END_UPDATE] Anything else?")
	eng, client, ownerID := setupEngine(t, fake, defaultStages())
	ctx := context.Background()

	result, err := eng.RunStageTurn(ctx, ownerID, "swot", "Here are my strengths.", false)
	require.NoError(t, err)

	assert.Equal(t, "Done!  Anything else?", result.CleanText)
	assert.True(t, result.ReportUpdated)

	// The persisted report holds the directive content, finalized
	require.NotNil(t, result.Report)
	assert.Equal(t, "New SWOT summary", result.Report.Content)
	assert.Equal(t, report.StatusFinalized, result.Report.Status)

	// History mirrors both turns, assistant side clean of markers
	require.Len(t, result.History, 2)
	assert.Equal(t, "user", string(result.History[0].Role))
	assert.Equal(t, "Here are my strengths.", result.History[0].Content)
	assert.Equal(t, "assistant", string(result.History[1].Role))
	assert.NotContains(t, result.History[1].Content, "UPDATE_REPORT")

	// The stage persona drove the run
	assert.Equal(t, "asst_swot", fake.lastPersonaID)
	assert.Equal(t, "Run the SWOT analysis.", fake.lastInstructions)

	// Exactly one report row exists
	count, err := client.Report.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunStageTurnNoDirective(t *testing.T) {
	fake := newWorkshopFake("Just a plain answer.")
	eng, _, ownerID := setupEngine(t, fake, defaultStages())

	result, err := eng.RunStageTurn(context.Background(), ownerID, "swot", "Question?", false)
	require.NoError(t, err)

	assert.Equal(t, "Just a plain answer.", result.CleanText)
	assert.False(t, result.ReportUpdated)
	assert.Nil(t, result.Report)
}

func TestRunStageTurnReusesThread(t *testing.T) {
	fake := newWorkshopFake("First reply.", "Second reply.")
	eng, _, ownerID := setupEngine(t, fake, defaultStages())
	ctx := context.Background()

	first, err := eng.RunStageTurn(ctx, ownerID, "swot", "One", false)
	require.NoError(t, err)

	second, err := eng.RunStageTurn(ctx, ownerID, "swot", "Two", false)
	require.NoError(t, err)

	assert.Equal(t, first.ThreadID, second.ThreadID)
	assert.Len(t, second.History, 4)
}

func TestRunStageTurnUnconfiguredStageUsesDefault(t *testing.T) {
	fake := newWorkshopFake("Default persona speaking.")
	eng, _, ownerID := setupEngine(t, fake, defaultStages())

	result, err := eng.RunStageTurn(context.Background(), ownerID, "never-configured", "Hello", false)
	require.NoError(t, err)

	assert.Equal(t, "Default persona speaking.", result.CleanText)
	assert.Equal(t, "asst_default", fake.lastPersonaID)
}

func TestRunStageTurnUnresolvableStage(t *testing.T) {
	fake := newWorkshopFake()
	eng, _, ownerID := setupEngine(t, fake, map[string]*config.StageConfig{
		"swot": {PersonaID: "asst_swot", Instructions: "x"},
	})

	_, err := eng.RunStageTurn(context.Background(), ownerID, "okr", "Hello", false)
	assert.ErrorIs(t, err, config.ErrStageNotFound)
}

func TestRunStageTurnRunFailure(t *testing.T) {
	fake := newWorkshopFake("never delivered")
	fake.runStatuses = []string{assistant.RunStatusQueued, assistant.RunStatusFailed}
	eng, client, ownerID := setupEngine(t, fake, defaultStages())
	ctx := context.Background()

	_, err := eng.RunStageTurn(ctx, ownerID, "swot", "Hello", false)
	require.Error(t, err)

	var rfe *RunFailedError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, "failed", rfe.Status)

	// The user turn persisted before the run; no fabricated assistant turn
	turns, terr := client.Turn.Query().All(ctx)
	require.NoError(t, terr)
	require.Len(t, turns, 1)
	assert.Equal(t, "user", string(turns[0].Role))
}

func TestRunStageTurnReportKindOverride(t *testing.T) {
	stages := defaultStages()
	stages["wheel-of-life"] = &config.StageConfig{
		PersonaID:    "asst_wheel",
		Instructions: "Wheel exercise.",
		ReportKind:   "life-balance",
	}
	fake := newWorkshopFake("[UPDATE_REPORT:true][NEW_CONTENT:Balanced.][END_UPDATE]")
	eng, client, ownerID := setupEngine(t, fake, stages)
	ctx := context.Background()

	result, err := eng.RunStageTurn(ctx, ownerID, "wheel-of-life", "Scores attached.", false)
	require.NoError(t, err)
	require.NotNil(t, result.Report)
	assert.Equal(t, "life-balance", result.Report.Kind)

	// Pure-directive reply: no assistant mirror row, nothing to display
	turns, err := client.Turn.Query().All(ctx)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
	assert.Empty(t, result.CleanText)
}

func TestRunStageTurnPureDirectiveHistoryIsClean(t *testing.T) {
	fake := newWorkshopFake("[UPDATE_REPORT:true][NEW_CONTENT:Only the report changed.][END_UPDATE]")
	eng, _, ownerID := setupEngine(t, fake, defaultStages())

	result, err := eng.RunStageTurn(context.Background(), ownerID, "swot", "Save it.", false)
	require.NoError(t, err)

	assert.Empty(t, result.CleanText)
	assert.True(t, result.ReportUpdated)
	require.NotNil(t, result.Report)
	assert.Equal(t, "Only the report changed.", result.Report.Content)

	// Marker syntax never reaches the caller, in any turn
	require.Len(t, result.History, 1)
	assert.Equal(t, "user", string(result.History[0].Role))
	for _, turn := range result.History {
		assert.NotContains(t, turn.Content, "UPDATE_REPORT")
		assert.NotContains(t, turn.Content, "END_UPDATE")
	}
}

func TestRunStageTurnValidation(t *testing.T) {
	fake := newWorkshopFake()
	eng, _, ownerID := setupEngine(t, fake, defaultStages())

	_, err := eng.RunStageTurn(context.Background(), ownerID, "swot", "", false)
	assert.True(t, services.IsValidationError(err))
}
