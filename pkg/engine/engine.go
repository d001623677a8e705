package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/compasshq/compass/ent"
	"github.com/compasshq/compass/ent/report"
	"github.com/compasshq/compass/pkg/assistant"
	"github.com/compasshq/compass/pkg/config"
	"github.com/compasshq/compass/pkg/directive"
	"github.com/compasshq/compass/pkg/services"
)

// Engine composes the thread registry, message store, run executor, directive
// parser, and report upsert into the single "run one stage turn" operation.
type Engine struct {
	cfg      *config.Config
	threads  *services.ThreadService
	turns    *services.TurnService
	reports  *services.ReportService
	executor *RunExecutor
}

// New creates an Engine wired to the given services and remote executor.
func New(cfg *config.Config, threads *services.ThreadService, turns *services.TurnService, reports *services.ReportService, executor *RunExecutor) *Engine {
	return &Engine{
		cfg:      cfg,
		threads:  threads,
		turns:    turns,
		reports:  reports,
		executor: executor,
	}
}

// StageTurnResult is what one stage turn returns to the caller.
type StageTurnResult struct {
	ThreadID      string
	CleanText     string
	ReportUpdated bool
	History       []*ent.Turn
	Report        *ent.Report // nil when no report exists yet
}

// RunStageTurn runs one full workshop turn: resolve the stage persona, get or
// create the thread, append the user's message, execute a run, strip report
// directives from the assistant's reply, apply any requested report update,
// and return the clean reply with the full turn history and current report.
func (e *Engine) RunStageTurn(ctx context.Context, ownerID, stage, userContent string, forceNewThread bool) (*StageTurnResult, error) {
	if userContent == "" {
		return nil, services.NewValidationError("content", "required")
	}

	stageCfg, err := e.cfg.Stages.Resolve(stage)
	if err != nil {
		return nil, err
	}

	th, created, err := e.threads.GetOrCreateThread(ctx, ownerID, stage, forceNewThread)
	if err != nil {
		return nil, err
	}
	if created {
		slog.Info("Thread created for stage turn",
			"thread_id", th.ID, "owner_id", ownerID, "stage", stage)
	}

	if _, err := e.turns.AppendTurn(ctx, th.ID, assistant.RoleUser, userContent, map[string]interface{}{
		"stage": stage,
	}); err != nil {
		return nil, err
	}

	raw, err := e.executor.Execute(ctx, th.ID, stageCfg.PersonaID, stageCfg.Instructions)
	if err != nil {
		return nil, err
	}

	parsed := directive.Parse(raw)

	// The local mirror keeps what the user will see. A reply that was pure
	// directive markers has no displayable text; skip the mirror row rather
	// than persist marker syntax. The remote conversation still holds the
	// full reply.
	if parsed.CleanText != "" {
		if _, err := e.turns.RecordTurn(ctx, th.ID, assistant.RoleAssistant, parsed.CleanText, map[string]interface{}{
			"stage": stage,
		}); err != nil {
			return nil, err
		}
	}

	kind := e.cfg.Stages.ReportKind(stage)

	if parsed.ShouldUpdate {
		if _, err := e.reports.UpsertReport(ctx, th.ID, kind, &parsed.NewContent, nil, report.StatusFinalized); err != nil {
			return nil, fmt.Errorf("assistant requested report update: %w", err)
		}
		slog.Info("Report updated by directive",
			"thread_id", th.ID, "kind", kind)
	}

	history, err := e.turns.ListTurns(ctx, th.ID)
	if err != nil {
		return nil, err
	}

	current, err := e.reports.GetReport(ctx, th.ID, kind)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		return nil, err
	}

	return &StageTurnResult{
		ThreadID:      th.ID,
		CleanText:     parsed.CleanText,
		ReportUpdated: parsed.ShouldUpdate,
		History:       history,
		Report:        current,
	}, nil
}
