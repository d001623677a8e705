package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/compasshq/compass/ent"
	"github.com/compasshq/compass/ent/report"
	"github.com/compasshq/compass/pkg/config"
)

// placeholderContent fills a report row created before any content exists.
const placeholderContent = "Report content is being generated."

// ReportService owns the report upsert path. Every write is followed by a
// bounded poll-until-visible re-read: the backing store is treated as
// eventually consistent, and a write that cannot be confirmed is an error,
// never a silent success.
type ReportService struct {
	client *ent.Client
	cfg    *config.ReportConfig
}

// NewReportService creates a new ReportService
func NewReportService(client *ent.Client, cfg *config.ReportConfig) *ReportService {
	return &ReportService{client: client, cfg: cfg}
}

// UpsertReport updates the most recent report row for (threadID, kind) with
// the supplied fields, or inserts a new row if none exists. Only supplied
// fields are written on update; content defaults to a placeholder and status
// to createDefault on insert. The two call sites carry different insert
// defaults: "finalized" for the directive-driven path, "generated" for the
// direct-save path.
func (s *ReportService) UpsertReport(httpCtx context.Context, threadID, kind string, content, status *string, createDefault report.Status) (*ent.Report, error) {
	if threadID == "" {
		return nil, NewValidationError("thread_id", "required")
	}
	if kind == "" {
		return nil, NewValidationError("kind", "required")
	}
	if status != nil {
		if err := report.StatusValidator(report.Status(*status)); err != nil {
			return nil, NewValidationError("status", fmt.Sprintf("unknown status '%s'", *status))
		}
	}

	ctx, cancel := context.WithTimeout(httpCtx, 10*time.Second)
	defer cancel()

	existing, err := s.mostRecent(ctx, threadID, kind)
	if err != nil && !ent.IsNotFound(err) {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}

	if existing != nil {
		return s.update(ctx, existing, content, status)
	}
	return s.create(ctx, threadID, kind, content, createDefault)
}

// FinalizeReport marks the report finalized without touching its content.
func (s *ReportService) FinalizeReport(httpCtx context.Context, threadID, kind string) (*ent.Report, error) {
	finalized := string(report.StatusFinalized)
	return s.UpsertReport(httpCtx, threadID, kind, nil, &finalized, report.StatusFinalized)
}

// GetReport returns the most recent report row for (threadID, kind).
func (s *ReportService) GetReport(httpCtx context.Context, threadID, kind string) (*ent.Report, error) {
	if threadID == "" {
		return nil, NewValidationError("thread_id", "required")
	}
	if kind == "" {
		return nil, NewValidationError("kind", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	r, err := s.mostRecent(ctx, threadID, kind)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return r, nil
}

func (s *ReportService) update(ctx context.Context, existing *ent.Report, content, status *string) (*ent.Report, error) {
	builder := s.client.Report.UpdateOneID(existing.ID).
		SetUpdatedAt(time.Now())
	if content != nil {
		builder.SetContent(*content)
	}
	if status != nil {
		builder.SetStatus(report.Status(*status))
	}

	if err := builder.Exec(ctx); err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update report %s: %w", existing.ID, err)
	}

	// Poll until the write is visible and the supplied fields read back as
	// written.
	var mismatch string
	for attempt := 1; attempt <= s.cfg.VerifyAttempts; attempt++ {
		stored, err := s.client.Report.Get(ctx, existing.ID)
		if err == nil {
			mismatch = ""
			if content != nil && stored.Content != *content {
				mismatch = report.FieldContent
			}
			if mismatch == "" && status != nil && string(stored.Status) != *status {
				mismatch = report.FieldStatus
			}
			if mismatch == "" {
				return stored, nil
			}
		} else if !ent.IsNotFound(err) {
			return nil, fmt.Errorf("failed to verify report %s: %w", existing.ID, err)
		} else {
			mismatch = "existence"
		}

		if attempt < s.cfg.VerifyAttempts {
			if err := sleepCtx(ctx, s.cfg.VerifyBackoff); err != nil {
				return nil, err
			}
		}
	}

	slog.Error("Report update not visible after verification window",
		"report_id", existing.ID, "field", mismatch, "attempts", s.cfg.VerifyAttempts)
	return nil, &PersistenceVerificationError{
		Entity:   "report",
		ID:       existing.ID,
		Field:    mismatch,
		Attempts: s.cfg.VerifyAttempts,
	}
}

func (s *ReportService) create(ctx context.Context, threadID, kind string, content *string, createDefault report.Status) (*ent.Report, error) {
	body := placeholderContent
	if content != nil {
		body = *content
	}

	created, err := s.client.Report.Create().
		SetID(uuid.New().String()).
		SetThreadID(threadID).
		SetKind(kind).
		SetTitle(fmt.Sprintf("%s report", kind)).
		SetContent(body).
		SetStatus(createDefault).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			// Thread row is gone; nothing to attach the report to
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	// Existence check only on insert; the row carries exactly what we wrote.
	for attempt := 1; attempt <= s.cfg.VerifyAttempts; attempt++ {
		stored, err := s.client.Report.Get(ctx, created.ID)
		if err == nil {
			return stored, nil
		}
		if !ent.IsNotFound(err) {
			return nil, fmt.Errorf("failed to verify report %s: %w", created.ID, err)
		}
		if attempt < s.cfg.VerifyAttempts {
			if err := sleepCtx(ctx, s.cfg.VerifyBackoff); err != nil {
				return nil, err
			}
		}
	}

	slog.Error("Report insert not visible after verification window",
		"report_id", created.ID, "attempts", s.cfg.VerifyAttempts)
	return nil, &PersistenceVerificationError{
		Entity:   "report",
		ID:       created.ID,
		Field:    "existence",
		Attempts: s.cfg.VerifyAttempts,
	}
}

func (s *ReportService) mostRecent(ctx context.Context, threadID, kind string) (*ent.Report, error) {
	return s.client.Report.Query().
		Where(report.ThreadID(threadID), report.Kind(kind)).
		Order(ent.Desc(report.FieldCreatedAt)).
		First(ctx)
}

// sleepCtx waits for the duration unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
