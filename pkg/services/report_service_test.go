package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compasshq/compass/ent"
	"github.com/compasshq/compass/ent/report"
)

func setupReportTest(t *testing.T) (*ent.Client, *ReportService, string) {
	t.Helper()
	client := setupTestClient(t)
	remote := newFakeAssistant()
	owner := createTestUser(t, client, "reports@example.com")
	th, _, err := NewThreadService(client, remote).GetOrCreateThread(context.Background(), owner.ID, "swot", false)
	require.NoError(t, err)
	return client, NewReportService(client, testReportConfig()), th.ID
}

func strPtr(s string) *string { return &s }

func TestUpsertReportCreatesThenUpdates(t *testing.T) {
	client, svc, threadID := setupReportTest(t)
	ctx := context.Background()

	// First upsert inserts exactly one row
	r1, err := svc.UpsertReport(ctx, threadID, "swot", strPtr("X"), nil, report.StatusFinalized)
	require.NoError(t, err)
	assert.Equal(t, "X", r1.Content)
	assert.Equal(t, report.StatusFinalized, r1.Status)

	// Second upsert updates that same row, never inserts a second one
	r2, err := svc.UpsertReport(ctx, threadID, "swot", strPtr("Y"), nil, report.StatusFinalized)
	require.NoError(t, err)
	assert.Equal(t, r1.ID, r2.ID)
	assert.Equal(t, "Y", r2.Content)
	assert.Equal(t, report.StatusFinalized, r2.Status, "status untouched when not supplied")

	count, err := client.Report.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertReportInsertDefaults(t *testing.T) {
	_, svc, threadID := setupReportTest(t)
	ctx := context.Background()

	// Directive-driven path: no content supplied, insert default "finalized"
	r, err := svc.UpsertReport(ctx, threadID, "swot", nil, nil, report.StatusFinalized)
	require.NoError(t, err)
	assert.Equal(t, placeholderContent, r.Content)
	assert.Equal(t, report.StatusFinalized, r.Status)

	// Direct-save path for a different kind: insert default "generated"
	r, err = svc.UpsertReport(ctx, threadID, "okr", nil, nil, report.StatusGenerated)
	require.NoError(t, err)
	assert.Equal(t, report.StatusGenerated, r.Status)
}

func TestUpsertReportUpdatesTimestamp(t *testing.T) {
	_, svc, threadID := setupReportTest(t)
	ctx := context.Background()

	r1, err := svc.UpsertReport(ctx, threadID, "swot", strPtr("v1"), nil, report.StatusGenerated)
	require.NoError(t, err)

	r2, err := svc.UpsertReport(ctx, threadID, "swot", strPtr("v2"), nil, report.StatusGenerated)
	require.NoError(t, err)
	assert.True(t, r2.UpdatedAt.After(r1.UpdatedAt), "updated_at refreshed on every update")
	assert.Equal(t, r1.CreatedAt.UnixMicro(), r2.CreatedAt.UnixMicro(), "created_at untouched")
}

func TestUpsertReportStatusOnly(t *testing.T) {
	_, svc, threadID := setupReportTest(t)
	ctx := context.Background()

	_, err := svc.UpsertReport(ctx, threadID, "swot", strPtr("content"), nil, report.StatusGenerated)
	require.NoError(t, err)

	r, err := svc.UpsertReport(ctx, threadID, "swot", nil, strPtr("finalized"), report.StatusFinalized)
	require.NoError(t, err)
	assert.Equal(t, report.StatusFinalized, r.Status)
	assert.Equal(t, "content", r.Content, "content untouched when not supplied")
}

func TestFinalizeReport(t *testing.T) {
	_, svc, threadID := setupReportTest(t)
	ctx := context.Background()

	_, err := svc.UpsertReport(ctx, threadID, "swot", strPtr("done"), nil, report.StatusGenerated)
	require.NoError(t, err)

	r, err := svc.FinalizeReport(ctx, threadID, "swot")
	require.NoError(t, err)
	assert.Equal(t, report.StatusFinalized, r.Status)
	assert.Equal(t, "done", r.Content)
}

func TestUpsertReportMostRecentWins(t *testing.T) {
	client, svc, threadID := setupReportTest(t)
	ctx := context.Background()

	// Two legacy rows for the same (thread, kind); the upsert must target the
	// most recent one.
	older, err := client.Report.Create().
		SetID("report_old").
		SetThreadID(threadID).
		SetKind("swot").
		SetTitle("swot report").
		SetContent("old").
		Save(ctx)
	require.NoError(t, err)

	newer, err := client.Report.Create().
		SetID("report_new").
		SetThreadID(threadID).
		SetKind("swot").
		SetTitle("swot report").
		SetContent("new").
		SetCreatedAt(older.CreatedAt.Add(time.Second)).
		Save(ctx)
	require.NoError(t, err)

	r, err := svc.UpsertReport(ctx, threadID, "swot", strPtr("updated"), nil, report.StatusGenerated)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, r.ID)

	untouched, err := client.Report.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "old", untouched.Content)
}

func TestUpsertReportValidation(t *testing.T) {
	_, svc, threadID := setupReportTest(t)
	ctx := context.Background()

	_, err := svc.UpsertReport(ctx, "", "swot", nil, nil, report.StatusGenerated)
	assert.True(t, IsValidationError(err))

	_, err = svc.UpsertReport(ctx, threadID, "", nil, nil, report.StatusGenerated)
	assert.True(t, IsValidationError(err))

	_, err = svc.UpsertReport(ctx, threadID, "swot", nil, strPtr("bogus"), report.StatusGenerated)
	assert.True(t, IsValidationError(err))
}

func TestUpsertReportMissingThread(t *testing.T) {
	_, svc, _ := setupReportTest(t)

	_, err := svc.UpsertReport(context.Background(), "no-such-thread", "swot", strPtr("X"), nil, report.StatusGenerated)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReport(t *testing.T) {
	_, svc, threadID := setupReportTest(t)
	ctx := context.Background()

	_, err := svc.GetReport(ctx, threadID, "swot")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpsertReport(ctx, threadID, "swot", strPtr("here"), nil, report.StatusGenerated)
	require.NoError(t, err)

	r, err := svc.GetReport(ctx, threadID, "swot")
	require.NoError(t, err)
	assert.Equal(t, "here", r.Content)
}

// tamperOnUpdate registers a hook that runs once, after the next UpdateOne
// commits, so the verify loop re-reads a row that no longer matches the
// write.
func tamperOnUpdate(client *ent.Client, tamper func(context.Context) error) {
	var done bool
	client.Report.Use(func(next ent.Mutator) ent.Mutator {
		return ent.MutateFunc(func(ctx context.Context, m ent.Mutation) (ent.Value, error) {
			v, err := next.Mutate(ctx, m)
			if err == nil && m.Op().Is(ent.OpUpdateOne) && !done {
				done = true
				if terr := tamper(ctx); terr != nil {
					return nil, terr
				}
			}
			return v, err
		})
	})
}

func TestUpsertReportVerificationStaleContent(t *testing.T) {
	client, svc, threadID := setupReportTest(t)
	ctx := context.Background()

	first, err := svc.UpsertReport(ctx, threadID, "swot", strPtr("first"), nil, report.StatusFinalized)
	require.NoError(t, err)

	tamperOnUpdate(client, func(ctx context.Context) error {
		_, err := client.Report.Update().SetContent("overwritten elsewhere").Save(ctx)
		return err
	})

	_, err = svc.UpsertReport(ctx, threadID, "swot", strPtr("second"), nil, report.StatusFinalized)
	var verr *PersistenceVerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, report.FieldContent, verr.Field)
	assert.Equal(t, first.ID, verr.ID)
	assert.Equal(t, testReportConfig().VerifyAttempts, verr.Attempts)
}

func TestUpsertReportVerificationLostRow(t *testing.T) {
	client, svc, threadID := setupReportTest(t)
	ctx := context.Background()

	first, err := svc.UpsertReport(ctx, threadID, "swot", strPtr("draft"), nil, report.StatusGenerated)
	require.NoError(t, err)

	tamperOnUpdate(client, func(ctx context.Context) error {
		_, err := client.Report.Delete().Exec(ctx)
		return err
	})

	_, err = svc.UpsertReport(ctx, threadID, "swot", strPtr("gone"), nil, report.StatusGenerated)
	var verr *PersistenceVerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "existence", verr.Field)
	assert.Equal(t, first.ID, verr.ID)
}
