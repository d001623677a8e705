package database

import (
	"context"
	stdsql "database/sql"
	"os"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/compasshq/compass/ent"
	"github.com/compasshq/compass/ent/report"
	"github.com/compasshq/compass/ent/thread"
	"github.com/compasshq/compass/ent/turn"
)

// newTestClient creates a test database client with CI/local environment detection.
// In CI (when CI_DATABASE_URL is set): connects to external PostgreSQL service container.
// In local dev: spins up a testcontainer with PostgreSQL.
func newTestClient(t *testing.T) *Client {
	ctx := context.Background()

	ciDatabaseURL := os.Getenv("CI_DATABASE_URL")

	var connStr string

	if ciDatabaseURL != "" {
		// CI mode: use external PostgreSQL service container
		t.Log("Using external PostgreSQL from CI_DATABASE_URL")
		connStr = ciDatabaseURL
	} else {
		// Local dev mode: use testcontainers
		t.Log("Using testcontainers for PostgreSQL")
		pgContainer, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("test"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		require.NoError(t, err)

		t.Cleanup(func() {
			if err := testcontainers.TerminateContainer(pgContainer); err != nil {
				t.Logf("failed to terminate container: %v", err)
			}
		})

		var err2 error
		connStr, err2 = pgContainer.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err2)
	}

	// Open database connection using pgx driver
	db, err := stdsql.Open("pgx", connStr)
	require.NoError(t, err)

	// Configure connection pool for tests
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	// Create Ent driver from existing database connection
	drv := entsql.OpenDB(dialect.Postgres, db)

	// Create Ent client
	entClient := ent.NewClient(ent.Driver(drv))

	// Run migrations (auto-migration for tests)
	err = entClient.Schema.Create(ctx)
	require.NoError(t, err)

	// Partial unique indexes are not part of the Ent schema
	err = CreateConstraintIndexes(ctx, drv)
	require.NoError(t, err)

	client := NewClientFromEnt(entClient, db)

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func createTestUser(t *testing.T, client *Client) *ent.User {
	t.Helper()
	u, err := client.User.Create().
		SetID(uuid.New().String()).
		SetEmail(uuid.New().String() + "@example.com").
		SetFullName("Test User").
		SetPasswordHash("x").
		Save(context.Background())
	require.NoError(t, err)
	return u
}

func TestDatabaseClient_ConnectionPool(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	// Test basic connectivity
	err := client.DB().PingContext(ctx)
	require.NoError(t, err)

	// Test health check
	health, err := Health(ctx, client.DB())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Greater(t, health.MaxOpenConns, 0)
}

func TestActiveThreadUniqueIndex(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	owner := createTestUser(t, client)

	_, err := client.Thread.Create().
		SetID("conv_1").
		SetOwnerID(owner.ID).
		SetStage("swot").
		SetTitle("SWOT").
		Save(ctx)
	require.NoError(t, err)

	// A second ACTIVE thread for the same owner+stage violates the partial index
	_, err = client.Thread.Create().
		SetID("conv_2").
		SetOwnerID(owner.ID).
		SetStage("swot").
		SetTitle("SWOT again").
		Save(ctx)
	require.Error(t, err)
	assert.True(t, ent.IsConstraintError(err))

	// Archived threads are unconstrained
	err = client.Thread.UpdateOneID("conv_1").
		SetStatus(thread.StatusArchived).
		Exec(ctx)
	require.NoError(t, err)

	_, err = client.Thread.Create().
		SetID("conv_2").
		SetOwnerID(owner.ID).
		SetStage("swot").
		SetTitle("SWOT again").
		Save(ctx)
	require.NoError(t, err)

	// A different stage for the same owner is also fine
	_, err = client.Thread.Create().
		SetID("conv_3").
		SetOwnerID(owner.ID).
		SetStage("okr").
		SetTitle("OKR").
		Save(ctx)
	require.NoError(t, err)
}

func TestCascadeDelete(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	owner := createTestUser(t, client)

	th, err := client.Thread.Create().
		SetID("conv_cascade").
		SetOwnerID(owner.ID).
		SetStage("mission").
		SetTitle("Mission").
		Save(ctx)
	require.NoError(t, err)

	_, err = client.Turn.Create().
		SetID(uuid.New().String()).
		SetThreadID(th.ID).
		SetRole(turn.RoleUser).
		SetContent("hello").
		Save(ctx)
	require.NoError(t, err)

	_, err = client.Report.Create().
		SetID(uuid.New().String()).
		SetThreadID(th.ID).
		SetKind("mission").
		SetTitle("Mission Report").
		SetContent("content").
		Save(ctx)
	require.NoError(t, err)

	// Deleting the owner cascades through threads to turns and reports
	err = client.User.DeleteOneID(owner.ID).Exec(ctx)
	require.NoError(t, err)

	turns, err := client.Turn.Query().Where(turn.ThreadID(th.ID)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, turns)

	reports, err := client.Report.Query().Where(report.ThreadID(th.ID)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, reports)
}

func TestReportMostRecentFirst(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	owner := createTestUser(t, client)

	th, err := client.Thread.Create().
		SetID("conv_reports").
		SetOwnerID(owner.ID).
		SetStage("disc").
		SetTitle("DISC").
		Save(ctx)
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i, content := range []string{"older", "newer"} {
		_, err = client.Report.Create().
			SetID(uuid.New().String()).
			SetThreadID(th.ID).
			SetKind("disc").
			SetTitle("DISC Report").
			SetContent(content).
			SetCreatedAt(base.Add(time.Duration(i) * time.Minute)).
			Save(ctx)
		require.NoError(t, err)
	}

	latest, err := client.Report.Query().
		Where(report.ThreadID(th.ID), report.Kind("disc")).
		Order(ent.Desc(report.FieldCreatedAt)).
		First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "newer", latest.Content)
}
