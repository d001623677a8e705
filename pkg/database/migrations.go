package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
)

// CreateConstraintIndexes creates PostgreSQL partial unique indexes that
// Ent/Atlas cannot express. These must match the constraints in
// 20260810120000_init.up.sql.
//
// Test schemas are created with Ent's Schema.Create rather than the SQL
// migrations, so this is also called from the test harness.
func CreateConstraintIndexes(ctx context.Context, driver *sql.Driver) error {
	db := driver.DB()

	// At most one active thread per owner and stage. Archived threads are
	// unconstrained, so forcing a new thread only needs to flip the old one
	// to archived first.
	_, err := db.ExecContext(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS thread_owner_id_stage_active
		ON threads (owner_id, stage)
		WHERE status = 'active'`)
	if err != nil {
		return fmt.Errorf("failed to create active thread index: %w", err)
	}

	return nil
}
