// Package migration creates the jobs schema on first start.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_jobs",
		SQL: `CREATE TABLE IF NOT EXISTS jobs (
  id                TEXT        PRIMARY KEY,
  original_filename TEXT        NOT NULL,
  source_key        TEXT        NOT NULL UNIQUE,
  page_count        INTEGER     NOT NULL CHECK (page_count > 0),
  page_width        INTEGER     NOT NULL CHECK (page_width > 0),
  page_height       INTEGER     NOT NULL CHECK (page_height > 0),
  status            TEXT        NOT NULL CHECK (status IN ('RASTERIZED', 'REDACTED', 'FAILED')),
  output_key        TEXT        NOT NULL DEFAULT '',
  error_details     TEXT        NOT NULL DEFAULT '',
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_jobs_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status);`,
	},
	{
		Name: "create_index_jobs_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs (created_at DESC, id DESC);`,
	},
}

// EnsureMigrated checks if the 'jobs' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *slog.Logger, dbHost string) error {
	start := time.Now()
	log := logger.With("component", "database", "db_host", dbHost)

	log.InfoContext(ctx, "schema check", "event", "db_migration_check", "status", "starting")

	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass('public.jobs') IS NOT NULL").Scan(&exists); err != nil {
		log.ErrorContext(ctx, "schema check failed",
			"event", "db_migration_failed",
			"status", "error",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.InfoContext(ctx, "schema already exists, skipping migration",
			"event", "db_migration_skip",
			"status", "success",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	log.InfoContext(ctx, "migrating schema", "event", "db_migration_start", "status", "in_progress")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.ErrorContext(ctx, "migration step failed",
				"event", "db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error", err,
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.InfoContext(ctx, "migration step applied",
			"event", "db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	log.InfoContext(ctx, "schema migrated",
		"event", "db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
