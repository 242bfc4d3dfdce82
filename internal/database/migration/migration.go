package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name          TEXT        NOT NULL,
  email         TEXT        NOT NULL,
  role          TEXT        NOT NULL CHECK (role IN ('admin', 'manager', 'employee')),
  department    TEXT        NOT NULL DEFAULT '',
  is_active     BOOLEAN     NOT NULL DEFAULT TRUE,
  password_hash BYTEA       NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  last_login_at TIMESTAMPTZ
);`,
	},
	{
		Name: "create_index_users_email",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (lower(email));`,
	},
	{
		Name: "create_table_projects",
		SQL: `CREATE TABLE IF NOT EXISTS projects (
  id               UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  name             TEXT             NOT NULL,
  client           TEXT             NOT NULL DEFAULT '',
  description      TEXT             NOT NULL DEFAULT '',
  status           TEXT             NOT NULL,
  billing_type     TEXT             NOT NULL,
  billing_sub_type TEXT             NOT NULL DEFAULT '',
  fixed_amount     DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (fixed_amount >= 0),
  hourly_rate      DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (hourly_rate >= 0),
  estimated_hours  DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (estimated_hours >= 0),
  retainer_hours   DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (retainer_hours >= 0),
  start_date       DATE             NOT NULL,
  end_date         DATE,
  created_by       TEXT             NOT NULL,
  created_at       TIMESTAMPTZ      NOT NULL DEFAULT now(),
  updated_at       TIMESTAMPTZ      NOT NULL DEFAULT now(),
  CHECK (end_date IS NULL OR end_date >= start_date)
);`,
	},
	{
		Name: "create_index_projects_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_projects_status ON projects (status);`,
	},
	{
		Name: "create_table_time_logs",
		SQL: `CREATE TABLE IF NOT EXISTS time_logs (
  id          UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id     UUID             NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  project_id  UUID             NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
  log_date    DATE             NOT NULL,
  hours       DOUBLE PRECISION NOT NULL CHECK (hours > 0 AND hours <= 24),
  work_type   TEXT             NOT NULL,
  description TEXT             NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ      NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_time_logs_user_date",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_time_logs_user_date ON time_logs (user_id, log_date);`,
	},
	{
		Name: "create_index_time_logs_project_date",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_time_logs_project_date ON time_logs (project_id, log_date);`,
	},
	{
		Name: "create_table_leave_requests",
		SQL: `CREATE TABLE IF NOT EXISTS leave_requests (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id     UUID        NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  leave_type  TEXT        NOT NULL CHECK (leave_type IN ('sick', 'casual', 'annual')),
  start_date  DATE        NOT NULL,
  end_date    DATE        NOT NULL CHECK (end_date >= start_date),
  reason      TEXT        NOT NULL DEFAULT '',
  status      TEXT        NOT NULL,
  reviewed_by TEXT        NOT NULL DEFAULT '',
  review_note TEXT        NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_leave_requests_user_dates",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_leave_requests_user_dates ON leave_requests (user_id, start_date, end_date);`,
	},
	{
		Name: "create_table_leave_allocations",
		SQL: `CREATE TABLE IF NOT EXISTS leave_allocations (
  user_id    UUID    NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  year       INTEGER NOT NULL,
  leave_type TEXT    NOT NULL,
  days       INTEGER NOT NULL CHECK (days >= 0),
  PRIMARY KEY (user_id, year, leave_type)
);`,
	},
	{
		Name: "create_table_policies",
		SQL: `CREATE TABLE IF NOT EXISTS policies (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  title        TEXT        NOT NULL,
  category     TEXT        NOT NULL DEFAULT 'general',
  description  TEXT        NOT NULL DEFAULT '',
  filename     TEXT        NOT NULL,
  storage_path TEXT        NOT NULL UNIQUE,
  size         BIGINT      NOT NULL CHECK (size >= 0),
  content_type TEXT        NOT NULL,
  uploaded_by  TEXT        NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_policies_category",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_policies_category ON policies (category);`,
	},
}

// sentinelTable is the last table created; its presence means the schema is complete.
const sentinelTable = "public.policies"

// EnsureMigrated checks if the sentinel table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "database"), zap.String("db_host", dbHost))
	start := time.Now()

	log.Info("db_migration_check", zap.String("status", "starting"))

	var exists bool
	err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", sentinelTable).Scan(&exists)
	if err != nil {
		log.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.Error(err),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			zap.String("status", "success"),
			zap.String("msg", "schema already exists, skipping migration"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start", zap.String("status", "in_progress"))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("status", "error"),
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			zap.String("status", "success"),
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("db_migration_success",
		zap.String("status", "success"),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
