package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/schedule-checker/internal/pkg/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS validation_runs (
	id             UUID PRIMARY KEY,
	sheet          TEXT NOT NULL,
	summary        TEXT NOT NULL,
	critical_count INTEGER NOT NULL DEFAULT 0,
	caution_count  INTEGER NOT NULL DEFAULT 0,
	cell_count     INTEGER NOT NULL DEFAULT 0,
	started_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_validation_runs_sheet_started_at
	ON validation_runs (sheet, started_at DESC);

CREATE TABLE IF NOT EXISTS schedule_audit_logs (
	run_id        UUID NOT NULL REFERENCES validation_runs (id) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	day           TEXT NOT NULL,
	date          TEXT NOT NULL,
	employee_name TEXT NOT NULL,
	status        TEXT NOT NULL,
	details       TEXT NOT NULL DEFAULT '',
	issues        TEXT[] NOT NULL DEFAULT '{}',
	PRIMARY KEY (run_id, position)
);
`

// EnsureSchema creates the run history tables when they are missing.
func EnsureSchema(ctx context.Context, db *database.DB) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
