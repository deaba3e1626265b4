package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type validationRunRepository struct {
	db *database.DB
}

// NewValidationRunRepository creates a run history store. Its Reset is a
// no-op: history accumulates across passes.
func NewValidationRunRepository(db *database.DB) validation.RunRepository {
	return &validationRunRepository{db: db}
}

func (r *validationRunRepository) Reset(ctx context.Context) error {
	return nil
}

// Append stores the run and its audit rows in one transaction.
func (r *validationRunRepository) Append(ctx context.Context, run validation.Run) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		_, err := q.Exec(ctx, `
			INSERT INTO validation_runs (id, sheet, summary, critical_count, caution_count, cell_count, started_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			run.ID,
			run.Sheet,
			run.Summary(),
			len(run.CriticalWarnings),
			len(run.CautionWarnings),
			len(run.Cells),
			run.StartedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert validation run: %w", err)
		}

		if len(run.Cells) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for i, c := range run.Cells {
			issues := c.Issues
			if issues == nil {
				issues = []string{}
			}
			batch.Queue(`
				INSERT INTO schedule_audit_logs (run_id, position, day, date, employee_name, status, details, issues)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, run.ID, i, c.Day, c.Date, c.EmployeeName, string(c.Status), c.Details, issues)
		}

		br := q.SendBatch(ctx, batch)
		for range run.Cells {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to insert audit log: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to insert audit logs: %w", err)
		}
		return nil
	})
}

// List returns runs matching the filter, newest first unless sort_order is asc.
func (r *validationRunRepository) List(ctx context.Context, filter validation.RunFilter) ([]validation.RunRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	var (
		conditions []string
		args       []interface{}
	)
	if filter.Sheet != nil && *filter.Sheet != "" {
		args = append(args, *filter.Sheet)
		conditions = append(conditions, fmt.Sprintf("sheet = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM validation_runs "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count validation runs: %w", err)
	}

	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "ASC"
	}

	args = append(args, filter.Limit, filter.Offset())
	query := fmt.Sprintf(`
		SELECT id::text, sheet, summary, critical_count, caution_count, cell_count, started_at
		FROM validation_runs
		%s
		ORDER BY started_at %s
		LIMIT $%d OFFSET $%d
	`, where, order, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list validation runs: %w", err)
	}
	defer rows.Close()

	var records []validation.RunRecord
	for rows.Next() {
		var rec validation.RunRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Sheet,
			&rec.Summary,
			&rec.CriticalCount,
			&rec.CautionCount,
			&rec.CellCount,
			&rec.StartedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan validation run: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate validation runs: %w", err)
	}

	return records, total, nil
}

// GetCells returns the audit rows of a run in log order.
func (r *validationRunRepository) GetCells(ctx context.Context, runID string) ([]validation.CellResult, error) {
	q := GetQuerier(ctx, r.db)

	var id string
	err := q.QueryRow(ctx, "SELECT id::text FROM validation_runs WHERE id = $1", runID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, validation.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get validation run: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT day, date, employee_name, status, details, issues
		FROM schedule_audit_logs
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}
	defer rows.Close()

	cells := []validation.CellResult{}
	for rows.Next() {
		var (
			c      validation.CellResult
			status string
		)
		if err := rows.Scan(&c.Day, &c.Date, &c.EmployeeName, &status, &c.Details, &c.Issues); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		c.Status = validation.Status(status)
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
	}
	return cells, nil
}
