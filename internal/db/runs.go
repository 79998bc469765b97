package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shelfsim-api-go/internal/models"
)

const runColumns = `id, layout_id, random_seed, handle_time_sec, robot_speed_cells_per_sec, top_n, move_timeout_sec, status, summary, created_at`

// CreateRun inserts a run and fills in its ID and CreatedAt.
func (s *Store) CreateRun(ctx context.Context, run *models.Run) error {
	run.CreatedAt = fromMillis(toMillis(s.now()))
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (layout_id, random_seed, handle_time_sec, robot_speed_cells_per_sec, top_n, move_timeout_sec, status, summary, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableString(run.LayoutID),
		run.RandomSeed,
		run.HandleTimeSec,
		run.RobotSpeedCellsPerSec,
		run.TopN,
		run.MoveTimeoutSec,
		run.Status,
		nullableString(run.Summary),
		toMillis(run.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	run.ID = id
	return nil
}

// GetRun returns run metadata by ID, or nil when absent.
func (s *Store) GetRun(ctx context.Context, id int64) (*models.Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select run: %w", err)
	}
	return run, nil
}

// RunExists reports whether a run row exists.
func (s *Store) RunExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("select run exists: %w", err)
	}
	return true, nil
}

// ListRuns returns one page of runs, newest first, plus the total run count.
func (s *Store) ListRuns(ctx context.Context, page, pageSize int) ([]models.Run, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}
	offset, ok := pageOffset(page, pageSize)
	if !ok {
		return []models.Run{}, total, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		pageSize, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select runs: %w", err)
	}
	defer rows.Close()

	out := []models.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *run)
	}
	return out, total, rows.Err()
}

// UpdateRunStatus sets a run's status and, when summary is non-nil, its summary.
func (s *Store) UpdateRunStatus(ctx context.Context, id int64, status string, summary *string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, summary = COALESCE(?, summary) WHERE id = ?`,
		status, nullableString(summary), id,
	)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return requireAffected(res)
}

// DeleteRun removes a run; its jobs go with it through the cascading foreign key.
func (s *Store) DeleteRun(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return requireAffected(res)
}

func scanRun(row scanner) (*models.Run, error) {
	var (
		run       models.Run
		layoutID  sql.NullString
		summary   sql.NullString
		createdMs int64
	)
	if err := row.Scan(
		&run.ID,
		&layoutID,
		&run.RandomSeed,
		&run.HandleTimeSec,
		&run.RobotSpeedCellsPerSec,
		&run.TopN,
		&run.MoveTimeoutSec,
		&run.Status,
		&summary,
		&createdMs,
	); err != nil {
		return nil, err
	}
	run.LayoutID = stringFromNull(layoutID)
	run.Summary = stringFromNull(summary)
	run.CreatedAt = fromMillis(createdMs)
	return &run, nil
}
