package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shelfsim-api-go/internal/models"
)

const jobColumns = `id, run_id, action, cell_code, book_title, quantity, start_ts, end_ts, travel_time_sec, handle_time_sec, total_time_sec, path_length_cells, result, fail_reason, error_code, robot_name`

// jobOrder sorts by start time with unstarted jobs last.
const jobOrder = ` ORDER BY CASE WHEN start_ts IS NULL THEN 1 ELSE 0 END, start_ts ASC, id ASC`

// CreateJobs inserts jobs for one run inside a transaction and returns the new
// IDs in input order. Either every job is stored or none is.
func (s *Store) CreateJobs(ctx context.Context, runID int64, jobs []models.Job) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO jobs (run_id, action, cell_code, book_title, quantity) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert job: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(jobs))
	for _, job := range jobs {
		res, err := stmt.ExecContext(ctx, runID, job.Action, job.CellCode, nullableString(job.BookTitle), job.Quantity)
		if err != nil {
			return nil, fmt.Errorf("insert job: %w", mapError(err))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("job id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", mapError(err))
	}
	return ids, nil
}

// ListJobsByRun returns every job of a run ordered by start time, nulls last.
func (s *Store) ListJobsByRun(ctx context.Context, runID int64) ([]models.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE run_id = ?`+jobOrder, runID)
	if err != nil {
		return nil, fmt.Errorf("select jobs: %w", err)
	}
	defer rows.Close()

	out := []models.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

// GetJob returns a job by ID, or nil when absent.
func (s *Store) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	job, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select job: %w", err)
	}
	return job, nil
}

// UpdateJobResult overwrites only the fields the patch carries; every other
// column keeps its stored value.
func (s *Store) UpdateJobResult(ctx context.Context, id int64, patch models.JobResultPatch) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs
         SET start_ts = COALESCE(?, start_ts),
             end_ts = COALESCE(?, end_ts),
             travel_time_sec = COALESCE(?, travel_time_sec),
             handle_time_sec = COALESCE(?, handle_time_sec),
             total_time_sec = COALESCE(?, total_time_sec),
             path_length_cells = COALESCE(?, path_length_cells),
             result = COALESCE(?, result),
             fail_reason = COALESCE(?, fail_reason),
             error_code = COALESCE(?, error_code),
             robot_name = COALESCE(?, robot_name)
         WHERE id = ?`,
		optionalMillis(patch.StartTs),
		optionalMillis(patch.EndTs),
		optionalValue(patch.TravelTimeSec),
		optionalValue(patch.HandleTimeSec),
		optionalValue(patch.TotalTimeSec),
		optionalValue(patch.PathLengthCells),
		optionalText(patch.Result),
		optionalText(patch.FailReason),
		optionalText(patch.ErrorCode),
		optionalText(patch.RobotName),
		id,
	)
	if err != nil {
		return fmt.Errorf("update job result: %w", err)
	}
	return requireAffected(res)
}

func scanJob(row scanner) (*models.Job, error) {
	var (
		job        models.Job
		bookTitle  sql.NullString
		startTs    sql.NullInt64
		endTs      sql.NullInt64
		travel     sql.NullFloat64
		handle     sql.NullFloat64
		total      sql.NullFloat64
		pathLength sql.NullInt64
		result     sql.NullString
		failReason sql.NullString
		errorCode  sql.NullString
		robotName  sql.NullString
	)
	if err := row.Scan(
		&job.ID,
		&job.RunID,
		&job.Action,
		&job.CellCode,
		&bookTitle,
		&job.Quantity,
		&startTs,
		&endTs,
		&travel,
		&handle,
		&total,
		&pathLength,
		&result,
		&failReason,
		&errorCode,
		&robotName,
	); err != nil {
		return nil, err
	}
	job.BookTitle = stringFromNull(bookTitle)
	job.StartTs = timeFromNull(startTs)
	job.EndTs = timeFromNull(endTs)
	job.TravelTimeSec = floatFromNull(travel)
	job.HandleTimeSec = floatFromNull(handle)
	job.TotalTimeSec = floatFromNull(total)
	job.PathLengthCells = intFromNull(pathLength)
	job.Result = stringFromNull(result)
	job.FailReason = stringFromNull(failReason)
	job.ErrorCode = stringFromNull(errorCode)
	job.RobotName = stringFromNull(robotName)
	return &job, nil
}

func optionalValue[T any](o models.Optional[T]) any {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	return v
}

func optionalMillis(o models.Optional[time.Time]) any {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	return toMillis(v)
}

func optionalText(o models.Optional[string]) any {
	if !models.NonEmpty(o) {
		return nil
	}
	v, _ := o.Get()
	return v
}
