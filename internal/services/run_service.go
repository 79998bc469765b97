package services

// File: internal/services/run_service.go
// Purpose: Run orchestration (persist + publish run events) and CSV export.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shelfsim-api-go/internal/apperr"
	"shelfsim-api-go/internal/db"
	"shelfsim-api-go/internal/export"
	"shelfsim-api-go/internal/models"
	"shelfsim-api-go/internal/mq"
)

// DefaultRunPageSize is used when a listing omits pageSize.
const DefaultRunPageSize = 20

// CSVExport is a rendered results document ready for download.
type CSVExport struct {
	Filename string
	Content  []byte
}

// RunService coordinates run creation, retrieval and export.
type RunService struct {
	store    *db.Store
	exporter *export.Exporter
	validate *Validator
	events   notifier
	deps     Deps
	now      func() time.Time
}

// NewRunService constructs a RunService with dependencies.
func NewRunService(store *db.Store, exporter *export.Exporter, d Deps) *RunService {
	return &RunService{
		store:    store,
		exporter: exporter,
		validate: d.Validator,
		events:   newNotifier(d),
		deps:     d,
		now:      time.Now,
	}
}

// CreateRun validates input, applies defaults, persists a PENDING run and
// publishes run.created.
func (s *RunService) CreateRun(ctx context.Context, req models.CreateRunRequest) (*models.Run, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	run := models.Run{
		LayoutID:              req.LayoutID,
		RandomSeed:            valueOr(req.RandomSeed, 0),
		HandleTimeSec:         valueOr(req.HandleTimeSec, models.DefaultHandleTimeSec),
		RobotSpeedCellsPerSec: valueOr(req.RobotSpeedCellsPerSec, models.DefaultRobotSpeedCellsPerSec),
		TopN:                  valueOr(req.TopN, models.DefaultTopN),
		MoveTimeoutSec:        valueOr(req.MoveTimeoutSec, models.DefaultMoveTimeoutSec),
		Status:                models.RunPending,
		Jobs:                  []models.Job{},
	}
	if err := s.store.CreateRun(ctx, &run); err != nil {
		return nil, apperr.Internal(err)
	}
	s.deps.Metrics.RunsCreated.Inc()
	s.deps.Logger.Info("run created", zap.Int64("run_id", run.ID), zap.Int("random_seed", run.RandomSeed))

	event := map[string]any{
		"run_id":      run.ID,
		"random_seed": run.RandomSeed,
		"status":      run.Status,
	}
	if run.LayoutID != nil {
		event["layout_id"] = *run.LayoutID
	}
	s.events.publish(mq.RunCreated, event)
	return &run, nil
}

// GetRun fetches a run together with all of its jobs.
func (s *RunService) GetRun(ctx context.Context, id int64) (*models.Run, error) {
	run, err := s.loadRun(ctx, id)
	if err != nil {
		return nil, err
	}
	jobs, err := s.store.ListJobsByRun(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	run.Jobs = jobs
	return run, nil
}

// ListRuns returns one page of runs, newest first, with paging metadata.
func (s *RunService) ListRuns(ctx context.Context, page, pageSize int) (*models.RunList, error) {
	page, pageSize = normalizePage(page, pageSize, DefaultRunPageSize)
	runs, total, err := s.store.ListRuns(ctx, page, pageSize)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for i := range runs {
		runs[i].Jobs = []models.Job{}
	}
	return &models.RunList{Data: runs, Meta: models.NewPage(page, pageSize, total)}, nil
}

// UpdateStatus sets a run's status to any of the four known values and,
// when given, replaces its summary.
func (s *RunService) UpdateStatus(ctx context.Context, id int64, req models.UpdateRunStatusRequest) (*models.Run, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if err := s.store.UpdateRunStatus(ctx, id, req.Status, req.Summary); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.deps.Logger.Warn("run not found", zap.Int64("run_id", id))
			return nil, runNotFound(id)
		}
		return nil, apperr.Internal(err)
	}
	run, err := s.loadRun(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Jobs = []models.Job{}
	s.deps.Logger.Info("run status updated", zap.Int64("run_id", id), zap.String("status", req.Status))
	s.events.publish(mq.RunStatusChanged, map[string]any{"run_id": id, "status": req.Status})
	return run, nil
}

// DeleteRun removes a run and, through the cascading foreign key, its jobs.
func (s *RunService) DeleteRun(ctx context.Context, id int64) error {
	if err := s.store.DeleteRun(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.deps.Logger.Warn("run not found", zap.Int64("run_id", id))
			return runNotFound(id)
		}
		return apperr.Internal(err)
	}
	s.deps.Metrics.RunsDeleted.Inc()
	s.deps.Logger.Info("run deleted", zap.Int64("run_id", id))
	s.events.publish(mq.RunDeleted, map[string]any{"run_id": id})
	return nil
}

// ExportResults renders the run's jobs, ordered by start time with
// unstarted jobs last, as a CSV document.
func (s *RunService) ExportResults(ctx context.Context, id int64) (*CSVExport, error) {
	if _, err := s.loadRun(ctx, id); err != nil {
		return nil, err
	}
	jobs, err := s.store.ListJobsByRun(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.deps.Metrics.CSVExports.Inc()
	s.deps.Logger.Info("run results exported", zap.Int64("run_id", id), zap.Int("jobs", len(jobs)))
	return &CSVExport{
		Filename: export.Filename(s.now()),
		Content:  s.exporter.Render(jobs),
	}, nil
}

// Health checks database connectivity.
func (s *RunService) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.store.Health(ctx)
}

func (s *RunService) loadRun(ctx context.Context, id int64) (*models.Run, error) {
	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if run == nil {
		s.deps.Logger.Warn("run not found", zap.Int64("run_id", id))
		return nil, runNotFound(id)
	}
	return run, nil
}

func runNotFound(id int64) error {
	return apperr.NotFound(apperr.CodeRunNotFound, fmt.Sprintf("Run with ID '%d' not found.", id))
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
