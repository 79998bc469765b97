package services

// File: internal/services/job_service.go
// Purpose: Batch job creation, listing and partial result updates.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"shelfsim-api-go/internal/apperr"
	"shelfsim-api-go/internal/db"
	"shelfsim-api-go/internal/models"
	"shelfsim-api-go/internal/mq"
)

// JobService coordinates job persistence for runs.
type JobService struct {
	store    *db.Store
	validate *Validator
	events   notifier
	deps     Deps
}

// NewJobService constructs a JobService with dependencies.
func NewJobService(store *db.Store, d Deps) *JobService {
	return &JobService{store: store, validate: d.Validator, events: newNotifier(d), deps: d}
}

// CreateBatch stores every job spec for an existing run atomically.
// Actions are upper-cased before validation.
func (s *JobService) CreateBatch(ctx context.Context, req models.CreateJobsBatchRequest) (*models.CreateJobsBatchResponse, error) {
	for i := range req.Jobs {
		req.Jobs[i].Action = strings.ToUpper(strings.TrimSpace(req.Jobs[i].Action))
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	exists, err := s.store.RunExists(ctx, req.RunID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !exists {
		s.deps.Logger.Warn("run not found", zap.Int64("run_id", req.RunID))
		return nil, runNotFound(req.RunID)
	}

	jobs := make([]models.Job, len(req.Jobs))
	for i, spec := range req.Jobs {
		jobs[i] = models.Job{
			RunID:     req.RunID,
			Action:    spec.Action,
			CellCode:  spec.CellCode,
			BookTitle: spec.BookTitle,
			Quantity:  spec.Quantity,
		}
	}
	ids, err := s.store.CreateJobs(ctx, req.RunID, jobs)
	if err != nil {
		// The run was deleted between the existence check and the insert.
		if errors.Is(err, db.ErrForeignKey) {
			return nil, runNotFound(req.RunID)
		}
		return nil, apperr.Internal(err)
	}

	runIDs := make([]int64, len(ids))
	for i := range runIDs {
		runIDs[i] = req.RunID
	}
	s.deps.Metrics.JobsCreated.Add(float64(len(ids)))
	s.deps.Logger.Info("jobs created", zap.Int64("run_id", req.RunID), zap.Int("count", len(ids)))
	s.events.publish(mq.JobsCreated, map[string]any{
		"run_id":  req.RunID,
		"count":   len(ids),
		"job_ids": ids,
	})
	return &models.CreateJobsBatchResponse{
		Accepted:      len(ids),
		RunID:         req.RunID,
		JobIDs:        runIDs,
		CreatedJobIDs: ids,
	}, nil
}

// ListByRun returns a run's jobs ordered by start time, unstarted last.
// An unknown run yields an empty list.
func (s *JobService) ListByRun(ctx context.Context, runID int64) ([]models.Job, error) {
	jobs, err := s.store.ListJobsByRun(ctx, runID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return jobs, nil
}

// Get returns a job with its parent run attached.
func (s *JobService) Get(ctx context.Context, id int64) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if job == nil {
		s.deps.Logger.Warn("job not found", zap.Int64("job_id", id))
		return nil, jobNotFound(id)
	}
	run, err := s.store.GetRun(ctx, job.RunID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if run != nil {
		run.Jobs = []models.Job{}
	}
	job.Run = run
	return job, nil
}

// RecordResult applies the present fields of patch to job id. An empty
// patch only checks that the job exists.
func (s *JobService) RecordResult(ctx context.Context, id int64, patch models.JobResultPatch) error {
	if err := s.validate.JobResultPatch(patch); err != nil {
		return err
	}
	if err := s.store.UpdateJobResult(ctx, id, patch); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.deps.Logger.Warn("job not found", zap.Int64("job_id", id))
			return jobNotFound(id)
		}
		return apperr.Internal(err)
	}
	if patch.Empty() {
		return nil
	}

	result, _ := patch.Result.Get()
	s.deps.Metrics.RecordJobResult(result)
	s.deps.Logger.Info("job result recorded", zap.Int64("job_id", id), zap.String("result", result))
	event := map[string]any{"job_id": id}
	if models.NonEmpty(patch.Result) {
		event["result"] = result
	}
	if robot, ok := patch.RobotName.Get(); ok && robot != "" {
		event["robot_name"] = robot
	}
	s.events.publish(mq.JobResultRecorded, event)
	return nil
}

func jobNotFound(id int64) error {
	return apperr.NotFound(apperr.CodeJobNotFound, fmt.Sprintf("Job with ID '%d' not found.", id))
}
