package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/byronwade/Thorbis-sub043/internal/config"
	"github.com/byronwade/Thorbis-sub043/internal/models"
)

// ImportRequest is one submitted import.
type ImportRequest struct {
	Records           []models.RawRecord
	EntityType        string
	Mappings          []models.FieldMapping
	CompanyID         string
	UserID            string
	IsDryRun          bool
	DuplicateHandling string
	SourcePlatform    string
	MappingID         string
}

// ImportJobStore is the orchestrator's persistence surface for job rows and
// staged submissions.
type ImportJobStore interface {
	JobStore
	CreateJob(ctx context.Context, job *models.ImportJob) error
	GetJobByID(ctx context.Context, id int) (*models.ImportJob, error)
	GetJobByCode(ctx context.Context, code string) (*models.ImportJob, error)
	StageRecords(ctx context.Context, jobID int, records []models.RawRecord) error
	GetStagedRecords(ctx context.Context, jobID int) ([]models.StagedRecord, error)
	DeleteStagedRecords(ctx context.Context, jobID int) error
}

// RecordRemover undoes an import's writes in the tenant store.
type RecordRemover interface {
	DeleteByImportJob(ctx context.Context, companyID string, importJobID int) (int64, error)
}

// ImportQueue hands a created job to the durable background queue.
type ImportQueue interface {
	EnqueueImportJob(ctx context.Context, jobID int, jobCode string) error
}

// ImportOrchestrator coordinates the pipeline: it creates the job row,
// enqueues the background task, and drives mapping, validation, the
// circuit-breaker decision, and batched writing through the progress
// tracker.
type ImportOrchestrator struct {
	jobs      ImportJobStore
	records   RecordRemover
	mapper    *FieldMapper
	validator *RecordValidator
	writer    *BatchWriter
	queue     ImportQueue
	redis     *redis.Client
	abort     AbortPolicy
	cfg       *config.Config
	log       *logrus.Logger
}

func NewImportOrchestrator(
	jobs ImportJobStore,
	records RecordRemover,
	mapper *FieldMapper,
	validator *RecordValidator,
	writer *BatchWriter,
	queue ImportQueue,
	redisClient *redis.Client,
	abort AbortPolicy,
	cfg *config.Config,
	log *logrus.Logger,
) *ImportOrchestrator {
	if abort == nil {
		abort = DefaultAbortPolicy(cfg.ImportAbortThreshold, cfg.ImportAbortMinRows)
	}
	return &ImportOrchestrator{
		jobs:      jobs,
		records:   records,
		mapper:    mapper,
		validator: validator,
		writer:    writer,
		queue:     queue,
		redis:     redisClient,
		abort:     abort,
		cfg:       cfg,
		log:       log,
	}
}

// Submit validates the request shape, creates the job row in pending state,
// stages the submitted records, and enqueues the background task. It returns
// synchronously; the caller polls the returned job for progress.
func (o *ImportOrchestrator) Submit(ctx context.Context, req ImportRequest) (*models.ImportJob, error) {
	if len(req.Records) == 0 {
		return nil, ErrNoRecords
	}
	if req.EntityType == "" {
		return nil, ErrEntityTypeRequired
	}
	if req.CompanyID == "" {
		return nil, ErrCompanyRequired
	}
	if req.UserID == "" {
		return nil, ErrUserRequired
	}
	if o.cfg.ImportMaxRecords > 0 && len(req.Records) > o.cfg.ImportMaxRecords {
		return nil, fmt.Errorf("%w: %d records, limit %d", ErrTooManyRecords, len(req.Records), o.cfg.ImportMaxRecords)
	}

	strategy := req.DuplicateHandling
	if strategy == "" {
		strategy = models.DuplicateSkip
	}
	if !models.ValidDuplicateHandling(strategy) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDuplicatePolicy, req.DuplicateHandling)
	}

	if o.queue == nil {
		return nil, ErrQueueUnavailable
	}

	now := time.Now()
	job := &models.ImportJob{
		JobCode:               fmt.Sprintf("IMP-%s", uuid.New().String()[:8]),
		CompanyID:             req.CompanyID,
		UserID:                req.UserID,
		EntityType:            req.EntityType,
		SourcePlatform:        req.SourcePlatform,
		MappingID:             req.MappingID,
		IsDryRun:              req.IsDryRun,
		DuplicateHandling:     strategy,
		Mappings:              req.Mappings,
		TotalRows:             len(req.Records),
		Status:                models.StatusPending,
		EstimatedSeconds:      estimateDurationSeconds(len(req.Records), o.cfg.ImportRowsPerSecond),
		RollbackEligibleUntil: now.Add(o.cfg.RollbackWindow),
		CreatedAt:             now,
	}

	if err := o.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}

	if err := o.jobs.StageRecords(ctx, job.ID, req.Records); err != nil {
		o.failBeforeStart(ctx, job, "failed to stage submitted records")
		return nil, fmt.Errorf("stage records for job %s: %w", job.JobCode, err)
	}

	if err := o.queue.EnqueueImportJob(ctx, job.ID, job.JobCode); err != nil {
		o.failBeforeStart(ctx, job, "failed to queue background processing")
		return nil, fmt.Errorf("enqueue job %s: %w", job.JobCode, err)
	}

	o.log.WithFields(logrus.Fields{
		"job_code":    job.JobCode,
		"company_id":  job.CompanyID,
		"entity_type": job.EntityType,
		"total_rows":  job.TotalRows,
		"dry_run":     job.IsDryRun,
	}).Info("import job submitted")

	return job, nil
}

// Run executes the pipeline for one job. It is the asynq task body and must
// tolerate at-least-once delivery: a job that is already terminal is skipped.
// Any failure inside the pipeline terminates the job as failed; the error is
// recorded on the job row rather than propagated to the original caller.
func (o *ImportOrchestrator) Run(ctx context.Context, jobID int) error {
	job, err := o.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load import job %d: %w", jobID, err)
	}
	if job == nil {
		o.log.WithField("job_id", jobID).Warn("import job vanished before processing")
		return nil
	}
	if models.IsTerminalStatus(job.Status) {
		o.log.WithFields(logrus.Fields{"job_code": job.JobCode, "status": job.Status}).
			Info("import job already terminal, skipping redelivery")
		return nil
	}

	tracker := NewProgressTracker(job, o.jobs, o.redis, o.log)

	defer func() {
		if r := recover(); r != nil {
			_ = tracker.MarkFailed(ctx, fmt.Sprintf("unexpected failure: %v", r))
		}
	}()

	if err := o.runPipeline(ctx, tracker); err != nil {
		if failErr := tracker.MarkFailed(ctx, err.Error()); failErr != nil {
			return failErr
		}
		o.log.WithError(err).WithField("job_code", job.JobCode).Error("import job failed")
	}

	o.cleanupStaged(ctx, job)
	return nil
}

func (o *ImportOrchestrator) runPipeline(ctx context.Context, tracker *ProgressTracker) error {
	job := tracker.Job()

	if err := tracker.SetStatus(ctx, models.StatusInProgress); err != nil {
		return err
	}

	staged, err := o.jobs.GetStagedRecords(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load staged records: %w", err)
	}

	raws := make([]models.RawRecord, len(staged))
	for i, row := range staged {
		raws[i] = models.RawRecord(row.Payload)
	}

	transformed := o.mapper.MapAll(raws, job.Mappings)
	outcome := o.validator.Validate(transformed, job.EntityType)
	validationErrors := flattenValidationErrors(outcome.Invalid)

	if o.abort(outcome.InvalidRatio(), outcome.TotalCount()) {
		if err := tracker.AddErrors(ctx, validationErrors); err != nil {
			return err
		}
		o.log.WithFields(logrus.Fields{
			"job_code":      job.JobCode,
			"invalid_ratio": outcome.InvalidRatio(),
			"invalid_rows":  len(outcome.Invalid),
		}).Warn("import aborted by circuit breaker")
		return tracker.MarkFailed(ctx, "too many validation errors")
	}

	if err := tracker.AddErrors(ctx, validationErrors); err != nil {
		return err
	}

	if job.IsDryRun {
		if err := tracker.UpdateProgress(ctx, len(outcome.Valid), len(outcome.Valid), 0); err != nil {
			return err
		}
		return tracker.MarkComplete(ctx)
	}

	invalidCount := len(outcome.Invalid)
	if invalidCount > 0 {
		if err := tracker.UpdateProgress(ctx, invalidCount, 0, invalidCount); err != nil {
			return err
		}
	}

	successSoFar := 0
	failedSoFar := 0
	if _, err := o.writer.Write(ctx, job, outcome.Valid, func(result models.BatchResult, processed, total int) {
		successSoFar += result.Succeeded
		failedSoFar += result.Failed

		// Progress persistence is best effort mid-run; a dropped update is
		// superseded by the next cumulative one.
		if err := tracker.UpdateProgress(ctx, invalidCount+processed, successSoFar, invalidCount+failedSoFar); err != nil {
			o.log.WithError(err).WithField("job_code", job.JobCode).Warn("failed to persist batch progress")
		}
		if err := tracker.AddErrors(ctx, result.Errors); err != nil {
			o.log.WithError(err).WithField("job_code", job.JobCode).Warn("failed to persist batch errors")
		}
	}); err != nil {
		return err
	}

	return tracker.MarkComplete(ctx)
}

// Rollback is the external undo operation: it refuses jobs outside the
// rollback window and deletes the records this import wrote.
func (o *ImportOrchestrator) Rollback(ctx context.Context, companyID, jobCode string) (*models.ImportJob, int64, error) {
	job, err := o.jobs.GetJobByCode(ctx, jobCode)
	if err != nil {
		return nil, 0, fmt.Errorf("load import job %s: %w", jobCode, err)
	}
	if job == nil || job.CompanyID != companyID {
		return nil, 0, ErrJobNotFound
	}
	if job.Status == models.StatusRolledBack {
		return nil, 0, ErrNothingToRollback
	}
	if !models.IsTerminalStatus(job.Status) {
		return nil, 0, ErrJobNotTerminal
	}
	if job.IsDryRun {
		return nil, 0, ErrNothingToRollback
	}
	if time.Now().After(job.RollbackEligibleUntil) {
		return nil, 0, ErrRollbackWindowExpired
	}

	removed, err := o.records.DeleteByImportJob(ctx, job.CompanyID, job.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("delete records for job %s: %w", jobCode, err)
	}

	job.Status = models.StatusRolledBack
	if err := o.jobs.UpdateJob(ctx, job); err != nil {
		return nil, removed, fmt.Errorf("mark job %s rolled back: %w", jobCode, err)
	}

	o.log.WithFields(logrus.Fields{
		"job_code":        job.JobCode,
		"records_removed": removed,
	}).Info("import rolled back")

	return job, removed, nil
}

// failBeforeStart terminates a job that never reached the worker.
func (o *ImportOrchestrator) failBeforeStart(ctx context.Context, job *models.ImportJob, reason string) {
	job.Status = models.StatusFailed
	job.ErrorMessage = reason
	if err := o.jobs.UpdateJob(ctx, job); err != nil {
		o.log.WithError(err).WithField("job_code", job.JobCode).Error("failed to mark job failed")
	}
}

func (o *ImportOrchestrator) cleanupStaged(ctx context.Context, job *models.ImportJob) {
	if err := o.jobs.DeleteStagedRecords(ctx, job.ID); err != nil {
		o.log.WithError(err).WithField("job_code", job.JobCode).Warn("failed to purge staged records")
	}
}

func flattenValidationErrors(invalid []models.InvalidRecord) []models.ImportError {
	var out []models.ImportError
	for _, rec := range invalid {
		for _, fieldErr := range rec.Errors {
			out = append(out, models.ImportError{
				RowIndex: rec.Record.RowIndex,
				Field:    fieldErr.Field,
				Message:  fieldErr.Message,
			})
		}
	}
	return out
}

func estimateDurationSeconds(totalRows int, rowsPerSecond float64) int {
	if rowsPerSecond <= 0 {
		rowsPerSecond = 167
	}
	secs := int(math.Ceil(float64(totalRows) / rowsPerSecond))
	if secs < 1 {
		secs = 1
	}
	return secs
}
