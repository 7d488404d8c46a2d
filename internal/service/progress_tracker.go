package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/byronwade/Thorbis-sub043/internal/models"
)

// JobStore persists job row mutations. The progress tracker is the only
// writer of a job row for the lifetime of its import.
type JobStore interface {
	UpdateJob(ctx context.Context, job *models.ImportJob) error
}

// ProgressTracker owns one import job's live counters and status. Callers
// pass cumulative totals, not deltas, so redelivered progress updates never
// double-count. Every mutation is persisted immediately; an external poller
// reading the row at any time sees monotonically non-decreasing counters.
//
// The tracker records state transitions but never decides them; that is the
// orchestrator's job.
type ProgressTracker struct {
	job   *models.ImportJob
	store JobStore
	redis *redis.Client
	log   *logrus.Logger
}

func NewProgressTracker(job *models.ImportJob, store JobStore, redisClient *redis.Client, log *logrus.Logger) *ProgressTracker {
	return &ProgressTracker{job: job, store: store, redis: redisClient, log: log}
}

// Job returns the tracked job row.
func (t *ProgressTracker) Job() *models.ImportJob {
	return t.job
}

// SetStatus durably records a non-terminal status transition.
func (t *ProgressTracker) SetStatus(ctx context.Context, status string) error {
	if models.IsTerminalStatus(t.job.Status) {
		return nil
	}
	t.job.Status = status
	return t.persist(ctx)
}

// UpdateProgress records cumulative processed/success/failure counts.
// Regressive updates (replays of an earlier batch) are ignored, and the
// successful+failed<=total invariant is enforced.
func (t *ProgressTracker) UpdateProgress(ctx context.Context, processed, successCount, failureCount int) error {
	if models.IsTerminalStatus(t.job.Status) {
		return nil
	}
	if successCount < t.job.SuccessfulRows || failureCount < t.job.FailedRows {
		return nil
	}
	if successCount+failureCount > t.job.TotalRows {
		return fmt.Errorf("progress overflow: %d successful + %d failed exceeds %d total",
			successCount, failureCount, t.job.TotalRows)
	}

	t.job.SuccessfulRows = successCount
	t.job.FailedRows = failureCount

	if err := t.persist(ctx); err != nil {
		return err
	}
	t.publishProgress(ctx, processed)
	return nil
}

// AddErrors appends entries to the job's capped error log.
func (t *ProgressTracker) AddErrors(ctx context.Context, errs []models.ImportError) error {
	if len(errs) == 0 {
		return nil
	}
	t.job.ErrorLog.Append(errs...)
	return t.persist(ctx)
}

// MarkComplete durably records the terminal completed status.
func (t *ProgressTracker) MarkComplete(ctx context.Context) error {
	if models.IsTerminalStatus(t.job.Status) {
		return nil
	}
	t.job.Status = models.StatusCompleted
	if err := t.persist(ctx); err != nil {
		return err
	}
	t.publishProgress(ctx, t.job.TotalRows)
	return nil
}

// MarkFailed durably records the terminal failed status with a reason.
func (t *ProgressTracker) MarkFailed(ctx context.Context, reason string) error {
	if models.IsTerminalStatus(t.job.Status) {
		return nil
	}
	t.job.Status = models.StatusFailed
	t.job.ErrorMessage = reason
	return t.persist(ctx)
}

func (t *ProgressTracker) persist(ctx context.Context) error {
	if err := t.store.UpdateJob(ctx, t.job); err != nil {
		return fmt.Errorf("persist job %s: %w", t.job.JobCode, err)
	}
	return nil
}

// publishProgress mirrors the completion percentage to Redis for cheap
// polling. Best effort: a Redis failure never fails the import.
func (t *ProgressTracker) publishProgress(ctx context.Context, processed int) {
	if t.redis == nil || t.job.TotalRows == 0 {
		return
	}
	percent := float64(processed) / float64(t.job.TotalRows) * 100
	key := ProgressKey(t.job.JobCode)
	if err := t.redis.Set(ctx, key, fmt.Sprintf("%.2f", percent), 24*time.Hour).Err(); err != nil && t.log != nil {
		t.log.WithError(err).WithField("job_code", t.job.JobCode).Warn("failed to publish progress")
	}
}

// ProgressKey is the Redis key holding a job's live completion percentage.
func ProgressKey(jobCode string) string {
	return fmt.Sprintf("import:progress:%s", jobCode)
}
