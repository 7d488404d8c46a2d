package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeImportProcess is the asynq task type for running one import pipeline.
const TypeImportProcess = "import:process"

type ImportTaskPayload struct {
	JobID   int    `json:"job_id"`
	JobCode string `json:"job_code"`
}

// NewImportTask builds the queue task for one created import job.
func NewImportTask(jobID int, jobCode string) (*asynq.Task, error) {
	payload, err := json.Marshal(ImportTaskPayload{JobID: jobID, JobCode: jobCode})
	if err != nil {
		return nil, fmt.Errorf("marshal import task payload: %w", err)
	}
	return asynq.NewTask(TypeImportProcess, payload, asynq.MaxRetry(3)), nil
}

// Enqueuer submits import tasks to the durable queue. It implements
// service.ImportQueue.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueImportJob(ctx context.Context, jobID int, jobCode string) error {
	task, err := NewImportTask(jobID, jobCode)
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s for job %s: %w", TypeImportProcess, jobCode, err)
	}
	return nil
}
