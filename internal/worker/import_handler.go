package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/byronwade/Thorbis-sub043/internal/service"
)

// ImportTaskHandler runs the import pipeline for queued jobs. Delivery is
// at-least-once; the orchestrator skips jobs that already reached a terminal
// status, so redeliveries are no-ops.
type ImportTaskHandler struct {
	orchestrator *service.ImportOrchestrator
	log          *logrus.Logger
}

func NewImportTaskHandler(orchestrator *service.ImportOrchestrator, log *logrus.Logger) *ImportTaskHandler {
	return &ImportTaskHandler{orchestrator: orchestrator, log: log}
}

func (h *ImportTaskHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload ImportTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal import task payload: %w", err)
	}

	h.log.WithFields(logrus.Fields{
		"job_id":   payload.JobID,
		"job_code": payload.JobCode,
	}).Info("processing import job")

	if err := h.orchestrator.Run(ctx, payload.JobID); err != nil {
		h.log.WithError(err).WithField("job_code", payload.JobCode).Error("import job processing error")
		return err
	}

	return nil
}
