package tasks

import (
	"context"

	"github.com/google/uuid"

	"salesflow_backend/internal/pipeline/ports"
	"salesflow_backend/platform/logger"
)

// LogCreator is the TaskCreator used when no queue is configured. Tasks are
// acknowledged with a generated id and a log line instead of being enqueued.
type LogCreator struct {
	log *logger.Logger
}

func NewLogCreator(log *logger.Logger) *LogCreator {
	return &LogCreator{log: log}
}

func (c *LogCreator) CreateTask(_ context.Context, params ports.CreateTaskParams) (string, error) {
	id := uuid.NewString()
	c.log.Info("task queue not configured; recording delegated task locally",
		"taskId", id,
		"title", params.Title,
		"followUpId", params.LinkedEntity.FollowUpID,
		"leadId", params.LinkedEntity.LeadID,
		"deadline", params.Deadline,
	)
	return id, nil
}
