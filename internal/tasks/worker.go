package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"salesflow_backend/platform/config"
	"salesflow_backend/platform/logger"
)

// Worker consumes due follow-up tasks from the queue.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetTaskQueueName()
	if queue == "" {
		queue = "default"
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{queue: 1},
	})

	w := &Worker{server: server, mux: asynq.NewServeMux(), log: log}
	w.mux.HandleFunc(TaskFollowUpDue, w.handleFollowUpDue)
	return w, nil
}

// Run blocks serving tasks until Shutdown is called.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// handleFollowUpDue surfaces a due follow-up to the sales team. Delivery is
// a log line here; a notification channel can hang off the same handler.
func (w *Worker) handleFollowUpDue(_ context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpDuePayload(task)
	if err != nil {
		return fmt.Errorf("parse %s payload: %w", TaskFollowUpDue, err)
	}

	w.log.Info("follow-up due",
		"followUpId", payload.FollowUpID,
		"leadId", payload.LeadID,
		"title", payload.Title,
		"priority", payload.Priority,
		"deadline", payload.Deadline,
	)
	return nil
}
