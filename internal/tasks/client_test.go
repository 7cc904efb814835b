package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"salesflow_backend/internal/pipeline/ports"
)

type schedulerConfigStub struct {
	redisURL string
	queue    string
}

func (s schedulerConfigStub) GetRedisURL() string       { return s.redisURL }
func (s schedulerConfigStub) GetRedisTLSInsecure() bool { return false }
func (s schedulerConfigStub) GetTaskQueueName() string  { return s.queue }

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(schedulerConfigStub{}); err == nil {
		t.Fatal("expected an error for missing redis url")
	}
}

func TestCreateTaskSchedulesAtDeadline(t *testing.T) {
	srv := miniredis.RunT(t)

	cfg := schedulerConfigStub{redisURL: "redis://" + srv.Addr(), queue: "pipeline"}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	followUpID := uuid.New()
	leadID := uuid.New()
	repID := uuid.New()
	deadline := time.Now().Add(72 * time.Hour).Truncate(time.Second)

	taskID, err := client.CreateTask(context.Background(), ports.CreateTaskParams{
		Title:       "Call follow-up: Jane Smith",
		Description: "Scheduled call follow-up with Jane Smith.",
		AssignedTo:  &repID,
		Deadline:    deadline,
		Priority:    ports.TaskPriorityMedium,
		LinkedEntity: ports.LinkedEntity{
			FollowUpID: followUpID,
			LeadID:     leadID,
		},
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if taskID == "" {
		t.Fatal("expected a task id")
	}

	opt, err := redisClientOpt(cfg.redisURL, false)
	if err != nil {
		t.Fatalf("redisClientOpt: %v", err)
	}
	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	scheduled, err := inspector.ListScheduledTasks("pipeline")
	if err != nil {
		t.Fatalf("ListScheduledTasks: %v", err)
	}
	if len(scheduled) != 1 {
		t.Fatalf("scheduled tasks = %d, want 1", len(scheduled))
	}

	info := scheduled[0]
	if info.Type != TaskFollowUpDue {
		t.Errorf("task type = %q, want %q", info.Type, TaskFollowUpDue)
	}
	if got := info.NextProcessAt; !got.Equal(deadline) {
		t.Errorf("next process at = %v, want %v", got, deadline)
	}

	payload, err := ParseFollowUpDuePayload(asynq.NewTask(info.Type, info.Payload))
	if err != nil {
		t.Fatalf("ParseFollowUpDuePayload: %v", err)
	}
	if payload.FollowUpID != followUpID.String() {
		t.Errorf("followUpId = %q, want %q", payload.FollowUpID, followUpID)
	}
	if payload.LeadID != leadID.String() {
		t.Errorf("leadId = %q, want %q", payload.LeadID, leadID)
	}
	if payload.AssignedTo == nil || *payload.AssignedTo != repID.String() {
		t.Errorf("assignedTo = %v, want %s", payload.AssignedTo, repID)
	}
	if payload.Priority != ports.TaskPriorityMedium {
		t.Errorf("priority = %q, want %q", payload.Priority, ports.TaskPriorityMedium)
	}
}
