// Package tasks adapts the external task subsystem. Follow-up delegated
// tasks are enqueued through asynq and picked up by the worker binary when
// their deadline arrives.
package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskFollowUpDue = "pipeline.followup.due"

// FollowUpDuePayload is the wire payload of a delegated follow-up task.
type FollowUpDuePayload struct {
	FollowUpID  string    `json:"followUpId"`
	LeadID      string    `json:"leadId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	AssignedTo  *string   `json:"assignedTo,omitempty"`
	Priority    string    `json:"priority"`
	Deadline    time.Time `json:"deadline"`
}

func NewFollowUpDueTask(payload FollowUpDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpDue, data), nil
}

func ParseFollowUpDuePayload(task *asynq.Task) (FollowUpDuePayload, error) {
	var payload FollowUpDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpDuePayload{}, err
	}
	return payload, nil
}
