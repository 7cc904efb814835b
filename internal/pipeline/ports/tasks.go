// Package ports defines consumer-driven interfaces for external dependencies.
// These interfaces are defined in the pipeline domain based on what it needs,
// rather than what the external subsystems choose to offer.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Task priorities understood by the task subsystem.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// LinkedEntity is the back-reference tag connecting a delegated task to the
// pipeline records that spawned it.
type LinkedEntity struct {
	FollowUpID uuid.UUID `json:"followUpId"`
	LeadID     uuid.UUID `json:"leadId"`
}

// CreateTaskParams describes a delegatable work item for the external
// task-tracking subsystem.
type CreateTaskParams struct {
	Title        string
	Description  string
	AssignedTo   *uuid.UUID
	Deadline     time.Time
	Priority     string
	LinkedEntity LinkedEntity
}

// TaskCreator is the pipeline domain's view of the external Task subsystem.
// The engine treats task creation as fire-and-forget relative to its own
// consistency: a creation failure never rolls back local state.
type TaskCreator interface {
	// CreateTask stores a work item and returns its identifier.
	CreateTask(ctx context.Context, params CreateTaskParams) (string, error)
}
