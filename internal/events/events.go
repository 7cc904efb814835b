// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"salesflow_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Pipeline Domain Events
// =============================================================================

// LeadCreated is published when a new lead enters the pipeline.
type LeadCreated struct {
	BaseEvent
	LeadID  uuid.UUID  `json:"leadId"`
	Name    string     `json:"name"`
	Company string     `json:"company,omitempty"`
	Source  string     `json:"source,omitempty"`
	Stage   string     `json:"stage"`
	OwnerID *uuid.UUID `json:"ownerId,omitempty"`
}

func (e LeadCreated) EventName() string { return "pipeline.lead.created" }

// LeadUpdated is published when lead fields change outside of stage moves
// and owner assignment.
type LeadUpdated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
}

func (e LeadUpdated) EventName() string { return "pipeline.lead.updated" }

// LeadAssigned is published when a lead's owner changes.
type LeadAssigned struct {
	BaseEvent
	LeadID        uuid.UUID  `json:"leadId"`
	PreviousOwner *uuid.UUID `json:"previousOwner,omitempty"`
	NewOwner      *uuid.UUID `json:"newOwner,omitempty"`
}

func (e LeadAssigned) EventName() string { return "pipeline.lead.assigned" }

// LeadDeleted is published when a lead is removed from the pipeline.
// Follow-ups and history entries referencing the lead are retained.
type LeadDeleted struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Stage  string    `json:"stage"`
}

func (e LeadDeleted) EventName() string { return "pipeline.lead.deleted" }

// PipelineStageChanged is published after a stage transition commits.
// The audit archive subscribes to this to mirror the history ledger durably.
type PipelineStageChanged struct {
	BaseEvent
	EntryID   uuid.UUID `json:"entryId"`
	LeadID    uuid.UUID `json:"leadId"`
	FromStage string    `json:"fromStage"`
	ToStage   string    `json:"toStage"`
	ActorID   uuid.UUID `json:"actorId"`
}

func (e PipelineStageChanged) EventName() string { return "pipeline.stage.changed" }

// FollowUpScheduled is published when a follow-up interaction is created.
type FollowUpScheduled struct {
	BaseEvent
	FollowUpID  uuid.UUID `json:"followUpId"`
	LeadID      uuid.UUID `json:"leadId"`
	Kind        string    `json:"kind"`
	ScheduledAt time.Time `json:"scheduledAt"`
	// TaskID is the identifier of the delegated task in the external
	// subsystem; empty when task creation failed.
	TaskID string `json:"taskId,omitempty"`
}

func (e FollowUpScheduled) EventName() string { return "pipeline.followup.scheduled" }
