package transport

import (
	"time"

	"github.com/google/uuid"

	"salesflow_backend/internal/pipeline/domain"
	"salesflow_backend/internal/pipeline/engine"
)

// Request DTOs

type CreateLeadRequest struct {
	Name    string       `json:"name" validate:"required,min=1,max=200"`
	Phone   string       `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Email   string       `json:"email,omitempty" validate:"omitempty,email"`
	Company string       `json:"company,omitempty" validate:"omitempty,max=200"`
	Source  string       `json:"source,omitempty" validate:"omitempty,max=100"`
	Notes   string       `json:"notes,omitempty" validate:"omitempty,max=2000"`
	OwnerID OptionalUUID `json:"ownerId,omitempty" validate:"-"`
}

type UpdateLeadRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Company *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Source  *string `json:"source,omitempty" validate:"omitempty,max=100"`
	Notes   *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type AssignLeadRequest struct {
	OwnerID *uuid.UUID `json:"ownerId" validate:"omitempty"`
}

type MoveLeadRequest struct {
	FromStage string `json:"fromStage" validate:"required,min=1,max=100"`
	ToStage   string `json:"toStage" validate:"required,min=1,max=100"`
}

type CreateFollowUpRequest struct {
	Kind        string       `json:"kind" validate:"required,min=1,max=50"`
	LeadID      uuid.UUID    `json:"leadId" validate:"required"`
	DealID      OptionalUUID `json:"dealId,omitempty" validate:"-"`
	RepID       OptionalUUID `json:"repId,omitempty" validate:"-"`
	ScheduledAt time.Time    `json:"scheduledAt" validate:"required"`
	Notes       string       `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type UpdateFollowUpRequest struct {
	Kind        *string    `json:"kind,omitempty" validate:"omitempty,min=1,max=50"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	Outcome     *string    `json:"outcome,omitempty" validate:"omitempty,max=500"`
	Notes       *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
	DealID      *uuid.UUID `json:"dealId,omitempty"`
	RepID       *uuid.UUID `json:"repId,omitempty"`
}

// Response DTOs

type LeadResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone,omitempty"`
	Email     string     `json:"email,omitempty"`
	Company   string     `json:"company,omitempty"`
	Source    string     `json:"source,omitempty"`
	OwnerID   *uuid.UUID `json:"ownerId,omitempty"`
	Stage     string     `json:"stage"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type FollowUpResponse struct {
	ID          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	LeadID      uuid.UUID  `json:"leadId"`
	DealID      *uuid.UUID `json:"dealId,omitempty"`
	RepID       *uuid.UUID `json:"repId,omitempty"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	Outcome     string     `json:"outcome,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CreateFollowUpResponse carries the optional collaborator warning: the
// follow-up is durable even when the delegated task could not be created.
type CreateFollowUpResponse struct {
	FollowUp    FollowUpResponse `json:"followUp"`
	TaskID      string           `json:"taskId,omitempty"`
	TaskWarning string           `json:"taskWarning,omitempty"`
}

type HistoryEntryResponse struct {
	ID        uuid.UUID `json:"id"`
	LeadID    uuid.UUID `json:"leadId"`
	Stage     string    `json:"stage"`
	ActorID   uuid.UUID `json:"actorId"`
	CreatedAt time.Time `json:"createdAt"`
}

type BoardColumnResponse struct {
	Stage   string         `json:"stage"`
	LeadIDs []uuid.UUID    `json:"leadIds"`
	Leads   []LeadResponse `json:"leads"`
}

type BoardResponse struct {
	InitialStage string                `json:"initialStage"`
	Columns      []BoardColumnResponse `json:"columns"`
}

type OwnerResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

// Mappers

func ToLeadResponse(lead domain.Lead) LeadResponse {
	return LeadResponse{
		ID:        lead.ID,
		Name:      lead.Name,
		Phone:     lead.Phone,
		Email:     lead.Email,
		Company:   lead.Company,
		Source:    lead.Source,
		OwnerID:   lead.OwnerID,
		Stage:     lead.Stage,
		Notes:     lead.Notes,
		CreatedAt: lead.CreatedAt,
	}
}

func ToLeadResponses(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, len(leads))
	for i, lead := range leads {
		out[i] = ToLeadResponse(lead)
	}
	return out
}

func ToFollowUpResponse(fu domain.FollowUp) FollowUpResponse {
	return FollowUpResponse{
		ID:          fu.ID,
		Kind:        fu.Kind,
		LeadID:      fu.LeadID,
		DealID:      fu.DealID,
		RepID:       fu.RepID,
		ScheduledAt: fu.ScheduledAt,
		Outcome:     fu.Outcome,
		Notes:       fu.Notes,
		CreatedAt:   fu.CreatedAt,
	}
}

func ToFollowUpResponses(followUps []domain.FollowUp) []FollowUpResponse {
	out := make([]FollowUpResponse, len(followUps))
	for i, fu := range followUps {
		out[i] = ToFollowUpResponse(fu)
	}
	return out
}

func ToHistoryResponses(entries []domain.HistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, len(entries))
	for i, entry := range entries {
		out[i] = HistoryEntryResponse{
			ID:        entry.ID,
			LeadID:    entry.LeadID,
			Stage:     entry.Stage,
			ActorID:   entry.ActorID,
			CreatedAt: entry.CreatedAt,
		}
	}
	return out
}

func ToBoardResponse(initialStage string, columns []engine.StageColumn) BoardResponse {
	out := BoardResponse{InitialStage: initialStage, Columns: make([]BoardColumnResponse, len(columns))}
	for i, col := range columns {
		out.Columns[i] = BoardColumnResponse{
			Stage:   col.Stage,
			LeadIDs: col.LeadIDs,
			Leads:   ToLeadResponses(col.Leads),
		}
	}
	return out
}
