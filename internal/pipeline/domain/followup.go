package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	FollowUpCall    = "call"
	FollowUpEmail   = "email"
	FollowUpMeeting = "meeting"
)

var knownFollowUpKinds = map[string]struct{}{
	FollowUpCall:    {},
	FollowUpEmail:   {},
	FollowUpMeeting: {},
}

// IsKnownFollowUpKind reports whether kind is one of the standard
// interaction types. Deployments may use additional free-form kinds;
// callers use this only for labeling, never for rejection.
func IsKnownFollowUpKind(kind string) bool {
	_, ok := knownFollowUpKinds[kind]
	return ok
}

// FollowUp is a scheduled interaction tied to a lead. Its lifecycle is
// independent of the lead's: deleting a lead does not delete its follow-ups.
type FollowUp struct {
	ID     uuid.UUID `json:"id"`
	Kind   string    `json:"kind"`
	LeadID uuid.UUID `json:"leadId"`
	// DealID links the interaction to a deal in the wider suite, when known.
	DealID *uuid.UUID `json:"dealId,omitempty"`
	// RepID is the sales representative owning the interaction.
	RepID       *uuid.UUID `json:"repId,omitempty"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	Outcome     string     `json:"outcome,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
