package domain

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is an immutable audit record of one stage transition.
// Entries are only ever appended; ordering is insertion order, with the
// timestamp taken at transition commit.
type HistoryEntry struct {
	ID        uuid.UUID `json:"id"`
	LeadID    uuid.UUID `json:"leadId"`
	Stage     string    `json:"stage"`
	ActorID   uuid.UUID `json:"actorId"`
	CreatedAt time.Time `json:"createdAt"`
}
