// Package domain provides core business types and rules for the sales
// pipeline bounded context.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a prospective customer tracked through the sales process.
type Lead struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone,omitempty"`
	Email   string    `json:"email,omitempty"`
	Company string    `json:"company,omitempty"`
	Source  string    `json:"source,omitempty"`
	// OwnerID is an opaque identifier resolved against the external
	// workforce directory. Nil means unassigned.
	OwnerID *uuid.UUID `json:"ownerId,omitempty"`
	// Stage mirrors the pipeline index membership. It is updated only by
	// the engine's move operation, never directly.
	Stage     string    `json:"stage"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
