package ports

import (
	"context"

	"github.com/google/uuid"
)

// OwnerInfo represents the minimal workforce-directory data the pipeline
// domain needs about a lead owner.
type OwnerInfo struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// OwnerDirectory resolves owner identifiers against the external workforce
// directory. The pipeline stores owner IDs as opaque values; this interface
// exists so the transport layer can validate assignments and enrich views.
type OwnerDirectory interface {
	// GetOwner returns directory info for the given ID.
	// Returns an error when the owner is unknown.
	GetOwner(ctx context.Context, id uuid.UUID) (OwnerInfo, error)

	// ListOwners returns all known owners, for assignment pickers.
	ListOwners(ctx context.Context) ([]OwnerInfo, error)
}
