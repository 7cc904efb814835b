// Package directory resolves sales team members for lead assignment. The
// roster is loaded from configuration and stands in for the external
// workforce directory.
package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"salesflow_backend/internal/pipeline/ports"
	"salesflow_backend/platform/config"
)

// Roster is a fixed, config-backed owner directory implementing
// ports.OwnerDirectory.
type Roster struct {
	byID  map[uuid.UUID]ports.OwnerInfo
	order []ports.OwnerInfo
}

// NewRoster builds a directory from config entries. Entries with an invalid
// id are rejected; a misconfigured roster should fail startup, not silently
// shrink.
func NewRoster(entries []config.RosterEntry) (*Roster, error) {
	r := &Roster{byID: make(map[uuid.UUID]ports.OwnerInfo, len(entries))}
	for _, entry := range entries {
		id, err := uuid.Parse(entry.ID)
		if err != nil {
			return nil, fmt.Errorf("roster entry %q: invalid id: %w", entry.Name, err)
		}
		if _, exists := r.byID[id]; exists {
			return nil, fmt.Errorf("roster entry %q: duplicate id %s", entry.Name, id)
		}
		info := ports.OwnerInfo{ID: id, Name: entry.Name, Email: entry.Email}
		r.byID[id] = info
		r.order = append(r.order, info)
	}
	return r, nil
}

func (r *Roster) GetOwner(_ context.Context, id uuid.UUID) (ports.OwnerInfo, error) {
	info, ok := r.byID[id]
	if !ok {
		return ports.OwnerInfo{}, fmt.Errorf("owner %s not in roster", id)
	}
	return info, nil
}

func (r *Roster) ListOwners(_ context.Context) ([]ports.OwnerInfo, error) {
	return append([]ports.OwnerInfo(nil), r.order...), nil
}
