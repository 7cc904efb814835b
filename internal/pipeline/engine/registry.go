package engine

import (
	"github.com/google/uuid"

	"salesflow_backend/internal/pipeline/domain"
)

// leadRegistry is the authoritative store of lead records. It keeps
// insertion order so listings are deterministic. The registry does no
// locking of its own; the engine facade serializes all access.
type leadRegistry struct {
	byID  map[uuid.UUID]domain.Lead
	order []uuid.UUID
}

func newLeadRegistry() *leadRegistry {
	return &leadRegistry{byID: make(map[uuid.UUID]domain.Lead)}
}

func (r *leadRegistry) insert(lead domain.Lead) {
	r.byID[lead.ID] = lead
	r.order = append(r.order, lead.ID)
}

func (r *leadRegistry) get(id uuid.UUID) (domain.Lead, bool) {
	lead, ok := r.byID[id]
	return lead, ok
}

// put replaces an existing record. The caller must have verified existence.
func (r *leadRegistry) put(lead domain.Lead) {
	r.byID[lead.ID] = lead
}

func (r *leadRegistry) remove(id uuid.UUID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *leadRegistry) len() int {
	return len(r.byID)
}

// list returns all leads in insertion order.
func (r *leadRegistry) list() []domain.Lead {
	out := make([]domain.Lead, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// filter returns leads matching the predicate, in insertion order.
func (r *leadRegistry) filter(keep func(domain.Lead) bool) []domain.Lead {
	out := make([]domain.Lead, 0)
	for _, id := range r.order {
		if lead := r.byID[id]; keep(lead) {
			out = append(out, lead)
		}
	}
	return out
}
