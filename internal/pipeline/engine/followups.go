package engine

import (
	"sort"

	"github.com/google/uuid"

	"salesflow_backend/internal/pipeline/domain"
)

// followUpBook stores follow-up records. Like the registry it keeps
// insertion order and leaves locking to the engine facade.
type followUpBook struct {
	byID  map[uuid.UUID]domain.FollowUp
	order []uuid.UUID
}

func newFollowUpBook() *followUpBook {
	return &followUpBook{byID: make(map[uuid.UUID]domain.FollowUp)}
}

func (b *followUpBook) insert(fu domain.FollowUp) {
	b.byID[fu.ID] = fu
	b.order = append(b.order, fu.ID)
}

func (b *followUpBook) get(id uuid.UUID) (domain.FollowUp, bool) {
	fu, ok := b.byID[id]
	return fu, ok
}

func (b *followUpBook) put(fu domain.FollowUp) {
	b.byID[fu.ID] = fu
}

func (b *followUpBook) remove(id uuid.UUID) bool {
	if _, ok := b.byID[id]; !ok {
		return false
	}
	delete(b.byID, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

func (b *followUpBook) filter(keep func(domain.FollowUp) bool) []domain.FollowUp {
	out := make([]domain.FollowUp, 0)
	for _, id := range b.order {
		if fu := b.byID[id]; keep(fu) {
			out = append(out, fu)
		}
	}
	return out
}

// recent returns up to limit follow-ups sorted by scheduled time, newest
// first. Ties keep insertion order.
func (b *followUpBook) recent(limit int) []domain.FollowUp {
	all := b.filter(func(domain.FollowUp) bool { return true })
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ScheduledAt.After(all[j].ScheduledAt)
	})
	if limit < len(all) {
		all = all[:limit]
	}
	return all
}
