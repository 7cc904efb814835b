package engine

import (
	"github.com/google/uuid"

	"salesflow_backend/internal/pipeline/domain"
)

// historyLedger is the append-only audit trail of stage transitions.
// No deletion or mutation operation exists on this type.
type historyLedger struct {
	entries []domain.HistoryEntry
}

func newHistoryLedger() *historyLedger {
	return &historyLedger{}
}

func (l *historyLedger) append(entry domain.HistoryEntry) {
	l.entries = append(l.entries, entry)
}

// byLead returns all entries for a lead in insertion order. The returned
// slice is a copy; callers can iterate it as many times as they like
// without observing later appends.
func (l *historyLedger) byLead(leadID uuid.UUID) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, 0)
	for _, entry := range l.entries {
		if entry.LeadID == leadID {
			out = append(out, entry)
		}
	}
	return out
}
