// Package audit persists a durable mirror of the pipeline history ledger.
// The engine's in-memory ledger stays authoritative for reads; the archive
// subscribes to stage-change events and appends each transition to Postgres
// so the audit trail survives restarts.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesflow_backend/internal/events"
	"salesflow_backend/platform/logger"
)

// ArchivedEntry is one stage transition as stored in the archive.
type ArchivedEntry struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	FromStage  string
	ToStage    string
	ActorID    uuid.UUID
	OccurredAt time.Time
}

// Archive writes stage transitions to the pipeline_history_entries table.
type Archive struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func New(pool *pgxpool.Pool, log *logger.Logger) *Archive {
	return &Archive{pool: pool, log: log}
}

// Subscribe registers the archive on the bus. Handler failures are logged by
// the bus; the engine's transition has already committed by the time the
// event fires, so the archive never blocks or rolls back a move.
func (a *Archive) Subscribe(bus events.Bus) {
	bus.Subscribe(events.PipelineStageChanged{}.EventName(), events.HandlerFunc(a.handleStageChanged))
}

func (a *Archive) handleStageChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(events.PipelineStageChanged)
	if !ok {
		return nil
	}
	return a.record(ctx, ArchivedEntry{
		ID:         e.EntryID,
		LeadID:     e.LeadID,
		FromStage:  e.FromStage,
		ToStage:    e.ToStage,
		ActorID:    e.ActorID,
		OccurredAt: e.OccurredAt(),
	})
}

func (a *Archive) record(ctx context.Context, entry ArchivedEntry) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO pipeline_history_entries (
			id,
			lead_id,
			from_stage,
			to_stage,
			actor_id,
			occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, entry.LeadID, entry.FromStage, entry.ToStage, entry.ActorID, entry.OccurredAt)
	if err != nil {
		a.log.DatabaseError("insert pipeline history entry", err)
		return err
	}
	return nil
}

// ByLead returns the archived transitions for one lead, oldest first.
func (a *Archive) ByLead(ctx context.Context, leadID uuid.UUID) ([]ArchivedEntry, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT id, lead_id, from_stage, to_stage, actor_id, occurred_at
		FROM pipeline_history_entries
		WHERE lead_id = $1
		ORDER BY occurred_at, id
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArchivedEntry
	for rows.Next() {
		var entry ArchivedEntry
		if err := rows.Scan(&entry.ID, &entry.LeadID, &entry.FromStage, &entry.ToStage, &entry.ActorID, &entry.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
