// Package engine implements the sales pipeline and lead lifecycle core:
// the lead registry, the per-stage pipeline index, the append-only history
// ledger, and the follow-up scheduler, composed behind a single facade.
//
// The engine is a single-writer, in-memory authoritative store. Every
// composite operation executes as an indivisible unit under one store-wide
// lock, so no reader can observe a lead that exists in the registry but not
// in a stage bucket, or a transition with only part of its sub-steps applied.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"salesflow_backend/internal/events"
	"salesflow_backend/internal/pipeline/domain"
	"salesflow_backend/internal/pipeline/ports"
	"salesflow_backend/platform/logger"
	"salesflow_backend/platform/phone"
	"salesflow_backend/platform/sanitize"
)

var (
	ErrLeadNotFound     = errors.New("lead not found")
	ErrFollowUpNotFound = errors.New("follow-up not found")
	ErrNameRequired     = errors.New("lead name is required")
	ErrUnknownStage     = errors.New("unknown pipeline stage")
	// ErrStageMismatch is returned when a move names a source stage that
	// does not actually contain the lead. Rejecting instead of silently
	// correcting surfaces caller bugs early.
	ErrStageMismatch = errors.New("lead is not in the given source stage")
)

// Engine composes the pipeline components into the externally visible
// operation set. It is the only place that mutates the registry, index,
// ledger and follow-up book, which keeps the atomicity contract from being
// bypassed.
type Engine struct {
	mu        sync.RWMutex
	stages    *domain.StageSet
	registry  *leadRegistry
	index     *stageIndex
	ledger    *historyLedger
	followUps *followUpBook

	tasks ports.TaskCreator
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

// New builds an engine for the given pipeline shape. The task creator must
// not be nil; the bus may be nil for deployments without event consumers.
func New(stages *domain.StageSet, tasks ports.TaskCreator, bus events.Bus, log *logger.Logger) *Engine {
	return &Engine{
		stages:    stages,
		registry:  newLeadRegistry(),
		index:     newStageIndex(stages),
		ledger:    newHistoryLedger(),
		followUps: newFollowUpBook(),
		tasks:     tasks,
		bus:       bus,
		log:       log,
		now:       time.Now,
	}
}

// Stages returns the configured pipeline shape.
func (e *Engine) Stages() *domain.StageSet {
	return e.stages
}

// =============================================================================
// Lead operations
// =============================================================================

// AddLeadParams carries the caller-supplied fields for a new lead.
type AddLeadParams struct {
	Name    string
	Phone   string
	Email   string
	Company string
	Source  string
	Notes   string
	OwnerID *uuid.UUID
}

// AddLead creates a lead and places it into the configured initial stage.
// Registry insert and bucket append commit as one unit. History is not
// touched; entries record transitions, not creation.
func (e *Engine) AddLead(ctx context.Context, params AddLeadParams) (domain.Lead, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return domain.Lead{}, ErrNameRequired
	}

	lead := domain.Lead{
		ID:      uuid.New(),
		Name:    name,
		Phone:   phone.NormalizeE164(params.Phone),
		Email:   strings.TrimSpace(params.Email),
		Company: strings.TrimSpace(params.Company),
		Source:  params.Source,
		OwnerID: params.OwnerID,
		Stage:   e.stages.Initial(),
		Notes:   sanitize.Text(params.Notes),
	}

	e.mu.Lock()
	lead.CreatedAt = e.now()
	e.registry.insert(lead)
	e.index.appendTail(lead.Stage, lead.ID)
	e.mu.Unlock()

	e.publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Company:   lead.Company,
		Source:    lead.Source,
		Stage:     lead.Stage,
		OwnerID:   lead.OwnerID,
	})

	return lead, nil
}

// EditLeadParams carries a partial lead update. Nil fields are left alone.
// There is deliberately no Stage field: stage changes go through MoveLead.
type EditLeadParams struct {
	Name    *string
	Phone   *string
	Email   *string
	Company *string
	Source  *string
	Notes   *string
}

// EditLead merges the given fields into an existing lead.
func (e *Engine) EditLead(ctx context.Context, id uuid.UUID, params EditLeadParams) (domain.Lead, error) {
	e.mu.Lock()
	lead, ok := e.registry.get(id)
	if !ok {
		e.mu.Unlock()
		return domain.Lead{}, ErrLeadNotFound
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			e.mu.Unlock()
			return domain.Lead{}, ErrNameRequired
		}
		lead.Name = name
	}
	if params.Phone != nil {
		lead.Phone = phone.NormalizeE164(*params.Phone)
	}
	if params.Email != nil {
		lead.Email = strings.TrimSpace(*params.Email)
	}
	if params.Company != nil {
		lead.Company = strings.TrimSpace(*params.Company)
	}
	if params.Source != nil {
		lead.Source = *params.Source
	}
	if params.Notes != nil {
		lead.Notes = sanitize.Text(*params.Notes)
	}

	e.registry.put(lead)
	e.mu.Unlock()

	e.publish(ctx, events.LeadUpdated{BaseEvent: events.NewBaseEvent(), LeadID: id})
	return lead, nil
}

// AssignLead updates the lead's owner. A nil ownerID unassigns the lead.
func (e *Engine) AssignLead(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) (domain.Lead, error) {
	e.mu.Lock()
	lead, ok := e.registry.get(id)
	if !ok {
		e.mu.Unlock()
		return domain.Lead{}, ErrLeadNotFound
	}

	previous := lead.OwnerID
	lead.OwnerID = ownerID
	e.registry.put(lead)
	e.mu.Unlock()

	e.publish(ctx, events.LeadAssigned{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        id,
		PreviousOwner: previous,
		NewOwner:      ownerID,
	})
	return lead, nil
}

// DeleteLead removes the lead from the registry and from every stage bucket
// as one unit. Its history entries and follow-ups are retained; the audit
// trail and scheduled interactions outlive the record.
func (e *Engine) DeleteLead(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	lead, ok := e.registry.get(id)
	if !ok {
		e.mu.Unlock()
		return ErrLeadNotFound
	}

	e.registry.remove(id)
	e.index.removeEverywhere(id)
	e.mu.Unlock()

	e.publish(ctx, events.LeadDeleted{BaseEvent: events.NewBaseEvent(), LeadID: id, Stage: lead.Stage})
	return nil
}

// MoveLead transitions a lead from one stage to another. The four sub-steps
// (source bucket removal, destination tail append, history append,
// denormalized stage update) commit atomically under the store lock.
//
// The source stage is validated strictly: callers holding a stale view get
// ErrStageMismatch instead of a silent fix-up. Moving a lead to the stage it
// already occupies is allowed and still appends one history entry, with the
// lead re-entering at the tail of the bucket.
func (e *Engine) MoveLead(ctx context.Context, id uuid.UUID, fromStage, toStage string, actorID uuid.UUID) (domain.Lead, error) {
	if !e.stages.Contains(fromStage) {
		return domain.Lead{}, fmt.Errorf("%w: %q", ErrUnknownStage, fromStage)
	}
	if !e.stages.Contains(toStage) {
		return domain.Lead{}, fmt.Errorf("%w: %q", ErrUnknownStage, toStage)
	}

	e.mu.Lock()
	lead, ok := e.registry.get(id)
	if !ok {
		e.mu.Unlock()
		return domain.Lead{}, ErrLeadNotFound
	}
	if !e.index.contains(fromStage, id) {
		e.mu.Unlock()
		return domain.Lead{}, fmt.Errorf("%w: lead %s is in %q, not %q", ErrStageMismatch, id, lead.Stage, fromStage)
	}

	e.index.remove(fromStage, id)
	e.index.appendTail(toStage, id)

	entry := domain.HistoryEntry{
		ID:        uuid.New(),
		LeadID:    id,
		Stage:     toStage,
		ActorID:   actorID,
		CreatedAt: e.now(),
	}
	e.ledger.append(entry)

	lead.Stage = toStage
	e.registry.put(lead)
	e.mu.Unlock()

	e.publish(ctx, events.PipelineStageChanged{
		BaseEvent: events.NewBaseEvent(),
		EntryID:   entry.ID,
		LeadID:    id,
		FromStage: fromStage,
		ToStage:   toStage,
		ActorID:   actorID,
	})

	return lead, nil
}

// =============================================================================
// Follow-up operations
// =============================================================================

// AddFollowUpParams carries the caller-supplied fields for a new follow-up.
type AddFollowUpParams struct {
	Kind        string
	LeadID      uuid.UUID
	DealID      *uuid.UUID
	RepID       *uuid.UUID
	ScheduledAt time.Time
	Notes       string
}

// FollowUpResult reports the outcome of AddFollowUp. TaskErr carries a
// collaborator failure separately from the follow-up itself: local
// durability takes priority, so the follow-up exists even when the external
// task could not be created.
type FollowUpResult struct {
	FollowUp domain.FollowUp
	TaskID   string
	TaskErr  error
}

// AddFollowUp persists a follow-up and then creates exactly one delegated
// task in the external task subsystem, with the deadline equal to the
// scheduled time and a title derived from the interaction kind and the lead
// name. When the lead cannot be resolved the title simply omits the name;
// follow-ups may reference leads that no longer exist.
func (e *Engine) AddFollowUp(ctx context.Context, params AddFollowUpParams) (FollowUpResult, error) {
	fu := domain.FollowUp{
		ID:          uuid.New(),
		Kind:        params.Kind,
		LeadID:      params.LeadID,
		DealID:      params.DealID,
		RepID:       params.RepID,
		ScheduledAt: params.ScheduledAt,
		Notes:       sanitize.Text(params.Notes),
	}

	e.mu.Lock()
	fu.CreatedAt = e.now()
	e.followUps.insert(fu)
	lead, leadKnown := e.registry.get(params.LeadID)
	e.mu.Unlock()

	leadName := ""
	if leadKnown {
		leadName = lead.Name
	}

	// Collaborator call happens outside the store lock; the engine's own
	// consistency never waits on external I/O.
	result := FollowUpResult{FollowUp: fu}
	taskID, err := e.tasks.CreateTask(ctx, ports.CreateTaskParams{
		Title:       taskTitle(fu.Kind, leadName),
		Description: taskDescription(fu, leadName),
		AssignedTo:  params.RepID,
		Deadline:    params.ScheduledAt,
		Priority:    ports.TaskPriorityMedium,
		LinkedEntity: ports.LinkedEntity{
			FollowUpID: fu.ID,
			LeadID:     fu.LeadID,
		},
	})
	if err != nil {
		result.TaskErr = err
		if e.log != nil {
			e.log.Warn("follow-up task creation failed", "followUpId", fu.ID, "leadId", fu.LeadID, "error", err)
		}
	} else {
		result.TaskID = taskID
	}

	e.publish(ctx, events.FollowUpScheduled{
		BaseEvent:   events.NewBaseEvent(),
		FollowUpID:  fu.ID,
		LeadID:      fu.LeadID,
		Kind:        fu.Kind,
		ScheduledAt: fu.ScheduledAt,
		TaskID:      result.TaskID,
	})

	return result, nil
}

// UpdateFollowUpParams carries a partial follow-up update.
type UpdateFollowUpParams struct {
	Kind        *string
	ScheduledAt *time.Time
	Outcome     *string
	Notes       *string
	DealID      *uuid.UUID
	RepID       *uuid.UUID
}

// UpdateFollowUp merges fields into an existing follow-up. The previously
// spawned external task is not adjusted; the two records are not kept in
// lock-step after creation.
func (e *Engine) UpdateFollowUp(_ context.Context, id uuid.UUID, params UpdateFollowUpParams) (domain.FollowUp, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fu, ok := e.followUps.get(id)
	if !ok {
		return domain.FollowUp{}, ErrFollowUpNotFound
	}

	if params.Kind != nil {
		fu.Kind = *params.Kind
	}
	if params.ScheduledAt != nil {
		fu.ScheduledAt = *params.ScheduledAt
	}
	if params.Outcome != nil {
		fu.Outcome = sanitize.Text(*params.Outcome)
	}
	if params.Notes != nil {
		fu.Notes = sanitize.Text(*params.Notes)
	}
	if params.DealID != nil {
		fu.DealID = params.DealID
	}
	if params.RepID != nil {
		fu.RepID = params.RepID
	}

	e.followUps.put(fu)
	return fu, nil
}

// DeleteFollowUp removes a follow-up. The spawned external task survives.
func (e *Engine) DeleteFollowUp(_ context.Context, id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.followUps.remove(id) {
		return ErrFollowUpNotFound
	}
	return nil
}

// =============================================================================
// Queries
// =============================================================================

// GetLead returns the lead with the given id.
func (e *Engine) GetLead(id uuid.UUID) (domain.Lead, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	lead, ok := e.registry.get(id)
	if !ok {
		return domain.Lead{}, ErrLeadNotFound
	}
	return lead, nil
}

// Leads returns all leads in creation order.
func (e *Engine) Leads() []domain.Lead {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.list()
}

// LeadsByStage returns the leads in a stage, in bucket (pipeline) order.
func (e *Engine) LeadsByStage(stage string) ([]domain.Lead, error) {
	if !e.stages.Contains(stage) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := e.index.members(stage)
	out := make([]domain.Lead, 0, len(ids))
	for _, id := range ids {
		if lead, ok := e.registry.get(id); ok {
			out = append(out, lead)
		}
	}
	return out, nil
}

// LeadsByOwner returns all leads owned by ownerID, in creation order.
func (e *Engine) LeadsByOwner(ownerID uuid.UUID) []domain.Lead {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.registry.filter(func(lead domain.Lead) bool {
		return lead.OwnerID != nil && *lead.OwnerID == ownerID
	})
}

// HistoryByLead returns the lead's stage transitions in insertion order.
// The slice is a snapshot; it never mutates under the caller.
func (e *Engine) HistoryByLead(leadID uuid.UUID) []domain.HistoryEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.byLead(leadID)
}

// GetFollowUp returns the follow-up with the given id.
func (e *Engine) GetFollowUp(id uuid.UUID) (domain.FollowUp, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	fu, ok := e.followUps.get(id)
	if !ok {
		return domain.FollowUp{}, ErrFollowUpNotFound
	}
	return fu, nil
}

// FollowUpsByLead returns follow-ups referencing the lead, in creation order.
// Deleted leads may still have follow-ups; the query works off the stored
// lead id, not the registry.
func (e *Engine) FollowUpsByLead(leadID uuid.UUID) []domain.FollowUp {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.followUps.filter(func(fu domain.FollowUp) bool {
		return fu.LeadID == leadID
	})
}

// FollowUpsByDeal returns follow-ups linked to the given deal.
func (e *Engine) FollowUpsByDeal(dealID uuid.UUID) []domain.FollowUp {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.followUps.filter(func(fu domain.FollowUp) bool {
		return fu.DealID != nil && *fu.DealID == dealID
	})
}

// FollowUpsByRep returns follow-ups owned by the given sales representative.
func (e *Engine) FollowUpsByRep(repID uuid.UUID) []domain.FollowUp {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.followUps.filter(func(fu domain.FollowUp) bool {
		return fu.RepID != nil && *fu.RepID == repID
	})
}

// RecentFollowUps returns up to limit follow-ups, newest scheduled first.
// The limit is clamped to [1, 100] with a default of 20.
func (e *Engine) RecentFollowUps(limit int) []domain.FollowUp {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.followUps.recent(limit)
}

// StageColumn is one column of the per-stage board projection.
type StageColumn struct {
	Stage   string        `json:"stage"`
	LeadIDs []uuid.UUID   `json:"leadIds"`
	Leads   []domain.Lead `json:"leads"`
}

// Board returns the full per-stage projection, one column per configured
// stage in pipeline order, suitable for a Kanban-style rendering.
func (e *Engine) Board() []StageColumn {
	e.mu.RLock()
	defer e.mu.RUnlock()

	columns := make([]StageColumn, 0, e.stages.Len())
	for _, stage := range e.stages.Names() {
		ids := e.index.members(stage)
		leads := make([]domain.Lead, 0, len(ids))
		for _, id := range ids {
			if lead, ok := e.registry.get(id); ok {
				leads = append(leads, lead)
			}
		}
		columns = append(columns, StageColumn{Stage: stage, LeadIDs: ids, Leads: leads})
	}
	return columns
}

// =============================================================================
// Internals
// =============================================================================

func (e *Engine) publish(ctx context.Context, event events.Event) {
	if e.bus != nil {
		e.bus.Publish(ctx, event)
	}
}

// taskTitle derives the delegated task's title from the interaction kind and
// the lead name, omitting the name when the lead could not be resolved.
// Free-form kinds get the generic label; only the standard vocabulary is
// spelled out in titles.
func taskTitle(kind, leadName string) string {
	label := "Follow-up"
	if domain.IsKnownFollowUpKind(kind) {
		label = capitalize(kind) + " follow-up"
	}
	if leadName == "" {
		return label
	}
	return label + ": " + leadName
}

func taskDescription(fu domain.FollowUp, leadName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scheduled %s follow-up", fu.Kind)
	if leadName != "" {
		fmt.Fprintf(&b, " with %s", leadName)
	}
	fmt.Fprintf(&b, " (lead %s).", fu.LeadID)
	if fu.Notes != "" {
		b.WriteString(" ")
		b.WriteString(fu.Notes)
	}
	return b.String()
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
