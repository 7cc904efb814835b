package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"salesflow_backend/internal/pipeline/domain"
	"salesflow_backend/internal/pipeline/ports"
)

// taskRecorder is a stub TaskCreator capturing every create call.
type taskRecorder struct {
	calls []ports.CreateTaskParams
	err   error
}

func (r *taskRecorder) CreateTask(_ context.Context, params ports.CreateTaskParams) (string, error) {
	r.calls = append(r.calls, params)
	if r.err != nil {
		return "", r.err
	}
	return "task-" + uuid.NewString(), nil
}

var testStages = []string{"New", "Contacted", "Meeting_Done", "Proposal_Sent", "Won", "Lost"}

func newTestEngine(t *testing.T) (*Engine, *taskRecorder) {
	t.Helper()
	stages, err := domain.NewStageSet(testStages, "New")
	if err != nil {
		t.Fatal(err)
	}
	tasks := &taskRecorder{}
	return New(stages, tasks, nil, nil), tasks
}

func mustAddLead(t *testing.T, e *Engine, params AddLeadParams) domain.Lead {
	t.Helper()
	lead, err := e.AddLead(context.Background(), params)
	if err != nil {
		t.Fatalf("AddLead: %v", err)
	}
	return lead
}

func assertPartition(t *testing.T, e *Engine) {
	t.Helper()
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.index.checkPartition(e.registry); err != nil {
		t.Fatalf("partition invariant violated: %v", err)
	}
}

func stageContains(t *testing.T, e *Engine, stage string, id uuid.UUID) bool {
	t.Helper()
	leads, err := e.LeadsByStage(stage)
	if err != nil {
		t.Fatalf("LeadsByStage(%q): %v", stage, err)
	}
	for _, lead := range leads {
		if lead.ID == id {
			return true
		}
	}
	return false
}

func TestAddLeadPlacesLeadInInitialStage(t *testing.T) {
	e, _ := newTestEngine(t)

	lead := mustAddLead(t, e, AddLeadParams{Name: "Jane Smith", Company: "XYZ Inc"})

	if lead.Stage != "New" {
		t.Errorf("lead.Stage = %q, want New", lead.Stage)
	}
	if !stageContains(t, e, "New", lead.ID) {
		t.Error("New bucket does not contain the new lead")
	}
	if got := e.HistoryByLead(lead.ID); len(got) != 0 {
		t.Errorf("history after creation has %d entries, want 0", len(got))
	}
	assertPartition(t, e)
}

func TestAddLeadRequiresName(t *testing.T) {
	e, _ := newTestEngine(t)

	if _, err := e.AddLead(context.Background(), AddLeadParams{Name: "   "}); !errors.Is(err, ErrNameRequired) {
		t.Errorf("AddLead with blank name: err = %v, want ErrNameRequired", err)
	}
	assertPartition(t, e)
}

func TestMoveLeadTransitionAtomicity(t *testing.T) {
	e, _ := newTestEngine(t)
	lead := mustAddLead(t, e, AddLeadParams{Name: "Jane Smith", Company: "XYZ Inc"})
	actor := uuid.New()

	moved, err := e.MoveLead(context.Background(), lead.ID, "New", "Contacted", actor)
	if err != nil {
		t.Fatalf("MoveLead: %v", err)
	}

	if stageContains(t, e, "New", lead.ID) {
		t.Error("lead still present in New bucket after move")
	}
	if !stageContains(t, e, "Contacted", lead.ID) {
		t.Error("lead missing from Contacted bucket after move")
	}
	if moved.Stage != "Contacted" {
		t.Errorf("returned lead.Stage = %q, want Contacted", moved.Stage)
	}

	history := e.HistoryByLead(lead.ID)
	if len(history) != 1 {
		t.Fatalf("history has %d entries, want 1", len(history))
	}
	if history[0].Stage != "Contacted" {
		t.Errorf("history entry stage = %q, want Contacted", history[0].Stage)
	}
	if history[0].ActorID != actor {
		t.Errorf("history entry actor = %s, want %s", history[0].ActorID, actor)
	}
	assertPartition(t, e)
}

func TestMoveLeadRejectsStaleSourceStage(t *testing.T) {
	e, _ := newTestEngine(t)
	lead := mustAddLead(t, e, AddLeadParams{Name: "Jane Smith"})

	_, err := e.MoveLead(context.Background(), lead.ID, "Contacted", "Won", uuid.New())
	if !errors.Is(err, ErrStageMismatch) {
		t.Fatalf("err = %v, want ErrStageMismatch", err)
	}

	// A rejected move must leave no trace.
	if !stageContains(t, e, "New", lead.ID) {
		t.Error("lead no longer in New bucket after rejected move")
	}
	if got := e.HistoryByLead(lead.ID); len(got) != 0 {
		t.Errorf("history has %d entries after rejected move, want 0", len(got))
	}
	assertPartition(t, e)
}

func TestMoveLeadUnknownStageAndLead(t *testing.T) {
	e, _ := newTestEngine(t)
	lead := mustAddLead(t, e, AddLeadParams{Name: "Jane Smith"})

	if _, err := e.MoveLead(context.Background(), lead.ID, "Limbo", "Won", uuid.New()); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("unknown source stage: err = %v, want ErrUnknownStage", err)
	}
	if _, err := e.MoveLead(context.Background(), lead.ID, "New", "Limbo", uuid.New()); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("unknown destination stage: err = %v, want ErrUnknownStage", err)
	}
	if _, err := e.MoveLead(context.Background(), uuid.New(), "New", "Won", uuid.New()); !errors.Is(err, ErrLeadNotFound) {
		t.Errorf("unknown lead: err = %v, want ErrLeadNotFound", err)
	}
}

func TestSelfMoveAppendsOneEntryAndReordersToTail(t *testing.T) {
	e, _ := newTestEngine(t)
	first := mustAddLead(t, e, AddLeadParams{Name: "First"})
	second := mustAddLead(t, e, AddLeadParams{Name: "Second"})

	if _, err := e.MoveLead(context.Background(), first.ID, "New", "New", uuid.New()); err != nil {
		t.Fatalf("self move: %v", err)
	}

	history := e.HistoryByLead(first.ID)
	if len(history) != 1 {
		t.Fatalf("history has %d entries after self move, want 1", len(history))
	}

	leads, err := e.LeadsByStage("New")
	if err != nil {
		t.Fatal(err)
	}
	if len(leads) != 2 {
		t.Fatalf("New bucket has %d leads, want 2", len(leads))
	}
	// Re-entry appends at the tail, so the moved lead now trails.
	if leads[0].ID != second.ID || leads[1].ID != first.ID {
		t.Errorf("New bucket order = [%s %s], want [%s %s]", leads[0].ID, leads[1].ID, second.ID, first.ID)
	}
	assertPartition(t, e)
}

func TestDeleteLeadCleanup(t *testing.T) {
	e, _ := newTestEngine(t)
	owner := uuid.New()
	lead := mustAddLead(t, e, AddLeadParams{Name: "Jane Smith", OwnerID: &owner})
	actor := uuid.New()

	if _, err := e.MoveLead(context.Background(), lead.ID, "New", "Contacted", actor); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddFollowUp(context.Background(), AddFollowUpParams{
		Kind: domain.FollowUpCall, LeadID: lead.ID, ScheduledAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	if err := e.DeleteLead(context.Background(), lead.ID); err != nil {
		t.Fatalf("DeleteLead: %v", err)
	}

	for _, stage := range testStages {
		if stageContains(t, e, stage, lead.ID) {
			t.Errorf("deleted lead still present in %q bucket", stage)
		}
	}
	if got := e.LeadsByOwner(owner); len(got) != 0 {
		t.Errorf("LeadsByOwner returned %d leads after delete, want 0", len(got))
	}
	if _, err := e.GetLead(lead.ID); !errors.Is(err, ErrLeadNotFound) {
		t.Errorf("GetLead after delete: err = %v, want ErrLeadNotFound", err)
	}

	// No cascades: the audit trail and follow-ups outlive the lead.
	if got := e.HistoryByLead(lead.ID); len(got) != 1 {
		t.Errorf("history has %d entries after delete, want 1", len(got))
	}
	if got := e.FollowUpsByLead(lead.ID); len(got) != 1 {
		t.Errorf("follow-ups by lead = %d after delete, want 1", len(got))
	}

	if err := e.DeleteLead(context.Background(), lead.ID); !errors.Is(err, ErrLeadNotFound) {
		t.Errorf("second delete: err = %v, want ErrLeadNotFound", err)
	}
	assertPartition(t, e)
}

func TestEditLead(t *testing.T) {
	e, _ := newTestEngine(t)
	lead := mustAddLead(t, e, AddLeadParams{Name: "Jane Smith", Company: "XYZ Inc"})

	newName := "Jane Cooper"
	notes := "prefers email"
	updated, err := e.EditLead(context.Background(), lead.ID, EditLeadParams{Name: &newName, Notes: &notes})
	if err != nil {
		t.Fatalf("EditLead: %v", err)
	}

	if updated.Name != "Jane Cooper" || updated.Notes != "prefers email" {
		t.Errorf("updated lead = %+v, fields not merged", updated)
	}
	if updated.Company != "XYZ Inc" {
		t.Errorf("Company = %q, untouched field changed", updated.Company)
	}
	if updated.Stage != "New" {
		t.Errorf("Stage = %q, edit must not move the lead", updated.Stage)
	}

	if _, err := e.EditLead(context.Background(), uuid.New(), EditLeadParams{Name: &newName}); !errors.Is(err, ErrLeadNotFound) {
		t.Errorf("EditLead unknown id: err = %v, want ErrLeadNotFound", err)
	}
}

func TestAssignLead(t *testing.T) {
	e, _ := newTestEngine(t)
	lead := mustAddLead(t, e, AddLeadParams{Name: "Jane Smith"})
	owner := uuid.New()

	updated, err := e.AssignLead(context.Background(), lead.ID, &owner)
	if err != nil {
		t.Fatalf("AssignLead: %v", err)
	}
	if updated.OwnerID == nil || *updated.OwnerID != owner {
		t.Errorf("OwnerID = %v, want %s", updated.OwnerID, owner)
	}

	byOwner := e.LeadsByOwner(owner)
	if len(byOwner) != 1 || byOwner[0].ID != lead.ID {
		t.Errorf("LeadsByOwner = %v, want the assigned lead", byOwner)
	}

	// Unassign.
	updated, err = e.AssignLead(context.Background(), lead.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if updated.OwnerID != nil {
		t.Errorf("OwnerID = %v after unassign, want nil", updated.OwnerID)
	}

	if _, err := e.AssignLead(context.Background(), uuid.New(), &owner); !errors.Is(err, ErrLeadNotFound) {
		t.Errorf("AssignLead unknown id: err = %v, want ErrLeadNotFound", err)
	}
}

func TestAddFollowUpCreatesExactlyOneTask(t *testing.T) {
	e, tasks := newTestEngine(t)
	lead := mustAddLead(t, e, AddLeadParams{Name: "Jane Smith"})
	rep := uuid.New()
	scheduledAt := time.Now().Add(48 * time.Hour).Truncate(time.Second)

	result, err := e.AddFollowUp(context.Background(), AddFollowUpParams{
		Kind:        domain.FollowUpCall,
		LeadID:      lead.ID,
		RepID:       &rep,
		ScheduledAt: scheduledAt,
		Notes:       "discuss proposal",
	})
	if err != nil {
		t.Fatalf("AddFollowUp: %v", err)
	}
	if result.TaskErr != nil {
		t.Fatalf("TaskErr = %v, want nil", result.TaskErr)
	}
	if result.TaskID == "" {
		t.Error("TaskID is empty")
	}

	if len(tasks.calls) != 1 {
		t.Fatalf("CreateTask called %d times, want exactly 1", len(tasks.calls))
	}
	call := tasks.calls[0]
	if !call.Deadline.Equal(scheduledAt) {
		t.Errorf("task deadline = %v, want %v", call.Deadline, scheduledAt)
	}
	if call.Title != "Call follow-up: Jane Smith" {
		t.Errorf("task title = %q", call.Title)
	}
	if call.Priority != ports.TaskPriorityMedium {
		t.Errorf("task priority = %q, want medium", call.Priority)
	}
	if call.LinkedEntity.FollowUpID != result.FollowUp.ID || call.LinkedEntity.LeadID != lead.ID {
		t.Errorf("linked entity = %+v, back-reference broken", call.LinkedEntity)
	}
	if call.AssignedTo == nil || *call.AssignedTo != rep {
		t.Errorf("task assignee = %v, want %s", call.AssignedTo, rep)
	}
}

func TestAddFollowUpUnknownLeadDegradesTitle(t *testing.T) {
	e, tasks := newTestEngine(t)

	result, err := e.AddFollowUp(context.Background(), AddFollowUpParams{
		Kind:        domain.FollowUpEmail,
		LeadID:      uuid.New(),
		ScheduledAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("AddFollowUp: %v", err)
	}

	// The follow-up is created despite the dangling lead reference.
	if _, err := e.GetFollowUp(result.FollowUp.ID); err != nil {
		t.Errorf("GetFollowUp: %v", err)
	}
	if len(tasks.calls) != 1 {
		t.Fatalf("CreateTask called %d times, want 1", len(tasks.calls))
	}
	if tasks.calls[0].Title != "Email follow-up" {
		t.Errorf("task title = %q, want name omitted", tasks.calls[0].Title)
	}
}

func TestAddFollowUpCollaboratorFailureKeepsFollowUp(t *testing.T) {
	e, tasks := newTestEngine(t)
	tasks.err = errors.New("task service unavailable")
	lead := mustAddLead(t, e, AddLeadParams{Name: "Jane Smith"})

	result, err := e.AddFollowUp(context.Background(), AddFollowUpParams{
		Kind:        domain.FollowUpMeeting,
		LeadID:      lead.ID,
		ScheduledAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("AddFollowUp returned error %v; collaborator failure must not fail the call", err)
	}
	if result.TaskErr == nil {
		t.Error("TaskErr is nil, want the collaborator failure surfaced")
	}
	if result.TaskID != "" {
		t.Errorf("TaskID = %q, want empty on failure", result.TaskID)
	}
	if got := e.FollowUpsByLead(lead.ID); len(got) != 1 {
		t.Errorf("follow-up count = %d, want 1 despite task failure", len(got))
	}
}

func TestUpdateAndDeleteFollowUp(t *testing.T) {
	e, tasks := newTestEngine(t)
	lead := mustAddLead(t, e, AddLeadParams{Name: "Jane Smith"})

	result, err := e.AddFollowUp(context.Background(), AddFollowUpParams{
		Kind: domain.FollowUpCall, LeadID: lead.ID, ScheduledAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}

	outcome := "no answer"
	updated, err := e.UpdateFollowUp(context.Background(), result.FollowUp.ID, UpdateFollowUpParams{Outcome: &outcome})
	if err != nil {
		t.Fatalf("UpdateFollowUp: %v", err)
	}
	if updated.Outcome != "no answer" {
		t.Errorf("Outcome = %q, want merged value", updated.Outcome)
	}

	// Editing and deleting never touch the spawned task.
	if len(tasks.calls) != 1 {
		t.Errorf("CreateTask called %d times after update, want still 1", len(tasks.calls))
	}

	if err := e.DeleteFollowUp(context.Background(), result.FollowUp.ID); err != nil {
		t.Fatalf("DeleteFollowUp: %v", err)
	}
	if _, err := e.GetFollowUp(result.FollowUp.ID); !errors.Is(err, ErrFollowUpNotFound) {
		t.Errorf("GetFollowUp after delete: err = %v, want ErrFollowUpNotFound", err)
	}
	if err := e.DeleteFollowUp(context.Background(), result.FollowUp.ID); !errors.Is(err, ErrFollowUpNotFound) {
		t.Errorf("second DeleteFollowUp: err = %v, want ErrFollowUpNotFound", err)
	}
	if len(tasks.calls) != 1 {
		t.Errorf("CreateTask called %d times after delete, want still 1", len(tasks.calls))
	}
}

func TestFollowUpQueries(t *testing.T) {
	e, _ := newTestEngine(t)
	lead := mustAddLead(t, e, AddLeadParams{Name: "Jane Smith"})
	deal := uuid.New()
	rep := uuid.New()
	base := time.Now()

	// Insertion order differs from scheduled order on purpose.
	times := []time.Time{base.Add(2 * time.Hour), base.Add(6 * time.Hour), base.Add(4 * time.Hour)}
	for i, at := range times {
		params := AddFollowUpParams{Kind: domain.FollowUpCall, LeadID: lead.ID, ScheduledAt: at}
		if i == 1 {
			params.DealID = &deal
			params.RepID = &rep
		}
		if _, err := e.AddFollowUp(context.Background(), params); err != nil {
			t.Fatal(err)
		}
	}

	if got := e.FollowUpsByLead(lead.ID); len(got) != 3 {
		t.Errorf("FollowUpsByLead = %d, want 3", len(got))
	}
	if got := e.FollowUpsByDeal(deal); len(got) != 1 {
		t.Errorf("FollowUpsByDeal = %d, want 1", len(got))
	}
	if got := e.FollowUpsByRep(rep); len(got) != 1 {
		t.Errorf("FollowUpsByRep = %d, want 1", len(got))
	}

	recent := e.RecentFollowUps(2)
	if len(recent) != 2 {
		t.Fatalf("RecentFollowUps(2) = %d items, want 2", len(recent))
	}
	if !recent[0].ScheduledAt.Equal(times[1]) || !recent[1].ScheduledAt.Equal(times[2]) {
		t.Errorf("RecentFollowUps order = [%v %v], want newest scheduled first", recent[0].ScheduledAt, recent[1].ScheduledAt)
	}
}

func TestBoardProjection(t *testing.T) {
	e, _ := newTestEngine(t)
	a := mustAddLead(t, e, AddLeadParams{Name: "A"})
	b := mustAddLead(t, e, AddLeadParams{Name: "B"})
	if _, err := e.MoveLead(context.Background(), b.ID, "New", "Contacted", uuid.New()); err != nil {
		t.Fatal(err)
	}

	board := e.Board()
	if len(board) != len(testStages) {
		t.Fatalf("board has %d columns, want %d", len(board), len(testStages))
	}
	for i, stage := range testStages {
		if board[i].Stage != stage {
			t.Errorf("column %d = %q, want %q (pipeline order)", i, board[i].Stage, stage)
		}
	}
	if len(board[0].Leads) != 1 || board[0].Leads[0].ID != a.ID {
		t.Errorf("New column = %+v, want only lead A", board[0].LeadIDs)
	}
	if len(board[1].Leads) != 1 || board[1].Leads[0].ID != b.ID {
		t.Errorf("Contacted column = %+v, want only lead B", board[1].LeadIDs)
	}
}

// TestPartitionInvariantUnderMixedOperations drives a longer sequence of
// mutations and re-checks the structural invariant after each step.
func TestPartitionInvariantUnderMixedOperations(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	actor := uuid.New()

	var ids []uuid.UUID
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		lead := mustAddLead(t, e, AddLeadParams{Name: name})
		ids = append(ids, lead.ID)
		assertPartition(t, e)
	}

	moves := []struct {
		idx      int
		from, to string
	}{
		{0, "New", "Contacted"},
		{1, "New", "Contacted"},
		{0, "Contacted", "Meeting_Done"},
		{2, "New", "Lost"},
		{0, "Meeting_Done", "Proposal_Sent"},
		{1, "Contacted", "Contacted"},
		{0, "Proposal_Sent", "Won"},
	}
	for _, m := range moves {
		if _, err := e.MoveLead(ctx, ids[m.idx], m.from, m.to, actor); err != nil {
			t.Fatalf("MoveLead(%d, %s → %s): %v", m.idx, m.from, m.to, err)
		}
		assertPartition(t, e)
	}

	for _, idx := range []int{2, 0} {
		if err := e.DeleteLead(ctx, ids[idx]); err != nil {
			t.Fatalf("DeleteLead(%d): %v", idx, err)
		}
		assertPartition(t, e)
	}

	if got := len(e.Leads()); got != 3 {
		t.Errorf("remaining leads = %d, want 3", got)
	}
}

// TestLeadLifecycleScenario walks the full add → move → delete sequence.
func TestLeadLifecycleScenario(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	actor := uuid.New()

	lead := mustAddLead(t, e, AddLeadParams{Name: "Jane Smith", Company: "XYZ Inc"})
	if lead.Stage != "New" {
		t.Fatalf("stage after add = %q, want New", lead.Stage)
	}
	if !stageContains(t, e, "New", lead.ID) {
		t.Fatal("New bucket missing the lead after add")
	}
	if len(e.HistoryByLead(lead.ID)) != 0 {
		t.Fatal("history not empty after add")
	}

	if _, err := e.MoveLead(ctx, lead.ID, "New", "Contacted", actor); err != nil {
		t.Fatal(err)
	}
	if stageContains(t, e, "New", lead.ID) {
		t.Error("lead still in New after move")
	}
	if !stageContains(t, e, "Contacted", lead.ID) {
		t.Error("lead missing from Contacted after move")
	}
	got, err := e.GetLead(lead.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Stage != "Contacted" {
		t.Errorf("lead.Stage = %q, want Contacted", got.Stage)
	}
	history := e.HistoryByLead(lead.ID)
	if len(history) != 1 || history[0].Stage != "Contacted" {
		t.Errorf("history = %+v, want one Contacted entry", history)
	}

	if err := e.DeleteLead(ctx, lead.ID); err != nil {
		t.Fatal(err)
	}
	if stageContains(t, e, "Contacted", lead.ID) {
		t.Error("lead still in Contacted after delete")
	}
	if got := e.LeadsByOwner(uuid.New()); len(got) != 0 {
		t.Errorf("LeadsByOwner = %v, want empty", got)
	}
	assertPartition(t, e)
}

// TestHistorySnapshotIsRestartable verifies the returned history view does
// not change under the caller when the ledger grows.
func TestHistorySnapshotIsRestartable(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	lead := mustAddLead(t, e, AddLeadParams{Name: "Jane Smith"})

	if _, err := e.MoveLead(ctx, lead.ID, "New", "Contacted", uuid.New()); err != nil {
		t.Fatal(err)
	}
	snapshot := e.HistoryByLead(lead.ID)

	if _, err := e.MoveLead(ctx, lead.ID, "Contacted", "Won", uuid.New()); err != nil {
		t.Fatal(err)
	}

	if len(snapshot) != 1 {
		t.Errorf("earlier snapshot grew to %d entries", len(snapshot))
	}
	if got := e.HistoryByLead(lead.ID); len(got) != 2 {
		t.Errorf("fresh read has %d entries, want 2", len(got))
	}
}
