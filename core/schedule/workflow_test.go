package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/darasahq/darasa/core/staff"
)

func workflowFixture(t *testing.T, leave staff.AttendanceStatus) (*Workflow, *fakeRepo, *fakeStaffRepo) {
	t.Helper()
	checker, repo, staffRepo := availabilityFixture()
	ctx := context.Background()
	_ = staffRepo.SaveAttendanceMark(ctx, monday, "T1", leave)

	w, err := StartWorkflow(ctx, monday, "T1", WorkflowDeps{
		Repo:      repo,
		StaffRepo: staffRepo,
		Checker:   checker,
	})
	if err != nil {
		t.Fatalf("StartWorkflow() error = %v", err)
	}
	return w, repo, staffRepo
}

func TestStartWorkflowRequiresLeaveMark(t *testing.T) {
	checker, repo, staffRepo := availabilityFixture()
	_, err := StartWorkflow(context.Background(), monday, "T1", WorkflowDeps{
		Repo: repo, StaffRepo: staffRepo, Checker: checker,
	})
	if err != ErrNoLeaveMark {
		t.Errorf("StartWorkflow() error = %v, want ErrNoLeaveMark", err)
	}
}

func TestWorkflowIdentifiesPeriodsByLeaveType(t *testing.T) {
	tests := []struct {
		name        string
		leave       staff.AttendanceStatus
		wantPeriods []int
	}{
		{name: "absent covers all", leave: staff.StatusAbsent, wantPeriods: []int{0, 2, 4}},
		{name: "morning leave before lunch", leave: staff.StatusHalfDayBefore, wantPeriods: []int{0, 2}},
		{name: "afternoon leave after lunch", leave: staff.StatusHalfDayAfter, wantPeriods: []int{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _, _ := workflowFixture(t, tt.leave)
			if w.State() != StatePeriodsIdentified {
				t.Fatalf("State() = %s, want PeriodsIdentified", w.State())
			}
			pending := w.Pending()
			if len(pending) != len(tt.wantPeriods) {
				t.Fatalf("Pending() = %+v, want periods %v", pending, tt.wantPeriods)
			}
			for i, p := range tt.wantPeriods {
				if pending[i].Period != p {
					t.Errorf("Pending()[%d].Period = %d, want %d", i, pending[i].Period, p)
				}
			}
		})
	}
}

func TestWorkflowResolvesImmediatelyWithNoPeriods(t *testing.T) {
	checker, repo, staffRepo := availabilityFixture()
	ctx := context.Background()
	// T3 has no base periods at all
	_ = staffRepo.SaveAttendanceMark(ctx, monday, "T3", staff.StatusAbsent)

	w, err := StartWorkflow(ctx, monday, "T3", WorkflowDeps{
		Repo: repo, StaffRepo: staffRepo, Checker: checker,
	})
	if err != nil {
		t.Fatalf("StartWorkflow() error = %v", err)
	}
	if w.State() != StateResolved {
		t.Errorf("State() = %s, want Resolved (no affected periods)", w.State())
	}
}

func TestWorkflowProposalsExcludeAbsenteeAndBusy(t *testing.T) {
	w, _, _ := workflowFixture(t, staff.StatusAbsent)

	proposals, err := w.Propose(context.Background())
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if w.State() != StateActionsProposed {
		t.Errorf("State() = %s, want ActionsProposed", w.State())
	}
	for _, pr := range proposals {
		for _, c := range pr.Candidates {
			if c.ID == "T1" {
				t.Error("Propose() offered the absent teacher as their own substitute")
			}
			if pr.Slot.Period == 0 && c.ID == "T2" {
				t.Error("Propose() offered T2 for period 0 while busy in 7B")
			}
		}
	}
}

func TestWorkflowAssignSubstitute(t *testing.T) {
	w, repo, _ := workflowFixture(t, staff.StatusAbsent)
	ctx := context.Background()
	if _, err := w.Propose(ctx); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	if err := w.AssignSubstitute(ctx, "6A", 0, "T3"); err != nil {
		t.Fatalf("AssignSubstitute() error = %v", err)
	}
	if w.State() != StateActionApplied {
		t.Errorf("State() = %s, want ActionApplied", w.State())
	}

	o := repo.overrides[monday]["6A_0"]
	if o.Kind != KindSubstitution || o.Substitution == nil {
		t.Fatalf("stored override = %+v, want a substitution", o)
	}
	if o.Substitution.TeacherID != "T3" || o.Substitution.Subject != "Math" || o.OriginalTeacherID != "T1" {
		t.Errorf("stored override = %+v, want T3 covering Math for T1", o)
	}
	if len(w.Pending()) != 2 {
		t.Errorf("Pending() has %d slots after one action, want 2", len(w.Pending()))
	}
}

func TestWorkflowMarkVacantAndResolve(t *testing.T) {
	w, repo, _ := workflowFixture(t, staff.StatusHalfDayAfter) // only period 4 pending
	ctx := context.Background()

	if err := w.MarkVacant(ctx, "6A", 4, "self study"); err != nil {
		t.Fatalf("MarkVacant() error = %v", err)
	}
	if w.State() != StateResolved {
		t.Errorf("State() = %s, want Resolved once the pending list empties", w.State())
	}
	o := repo.overrides[monday]["6A_4"]
	if o.Kind != KindVacant || o.Vacant == nil || o.Vacant.Note != "self study" {
		t.Errorf("stored override = %+v, want vacancy with note", o)
	}
}

func TestWorkflowMergeUsesPolicy(t *testing.T) {
	checker, repo, staffRepo := availabilityFixture()
	ctx := context.Background()
	_ = staffRepo.SaveAttendanceMark(ctx, monday, "T1", staff.StatusAbsent)

	var policyClassID string
	w, err := StartWorkflow(ctx, monday, "T1", WorkflowDeps{
		Repo:      repo,
		StaffRepo: staffRepo,
		Checker:   checker,
		Merge: func(classes []ClassSection, vacated string) (string, error) {
			policyClassID = vacated
			return "7B", nil
		},
	})
	if err != nil {
		t.Fatalf("StartWorkflow() error = %v", err)
	}

	if err := w.MergeClass(ctx, "6A", 2); err != nil {
		t.Fatalf("MergeClass() error = %v", err)
	}
	if policyClassID != "6A" {
		t.Errorf("merge policy saw vacated class %q, want 6A", policyClassID)
	}
	o := repo.overrides[monday]["6A_2"]
	if o.Kind != KindMerged || o.Merged == nil || len(o.Merged.WithClassIDs) != 1 || o.Merged.WithClassIDs[0] != "7B" {
		t.Errorf("stored override = %+v, want merge with 7B", o)
	}
}

func TestWorkflowRejectsUnknownSlot(t *testing.T) {
	w, _, _ := workflowFixture(t, staff.StatusAbsent)
	// period 1 was never T1's in the base schedule
	if err := w.MarkVacant(context.Background(), "6A", 1, ""); err == nil {
		t.Error("MarkVacant() accepted a period outside the pending set")
	}
}

func TestWorkflowWriteFailureLeavesSlotPending(t *testing.T) {
	w, repo, _ := workflowFixture(t, staff.StatusAbsent)
	ctx := context.Background()

	repo.saveErr = errors.New("store down")
	if err := w.MarkVacant(ctx, "6A", 0, ""); err == nil {
		t.Fatal("MarkVacant() hid a store write failure")
	}
	if len(w.Pending()) != 3 {
		t.Errorf("Pending() has %d slots after a failed write, want all 3 intact", len(w.Pending()))
	}

	// the failed period stays retryable, the others were never touched
	repo.saveErr = nil
	if err := w.MarkVacant(ctx, "6A", 0, ""); err != nil {
		t.Fatalf("retry after failure error = %v", err)
	}
	if len(w.Pending()) != 2 {
		t.Errorf("Pending() has %d slots after a successful retry, want 2", len(w.Pending()))
	}
}

func TestWorkflowDismissLeavesRemainingUnresolved(t *testing.T) {
	w, repo, _ := workflowFixture(t, staff.StatusAbsent)
	ctx := context.Background()

	if err := w.MarkVacant(ctx, "6A", 0, ""); err != nil {
		t.Fatalf("MarkVacant() error = %v", err)
	}
	w.Dismiss()
	if w.State() != StateResolved {
		t.Errorf("State() = %s, want Resolved after dismissal", w.State())
	}
	// dismissed periods get no override; the base entry keeps the absent teacher
	if _, ok := repo.overrides[monday]["6A_2"]; ok {
		t.Error("Dismiss() wrote an override for an unhandled period")
	}
	if err := w.MarkVacant(ctx, "6A", 2, ""); err != ErrWorkflowResolved {
		t.Errorf("action after dismissal error = %v, want ErrWorkflowResolved", err)
	}
}
