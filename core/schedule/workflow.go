package schedule

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/staff"
)

// WorkflowState tracks one leave event through the substitution flow.
type WorkflowState string

const (
	StateIdle              WorkflowState = "Idle"
	StateLeaveMarked       WorkflowState = "LeaveMarked"
	StatePeriodsIdentified WorkflowState = "PeriodsIdentified"
	StateActionsProposed   WorkflowState = "ActionsProposed"
	StateActionApplied     WorkflowState = "ActionApplied"
	StateResolved          WorkflowState = "Resolved"
)

var (
	// errors
	ErrNoLeaveMark      = errors.New("teacher has no leave mark for this date")
	ErrWorkflowResolved = errors.New("workflow already resolved")
	errUnknownSlot      = "period is not pending in this workflow"
)

// MergePolicy picks the partner class when a vacated period is merged.
// The default picks the first registry class that is not the vacated one; a
// deployment can wire a smarter policy through config.
type MergePolicy func(classes []ClassSection, vacatedClassID string) (string, error)

// FirstOtherClass is the default MergePolicy.
func FirstOtherClass(classes []ClassSection, vacatedClassID string) (string, error) {
	for _, cs := range classes {
		if cs.ID != vacatedClassID {
			return cs.ID, nil
		}
	}
	return "", errors.New("no other class available to merge with")
}

type (
	// PendingSlot is one period the absent teacher would have taught.
	PendingSlot struct {
		ClassID   string `json:"class_id"`
		ClassName string `json:"class_name"`
		Period    int    `json:"period"`
		Subject   string `json:"subject"`
	}

	// Proposal pairs a pending slot with its candidate substitutes.
	Proposal struct {
		Slot       PendingSlot     `json:"slot"`
		Candidates []staff.Teacher `json:"candidates"`
	}

	// Workflow is the substitution state machine for one (teacher, date)
	// leave event. Override writes for different periods are independent: a
	// failed write leaves only that period pending and does not touch the
	// others.
	Workflow struct {
		TeacherID string                 `json:"teacher_id"`
		Date      string                 `json:"date"`
		Day       Weekday                `json:"day"`
		Leave     staff.AttendanceStatus `json:"leave"`

		mu      sync.Mutex
		state   WorkflowState
		pending map[string]PendingSlot // slot key -> slot

		deps WorkflowDeps
	}

	WorkflowDeps struct {
		Repo      Repository
		StaffRepo staff.Repository
		Checker   *AvailabilityChecker
		Merge     MergePolicy
		Mailer    core.EmailService // optional; substitutes get a notice when set
	}
)

// StartWorkflow builds the state machine for a marked leave and identifies the
// affected periods (Idle → LeaveMarked → PeriodsIdentified). A teacher with no
// base periods under the leave window resolves immediately.
func StartWorkflow(ctx context.Context, dateStr, teacherID string, deps WorkflowDeps) (*Workflow, error) {
	day, err := WeekdayOf(dateStr)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
	}
	if deps.Merge == nil {
		deps.Merge = FirstOtherClass
	}

	marks, err := deps.StaffRepo.GetAttendance(ctx, dateStr)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching attendance for %s", dateStr)
	}
	leave, ok := marks[teacherID]
	if !ok || !leave.OnLeave() {
		return nil, ErrNoLeaveMark
	}

	w := &Workflow{
		TeacherID: teacherID,
		Date:      dateStr,
		Day:       day,
		Leave:     leave,
		state:     StateLeaveMarked,
		pending:   make(map[string]PendingSlot),
		deps:      deps,
	}

	if err := w.identifyPeriods(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// identifyPeriods scans the weekday's base schedule for the teacher's cells,
// filtered by the leave window.
func (w *Workflow) identifyPeriods(ctx context.Context) error {
	base, err := w.deps.Repo.GetBaseSchedule(ctx, w.Day)
	if err != nil {
		return errors.Wrapf(err, "fetching base schedule for %s", w.Day)
	}

	for key, entry := range base {
		if entry.TeacherID != w.TeacherID {
			continue
		}
		classID, period, err := ParseSlotKey(key)
		if err != nil {
			continue
		}
		if !w.periodOnLeave(period) {
			continue
		}
		name := classID
		if cs, err := w.deps.Repo.GetClassByID(ctx, classID); err == nil {
			name = cs.Name
		}
		w.pending[key] = PendingSlot{
			ClassID:   classID,
			ClassName: name,
			Period:    period,
			Subject:   entry.Subject,
		}
	}

	if len(w.pending) == 0 {
		w.state = StateResolved // nothing to cover
		return nil
	}
	w.state = StatePeriodsIdentified
	return nil
}

// periodOnLeave applies the leave-type window: absent covers every period,
// half days split around the lunch slot.
func (w *Workflow) periodOnLeave(period int) bool {
	switch w.Leave {
	case staff.StatusAbsent:
		return true
	case staff.StatusHalfDayBefore:
		return period < LunchPeriod
	case staff.StatusHalfDayAfter:
		return period > LunchPeriod
	}
	return false
}

func (w *Workflow) State() WorkflowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Pending returns the unresolved slots ordered by period then class id.
func (w *Workflow) Pending() []PendingSlot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pendingLocked()
}

func (w *Workflow) pendingLocked() []PendingSlot {
	slots := make([]PendingSlot, 0, len(w.pending))
	for _, s := range w.pending {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Period != slots[j].Period {
			return slots[i].Period < slots[j].Period
		}
		return slots[i].ClassID < slots[j].ClassID
	})
	return slots
}

// Propose computes candidate substitutes for every pending slot
// (PeriodsIdentified → ActionsProposed). The vacated class is excluded from
// the availability scan so the teacher's own empty slot is not a conflict.
func (w *Workflow) Propose(ctx context.Context) ([]Proposal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateResolved {
		return nil, ErrWorkflowResolved
	}

	proposals := make([]Proposal, 0, len(w.pending))
	for _, slot := range w.pendingLocked() {
		free, err := w.deps.Checker.FreeTeachers(ctx, w.Date, w.Day, slot.Period, []string{slot.ClassID})
		if err != nil {
			return nil, errors.Wrapf(err, "finding substitutes for period %d", slot.Period)
		}
		candidates := make([]staff.Teacher, 0, len(free))
		for _, t := range free {
			if t.ID != w.TeacherID {
				candidates = append(candidates, t)
			}
		}
		proposals = append(proposals, Proposal{Slot: slot, Candidates: candidates})
	}
	w.state = StateActionsProposed
	return proposals, nil
}

// takeSlot validates that the slot is pending and hands it out; the caller's
// override write happens outside the lock, and settle puts the slot back on
// failure.
func (w *Workflow) takeSlot(classID string, period int) (PendingSlot, string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateResolved {
		return PendingSlot{}, "", ErrWorkflowResolved
	}
	key := SlotKey(classID, period)
	slot, ok := w.pending[key]
	if !ok {
		return PendingSlot{}, "", core.NewValidationError(nil, core.FieldError{Field: "period", Error: errUnknownSlot})
	}
	delete(w.pending, key)
	return slot, key, nil
}

func (w *Workflow) settle(key string, slot PendingSlot, writeErr error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if writeErr != nil {
		w.pending[key] = slot // retryable; other periods unaffected
		return writeErr
	}
	if len(w.pending) == 0 {
		w.state = StateResolved
	} else {
		w.state = StateActionApplied
	}
	return nil
}

// AssignSubstitute writes a SUBSTITUTION override for one pending slot,
// carrying the original subject and the displaced teacher for audit, then
// notifies the substitute when a mailer is wired.
func (w *Workflow) AssignSubstitute(ctx context.Context, classID string, period int, subTeacherID string) error {
	slot, key, err := w.takeSlot(classID, period)
	if err != nil {
		return err
	}

	sub, err := w.deps.StaffRepo.GetTeacherByID(ctx, subTeacherID)
	if err != nil {
		return w.settle(key, slot, errors.Wrap(err, "fetching substitute"))
	}

	o := &Override{
		Kind:              KindSubstitution,
		OriginalTeacherID: w.TeacherID,
		Substitution: &Substitution{
			TeacherID: sub.ID,
			Subject:   slot.Subject,
		},
	}
	if err := w.deps.Repo.SaveOverride(ctx, w.Date, classID, period, o); err != nil {
		return w.settle(key, slot, errors.Wrapf(err, "writing substitution for period %d", period))
	}

	w.notifySubstitute(sub, slot)
	return w.settle(key, slot, nil)
}

// MarkVacant writes a VACANT override for one pending slot.
func (w *Workflow) MarkVacant(ctx context.Context, classID string, period int, note string) error {
	slot, key, err := w.takeSlot(classID, period)
	if err != nil {
		return err
	}

	o := &Override{
		Kind:              KindVacant,
		OriginalTeacherID: w.TeacherID,
		Vacant:            &Vacancy{Note: core.CleanString(note)},
	}
	if err := w.deps.Repo.SaveOverride(ctx, w.Date, classID, period, o); err != nil {
		return w.settle(key, slot, errors.Wrapf(err, "writing vacancy for period %d", period))
	}
	return w.settle(key, slot, nil)
}

// MergeClass writes a MERGED override pairing the vacated class with a
// partner chosen by the configured MergePolicy.
func (w *Workflow) MergeClass(ctx context.Context, classID string, period int) error {
	slot, key, err := w.takeSlot(classID, period)
	if err != nil {
		return err
	}

	classes, err := w.deps.Repo.QueryAllClasses(ctx)
	if err != nil {
		return w.settle(key, slot, errors.Wrap(err, "fetching class registry"))
	}
	partner, err := w.deps.Merge(classes, classID)
	if err != nil {
		return w.settle(key, slot, err)
	}

	o := &Override{
		Kind:              KindMerged,
		OriginalTeacherID: w.TeacherID,
		Merged:            &Merge{WithClassIDs: []string{partner}},
	}
	if err := w.deps.Repo.SaveOverride(ctx, w.Date, classID, period, o); err != nil {
		return w.settle(key, slot, errors.Wrapf(err, "writing merge for period %d", period))
	}
	return w.settle(key, slot, nil)
}

// Dismiss resolves the workflow early. Remaining slots stay as they are: the
// base entry keeps showing the absent teacher until an override is added
// later.
func (w *Workflow) Dismiss() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateResolved
}

func (w *Workflow) notifySubstitute(sub staff.Teacher, slot PendingSlot) {
	if w.deps.Mailer == nil || sub.Email == "" {
		return
	}
	w.deps.Mailer.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: sub.Name, Address: sub.Email}},
		Subject: fmt.Sprintf("Substitution: %s, period %d on %s", slot.ClassName, slot.Period+1, w.Date),
		BodyStr: fmt.Sprintf(
			"You have been assigned %s (period %d) for %s on %s, covering for an absent colleague.",
			slot.ClassName, slot.Period+1, slot.Subject, w.Date,
		),
	})
}
