package schedule

import (
	"context"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/staff"
)

// TeacherStatusKind enumerates a teacher's state for one period of one date.
type TeacherStatusKind string

const (
	StatusAbsent         TeacherStatusKind = "ABSENT"
	StatusMorningLeave   TeacherStatusKind = "MORNING_LEAVE"
	StatusAfternoonLeave TeacherStatusKind = "AFTERNOON_LEAVE"
	StatusBusy           TeacherStatusKind = "BUSY"
	StatusFree           TeacherStatusKind = "FREE"
)

type TeacherStatus struct {
	Kind TeacherStatusKind `json:"kind"`
	// ClassName names the occupying class when Kind is BUSY.
	ClassName string `json:"class_name,omitempty"`
}

// AvailabilityChecker answers busy/free/on-leave questions against the
// effective schedule.
type AvailabilityChecker struct {
	resolver  *Resolver
	repo      Repository
	staffRepo staff.Repository
}

func NewAvailabilityChecker(resolver *Resolver, repo Repository, staffRepo staff.Repository) *AvailabilityChecker {
	return &AvailabilityChecker{resolver: resolver, repo: repo, staffRepo: staffRepo}
}

// Status reports a teacher's state for one period, first match wins:
// attendance marks (absent for any period, half-day leave relative to the
// lunch slot) beat schedule content; then any effective entry referencing the
// teacher makes them BUSY; otherwise FREE.
//
// A teacher appearing in several classes at the same period is a
// data-integrity anomaly; the first key scanned wins.
func (c *AvailabilityChecker) Status(ctx context.Context, teacherID, dateStr string, day Weekday, period int) (TeacherStatus, error) {
	marks, err := c.staffRepo.GetAttendance(ctx, dateStr)
	if err != nil {
		return TeacherStatus{}, errors.Wrapf(err, "fetching attendance for %s", dateStr)
	}
	switch marks[teacherID] {
	case staff.StatusAbsent:
		return TeacherStatus{Kind: StatusAbsent}, nil
	case staff.StatusHalfDayBefore:
		if period < LunchPeriod {
			return TeacherStatus{Kind: StatusMorningLeave}, nil
		}
	case staff.StatusHalfDayAfter:
		if period > LunchPeriod {
			return TeacherStatus{Kind: StatusAfternoonLeave}, nil
		}
	}

	classID, ok, err := c.occupiedClass(ctx, teacherID, dateStr, day, period, nil)
	if err != nil {
		return TeacherStatus{}, err
	}
	if !ok {
		return TeacherStatus{Kind: StatusFree}, nil
	}

	name := classID
	if cs, err := c.repo.GetClassByID(ctx, classID); err == nil {
		name = cs.Name
	}
	return TeacherStatus{Kind: StatusBusy, ClassName: name}, nil
}

// Available reports whether a teacher can take a period, ignoring classes in
// excludeClassIDs (a substitute search must not count the vacated class
// itself as a conflict). Any leave mark makes the teacher unavailable for the
// periods it covers.
func (c *AvailabilityChecker) Available(ctx context.Context, teacherID, dateStr string, day Weekday, period int, excludeClassIDs []string) (bool, error) {
	marks, err := c.staffRepo.GetAttendance(ctx, dateStr)
	if err != nil {
		return false, errors.Wrapf(err, "fetching attendance for %s", dateStr)
	}
	switch marks[teacherID] {
	case staff.StatusAbsent:
		return false, nil
	case staff.StatusHalfDayBefore:
		if period < LunchPeriod {
			return false, nil
		}
	case staff.StatusHalfDayAfter:
		if period > LunchPeriod {
			return false, nil
		}
	}

	_, busy, err := c.occupiedClass(ctx, teacherID, dateStr, day, period, excludeClassIDs)
	if err != nil {
		return false, err
	}
	return !busy, nil
}

// occupiedClass scans the effective schedule for a slot at `period` whose
// entry references the teacher, skipping excluded classes.
func (c *AvailabilityChecker) occupiedClass(ctx context.Context, teacherID, dateStr string, day Weekday, period int, excludeClassIDs []string) (string, bool, error) {
	effective, err := c.resolver.Resolve(ctx, dateStr, day)
	if err != nil {
		return "", false, err
	}

	excluded := make(map[string]bool, len(excludeClassIDs))
	for _, id := range excludeClassIDs {
		excluded[id] = true
	}

	for key, entry := range effective {
		classID, p, err := ParseSlotKey(key)
		if err != nil || p != period || excluded[classID] {
			continue
		}
		// primary and substitute teachers both land in TeacherID after
		// resolution; a teacher covering a merged pair shows up on their own
		// class's key, which this scan also visits
		if entry.TeacherID == teacherID {
			return classID, true, nil
		}
	}
	return "", false, nil
}

// FreeTeachers returns every teacher reported Available for the slot, in
// registry order.
func (c *AvailabilityChecker) FreeTeachers(ctx context.Context, dateStr string, day Weekday, period int, excludeClassIDs []string) ([]staff.Teacher, error) {
	teachers, err := c.staffRepo.QueryAllTeachers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetching teacher registry")
	}
	free := make([]staff.Teacher, 0, len(teachers))
	for _, t := range teachers {
		ok, err := c.Available(ctx, t.ID, dateStr, day, period, excludeClassIDs)
		if err != nil {
			return nil, err
		}
		if ok {
			free = append(free, t)
		}
	}
	return free, nil
}
