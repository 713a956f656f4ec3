package schedule

import (
	"context"
	"sync"

	"github.com/darasahq/darasa/core/staff"
)

// fakeRepo is a map-backed Repository for tests.
type fakeRepo struct {
	mu        sync.RWMutex
	classes   map[string]ClassSection
	base      map[Weekday]map[string]BaseEntry
	overrides map[string]map[string]Override

	// failure injection
	baseErr     error
	overrideErr error
	saveErr     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		classes:   make(map[string]ClassSection),
		base:      make(map[Weekday]map[string]BaseEntry),
		overrides: make(map[string]map[string]Override),
	}
}

var _ Repository = (*fakeRepo)(nil)

func (r *fakeRepo) GetBaseSchedule(_ context.Context, day Weekday) (map[string]BaseEntry, error) {
	if r.baseErr != nil {
		return nil, r.baseErr
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]BaseEntry, len(r.base[day]))
	for k, v := range r.base[day] {
		out[k] = v
	}
	return out, nil
}

func (r *fakeRepo) SaveBaseEntry(_ context.Context, day Weekday, classID string, period int, entry *BaseEntry) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.base[day] == nil {
		r.base[day] = make(map[string]BaseEntry)
	}
	key := SlotKey(classID, period)
	if entry == nil {
		delete(r.base[day], key)
		return nil
	}
	r.base[day][key] = *entry
	return nil
}

func (r *fakeRepo) GetOverrides(_ context.Context, dateStr string) (map[string]Override, error) {
	if r.overrideErr != nil {
		return nil, r.overrideErr
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Override, len(r.overrides[dateStr]))
	for k, v := range r.overrides[dateStr] {
		out[k] = v
	}
	return out, nil
}

func (r *fakeRepo) SaveOverride(_ context.Context, dateStr, classID string, period int, o *Override) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.overrides[dateStr] == nil {
		r.overrides[dateStr] = make(map[string]Override)
	}
	key := SlotKey(classID, period)
	if o == nil {
		delete(r.overrides[dateStr], key)
		return nil
	}
	r.overrides[dateStr][key] = *o
	return nil
}

func (r *fakeRepo) QueryAllClasses(_ context.Context) ([]ClassSection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ClassSection, 0, len(r.classes))
	for _, cs := range r.classes {
		out = append(out, cs)
	}
	return out, nil
}

func (r *fakeRepo) GetClassByID(_ context.Context, id string) (ClassSection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cs, ok := r.classes[id]; ok {
		return cs, nil
	}
	return ClassSection{}, ErrNotFound
}

func (r *fakeRepo) CreateClass(_ context.Context, cs ClassSection) (ClassSection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[cs.ID] = cs
	return cs, nil
}

func (r *fakeRepo) UpdateClass(_ context.Context, cs ClassSection) (ClassSection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classes[cs.ID]; !ok {
		return ClassSection{}, ErrNotFound
	}
	r.classes[cs.ID] = cs
	return cs, nil
}

func (r *fakeRepo) DeleteClassByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.classes, id)
	for day := range r.base {
		for key := range r.base[day] {
			if classID, _, err := ParseSlotKey(key); err == nil && classID == id {
				delete(r.base[day], key)
			}
		}
	}
	for date := range r.overrides {
		for key := range r.overrides[date] {
			if classID, _, err := ParseSlotKey(key); err == nil && classID == id {
				delete(r.overrides[date], key)
			}
		}
	}
	return nil
}

// fakeStaffRepo is a map-backed staff.Repository for tests.
type fakeStaffRepo struct {
	mu         sync.RWMutex
	teachers   []staff.Teacher
	attendance map[string]map[string]staff.AttendanceStatus
}

func newFakeStaffRepo(teachers ...staff.Teacher) *fakeStaffRepo {
	return &fakeStaffRepo{
		teachers:   teachers,
		attendance: make(map[string]map[string]staff.AttendanceStatus),
	}
}

var _ staff.Repository = (*fakeStaffRepo)(nil)

func (r *fakeStaffRepo) QueryAllTeachers(_ context.Context) ([]staff.Teacher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]staff.Teacher(nil), r.teachers...), nil
}

func (r *fakeStaffRepo) GetTeacherByID(_ context.Context, id string) (staff.Teacher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.teachers {
		if t.ID == id {
			return t, nil
		}
	}
	return staff.Teacher{}, staff.ErrTeacherNotFound
}

func (r *fakeStaffRepo) CreateTeacher(_ context.Context, t staff.Teacher) (staff.Teacher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teachers = append(r.teachers, t)
	return t, nil
}

func (r *fakeStaffRepo) UpdateTeacher(_ context.Context, t staff.Teacher) (staff.Teacher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.teachers {
		if r.teachers[i].ID == t.ID {
			r.teachers[i] = t
			return t, nil
		}
	}
	return staff.Teacher{}, staff.ErrTeacherNotFound
}

func (r *fakeStaffRepo) DeleteTeachersByID(_ context.Context, ids ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		for i := range r.teachers {
			if r.teachers[i].ID == id {
				r.teachers = append(r.teachers[:i], r.teachers[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (r *fakeStaffRepo) GetAttendance(_ context.Context, dateStr string) (map[string]staff.AttendanceStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]staff.AttendanceStatus, len(r.attendance[dateStr]))
	for k, v := range r.attendance[dateStr] {
		out[k] = v
	}
	return out, nil
}

func (r *fakeStaffRepo) SaveAttendanceMark(_ context.Context, dateStr, teacherID string, status staff.AttendanceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status == staff.StatusPresent {
		delete(r.attendance[dateStr], teacherID)
		return nil
	}
	if r.attendance[dateStr] == nil {
		r.attendance[dateStr] = make(map[string]staff.AttendanceStatus)
	}
	r.attendance[dateStr][teacherID] = status
	return nil
}
