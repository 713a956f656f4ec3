package inmemdb

import (
	"context"
	"sort"

	"github.com/darasahq/darasa/core/staff"
)

type staffRepository struct {
	db *DB
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *DB) *staffRepository {
	return &staffRepository{db: db}
}

func (repo *staffRepository) QueryAllTeachers(_ context.Context) ([]staff.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	teachers := make([]staff.Teacher, 0, len(repo.db.teachers))
	for _, t := range repo.db.teachers {
		teachers = append(teachers, t)
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].Name < teachers[j].Name })
	return teachers, nil
}

func (repo *staffRepository) GetTeacherByID(_ context.Context, id string) (staff.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.teachers[id]; ok {
		return t, nil
	}
	return staff.Teacher{}, staff.ErrTeacherNotFound
}

func (repo *staffRepository) CreateTeacher(_ context.Context, t staff.Teacher) (staff.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.teachers[t.ID] = t
	return t, nil
}

func (repo *staffRepository) UpdateTeacher(_ context.Context, t staff.Teacher) (staff.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.teachers[t.ID]; !ok {
		return staff.Teacher{}, staff.ErrTeacherNotFound
	}
	repo.db.teachers[t.ID] = t
	return t, nil
}

func (repo *staffRepository) DeleteTeachersByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.teachers, id)
		for date := range repo.db.marks {
			delete(repo.db.marks[date], id)
		}
	}
	return nil
}

func (repo *staffRepository) GetAttendance(_ context.Context, dateStr string) (map[string]staff.AttendanceStatus, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	marks := make(map[string]staff.AttendanceStatus, len(repo.db.marks[dateStr]))
	for teacherID, status := range repo.db.marks[dateStr] {
		marks[teacherID] = status
	}
	return marks, nil
}

func (repo *staffRepository) SaveAttendanceMark(_ context.Context, dateStr, teacherID string, status staff.AttendanceStatus) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// present is never stored; it clears the record instead
	if status == staff.StatusPresent {
		delete(repo.db.marks[dateStr], teacherID)
		return nil
	}
	if repo.db.marks[dateStr] == nil {
		repo.db.marks[dateStr] = make(map[string]staff.AttendanceStatus)
	}
	repo.db.marks[dateStr][teacherID] = status
	return nil
}
