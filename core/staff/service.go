package staff

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core"
)

var (
	// errors
	ErrTeacherNotFound = errors.New("teacher not found")
)

type (
	// Repository is the attendance/teacher store contract. All writes are
	// last-write-wins: there is no locking and no cross-key transaction.
	Repository interface {
		QueryAllTeachers(ctx context.Context) ([]Teacher, error)
		GetTeacherByID(ctx context.Context, id string) (Teacher, error)
		CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		UpdateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		// DeleteTeachersByID is a no-op for ids that do not exist.
		DeleteTeachersByID(ctx context.Context, ids ...string) error

		// GetAttendance returns only stored (non-present) marks for the date.
		GetAttendance(ctx context.Context, dateStr string) (map[string]AttendanceStatus, error)
		// SaveAttendanceMark persists a non-present mark; StatusPresent deletes the record.
		SaveAttendanceMark(ctx context.Context, dateStr, teacherID string, status AttendanceStatus) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Repo() Repository { return svc.repo }

func (svc *Service) QueryAll(ctx context.Context) ([]Teacher, error) {
	return svc.repo.QueryAllTeachers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *Service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	t := Teacher{
		ID:       uuid.New().String(),
		Name:     nt.Name,
		Initials: nt.Initials,
		Email:    nt.Email,
		Subjects: nt.Subjects,
	}
	return svc.repo.CreateTeacher(ctx, t)
}

func (svc *Service) Update(ctx context.Context, t Teacher) (Teacher, error) {
	return svc.repo.UpdateTeacher(ctx, t)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteTeachersByID(ctx, ids...)
}

// Attendance returns the stored marks for a date; absence of a teacher's key
// means present.
func (svc *Service) Attendance(ctx context.Context, dateStr string) (map[string]AttendanceStatus, error) {
	if _, err := time.Parse(core.DateFormat, dateStr); err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "date", Error: "must be a date in YYYY-MM-DD format"})
	}
	return svc.repo.GetAttendance(ctx, dateStr)
}

// Mark records a teacher's attendance for a date. A "present" mark is never
// persisted: it deletes any stored record for that (date, teacher) key.
func (svc *Service) Mark(ctx context.Context, dateStr, teacherID string, status AttendanceStatus) error {
	if !status.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "unknown attendance status"})
	}
	if _, err := time.Parse(core.DateFormat, dateStr); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "date", Error: "must be a date in YYYY-MM-DD format"})
	}
	if _, err := svc.repo.GetTeacherByID(ctx, teacherID); err != nil {
		return err
	}
	return svc.repo.SaveAttendanceMark(ctx, dateStr, teacherID, status)
}
