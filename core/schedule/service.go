package schedule

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core"
)

var (
	// errors
	ErrNotFound      = errors.New("class section not found")
	errLunchSlot     = "the lunch slot cannot hold a schedule entry"
	errBadPeriod     = "period index out of range"
	errUnknownDay    = "unknown school day"
	errUnknownKind   = "unknown section tag"
	errMissingFields = "teacher and subject are required"
)

type (
	// Repository is the schedule store contract: plain keyed CRUD with
	// last-write-wins semantics, no locking and no cross-key transactions.
	// Two operators editing the same slot within one polling window clobber
	// each other silently; the office's write concurrency makes that an
	// accepted, documented risk.
	Repository interface {
		GetBaseSchedule(ctx context.Context, day Weekday) (map[string]BaseEntry, error)
		// SaveBaseEntry upserts one base cell; a nil entry deletes it.
		// Deleting a missing key is a no-op.
		SaveBaseEntry(ctx context.Context, day Weekday, classID string, period int, entry *BaseEntry) error

		GetOverrides(ctx context.Context, dateStr string) (map[string]Override, error)
		// SaveOverride upserts one date-scoped override; a nil override
		// deletes it. Deleting a missing key is a no-op.
		SaveOverride(ctx context.Context, dateStr, classID string, period int, o *Override) error

		QueryAllClasses(ctx context.Context) ([]ClassSection, error)
		GetClassByID(ctx context.Context, id string) (ClassSection, error)
		CreateClass(ctx context.Context, cs ClassSection) (ClassSection, error)
		UpdateClass(ctx context.Context, cs ClassSection) (ClassSection, error)
		// DeleteClassByID removes the class and cascades to every base entry
		// and override keyed with its id.
		DeleteClassByID(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Repo() Repository { return svc.repo }

// checkSlot rejects out-of-range periods and any write aimed at the lunch
// slot before it reaches the store.
func checkSlot(day Weekday, period int) error {
	if !day.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "day", Error: errUnknownDay})
	}
	if !ValidPeriod(period) {
		return core.NewValidationError(nil, core.FieldError{Field: "period", Error: errBadPeriod})
	}
	if period == LunchPeriod {
		return core.NewValidationError(nil, core.FieldError{Field: "period", Error: errLunchSlot})
	}
	return nil
}

func (svc *Service) BaseSchedule(ctx context.Context, day Weekday) (map[string]BaseEntry, error) {
	if !day.Valid() {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "day", Error: errUnknownDay})
	}
	return svc.repo.GetBaseSchedule(ctx, day)
}

// SaveBaseEntry upserts (or deletes, when entry is nil) one weekly cell.
func (svc *Service) SaveBaseEntry(ctx context.Context, day Weekday, classID string, period int, entry *BaseEntry) error {
	if err := checkSlot(day, period); err != nil {
		return err
	}
	if entry != nil {
		entry.TeacherID = core.CleanString(entry.TeacherID)
		entry.Subject = core.CleanString(entry.Subject)
		if entry.TeacherID == "" || entry.Subject == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "entry", Error: errMissingFields})
		}
		if _, err := svc.repo.GetClassByID(ctx, classID); err != nil {
			return err
		}
	}
	return svc.repo.SaveBaseEntry(ctx, day, classID, period, entry)
}

func (svc *Service) Overrides(ctx context.Context, dateStr string) (map[string]Override, error) {
	return svc.repo.GetOverrides(ctx, dateStr)
}

// SaveOverride upserts (or deletes, when o is nil) one date-scoped override.
func (svc *Service) SaveOverride(ctx context.Context, dateStr, classID string, period int, o *Override) error {
	day, err := WeekdayOf(dateStr)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
	}
	if err := checkSlot(day, period); err != nil {
		return err
	}
	if o != nil {
		if err := o.Validate(); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "override", Error: err.Error()})
		}
		if _, err := svc.repo.GetClassByID(ctx, classID); err != nil {
			return err
		}
	}
	return svc.repo.SaveOverride(ctx, dateStr, classID, period, o)
}

func (svc *Service) QueryAllClasses(ctx context.Context) ([]ClassSection, error) {
	return svc.repo.QueryAllClasses(ctx)
}

func (svc *Service) GetClass(ctx context.Context, id string) (ClassSection, error) {
	return svc.repo.GetClassByID(ctx, id)
}

func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (ClassSection, error) {
	cs := ClassSection{
		ID:      uuid.New().String(),
		Name:    nc.Name,
		Section: nc.Section,
	}
	if !cs.Section.Valid() {
		return ClassSection{}, core.NewValidationError(nil, core.FieldError{Field: "section", Error: errUnknownKind})
	}
	return svc.repo.CreateClass(ctx, cs)
}

func (svc *Service) UpdateClass(ctx context.Context, cs ClassSection) (ClassSection, error) {
	if !cs.Section.Valid() {
		return ClassSection{}, core.NewValidationError(nil, core.FieldError{Field: "section", Error: errUnknownKind})
	}
	return svc.repo.UpdateClass(ctx, cs)
}

// DeleteClass removes a class section and every schedule row referencing it,
// keeping the referential-integrity invariant: no resolve for any date may
// return a key of a deleted class.
func (svc *Service) DeleteClass(ctx context.Context, id string) error {
	return svc.repo.DeleteClassByID(ctx, id)
}
