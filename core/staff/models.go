package staff

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

// AttendanceStatus is a teacher's attendance state for one school day.
// "present" is implicit: no record is ever stored for a present teacher.
type AttendanceStatus string

const (
	StatusPresent       AttendanceStatus = "present"
	StatusAbsent        AttendanceStatus = "absent"
	StatusHalfDayBefore AttendanceStatus = "half_day_before" // on leave before lunch
	StatusHalfDayAfter  AttendanceStatus = "half_day_after"  // on leave after lunch
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHalfDayBefore, StatusHalfDayAfter:
		return true
	}
	return false
}

// OnLeave reports whether the status represents any kind of leave.
func (s AttendanceStatus) OnLeave() bool {
	return s == StatusAbsent || s == StatusHalfDayBefore || s == StatusHalfDayAfter
}

type Teacher struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Initials string   `json:"initials"`
	Email    string   `json:"email,omitempty"`
	Subjects []string `json:"subjects,omitempty"`
}

// NewTeacher contains information needed to register a Teacher.
type NewTeacher struct {
	Name     string   `json:"name" validate:"required"`
	Initials string   `json:"initials" validate:"omitempty,alphanum_"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Subjects []string `json:"subjects"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Initials = core.CleanString(nt.Initials)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	return validate.Struct(nt)
}

// AttendanceEntry is the wire shape for marking attendance.
type AttendanceEntry struct {
	Date      string           `json:"date" validate:"required,datestr"`
	TeacherID string           `json:"teacher_id" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"required"`
}

func (ae *AttendanceEntry) Validate(validate *validator.Validate, _ ut.Translator) error {
	ae.TeacherID = core.CleanString(ae.TeacherID)
	if err := validate.Struct(ae); err != nil {
		return err
	}
	if !ae.Status.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "unknown attendance status"})
	}
	return nil
}
