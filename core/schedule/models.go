package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is a school-day name. Sunday is not a school day and never keys
// a base-schedule entry.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
)

var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

func (d Weekday) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday:
		return true
	}
	return false
}

// WeekdayOf returns the school-day name for a YYYY-MM-DD date.
func WeekdayOf(dateStr string) (Weekday, error) {
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return "", err
	}
	d := Weekday(t.Weekday().String())
	if !d.Valid() {
		return "", fmt.Errorf("%s is a %s, not a school day", dateStr, t.Weekday())
	}
	return d, nil
}

// Period slots. Timing is global, not per-class: every class runs the same
// 7-slot day and slot 3 is the non-teaching lunch break.
const (
	PeriodsPerDay = 7
	LunchPeriod   = 3
)

func ValidPeriod(idx int) bool {
	return idx >= 0 && idx < PeriodsPerDay
}

// TeachingPeriods returns the assignable slot indexes in order.
func TeachingPeriods() []int {
	periods := make([]int, 0, PeriodsPerDay-1)
	for i := 0; i < PeriodsPerDay; i++ {
		if i != LunchPeriod {
			periods = append(periods, i)
		}
	}
	return periods
}

// SlotKey encodes a (classID, period) pair as "classID_period".
func SlotKey(classID string, period int) string {
	return classID + "_" + strconv.Itoa(period)
}

// ParseSlotKey decodes a slot key. Class ids may themselves contain
// underscores, so the split happens on the last one.
func ParseSlotKey(key string) (classID string, period int, err error) {
	i := strings.LastIndex(key, "_")
	if i <= 0 || i == len(key)-1 {
		return "", 0, fmt.Errorf("malformed slot key %q", key)
	}
	period, err = strconv.Atoi(key[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("malformed slot key %q", key)
	}
	return key[:i], period, nil
}

type Section string

const (
	Secondary       Section = "SECONDARY"
	SeniorSecondary Section = "SENIOR_SECONDARY"
)

func (s Section) Valid() bool {
	return s == Secondary || s == SeniorSecondary
}

type ClassSection struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Section Section `json:"section"`
}

// BaseEntry is one recurring weekly timetable cell, keyed externally by
// (day, classID, period).
type BaseEntry struct {
	TeacherID string `json:"teacher_id"`
	Subject   string `json:"subject"`
	Note      string `json:"note,omitempty"`
}

// OverrideKind discriminates the daily-override union.
type OverrideKind string

const (
	KindSubstitution OverrideKind = "SUBSTITUTION"
	KindVacant       OverrideKind = "VACANT"
	KindMerged       OverrideKind = "MERGED"
)

func (k OverrideKind) Valid() bool {
	switch k {
	case KindSubstitution, KindVacant, KindMerged:
		return true
	}
	return false
}

type (
	Substitution struct {
		TeacherID string `json:"teacher_id"`
		Subject   string `json:"subject"`
		Note      string `json:"note,omitempty"`
	}

	Vacancy struct {
		Note string `json:"note,omitempty"`
	}

	Merge struct {
		WithClassIDs []string `json:"with_class_ids"`
	}

	// Override is one date-specific deviation from the base plan, keyed
	// externally by (date, classID, period). Exactly one variant matching
	// Kind must be set; OriginalTeacherID records who was displaced, for audit.
	Override struct {
		Kind              OverrideKind  `json:"type"`
		OriginalTeacherID string        `json:"original_teacher_id,omitempty"`
		Substitution      *Substitution `json:"substitution,omitempty"`
		Vacant            *Vacancy      `json:"vacant,omitempty"`
		Merged            *Merge        `json:"merged,omitempty"`
	}
)

var errMismatchedVariant = errors.New("override payload does not match its type")

// Validate checks that the override carries exactly the variant its Kind names.
func (o Override) Validate() error {
	if !o.Kind.Valid() {
		return fmt.Errorf("unknown override type %q", o.Kind)
	}
	set := 0
	if o.Substitution != nil {
		set++
	}
	if o.Vacant != nil {
		set++
	}
	if o.Merged != nil {
		set++
	}
	if set != 1 {
		return errMismatchedVariant
	}
	switch o.Kind {
	case KindSubstitution:
		if o.Substitution == nil {
			return errMismatchedVariant
		}
		if o.Substitution.TeacherID == "" {
			return errors.New("substitution requires a substitute teacher")
		}
	case KindVacant:
		if o.Vacant == nil {
			return errMismatchedVariant
		}
	case KindMerged:
		if o.Merged == nil {
			return errMismatchedVariant
		}
		if len(o.Merged.WithClassIDs) == 0 {
			return errors.New("merge requires at least one partner class")
		}
	}
	return nil
}

// EffectiveEntry is a derived timetable cell for one concrete date. It is
// never stored.
type EffectiveEntry struct {
	TeacherID      string       `json:"teacher_id,omitempty"`
	Subject        string       `json:"subject,omitempty"`
	Note           string       `json:"note,omitempty"`
	IsOverride     bool         `json:"is_override"`
	Kind           OverrideKind `json:"kind,omitempty"` // empty for base entries
	MergedClassIDs []string     `json:"merged_class_ids,omitempty"`
}

// effectiveFromOverride maps an override onto the schedule-entry shape,
// filling gaps from the base entry when the override's fields are partial.
func effectiveFromOverride(o Override, base *BaseEntry) EffectiveEntry {
	e := EffectiveEntry{IsOverride: true, Kind: o.Kind}
	switch o.Kind {
	case KindSubstitution:
		e.TeacherID = o.Substitution.TeacherID
		e.Subject = o.Substitution.Subject
		e.Note = o.Substitution.Note
		if e.Subject == "" && base != nil {
			e.Subject = base.Subject
		}
		if e.Note == "" && base != nil {
			e.Note = base.Note
		}
	case KindVacant:
		e.Note = o.Vacant.Note
		if base != nil {
			e.Subject = base.Subject
		}
	case KindMerged:
		e.MergedClassIDs = o.Merged.WithClassIDs
		if base != nil {
			e.Subject = base.Subject
		}
	}
	return e
}
