// Package inmemdb is the zero-infrastructure storage engine: the offline
// fallback when the primary store is unreachable, and the engine API tests
// run against. Data lives for the life of the process only.
package inmemdb

import (
	"sync"

	"github.com/darasahq/darasa/core/schedule"
	"github.com/darasahq/darasa/core/staff"
)

type DB struct {
	mutex sync.RWMutex

	classes   map[string]schedule.ClassSection
	base      map[schedule.Weekday]map[string]schedule.BaseEntry
	overrides map[string]map[string]schedule.Override // date -> slotKey -> override
	teachers  map[string]staff.Teacher
	marks     map[string]map[string]staff.AttendanceStatus // date -> teacherID -> status
}

func NewDB() *DB {
	return &DB{
		classes:   make(map[string]schedule.ClassSection),
		base:      make(map[schedule.Weekday]map[string]schedule.BaseEntry),
		overrides: make(map[string]map[string]schedule.Override),
		teachers:  make(map[string]staff.Teacher),
		marks:     make(map[string]map[string]staff.AttendanceStatus),
	}
}
