package schedule

import (
	"context"

	"github.com/darasahq/darasa/core/staff"
)

// ProposedEntry is one advisory base-schedule cell from a Suggester.
type ProposedEntry struct {
	Day     Weekday   `json:"day"`
	ClassID string    `json:"class_id"`
	Period  int       `json:"period"`
	Entry   BaseEntry `json:"entry"`
}

// Suggester proposes a base schedule from the registries. Suggestions are
// advisory only and never committed without an operator saving them cell by
// cell.
type Suggester interface {
	SuggestBaseSchedule(ctx context.Context, teachers []staff.Teacher, classes []ClassSection) ([]ProposedEntry, error)
}
