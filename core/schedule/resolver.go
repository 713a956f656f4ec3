package schedule

import (
	"context"

	"github.com/pkg/errors"
)

// Resolver merges the recurring weekly plan with a date's overrides into the
// effective schedule actually taught that day.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve computes the effective schedule for one concrete date.
//
// Base entries for the weekday seed the result; every override for the date
// replaces its slot (filling partial fields from the base cell) and is tagged
// IsOverride. Overrides on slots with no base entry still produce an entry
// (ad-hoc assignment). Slots present in neither source are absent.
//
// Both reads must succeed. Falling back to base-only when the override read
// fails would silently drop substitutions from every viewer's screen, so the
// whole resolve fails instead.
func (r *Resolver) Resolve(ctx context.Context, dateStr string, day Weekday) (map[string]EffectiveEntry, error) {
	base, err := r.repo.GetBaseSchedule(ctx, day)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching base schedule for %s", day)
	}
	overrides, err := r.repo.GetOverrides(ctx, dateStr)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching overrides for %s", dateStr)
	}

	effective := make(map[string]EffectiveEntry, len(base)+len(overrides))
	for key, entry := range base {
		effective[key] = EffectiveEntry{
			TeacherID: entry.TeacherID,
			Subject:   entry.Subject,
			Note:      entry.Note,
		}
	}
	for key, o := range overrides {
		var baseEntry *BaseEntry
		if be, ok := base[key]; ok {
			baseEntry = &be
		}
		effective[key] = effectiveFromOverride(o, baseEntry)
	}
	return effective, nil
}

// ResolveDate is Resolve with the weekday derived from the date.
func (r *Resolver) ResolveDate(ctx context.Context, dateStr string) (map[string]EffectiveEntry, error) {
	day, err := WeekdayOf(dateStr)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, dateStr, day)
}
