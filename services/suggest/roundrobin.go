package suggestsvc

import (
	"context"

	"github.com/darasahq/darasa/core/schedule"
	"github.com/darasahq/darasa/core/staff"
)

// roundRobinSuggester deals teachers out over the teaching grid, cycling
// through each teacher's subject list. Every cell gets exactly one entry,
// and a teacher is never proposed for two classes in the same period.
type roundRobinSuggester struct{}

var _ schedule.Suggester = (*roundRobinSuggester)(nil)

func NewRoundRobinSuggester() schedule.Suggester {
	return &roundRobinSuggester{}
}

func (s roundRobinSuggester) SuggestBaseSchedule(_ context.Context, teachers []staff.Teacher, classes []schedule.ClassSection) ([]schedule.ProposedEntry, error) {
	if len(teachers) == 0 || len(classes) == 0 {
		return nil, nil
	}

	// Per-teacher cursor into their subject list so repeated picks rotate
	// through what they actually teach.
	subjectIdx := make(map[string]int, len(teachers))
	nextSubject := func(t staff.Teacher) string {
		if len(t.Subjects) == 0 {
			return ""
		}
		i := subjectIdx[t.ID]
		subjectIdx[t.ID] = i + 1
		return t.Subjects[i%len(t.Subjects)]
	}

	var proposed []schedule.ProposedEntry
	cursor := 0
	for _, day := range schedule.Weekdays {
		for _, period := range schedule.TeachingPeriods() {
			taken := make(map[string]bool, len(classes))
			for _, cls := range classes {
				// Advance past teachers already placed this period.
				var t staff.Teacher
				for range teachers {
					t = teachers[cursor%len(teachers)]
					cursor++
					if !taken[t.ID] {
						break
					}
				}
				if taken[t.ID] {
					// More classes than teachers; leave the cell open.
					continue
				}
				taken[t.ID] = true
				proposed = append(proposed, schedule.ProposedEntry{
					Day:     day,
					ClassID: cls.ID,
					Period:  period,
					Entry:   schedule.BaseEntry{TeacherID: t.ID, Subject: nextSubject(t)},
				})
			}
		}
	}
	return proposed, nil
}
