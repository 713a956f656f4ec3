package main

import (
	"context"
	"fmt"

	"github.com/darasahq/darasa/core/schedule"
	"github.com/darasahq/darasa/core/staff"
)

// seed loads a small demo school: two classes, three teachers and a Monday
// base schedule. Safe to run on an empty database only.
func (cli *commandLine) seed() error {
	ctx := context.Background()
	scheduleSvc := schedule.NewService(cli.scheduleRepo)
	staffSvc := staff.NewService(cli.staffRepo)

	teachers := make([]staff.Teacher, 0, 3)
	for _, nt := range []staff.NewTeacher{
		{Name: "Asha Mwangi", Initials: "AM", Email: "asha@school.example", Subjects: []string{"Mathematics", "Physics"}},
		{Name: "Baraka Odhiambo", Initials: "BO", Email: "baraka@school.example", Subjects: []string{"English", "History"}},
		{Name: "Chiku Njoroge", Initials: "CN", Email: "chiku@school.example", Subjects: []string{"Biology", "Chemistry"}},
	} {
		t, err := staffSvc.Create(ctx, nt)
		if err != nil {
			return err
		}
		teachers = append(teachers, t)
	}

	classes := make([]schedule.ClassSection, 0, 2)
	for _, nc := range []schedule.NewClass{
		{Name: "Class 6-A", Section: schedule.Secondary},
		{Name: "Class 11-B", Section: schedule.SeniorSecondary},
	} {
		cs, err := scheduleSvc.CreateClass(ctx, nc)
		if err != nil {
			return err
		}
		classes = append(classes, cs)
	}

	// Monday: rotate teachers over the teaching periods of each class.
	for ci, cs := range classes {
		for pi, period := range schedule.TeachingPeriods() {
			t := teachers[(ci+pi)%len(teachers)]
			entry := &schedule.BaseEntry{TeacherID: t.ID, Subject: t.Subjects[0]}
			if err := scheduleSvc.SaveBaseEntry(ctx, schedule.Monday, cs.ID, period, entry); err != nil {
				return err
			}
		}
	}

	fmt.Printf("seeded %d teachers, %d classes and a Monday schedule\n", len(teachers), len(classes))
	return nil
}
