package inmemdb

import (
	"context"
	"testing"

	"github.com/darasahq/darasa/core/schedule"
	"github.com/darasahq/darasa/core/staff"
)

func TestOverrideRoundTrip(t *testing.T) {
	repo := NewScheduleRepository(NewDB())
	ctx := context.Background()
	o := &schedule.Override{
		Kind:              schedule.KindSubstitution,
		OriginalTeacherID: "T1",
		Substitution:      &schedule.Substitution{TeacherID: "T2", Subject: "Math"},
	}

	if err := repo.SaveOverride(ctx, "2024-05-06", "6A", 0, o); err != nil {
		t.Fatalf("SaveOverride() error = %v", err)
	}
	got, err := repo.GetOverrides(ctx, "2024-05-06")
	if err != nil {
		t.Fatalf("GetOverrides() error = %v", err)
	}
	if stored, ok := got["6A_0"]; !ok || stored.Substitution.TeacherID != "T2" {
		t.Errorf("GetOverrides() = %+v, want saved substitution under 6A_0", got)
	}

	if err := repo.SaveOverride(ctx, "2024-05-06", "6A", 0, nil); err != nil {
		t.Fatalf("SaveOverride(nil) error = %v", err)
	}
	got, _ = repo.GetOverrides(ctx, "2024-05-06")
	if _, ok := got["6A_0"]; ok {
		t.Error("GetOverrides() still holds a deleted key")
	}

	// deleting again stays a no-op
	if err := repo.SaveOverride(ctx, "2024-05-06", "6A", 0, nil); err != nil {
		t.Errorf("SaveOverride(nil) on missing key error = %v", err)
	}
}

func TestDeleteClassCascades(t *testing.T) {
	repo := NewScheduleRepository(NewDB())
	ctx := context.Background()

	_, _ = repo.CreateClass(ctx, schedule.ClassSection{ID: "6A", Name: "Class 6-A", Section: schedule.Secondary})
	_ = repo.SaveBaseEntry(ctx, schedule.Monday, "6A", 0, &schedule.BaseEntry{TeacherID: "T1", Subject: "Math"})
	_ = repo.SaveBaseEntry(ctx, schedule.Friday, "6A", 5, &schedule.BaseEntry{TeacherID: "T1", Subject: "Math"})
	_ = repo.SaveOverride(ctx, "2024-05-06", "6A", 0, &schedule.Override{Kind: schedule.KindVacant, Vacant: &schedule.Vacancy{}})

	if err := repo.DeleteClassByID(ctx, "6A"); err != nil {
		t.Fatalf("DeleteClassByID() error = %v", err)
	}
	if _, err := repo.GetClassByID(ctx, "6A"); err != schedule.ErrNotFound {
		t.Errorf("GetClassByID() error = %v, want ErrNotFound", err)
	}
	for _, day := range []schedule.Weekday{schedule.Monday, schedule.Friday} {
		base, _ := repo.GetBaseSchedule(ctx, day)
		if len(base) != 0 {
			t.Errorf("base schedule for %s still holds %+v after cascade", day, base)
		}
	}
	overrides, _ := repo.GetOverrides(ctx, "2024-05-06")
	if len(overrides) != 0 {
		t.Errorf("overrides still hold %+v after cascade", overrides)
	}
}

func TestAttendancePresentDeletes(t *testing.T) {
	repo := NewStaffRepository(NewDB())
	ctx := context.Background()

	_ = repo.SaveAttendanceMark(ctx, "2024-05-06", "T1", staff.StatusHalfDayBefore)
	marks, _ := repo.GetAttendance(ctx, "2024-05-06")
	if marks["T1"] != staff.StatusHalfDayBefore {
		t.Fatalf("GetAttendance() = %v", marks)
	}

	_ = repo.SaveAttendanceMark(ctx, "2024-05-06", "T1", staff.StatusPresent)
	marks, _ = repo.GetAttendance(ctx, "2024-05-06")
	if len(marks) != 0 {
		t.Errorf("GetAttendance() = %v, want empty after a present mark", marks)
	}
}
