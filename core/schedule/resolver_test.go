package schedule

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// 2024-05-06 is a Monday.
const monday = "2024-05-06"

func seedMondayMath(repo *fakeRepo) {
	repo.classes["6A"] = ClassSection{ID: "6A", Name: "Class 6-A", Section: Secondary}
	_ = repo.SaveBaseEntry(context.Background(), Monday, "6A", 0, &BaseEntry{TeacherID: "T1", Subject: "Math"})
}

func TestResolveBaseOnly(t *testing.T) {
	repo := newFakeRepo()
	seedMondayMath(repo)

	got, err := NewResolver(repo).Resolve(context.Background(), monday, Monday)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := map[string]EffectiveEntry{
		"6A_0": {TeacherID: "T1", Subject: "Math", IsOverride: false},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}
}

func TestResolveOverridePrecedence(t *testing.T) {
	repo := newFakeRepo()
	seedMondayMath(repo)
	_ = repo.SaveOverride(context.Background(), monday, "6A", 0, &Override{
		Kind:              KindSubstitution,
		OriginalTeacherID: "T1",
		Substitution:      &Substitution{TeacherID: "T2", Subject: "Math"},
	})

	got, err := NewResolver(repo).Resolve(context.Background(), monday, Monday)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	entry, ok := got["6A_0"]
	if !ok {
		t.Fatal("Resolve() missing key 6A_0")
	}
	if !entry.IsOverride || entry.TeacherID != "T2" || entry.Subject != "Math" {
		t.Errorf("Resolve()[6A_0] = %+v, want substitution by T2", entry)
	}
}

func TestResolveAdditiveOverride(t *testing.T) {
	repo := newFakeRepo()
	seedMondayMath(repo)
	// ad-hoc assignment on an otherwise-empty slot
	_ = repo.SaveOverride(context.Background(), monday, "6A", 5, &Override{
		Kind:         KindSubstitution,
		Substitution: &Substitution{TeacherID: "T3", Subject: "PE"},
	})

	got, err := NewResolver(repo).Resolve(context.Background(), monday, Monday)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Resolve() returned %d entries, want 2", len(got))
	}
	if e := got["6A_5"]; !e.IsOverride || e.TeacherID != "T3" {
		t.Errorf("Resolve()[6A_5] = %+v, want ad-hoc T3 entry", e)
	}
}

func TestResolvePartialOverrideFillsFromBase(t *testing.T) {
	repo := newFakeRepo()
	seedMondayMath(repo)
	_ = repo.SaveOverride(context.Background(), monday, "6A", 0, &Override{
		Kind:              KindSubstitution,
		OriginalTeacherID: "T1",
		Substitution:      &Substitution{TeacherID: "T2"}, // no subject given
	})

	got, err := NewResolver(repo).Resolve(context.Background(), monday, Monday)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if e := got["6A_0"]; e.Subject != "Math" {
		t.Errorf("Resolve()[6A_0].Subject = %q, want base subject Math", e.Subject)
	}
}

func TestResolveVacantKeepsBaseSubject(t *testing.T) {
	repo := newFakeRepo()
	seedMondayMath(repo)
	_ = repo.SaveOverride(context.Background(), monday, "6A", 0, &Override{
		Kind:              KindVacant,
		OriginalTeacherID: "T1",
		Vacant:            &Vacancy{Note: "self-study"},
	})

	got, err := NewResolver(repo).Resolve(context.Background(), monday, Monday)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	e := got["6A_0"]
	if e.TeacherID != "" || e.Subject != "Math" || e.Note != "self-study" || e.Kind != KindVacant {
		t.Errorf("Resolve()[6A_0] = %+v, want vacant slot keeping the base subject", e)
	}
}

func TestResolveIdempotentSaves(t *testing.T) {
	repo := newFakeRepo()
	seedMondayMath(repo)
	o := &Override{
		Kind:              KindSubstitution,
		OriginalTeacherID: "T1",
		Substitution:      &Substitution{TeacherID: "T2", Subject: "Math"},
	}
	_ = repo.SaveOverride(context.Background(), monday, "6A", 0, o)
	once, err := NewResolver(repo).Resolve(context.Background(), monday, Monday)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	_ = repo.SaveOverride(context.Background(), monday, "6A", 0, o)
	twice, err := NewResolver(repo).Resolve(context.Background(), monday, Monday)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("saving the same override twice changed the resolved output:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestResolveFailsWhenEitherReadFails(t *testing.T) {
	boom := errors.New("store down")

	repo := newFakeRepo()
	seedMondayMath(repo)
	repo.overrideErr = boom
	if _, err := NewResolver(repo).Resolve(context.Background(), monday, Monday); err == nil {
		t.Error("Resolve() with failing override read did not fail; a substitution could be silently dropped")
	}

	repo = newFakeRepo()
	seedMondayMath(repo)
	repo.baseErr = boom
	if _, err := NewResolver(repo).Resolve(context.Background(), monday, Monday); err == nil {
		t.Error("Resolve() with failing base read did not fail")
	}
}

func TestResolveDateRejectsSunday(t *testing.T) {
	repo := newFakeRepo()
	if _, err := NewResolver(repo).ResolveDate(context.Background(), "2024-05-05"); err == nil {
		t.Error("ResolveDate() accepted a Sunday")
	}
}
