package domain

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestTaskInputValidateRejectsBlankTitle(t *testing.T) {
	err := TaskInput{Title: "   "}.Validate()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "title" {
		t.Fatalf("unexpected field: %s", ve.Field)
	}
}

func TestTaskInputNormalizeDefaults(t *testing.T) {
	in := TaskInput{Title: "  Buy milk ", Tags: []string{" a", "b", "a", ""}}.Normalize()
	if in.Title != "Buy milk" {
		t.Fatalf("unexpected title: %q", in.Title)
	}
	if in.Priority != PriorityMedium || in.Status != StatusTodo || in.Category != CategoryPersonal {
		t.Fatalf("unexpected defaults: %#v", in)
	}
	if !reflect.DeepEqual(in.Tags, []string{"a", "b"}) {
		t.Fatalf("unexpected tags: %#v", in.Tags)
	}
}

func TestTaskPatchValidate(t *testing.T) {
	bad := Status("archived")
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := map[string]TaskPatch{
		"empty":         {},
		"blank title":   {Title: strPtr(" ")},
		"bad status":    {Status: &bad},
		"set and clear": {DueDate: &due, ClearDueDate: true},
	}
	for name, p := range cases {
		if err := p.Validate(); !IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
	if err := StatusPatch(StatusCompleted).Validate(); err != nil {
		t.Fatalf("status patch: %v", err)
	}
}

func TestTaskPatchApplyDoesNotAliasOriginal(t *testing.T) {
	due := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	orig := Task{ID: "t1", Title: "a", Status: StatusTodo, DueDate: &due, Tags: []string{"x"}}
	tags := []string{"y"}
	out := TaskPatch{Status: ptrStatus(StatusCompleted), Tags: &tags}.Apply(orig)

	if out.Status != StatusCompleted || orig.Status != StatusTodo {
		t.Fatalf("unexpected statuses: out=%s orig=%s", out.Status, orig.Status)
	}
	*out.DueDate = out.DueDate.AddDate(0, 0, 1)
	if !orig.DueDate.Equal(due) {
		t.Fatalf("original due date mutated: %v", orig.DueDate)
	}
	if orig.Tags[0] != "x" || out.Tags[0] != "y" {
		t.Fatalf("unexpected tags: out=%v orig=%v", out.Tags, orig.Tags)
	}

	cleared := DueDatePatch(nil).Apply(orig)
	if cleared.DueDate != nil {
		t.Fatalf("expected due date cleared")
	}
}

func TestNormalizeCategoryFallsBackToOther(t *testing.T) {
	for in, want := range map[string]string{
		"work":    CategoryWork,
		"":        CategoryOther,
		"hobbies": CategoryOther,
		"other":   CategoryOther,
	} {
		if got := NormalizeCategory(in); got != want {
			t.Fatalf("NormalizeCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPriorityRankOrder(t *testing.T) {
	for i := 1; i < len(Priorities); i++ {
		if Priorities[i-1].Rank() >= Priorities[i].Rank() {
			t.Fatalf("priorities out of order at %d", i)
		}
	}
	if Priority("whatever").Valid() {
		t.Fatalf("unknown priority reported valid")
	}
}

func TestDueAtCombinesDateAndClock(t *testing.T) {
	day := time.Date(2024, 5, 10, 23, 59, 0, 0, time.UTC)
	got, err := DueAt(day, "08:30")
	if err != nil {
		t.Fatalf("due at: %v", err)
	}
	want := time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, _ := DueAt(day, ""); got.Hour() != 12 {
		t.Fatalf("expected default noon, got %v", got)
	}
	if _, err := DueAt(day, "25:00"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFetchErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&FetchError{Op: "fetch tasks", Err: cause})
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to reach cause")
	}
	if got := (&FetchError{Op: "delete task", StatusCode: 500, Body: "boom"}).Error(); got != "delete task: status 500: boom" {
		t.Fatalf("unexpected message: %s", got)
	}
}

func ptrStatus(s Status) *Status { return &s }
