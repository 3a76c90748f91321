package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/23CSBS271/focus-flow/domain"
	"github.com/23CSBS271/focus-flow/server"
	"github.com/23CSBS271/focus-flow/storage"
)

// newTestAPI starts an in-memory API and points the CLI config at it.
func newTestAPI(t *testing.T) *storage.Memory {
	t.Helper()
	logger, _ := test.NewNullLogger()
	mem := storage.NewMemory()
	e := echo.New()
	server.Register(e, server.Deps{Store: mem, Logger: logger})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FOCUSFLOW_API_BASE_URL", srv.URL)
	t.Setenv("FOCUSFLOW_USER_ID", "u1")
	return mem
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("focusflow %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func onlyTask(t *testing.T, mem *storage.Memory) domain.Task {
	t.Helper()
	tasks, _ := mem.ListTasks(context.Background(), "u1")
	if len(tasks) != 1 {
		t.Fatalf("expected one stored task, got %d", len(tasks))
	}
	return tasks[0]
}

func TestAddAndViewKanban(t *testing.T) {
	mem := newTestAPI(t)

	out := mustRun(t, "add", "Write", "report", "--priority", "high", "--category", "work", "--tag", "q2")
	if !strings.Contains(out, "created") || !strings.Contains(out, "Write report") {
		t.Fatalf("unexpected add output: %s", out)
	}
	task := onlyTask(t, mem)
	if task.Priority != domain.PriorityHigh || task.Category != "work" || len(task.Tags) != 1 {
		t.Fatalf("unexpected stored task: %#v", task)
	}

	out = mustRun(t, "view", "kanban")
	for _, want := range []string{"To Do (1)", "In Progress (0)", "Completed (0)", "Write report"} {
		if !strings.Contains(out, want) {
			t.Fatalf("kanban output missing %q:\n%s", want, out)
		}
	}
}

func TestStatusToggleDropAndRemove(t *testing.T) {
	mem := newTestAPI(t)
	mustRun(t, "add", "Ship")
	id := onlyTask(t, mem).ID
	prefix := id[:8]

	mustRun(t, "status", prefix, "in-progress")
	if got := onlyTask(t, mem).Status; got != domain.StatusInProgress {
		t.Fatalf("status: got %s", got)
	}

	mustRun(t, "toggle", prefix)
	if got := onlyTask(t, mem).Status; got != domain.StatusCompleted {
		t.Fatalf("toggle: got %s", got)
	}

	out := mustRun(t, "drop", prefix, prefix)
	if !strings.Contains(out, "nothing to do") {
		t.Fatalf("dropping a task on itself should be a no-op: %s", out)
	}
	out = mustRun(t, "drop", prefix, "completed")
	if !strings.Contains(out, "moved to completed") {
		t.Fatalf("dropping on a column should commit: %s", out)
	}
	mustRun(t, "drop", prefix, "todo")
	if got := onlyTask(t, mem).Status; got != domain.StatusTodo {
		t.Fatalf("drop: got %s", got)
	}

	if _, err := run(t, "status", prefix, "done"); err == nil {
		t.Fatal("expected unknown status to fail")
	}

	mustRun(t, "rm", prefix)
	tasks, _ := mem.ListTasks(context.Background(), "u1")
	if len(tasks) != 0 {
		t.Fatalf("expected task removed, got %d", len(tasks))
	}
	if _, err := run(t, "rm", prefix); err == nil {
		t.Fatal("expected removing an unknown id to fail")
	}
}

func TestMoveAndDailyView(t *testing.T) {
	mem := newTestAPI(t)
	mustRun(t, "add", "Dentist", "--due", time.Now().Format(dateLayout), "--at", "23:59")
	if onlyTask(t, mem).DueDate == nil {
		t.Fatal("expected due date to be stored")
	}

	out := mustRun(t, "view", "daily")
	if !strings.Contains(out, "Today (1)") {
		t.Fatalf("expected task under Today:\n%s", out)
	}

	mustRun(t, "move", onlyTask(t, mem).ID, "none")
	if onlyTask(t, mem).DueDate != nil {
		t.Fatal("expected due date cleared")
	}
	out = mustRun(t, "view")
	if !strings.Contains(out, "No Due Date (1)") {
		t.Fatalf("expected task under No Due Date:\n%s", out)
	}
}

func TestViewFilters(t *testing.T) {
	newTestAPI(t)
	mustRun(t, "add", "Groceries", "--category", "shopping")
	mustRun(t, "add", "Gym", "--status", "completed", "--category", "health")

	out := mustRun(t, "view", "category", "--status", "completed")
	if !strings.Contains(out, "1 of 2 tasks match the filters") {
		t.Fatalf("expected filter summary:\n%s", out)
	}
	if strings.Contains(out, "Groceries") || !strings.Contains(out, "Gym") {
		t.Fatalf("filter not applied:\n%s", out)
	}

	out = mustRun(t, "view", "weekly", "-q", "groc")
	if !strings.Contains(out, "1 of 2 tasks match the filters") {
		t.Fatalf("expected query summary:\n%s", out)
	}

	if _, err := run(t, "view", "category", "--priority", "critical"); err == nil {
		t.Fatal("expected unknown priority to fail")
	}
	if _, err := run(t, "view", "agenda"); err == nil {
		t.Fatal("expected unknown view to fail")
	}
}

func TestCalendarView(t *testing.T) {
	newTestAPI(t)
	mustRun(t, "add", "Launch", "--due", "2031-03-14")

	out := mustRun(t, "view", "calendar", "--day", "2031-03-14")
	for _, want := range []string{"March 2031", "Launch", "Friday, March 14"} {
		if !strings.Contains(out, want) {
			t.Fatalf("calendar output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "view", "calendar", "--month", "2031-04")
	if !strings.Contains(out, "April 2031") {
		t.Fatalf("expected April grid:\n%s", out)
	}
	if _, err := run(t, "view", "calendar", "--month", "April"); err == nil {
		t.Fatal("expected bad month to fail")
	}
}

func TestProfileCommand(t *testing.T) {
	newTestAPI(t)

	if _, err := run(t, "profile"); err == nil {
		t.Fatal("expected missing profile to fail")
	}
	out := mustRun(t, "profile", "--name", "Ada", "--avatar", "https://example.test/ada.png")
	if !strings.Contains(out, "Ada") {
		t.Fatalf("unexpected output: %s", out)
	}
	out = mustRun(t, "profile")
	if !strings.Contains(out, "Ada") || !strings.Contains(out, "ada.png") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestMissingUserID(t *testing.T) {
	newTestAPI(t)
	t.Setenv("FOCUSFLOW_USER_ID", "")
	if _, err := run(t, "view"); err == nil || !strings.Contains(err.Error(), "no user id") {
		t.Fatalf("expected missing user error, got %v", err)
	}
}

func TestParseDue(t *testing.T) {
	due, err := parseDue("2024-05-20", "", time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if want := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC); !due.Equal(want) {
		t.Fatalf("got %v, want %v", due, want)
	}

	if due, err := parseDue("None", "", time.UTC); err != nil || due != nil {
		t.Fatalf("none should clear: %v %v", due, err)
	}
	if _, err := parseDue("20/05/2024", "", time.UTC); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := parseDue("2024-05-20", "25:00", time.UTC); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for clock, got %v", err)
	}
}
