// Package views partitions a filtered task list into the buckets rendered by
// each dashboard view. Every projection takes the reference time explicitly
// and never reads the wall clock.
package views

import (
	"time"

	"github.com/23CSBS271/focus-flow/domain"
)

// startOfDay returns midnight of t's calendar day in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// startOfWeek returns midnight of the first day of t's week.
func startOfWeek(t time.Time, weekStart time.Weekday, loc *time.Location) time.Time {
	day := startOfDay(t, loc)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time, loc *time.Location) time.Time {
	y, m, _ := t.In(loc).Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, loc)
}

// dueDay reports the calendar day a task is due on, in loc.
func dueDay(t domain.Task, loc *time.Location) (time.Time, bool) {
	if t.DueDate == nil {
		return time.Time{}, false
	}
	return startOfDay(*t.DueDate, loc), true
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// isOverdue reports whether an open task's due day is before today.
func isOverdue(t domain.Task, today time.Time) bool {
	if t.Completed() {
		return false
	}
	day, ok := dueDay(t, today.Location())
	return ok && day.Before(today)
}

// preview splits tasks into the first limit entries and the overflow count.
func preview(tasks []domain.Task, limit int) ([]domain.Task, int) {
	if limit < 0 || len(tasks) <= limit {
		return tasks, 0
	}
	return tasks[:limit:limit], len(tasks) - limit
}

// dayKey identifies a calendar day independent of location pointers.
func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// tasksOnDays groups tasks by due day. Unscheduled tasks are skipped.
func tasksOnDays(tasks []domain.Task, loc *time.Location) map[int][]domain.Task {
	out := make(map[int][]domain.Task)
	for _, t := range tasks {
		day, ok := dueDay(t, loc)
		if !ok {
			continue
		}
		k := dayKey(day)
		out[k] = append(out[k], t)
	}
	return out
}
