package views

import (
	"time"

	"github.com/23CSBS271/focus-flow/domain"
)

const (
	gridRows       = 6
	defaultPerCell = 2
)

type GridOptions struct {
	// WeekStart is the first column of the grid. The zero value is Sunday.
	WeekStart time.Weekday
	PerCell   int
}

// Cell is one day of a month grid.
type Cell struct {
	Date    time.Time
	InMonth bool
	IsToday bool
	Tasks   []domain.Task
	Preview []domain.Task
	More    int
}

// MonthStats summarises the tasks due in the displayed month.
type MonthStats struct {
	Total      int
	Completed  int
	InProgress int
	// Overdue counts open tasks due before today, regardless of month.
	Overdue int
}

// MonthGrid is a fixed 6x7 calendar page.
type MonthGrid struct {
	Month time.Time
	Weeks [][]Cell
	Stats MonthStats
}

// Cells returns the grid flattened row by row.
func (g MonthGrid) Cells() []Cell {
	out := make([]Cell, 0, gridRows*7)
	for _, w := range g.Weeks {
		out = append(out, w...)
	}
	return out
}

// Month lays out the month containing month as six weeks, beginning on the
// week start on or before the first of the month. now only marks today and
// decides overdue.
func Month(tasks []domain.Task, month, now time.Time, opts GridOptions) MonthGrid {
	if opts.PerCell <= 0 {
		opts.PerCell = defaultPerCell
	}
	loc := now.Location()
	today := startOfDay(now, loc)
	first := startOfMonth(month, loc)
	next := first.AddDate(0, 1, 0)
	gridStart := startOfWeek(first, opts.WeekStart, loc)

	byDay := tasksOnDays(tasks, loc)
	grid := MonthGrid{Month: first, Weeks: make([][]Cell, gridRows)}
	for row := 0; row < gridRows; row++ {
		week := make([]Cell, 7)
		for col := 0; col < 7; col++ {
			day := gridStart.AddDate(0, 0, row*7+col)
			dayTasks := byDay[dayKey(day)]
			shown, more := preview(dayTasks, opts.PerCell)
			week[col] = Cell{
				Date:    day,
				InMonth: sameMonth(day, first),
				IsToday: day.Equal(today),
				Tasks:   dayTasks,
				Preview: shown,
				More:    more,
			}
		}
		grid.Weeks[row] = week
	}
	grid.Stats = monthStats(tasks, first, next, today)
	return grid
}

func monthStats(tasks []domain.Task, first, next, today time.Time) MonthStats {
	var s MonthStats
	for _, t := range tasks {
		if isOverdue(t, today) {
			s.Overdue++
		}
		day, ok := dueDay(t, today.Location())
		if !ok || day.Before(first) || !day.Before(next) {
			continue
		}
		s.Total++
		switch t.Status {
		case domain.StatusCompleted:
			s.Completed++
		case domain.StatusInProgress:
			s.InProgress++
		}
	}
	return s
}
