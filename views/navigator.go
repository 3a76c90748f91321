package views

import (
	"time"

	"github.com/23CSBS271/focus-flow/domain"
)

// Calendar is the navigation state of the calendar view: the displayed month
// and an optional selected day.
type Calendar struct {
	month    time.Time
	selected *time.Time
	opts     GridOptions
}

// NewCalendar opens the calendar on the month containing now.
func NewCalendar(now time.Time, opts GridOptions) *Calendar {
	return &Calendar{month: startOfMonth(now, now.Location()), opts: opts}
}

// Month returns the first day of the displayed month.
func (c *Calendar) Month() time.Time { return c.month }

// Selected returns the selected day, if any.
func (c *Calendar) Selected() (time.Time, bool) {
	if c.selected == nil {
		return time.Time{}, false
	}
	return *c.selected, true
}

func (c *Calendar) Next() { c.month = c.month.AddDate(0, 1, 0) }

func (c *Calendar) Prev() { c.month = c.month.AddDate(0, -1, 0) }

// Today jumps to the month containing now and selects today.
func (c *Calendar) Today(now time.Time) {
	loc := c.month.Location()
	c.month = startOfMonth(now, loc)
	day := startOfDay(now, loc)
	c.selected = &day
}

// Select marks day as selected without changing the displayed month.
func (c *Calendar) Select(day time.Time) {
	d := startOfDay(day, c.month.Location())
	c.selected = &d
}

// ClearSelection drops the selected day.
func (c *Calendar) ClearSelection() { c.selected = nil }

// Grid renders the displayed month.
func (c *Calendar) Grid(tasks []domain.Task, now time.Time) MonthGrid {
	return Month(tasks, c.month, now, c.opts)
}

// SelectedTasks returns the tasks due on the selected day, in input order.
func (c *Calendar) SelectedTasks(tasks []domain.Task) []domain.Task {
	if c.selected == nil {
		return nil
	}
	return tasksOnDays(tasks, c.month.Location())[dayKey(*c.selected)]
}
