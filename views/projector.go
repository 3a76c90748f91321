package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/23CSBS271/focus-flow/domain"
)

// Mode names a dashboard view.
type Mode string

const (
	ModeDaily    Mode = "daily"
	ModeWeekly   Mode = "weekly"
	ModeMonthly  Mode = "monthly"
	ModeKanban   Mode = "kanban"
	ModeCalendar Mode = "calendar"
	ModeCategory Mode = "category"
)

// Modes lists every view mode.
var Modes = []Mode{ModeDaily, ModeWeekly, ModeMonthly, ModeKanban, ModeCalendar, ModeCategory}

// ParseMode resolves a mode name, ignoring case and surrounding spaces.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

// Projector carries the per-view options and dispatches by mode.
type Projector struct {
	Daily    DailyOptions
	Weekly   WeeklyOptions
	Calendar GridOptions
}

// DefaultProjector uses Sunday weeks for the agenda and grids and Monday
// weeks for the weekly overview.
func DefaultProjector() Projector {
	return Projector{
		Daily:    DailyOptions{WeekStart: time.Sunday},
		Weekly:   DefaultWeeklyOptions(),
		Calendar: GridOptions{WeekStart: time.Sunday, PerCell: defaultPerCell},
	}
}

// Project returns the view value for mode: DailyView, WeeklyView, MonthGrid
// (monthly and calendar), Board or []CategoryGroup.
func (p Projector) Project(mode Mode, tasks []domain.Task, now time.Time) (any, error) {
	switch mode {
	case ModeDaily:
		return Daily(tasks, now, p.Daily), nil
	case ModeWeekly:
		return Weekly(tasks, now, p.Weekly), nil
	case ModeMonthly, ModeCalendar:
		return Month(tasks, now, now, p.Calendar), nil
	case ModeKanban:
		return Kanban(tasks), nil
	case ModeCategory:
		return ByCategory(tasks), nil
	default:
		return nil, fmt.Errorf("unknown view mode %q", mode)
	}
}
