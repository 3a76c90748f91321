package views

import (
	"math"
	"time"

	"github.com/23CSBS271/focus-flow/domain"
)

const defaultWeeklyPreview = 3

type WeeklyOptions struct {
	WeekStart    time.Weekday
	PreviewLimit int
}

// DefaultWeeklyOptions starts weeks on Monday and previews three tasks per day.
func DefaultWeeklyOptions() WeeklyOptions {
	return WeeklyOptions{WeekStart: time.Monday, PreviewLimit: defaultWeeklyPreview}
}

// DaySlot is one column of the weekly overview.
type DaySlot struct {
	Date    time.Time
	IsToday bool
	Tasks   []domain.Task
	Preview []domain.Task
	More    int
}

// WeeklyView summarises the week containing now.
type WeeklyView struct {
	Start time.Time
	End   time.Time
	Days  []DaySlot
	// Tasks are the tasks due within the week, in input order.
	Tasks          []domain.Task
	Total          int
	Completed      int
	CompletionRate int
	// ByPriority and ByStatus count the whole input, not just the week.
	ByPriority map[domain.Priority]int
	ByStatus   map[domain.Status]int
}

// Weekly projects tasks onto the seven days of now's week.
func Weekly(tasks []domain.Task, now time.Time, opts WeeklyOptions) WeeklyView {
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = defaultWeeklyPreview
	}
	loc := now.Location()
	today := startOfDay(now, loc)
	start := startOfWeek(today, opts.WeekStart, loc)
	end := start.AddDate(0, 0, 7)

	byDay := tasksOnDays(tasks, loc)
	view := WeeklyView{
		Start:      start,
		End:        end.Add(-time.Nanosecond),
		Days:       make([]DaySlot, 0, 7),
		ByPriority: make(map[domain.Priority]int, len(domain.Priorities)),
		ByStatus:   make(map[domain.Status]int, len(domain.Statuses)),
	}
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		dayTasks := byDay[dayKey(day)]
		shown, more := preview(dayTasks, opts.PreviewLimit)
		view.Days = append(view.Days, DaySlot{
			Date:    day,
			IsToday: day.Equal(today),
			Tasks:   dayTasks,
			Preview: shown,
			More:    more,
		})
	}

	for _, t := range tasks {
		view.ByPriority[t.Priority]++
		view.ByStatus[t.Status]++
		day, ok := dueDay(t, loc)
		if !ok || day.Before(start) || !day.Before(end) {
			continue
		}
		view.Tasks = append(view.Tasks, t)
		view.Total++
		if t.Completed() {
			view.Completed++
		}
	}
	view.CompletionRate = completionRate(view.Completed, view.Total)
	return view
}

// completionRate is completed/total as a rounded percentage, 0 when total is 0.
func completionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
