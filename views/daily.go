package views

import (
	"time"

	"github.com/23CSBS271/focus-flow/domain"
)

// BucketKey identifies a section of the daily agenda.
type BucketKey string

const (
	BucketOverdue   BucketKey = "overdue"
	BucketToday     BucketKey = "today"
	BucketTomorrow  BucketKey = "tomorrow"
	BucketThisWeek  BucketKey = "this-week"
	BucketThisMonth BucketKey = "this-month"
	BucketUpcoming  BucketKey = "upcoming"
	BucketEarlier   BucketKey = "earlier"
	BucketNoDueDate BucketKey = "no-due-date"
)

// DailyBuckets lists the agenda sections in display order. A task lands in
// the first section that matches.
var DailyBuckets = []BucketKey{
	BucketOverdue,
	BucketToday,
	BucketTomorrow,
	BucketThisWeek,
	BucketThisMonth,
	BucketUpcoming,
	BucketEarlier,
	BucketNoDueDate,
}

var bucketTitles = map[BucketKey]string{
	BucketOverdue:   "Overdue",
	BucketToday:     "Today",
	BucketTomorrow:  "Tomorrow",
	BucketThisWeek:  "This Week",
	BucketThisMonth: "This Month",
	BucketUpcoming:  "Upcoming",
	BucketEarlier:   "Earlier",
	BucketNoDueDate: "No Due Date",
}

// Bucket is a titled, ordered group of tasks.
type Bucket struct {
	Key   BucketKey
	Title string
	Tasks []domain.Task
}

// StatusCounts tallies tasks per status.
type StatusCounts struct {
	Todo       int
	InProgress int
	Completed  int
}

func countStatuses(tasks []domain.Task) StatusCounts {
	var c StatusCounts
	for _, t := range tasks {
		switch t.Status {
		case domain.StatusCompleted:
			c.Completed++
		case domain.StatusInProgress:
			c.InProgress++
		default:
			c.Todo++
		}
	}
	return c
}

type DailyOptions struct {
	// WeekStart decides the This Week section. The zero value is Sunday.
	WeekStart time.Weekday
	// HideCompletedPast drops completed tasks dated before today instead of
	// filing them under This Week, This Month or Earlier.
	HideCompletedPast bool
}

// DailyView is the agenda projection. Buckets always holds every section in
// DailyBuckets order, including empty ones.
type DailyView struct {
	Buckets []Bucket
	Counts  StatusCounts
}

// Bucket returns the section with the given key.
func (v DailyView) Bucket(key BucketKey) Bucket {
	for _, b := range v.Buckets {
		if b.Key == key {
			return b
		}
	}
	return Bucket{Key: key, Title: bucketTitles[key]}
}

// NonEmpty returns only the sections that hold tasks.
func (v DailyView) NonEmpty() []Bucket {
	out := make([]Bucket, 0, len(v.Buckets))
	for _, b := range v.Buckets {
		if len(b.Tasks) > 0 {
			out = append(out, b)
		}
	}
	return out
}

// Daily files each task into exactly one agenda section relative to now.
// Dates are compared by calendar day in now's location.
func Daily(tasks []domain.Task, now time.Time, opts DailyOptions) DailyView {
	loc := now.Location()
	today := startOfDay(now, loc)
	tomorrow := today.AddDate(0, 0, 1)
	week := startOfWeek(today, opts.WeekStart, loc)

	grouped := make(map[BucketKey][]domain.Task, len(DailyBuckets))
	for _, t := range tasks {
		key, ok := classifyDaily(t, today, tomorrow, week, opts)
		if !ok {
			continue
		}
		grouped[key] = append(grouped[key], t)
	}

	view := DailyView{
		Buckets: make([]Bucket, 0, len(DailyBuckets)),
		Counts:  countStatuses(tasks),
	}
	for _, key := range DailyBuckets {
		view.Buckets = append(view.Buckets, Bucket{Key: key, Title: bucketTitles[key], Tasks: grouped[key]})
	}
	return view
}

func classifyDaily(t domain.Task, today, tomorrow, week time.Time, opts DailyOptions) (BucketKey, bool) {
	day, ok := dueDay(t, today.Location())
	if !ok {
		return BucketNoDueDate, true
	}
	if day.Before(today) {
		if !t.Completed() {
			return BucketOverdue, true
		}
		if opts.HideCompletedPast {
			return "", false
		}
	}
	switch {
	case day.Equal(today):
		return BucketToday, true
	case day.Equal(tomorrow):
		return BucketTomorrow, true
	case startOfWeek(day, opts.WeekStart, today.Location()).Equal(week):
		return BucketThisWeek, true
	case sameMonth(day, today):
		return BucketThisMonth, true
	case day.After(today):
		return BucketUpcoming, true
	default:
		return BucketEarlier, true
	}
}
