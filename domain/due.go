package domain

import (
	"strconv"
	"strings"
	"time"
)

// DefaultDueClock is the time of day used when a due date is picked without a time.
const DefaultDueClock = "12:00"

// DueAt combines the calendar day of date with an HH:MM clock in date's location.
func DueAt(date time.Time, clock string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = DefaultDueClock
	}
	h, m, ok := strings.Cut(clock, ":")
	if !ok {
		return time.Time{}, &ValidationError{Field: "dueTime", Reason: "expected HH:MM, got " + clock}
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return time.Time{}, &ValidationError{Field: "dueTime", Reason: "invalid hour in " + clock}
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 {
		return time.Time{}, &ValidationError{Field: "dueTime", Reason: "invalid minute in " + clock}
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, hours, minutes, 0, 0, date.Location()), nil
}
