// Package filter reduces a task list by search query, status and priority.
package filter

import (
	"strings"

	"github.com/23CSBS271/focus-flow/domain"
)

// Apply returns the tasks matching query, statuses and priorities, in input
// order. The query is a case-insensitive substring match used as given; an
// empty query or empty set matches everything. The input slice is never
// modified.
func Apply(tasks []domain.Task, query string, statuses []domain.Status, priorities []domain.Priority) []domain.Task {
	q := strings.ToLower(query)
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if !matchesQuery(t, q) {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, t.Status) {
			continue
		}
		if len(priorities) > 0 && !containsPriority(priorities, t.Priority) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesQuery(t domain.Task, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

func containsStatus(set []domain.Status, s domain.Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func containsPriority(set []domain.Priority, p domain.Priority) bool {
	for _, v := range set {
		if v == p {
			return true
		}
	}
	return false
}
