package filter

import (
	"strings"

	"github.com/23CSBS271/focus-flow/domain"
)

// State is the dashboard's ephemeral filter selection. The zero value
// matches every task.
type State struct {
	Query      string
	Statuses   []domain.Status
	Priorities []domain.Priority
}

// Apply filters tasks with the current selection.
func (s State) Apply(tasks []domain.Task) []domain.Task {
	return Apply(tasks, s.Query, s.Statuses, s.Priorities)
}

func (s *State) SetQuery(q string) {
	s.Query = strings.TrimSpace(q)
}

// ToggleStatus adds status to the selection, or removes it when already selected.
func (s *State) ToggleStatus(status domain.Status) {
	for i, v := range s.Statuses {
		if v == status {
			s.Statuses = append(s.Statuses[:i:i], s.Statuses[i+1:]...)
			return
		}
	}
	s.Statuses = append(s.Statuses, status)
}

// TogglePriority adds priority to the selection, or removes it when already selected.
func (s *State) TogglePriority(priority domain.Priority) {
	for i, v := range s.Priorities {
		if v == priority {
			s.Priorities = append(s.Priorities[:i:i], s.Priorities[i+1:]...)
			return
		}
	}
	s.Priorities = append(s.Priorities, priority)
}

// Clear drops the status and priority selections. The search query is kept.
func (s *State) Clear() {
	s.Statuses = nil
	s.Priorities = nil
}

// ActiveCount is the number of selected statuses and priorities.
func (s State) ActiveCount() int {
	return len(s.Statuses) + len(s.Priorities)
}
