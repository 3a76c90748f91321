package domain

import (
	"strings"
	"time"
)

// Status is the workflow state of a task. It drives the kanban columns.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in board order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Priority is a display emphasis level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	return p.Rank() >= 0
}

// Rank orders priorities low < medium < high < urgent. Unknown values rank -1.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	default:
		return -1
	}
}

// Known task categories. Category values are open-ended on the wire.
const (
	CategoryPersonal = "personal"
	CategoryWork     = "work"
	CategoryHealth   = "health"
	CategoryShopping = "shopping"
	CategoryOther    = "other"
)

// Categories lists the known categories in display order.
var Categories = []string{CategoryPersonal, CategoryWork, CategoryHealth, CategoryShopping, CategoryOther}

// NormalizeCategory maps unknown or empty categories to CategoryOther.
func NormalizeCategory(c string) string {
	switch c {
	case CategoryPersonal, CategoryWork, CategoryHealth, CategoryShopping:
		return c
	default:
		return CategoryOther
	}
}

// Task is a single item in a user's task list.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Completed reports whether the task is in the completed status.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// Clone returns a copy that shares no memory with t.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	return c
}

// TaskInput carries the fields accepted when creating a task.
type TaskInput struct {
	Title       string
	Description string
	Priority    Priority
	Status      Status
	Category    string
	DueDate     *time.Time
	Tags        []string
}

// Normalize trims text fields and applies defaults for omitted enums.
func (in TaskInput) Normalize() TaskInput {
	out := in
	out.Title = strings.TrimSpace(in.Title)
	out.Description = strings.TrimSpace(in.Description)
	if out.Priority == "" {
		out.Priority = PriorityMedium
	}
	if out.Status == "" {
		out.Status = StatusTodo
	}
	if strings.TrimSpace(out.Category) == "" {
		out.Category = CategoryPersonal
	}
	out.Tags = NormalizeTags(in.Tags)
	return out
}

// Validate checks the input before it is sent anywhere.
func (in TaskInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: "unknown value " + string(in.Priority)}
	}
	if in.Status != "" && !in.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown value " + string(in.Status)}
	}
	return nil
}

// TaskPatch carries partial updates for a task. Nil fields are left unchanged.
type TaskPatch struct {
	Title        *string
	Description  *string
	Priority     *Priority
	Status       *Status
	Category     *string
	DueDate      *time.Time
	ClearDueDate bool
	Tags         *[]string
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Status == nil &&
		p.Category == nil && p.DueDate == nil && !p.ClearDueDate && p.Tags == nil
}

func (p TaskPatch) Validate() error {
	if p.Empty() {
		return &ValidationError{Field: "patch", Reason: "has no fields"}
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: "unknown value " + string(*p.Priority)}
	}
	if p.Status != nil && !p.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown value " + string(*p.Status)}
	}
	if p.DueDate != nil && p.ClearDueDate {
		return &ValidationError{Field: "dueDate", Reason: "cannot be set and cleared together"}
	}
	return nil
}

// Apply returns a copy of t with the patch fields merged in. UpdatedAt is not touched.
func (p TaskPatch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.DueDate != nil {
		d := *p.DueDate
		out.DueDate = &d
	}
	if p.ClearDueDate {
		out.DueDate = nil
	}
	if p.Tags != nil {
		out.Tags = NormalizeTags(*p.Tags)
	}
	return out
}

// StatusPatch builds a patch that only changes the status.
func StatusPatch(s Status) TaskPatch {
	return TaskPatch{Status: &s}
}

// DueDatePatch builds a patch that only changes the due date. A nil date clears it.
func DueDatePatch(d *time.Time) TaskPatch {
	if d == nil {
		return TaskPatch{ClearDueDate: true}
	}
	v := *d
	return TaskPatch{DueDate: &v}
}

// NormalizeTags trims labels and drops blanks and duplicates, keeping first occurrence order.
func NormalizeTags(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
