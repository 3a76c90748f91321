package server

import (
	"bytes"
	"time"

	"github.com/bytedance/sonic"

	"github.com/23CSBS271/focus-flow/domain"
)

// taskDoc is a task as served over HTTP, keyed by _id.
type taskDoc struct {
	ID          string     `json:"_id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func newTaskDoc(userID string, t domain.Task) taskDoc {
	return taskDoc{
		ID:          t.ID,
		UserID:      userID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Category:    t.Category,
		DueDate:     t.DueDate,
		Tags:        t.Tags,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type tasksResponse struct {
	Tasks []taskDoc `json:"tasks"`
}

type taskResponse struct {
	Task taskDoc `json:"task"`
}

type profileDoc struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type profileResponse struct {
	User profileDoc `json:"user"`
}

type createTaskRequest struct {
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
}

func (r createTaskRequest) input() domain.TaskInput {
	return domain.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    domain.Priority(r.Priority),
		Status:      domain.Status(r.Status),
		Category:    r.Category,
		DueDate:     r.DueDate,
		Tags:        r.Tags,
	}
}

// optionalTime distinguishes an absent dueDate from an explicit null.
type optionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *optionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := sonic.ConfigStd.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

type updateTaskRequest struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Priority    *string      `json:"priority"`
	Status      *string      `json:"status"`
	Category    *string      `json:"category"`
	DueDate     optionalTime `json:"dueDate"`
	Tags        *[]string    `json:"tags"`
}

func (r updateTaskRequest) patch() domain.TaskPatch {
	p := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Tags:        r.Tags,
	}
	if r.Priority != nil {
		v := domain.Priority(*r.Priority)
		p.Priority = &v
	}
	if r.Status != nil {
		v := domain.Status(*r.Status)
		p.Status = &v
	}
	if r.DueDate.Set {
		if r.DueDate.Value == nil {
			p.ClearDueDate = true
		} else {
			p.DueDate = r.DueDate.Value
		}
	}
	return p
}

type deleteTaskRequest struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
}

type updateProfileRequest struct {
	UserID string  `json:"userId"`
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}
