package remote

import (
	"time"

	"github.com/23CSBS271/focus-flow/domain"
)

// wireTask is the task document as the API serialises it. Ids arrive as _id;
// id is accepted as a fallback.
type wireTask struct {
	ID          string     `json:"_id,omitempty"`
	AltID       string     `json:"id,omitempty"`
	UserID      string     `json:"userId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func (w wireTask) toDomain() domain.Task {
	t := domain.Task{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Priority:    domain.Priority(w.Priority),
		Status:      domain.Status(w.Status),
		Category:    w.Category,
		DueDate:     w.DueDate,
		Tags:        w.Tags,
	}
	if t.ID == "" {
		t.ID = w.AltID
	}
	if w.CreatedAt != nil {
		t.CreatedAt = *w.CreatedAt
	}
	if w.UpdatedAt != nil {
		t.UpdatedAt = *w.UpdatedAt
	}
	return t
}

type tasksEnvelope struct {
	Tasks []wireTask `json:"tasks"`
}

type taskEnvelope struct {
	Task wireTask `json:"task"`
}

type createRequest struct {
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

func newCreateRequest(userID string, in domain.TaskInput) createRequest {
	return createRequest{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    string(in.Priority),
		Status:      string(in.Status),
		Category:    in.Category,
		DueDate:     in.DueDate,
		Tags:        in.Tags,
	}
}

// updateBody renders a patch as a PUT body. Only set fields are sent and a
// cleared due date is sent as null.
func updateBody(userID, id string, p domain.TaskPatch) map[string]any {
	body := map[string]any{"id": id, "userId": userID}
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.Priority != nil {
		body["priority"] = string(*p.Priority)
	}
	if p.Status != nil {
		body["status"] = string(*p.Status)
	}
	if p.Category != nil {
		body["category"] = *p.Category
	}
	if p.DueDate != nil {
		body["dueDate"] = p.DueDate.Format(time.RFC3339Nano)
	}
	if p.ClearDueDate {
		body["dueDate"] = nil
	}
	if p.Tags != nil {
		body["tags"] = domain.NormalizeTags(*p.Tags)
	}
	return body
}

type deleteRequest struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
}

type wireProfile struct {
	ID        string     `json:"_id,omitempty"`
	AltID     string     `json:"id,omitempty"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	Avatar    string     `json:"avatar,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func (w wireProfile) toDomain() domain.UserProfile {
	p := domain.UserProfile{ID: w.ID, Name: w.Name, Email: w.Email, Avatar: w.Avatar}
	if p.ID == "" {
		p.ID = w.AltID
	}
	if w.UpdatedAt != nil {
		p.UpdatedAt = *w.UpdatedAt
	}
	return p
}

type profileEnvelope struct {
	User wireProfile `json:"user"`
}

type profileUpdateRequest struct {
	UserID string  `json:"userId"`
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}
