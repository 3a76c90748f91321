package server

import (
	"context"
	"time"

	"github.com/23CSBS271/focus-flow/domain"
)

// Storage abstracts task and profile persistence for handlers.
// *storage.Memory and *storage.Tables satisfy it.
type Storage interface {
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	InsertTask(ctx context.Context, userID string, t domain.Task) error
	UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch, at time.Time) (domain.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error
	GetProfile(ctx context.Context, userID string) (domain.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch, at time.Time) (domain.UserProfile, error)
}

// Authenticator is implemented by types able to verify a bearer token.
type Authenticator interface {
	UserIDFromBearer(token string) (string, error)
}

// Deduper tracks Idempotency-Key values of create requests.
// *TaskCreateKeys satisfies it.
type Deduper interface {
	// Reserve claims key. When it was already claimed, reserved is false and
	// taskID names the task the first request created, if known.
	Reserve(ctx context.Context, userID, key string) (taskID string, reserved bool, err error)
	// Bind records the task created under key.
	Bind(ctx context.Context, userID, key, taskID string) error
	// Release drops a reservation after a failed insert.
	Release(ctx context.Context, userID, key string) error
}

// duplicateResponse is the 409 body for a replayed create.
type duplicateResponse struct {
	Error  string `json:"error"`
	TaskID string `json:"taskId,omitempty"`
}

// Publisher delivers task events downstream. *storage.QueuePublisher
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}
