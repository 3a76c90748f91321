package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/23CSBS271/focus-flow/domain"
)

const maxUpdateAttempts = 5

// Tables persists tasks and profiles in Azure Table Storage. Tasks are
// partitioned by user id and keyed by task id; a profile lives at
// (userID, userID).
type Tables struct {
	taskTable    *aztables.Client
	profileTable *aztables.Client
}

// NewTables connects to the tables named tasksTable and profilesTable.
func NewTables(connStr, tasksTable, profilesTable string) (*Tables, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Tables{taskTable: svc.NewClient(tasksTable), profileTable: svc.NewClient(profilesTable)}, nil
}

type entityKeys struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

// taskEntity is the table row of a task. Times are stored as RFC 3339
// strings and tags as a JSON array string.
type taskEntity struct {
	entityKeys
	Title       string `json:"Title"`
	Description string `json:"Description,omitempty"`
	Priority    string `json:"Priority"`
	Status      string `json:"Status"`
	Category    string `json:"Category"`
	DueDate     string `json:"DueDate,omitempty"`
	Tags        string `json:"Tags,omitempty"`
	CreatedAt   string `json:"CreatedAt"`
	UpdatedAt   string `json:"UpdatedAt"`
}

func toTaskEntity(userID string, t domain.Task) (taskEntity, error) {
	ent := taskEntity{
		entityKeys:  entityKeys{PartitionKey: userID, RowKey: t.ID},
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Category:    t.Category,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
	if t.DueDate != nil {
		ent.DueDate = formatTime(*t.DueDate)
	}
	if len(t.Tags) > 0 {
		tags, err := json.Marshal(t.Tags)
		if err != nil {
			return taskEntity{}, err
		}
		ent.Tags = string(tags)
	}
	return ent, nil
}

func (e taskEntity) toDomain() (domain.Task, error) {
	t := domain.Task{
		ID:          e.RowKey,
		Title:       e.Title,
		Description: e.Description,
		Priority:    domain.Priority(e.Priority),
		Status:      domain.Status(e.Status),
		Category:    e.Category,
	}
	var err error
	if t.CreatedAt, err = parseTime(e.CreatedAt); err != nil {
		return domain.Task{}, fmt.Errorf("task %s createdAt: %w", e.RowKey, err)
	}
	if t.UpdatedAt, err = parseTime(e.UpdatedAt); err != nil {
		return domain.Task{}, fmt.Errorf("task %s updatedAt: %w", e.RowKey, err)
	}
	if e.DueDate != "" {
		due, err := parseTime(e.DueDate)
		if err != nil {
			return domain.Task{}, fmt.Errorf("task %s dueDate: %w", e.RowKey, err)
		}
		t.DueDate = &due
	}
	if e.Tags != "" {
		if err := json.Unmarshal([]byte(e.Tags), &t.Tags); err != nil {
			return domain.Task{}, fmt.Errorf("task %s tags: %w", e.RowKey, err)
		}
	}
	return t, nil
}

type profileEntity struct {
	entityKeys
	Name      string `json:"Name,omitempty"`
	Email     string `json:"Email,omitempty"`
	Avatar    string `json:"Avatar,omitempty"`
	UpdatedAt string `json:"UpdatedAt,omitempty"`
}

func (e profileEntity) toDomain() domain.UserProfile {
	p := domain.UserProfile{ID: e.RowKey, Name: e.Name, Email: e.Email, Avatar: e.Avatar}
	p.UpdatedAt, _ = parseTime(e.UpdatedAt)
	return p
}

// ListTasks returns the user's tasks ordered by creation time.
func (s *Tables) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + escapeODataString(userID) + "'"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			t, err := ent.toDomain()
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
	}
	sortByCreation(tasks)
	return tasks, nil
}

func (s *Tables) InsertTask(ctx context.Context, userID string, t domain.Task) error {
	ent, err := toTaskEntity(userID, t)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.taskTable.AddEntity(ctx, payload, nil)
	return err
}

// UpdateTask merges patch into the stored task using optimistic concurrency.
// A conflicting write is retried against the fresh row.
func (s *Tables) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch, at time.Time) (domain.Task, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		cur, etag, err := s.getTask(ctx, userID, id)
		if err != nil {
			return domain.Task{}, err
		}
		next := patch.Apply(cur)
		next.UpdatedAt = at
		err = s.replaceTask(ctx, userID, next, etag)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			return domain.Task{}, err
		}
	}
	return domain.Task{}, fmt.Errorf("update task %s: %w", id, domain.ErrConcurrencyConflict)
}

func (s *Tables) DeleteTask(ctx context.Context, userID, id string) error {
	_, err := s.taskTable.DeleteEntity(ctx, userID, id, nil)
	if isStatus(err, http.StatusNotFound) {
		return &domain.NotFoundError{ID: id}
	}
	return err
}

func (s *Tables) GetProfile(ctx context.Context, userID string) (domain.UserProfile, error) {
	resp, err := s.profileTable.GetEntity(ctx, userID, userID, nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return domain.UserProfile{}, ErrProfileNotFound
		}
		return domain.UserProfile{}, err
	}
	var ent profileEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.UserProfile{}, err
	}
	return ent.toDomain(), nil
}

// UpdateProfile merges the set fields into the profile row, creating it when
// missing.
func (s *Tables) UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch, at time.Time) (domain.UserProfile, error) {
	cur, err := s.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return domain.UserProfile{}, err
	}
	cur.ID = userID
	next := applyProfilePatch(cur, patch)
	next.UpdatedAt = at

	ent := profileEntity{
		entityKeys: entityKeys{PartitionKey: userID, RowKey: userID},
		Name:       next.Name,
		Email:      next.Email,
		Avatar:     next.Avatar,
		UpdatedAt:  formatTime(at),
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if _, err := s.profileTable.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeMerge}); err != nil {
		return domain.UserProfile{}, err
	}
	return next, nil
}

func (s *Tables) getTask(ctx context.Context, userID, id string) (domain.Task, azcore.ETag, error) {
	resp, err := s.taskTable.GetEntity(ctx, userID, id, nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return domain.Task{}, "", &domain.NotFoundError{ID: id}
		}
		return domain.Task{}, "", err
	}
	var ent taskEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Task{}, "", err
	}
	t, err := ent.toDomain()
	return t, resp.ETag, err
}

func (s *Tables) replaceTask(ctx context.Context, userID string, t domain.Task, etag azcore.ETag) error {
	ent, err := toTaskEntity(userID, t)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &etag, UpdateMode: aztables.UpdateModeReplace})
	switch {
	case isStatus(err, http.StatusPreconditionFailed):
		return domain.ErrConcurrencyConflict
	case isStatus(err, http.StatusNotFound):
		return &domain.NotFoundError{ID: t.ID}
	default:
		return err
	}
}

func isStatus(err error, code int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}

func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func sortByCreation(tasks []domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}
