package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/23CSBS271/focus-flow/domain"
)

// backend is the remote task API as seen by the cache. *remote.Client
// satisfies it.
type backend interface {
	FetchTasks(ctx context.Context, userID string) ([]domain.Task, error)
	CreateTask(ctx context.Context, userID string, in domain.TaskInput) (domain.Task, error)
	UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error
	FetchProfile(ctx context.Context, userID string) (domain.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (domain.UserProfile, error)
}

// Cache keeps a Redis snapshot of each user's task list and profile in front
// of the remote API. Reads are served from the snapshot when present and any
// confirmed write evicts it.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache wraps base. A nil client or zero TTL disables caching.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) FetchTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	var tasks []domain.Task
	if c.load(ctx, tasksCacheKey(userID), &tasks) {
		return tasks, nil
	}
	tasks, err := c.base.FetchTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, tasksCacheKey(userID), tasks)
	return tasks, nil
}

func (c *Cache) CreateTask(ctx context.Context, userID string, in domain.TaskInput) (domain.Task, error) {
	t, err := c.base.CreateTask(ctx, userID, in)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, tasksCacheKey(userID))
	return t, nil
}

func (c *Cache) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) (domain.Task, error) {
	t, err := c.base.UpdateTask(ctx, userID, id, patch)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, tasksCacheKey(userID))
	return t, nil
}

func (c *Cache) DeleteTask(ctx context.Context, userID, id string) error {
	if err := c.base.DeleteTask(ctx, userID, id); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(userID))
	return nil
}

func (c *Cache) FetchProfile(ctx context.Context, userID string) (domain.UserProfile, error) {
	var p domain.UserProfile
	if c.load(ctx, profileCacheKey(userID), &p) {
		return p, nil
	}
	p, err := c.base.FetchProfile(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	c.store(ctx, profileCacheKey(userID), p)
	return p, nil
}

func (c *Cache) UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (domain.UserProfile, error) {
	p, err := c.base.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return domain.UserProfile{}, err
	}
	c.evict(ctx, profileCacheKey(userID))
	return p, nil
}

// Invalidate drops every snapshot of userID.
func (c *Cache) Invalidate(ctx context.Context, userID string) {
	c.evict(ctx, tasksCacheKey(userID), profileCacheKey(userID))
}

func (c *Cache) load(ctx context.Context, key string, out any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the API without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

func tasksCacheKey(userID string) string {
	return "focusflow:tasks:" + userID
}

func profileCacheKey(userID string) string {
	return "focusflow:profile:" + userID
}
