package server

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const createKeyPrefix = "focusflow:tasks:create:"

// TaskCreateKeys remembers the Idempotency-Key of each POST /tasks request in
// Redis, shared by every API instance. A key is reserved before the insert and
// bound to the new task id afterwards so a replay can name the task it made.
type TaskCreateKeys struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTaskCreateKeys(client *redis.Client, ttl time.Duration) *TaskCreateKeys {
	return &TaskCreateKeys{client: client, ttl: ttl}
}

func createKey(userID, key string) string {
	return createKeyPrefix + userID + ":" + key
}

// Reserve claims key for userID. When the key was already claimed it returns
// reserved=false and the task id bound to it, which is empty while the first
// request is still in flight.
func (k *TaskCreateKeys) Reserve(ctx context.Context, userID, key string) (string, bool, error) {
	rk := createKey(userID, key)
	ok, err := k.client.SetNX(ctx, rk, "", k.ttl).Result()
	if err != nil || ok {
		return "", ok, err
	}
	taskID, err := k.client.Get(ctx, rk).Result()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls
		return "", false, nil
	}
	return taskID, false, err
}

// Bind records the task created under key, keeping the reservation's TTL.
func (k *TaskCreateKeys) Bind(ctx context.Context, userID, key, taskID string) error {
	return k.client.Set(ctx, createKey(userID, key), taskID, redis.KeepTTL).Err()
}

// Release drops a reservation after a failed insert so the client may retry.
func (k *TaskCreateKeys) Release(ctx context.Context, userID, key string) error {
	return k.client.Del(ctx, createKey(userID, key)).Err()
}
