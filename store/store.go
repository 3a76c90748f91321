// Package store holds the canonical task list and the coordinator that is
// its only writer.
package store

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/23CSBS271/focus-flow/domain"
)

// Fetcher loads a user's task list from the remote API.
type Fetcher interface {
	FetchTasks(ctx context.Context, userID string) ([]domain.Task, error)
}

// Store is the canonical in-memory task list. Reads return copies; writes are
// unexported and performed by the Coordinator once the remote API confirms.
type Store struct {
	mu      sync.RWMutex
	tasks   []domain.Task
	userID  string
	fetcher Fetcher
	log     *log.Logger
}

func New(fetcher Fetcher, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{fetcher: fetcher, log: logger}
}

// Load replaces the list with the user's tasks. On failure the previous list
// is kept and the fetch error is returned.
func (s *Store) Load(ctx context.Context, userID string) ([]domain.Task, error) {
	tasks, err := s.fetcher.FetchTasks(ctx, userID)
	if err != nil {
		s.log.WithFields(log.Fields{"userId": userID}).WithError(err).Warn("task load failed; keeping previous list")
		return nil, err
	}
	copied := cloneAll(tasks)

	s.mu.Lock()
	s.tasks = copied
	s.userID = userID
	s.mu.Unlock()

	s.log.WithFields(log.Fields{"userId": userID, "tasks": len(copied)}).Debug("tasks loaded")
	return cloneAll(copied), nil
}

// All returns a snapshot of the list in display order.
func (s *Store) All() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.tasks)
}

// Get returns a copy of the task with id.
func (s *Store) Get(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return domain.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// UserID is the user whose tasks were last loaded.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) append(t domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t.Clone())
}

// replace rewrites the task with id using fn applied to its current value.
// It returns false when the id is no longer present.
func (s *Store) replace(id string, fn func(domain.Task) domain.Task) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return domain.Task{}, false
	}
	updated := fn(s.tasks[i].Clone())
	s.tasks[i] = updated
	return updated.Clone(), true
}

func (s *Store) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	return true
}

func cloneAll(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
