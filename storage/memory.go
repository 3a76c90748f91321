package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/23CSBS271/focus-flow/domain"
)

// ErrProfileNotFound is returned when a user has no stored profile.
var ErrProfileNotFound = errors.New("profile not found")

// Memory is an in-process task repository used for local runs and tests.
// Tasks are listed in insertion order.
type Memory struct {
	mu       sync.RWMutex
	tasks    map[string][]domain.Task
	profiles map[string]domain.UserProfile
}

func NewMemory() *Memory {
	return &Memory{
		tasks:    make(map[string][]domain.Task),
		profiles: make(map[string]domain.UserProfile),
	}
}

func (m *Memory) ListTasks(_ context.Context, userID string) ([]domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.tasks[userID]
	out := make([]domain.Task, len(list))
	for i, t := range list {
		out[i] = t.Clone()
	}
	return out, nil
}

func (m *Memory) InsertTask(_ context.Context, userID string, t domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tasks[userID] {
		if existing.ID == t.ID {
			return errors.New("task " + t.ID + " already exists")
		}
	}
	m.tasks[userID] = append(m.tasks[userID], t.Clone())
	return nil
}

func (m *Memory) UpdateTask(_ context.Context, userID, id string, patch domain.TaskPatch, at time.Time) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.tasks[userID]
	for i := range list {
		if list[i].ID != id {
			continue
		}
		next := patch.Apply(list[i])
		next.UpdatedAt = at
		list[i] = next
		return next.Clone(), nil
	}
	return domain.Task{}, &domain.NotFoundError{ID: id}
}

func (m *Memory) DeleteTask(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.tasks[userID]
	for i := range list {
		if list[i].ID == id {
			m.tasks[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return &domain.NotFoundError{ID: id}
}

func (m *Memory) GetProfile(_ context.Context, userID string) (domain.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return domain.UserProfile{}, ErrProfileNotFound
	}
	return p, nil
}

// UpdateProfile applies patch, creating the profile when it does not exist.
func (m *Memory) UpdateProfile(_ context.Context, userID string, patch domain.ProfilePatch, at time.Time) (domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		p = domain.UserProfile{ID: userID}
	}
	p = applyProfilePatch(p, patch)
	p.UpdatedAt = at
	m.profiles[userID] = p
	return p, nil
}

// PutProfile stores p as is. It seeds profiles for local runs.
func (m *Memory) PutProfile(p domain.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
}

func applyProfilePatch(p domain.UserProfile, patch domain.ProfilePatch) domain.UserProfile {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Avatar != nil {
		p.Avatar = *patch.Avatar
	}
	return p
}
