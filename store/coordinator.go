package store

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/23CSBS271/focus-flow/domain"
)

// ErrClosed is returned by a Coordinator after Close.
var ErrClosed = errors.New("coordinator closed")

// Remote is the task API the coordinator confirms mutations against.
type Remote interface {
	Fetcher
	CreateTask(ctx context.Context, userID string, in domain.TaskInput) (domain.Task, error)
	UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error
}

type Options struct {
	// StrictOrdering serialises mutations that target the same task id.
	// Without it concurrent same-id calls race and the last response wins.
	StrictOrdering bool
	Now            func() time.Time
	Logger         *log.Logger
}

// Coordinator applies mutations to the Store only after the remote API has
// confirmed them. A failed call leaves the list untouched.
type Coordinator struct {
	store  *Store
	remote Remote
	now    func() time.Time
	log    *log.Logger
	locks  *keyLock

	closeMu sync.RWMutex
	closed  bool
}

func NewCoordinator(store *Store, remote Remote, opts Options) *Coordinator {
	c := &Coordinator{
		store:  store,
		remote: remote,
		now:    opts.Now,
		log:    opts.Logger,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = log.StandardLogger()
	}
	if opts.StrictOrdering {
		c.locks = newKeyLock()
	}
	return c
}

// Close stops the coordinator. Responses that arrive afterwards are dropped
// and new calls fail with ErrClosed. Once Close returns no further store
// writes happen.
func (c *Coordinator) Close() {
	c.closeMu.Lock()
	c.closed = true
	c.closeMu.Unlock()
}

func (c *Coordinator) isClosed() bool {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	return c.closed
}

// commit runs write unless the coordinator has been closed.
func (c *Coordinator) commit(write func()) error {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	write()
	return nil
}

func (c *Coordinator) lock(ctx context.Context, id string) (func(), error) {
	if c.locks == nil {
		return func() {}, nil
	}
	return c.locks.Lock(ctx, id)
}

func (c *Coordinator) entry(op, id string) *log.Entry {
	fields := log.Fields{"op": op, "userId": c.store.UserID()}
	if id != "" {
		fields["taskId"] = id
	}
	return c.log.WithFields(fields)
}

// Create validates in, sends it to the remote API and appends the task the
// server returns.
func (c *Coordinator) Create(ctx context.Context, in domain.TaskInput) (domain.Task, error) {
	if c.isClosed() {
		return domain.Task{}, ErrClosed
	}
	if err := in.Validate(); err != nil {
		return domain.Task{}, err
	}
	in = in.Normalize()

	entry := c.entry("create", "")
	created, err := c.remote.CreateTask(ctx, c.store.UserID(), in)
	if err != nil {
		entry.WithError(err).Error("create task failed")
		return domain.Task{}, err
	}
	if err := c.commit(func() { c.store.append(created) }); err != nil {
		entry.WithField("taskId", created.ID).Warn("create confirmed after close; dropped")
		return domain.Task{}, err
	}
	entry.WithField("taskId", created.ID).Info("task created")
	return created.Clone(), nil
}

// Update sends patch for id and, once confirmed, merges it into the task as
// it is at that moment. If the task was removed while the call was in
// flight the result is discarded and a *domain.NotFoundError is returned.
func (c *Coordinator) Update(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	if c.isClosed() {
		return domain.Task{}, ErrClosed
	}
	if err := patch.Validate(); err != nil {
		return domain.Task{}, err
	}
	if _, ok := c.store.Get(id); !ok {
		return domain.Task{}, &domain.NotFoundError{ID: id}
	}

	unlock, err := c.lock(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	defer unlock()

	entry := c.entry("update", id)
	if _, ok := c.store.Get(id); !ok {
		entry.Info("task removed while waiting for its turn; skipping update")
		return domain.Task{}, &domain.NotFoundError{ID: id}
	}
	confirmed, err := c.remote.UpdateTask(ctx, c.store.UserID(), id, patch)
	if err != nil {
		entry.WithError(err).Error("update task failed")
		return domain.Task{}, err
	}

	updatedAt := confirmed.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = c.now()
	}
	var (
		updated domain.Task
		found   bool
	)
	if err := c.commit(func() {
		updated, found = c.store.replace(id, func(cur domain.Task) domain.Task {
			next := patch.Apply(cur)
			next.UpdatedAt = updatedAt
			return next
		})
	}); err != nil {
		entry.Warn("update confirmed after close; dropped")
		return domain.Task{}, err
	}
	if !found {
		entry.Warn("task removed while update was in flight; discarding")
		return domain.Task{}, &domain.NotFoundError{ID: id}
	}
	entry.Info("task updated")
	return updated, nil
}

// Delete removes id once the remote API confirms. On failure the task stays.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	if c.isClosed() {
		return ErrClosed
	}
	if _, ok := c.store.Get(id); !ok {
		return &domain.NotFoundError{ID: id}
	}

	unlock, err := c.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	entry := c.entry("delete", id)
	if _, ok := c.store.Get(id); !ok {
		entry.Info("task already removed; skipping delete")
		return &domain.NotFoundError{ID: id}
	}
	if err := c.remote.DeleteTask(ctx, c.store.UserID(), id); err != nil {
		entry.WithError(err).Error("delete task failed")
		return err
	}
	if err := c.commit(func() { c.store.remove(id) }); err != nil {
		entry.Warn("delete confirmed after close; dropped")
		return err
	}
	entry.Info("task deleted")
	return nil
}

// SetStatus moves a task to status.
func (c *Coordinator) SetStatus(ctx context.Context, id string, status domain.Status) (domain.Task, error) {
	return c.Update(ctx, id, domain.StatusPatch(status))
}

// ToggleComplete flips a task between completed and todo.
func (c *Coordinator) ToggleComplete(ctx context.Context, id string) (domain.Task, error) {
	cur, ok := c.store.Get(id)
	if !ok {
		return domain.Task{}, &domain.NotFoundError{ID: id}
	}
	next := domain.StatusCompleted
	if cur.Completed() {
		next = domain.StatusTodo
	}
	return c.SetStatus(ctx, id, next)
}

// MoveDueDate reschedules a task. A nil date clears the due date.
func (c *Coordinator) MoveDueDate(ctx context.Context, id string, date *time.Time) (domain.Task, error) {
	return c.Update(ctx, id, domain.DueDatePatch(date))
}
