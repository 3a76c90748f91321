// Package drag turns pointer gestures on the kanban board into status
// changes.
package drag

import (
	"context"
	"errors"
	"math"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/23CSBS271/focus-flow/domain"
)

// DefaultThreshold is the pointer travel, in pixels, before a press becomes a drag.
const DefaultThreshold = 8.0

// ErrNotDragging is returned by Drop when no gesture is active.
var ErrNotDragging = errors.New("no drag in progress")

type State int

const (
	Idle State = iota
	Dragging
	Dropped
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	default:
		return "idle"
	}
}

// TaskLookup resolves task ids. *store.Store satisfies it.
type TaskLookup interface {
	Get(id string) (domain.Task, bool)
}

// StatusSetter commits a status change. *store.Coordinator satisfies it.
type StatusSetter interface {
	SetStatus(ctx context.Context, id string, status domain.Status) (domain.Task, error)
}

// Target is whatever the pointer was released over: a column id, a task id,
// or nothing.
type Target struct {
	ID string
}

// Outcome describes what a drop did.
type Outcome struct {
	Committed bool
	TaskID    string
	Status    domain.Status
	Reason    string
}

// Reasons reported in Outcome.Reason.
const (
	ReasonCommitted     = "committed"
	ReasonClick         = "below drag threshold"
	ReasonNoTarget      = "no drop target"
	ReasonSameStatus    = "status unchanged"
	ReasonUnknownTask   = "dragged task not found"
	ReasonUnknownTarget = "drop target not found"
)

// Controller tracks a single drag gesture at a time.
type Controller struct {
	tasks     TaskLookup
	setter    StatusSetter
	threshold float64
	log       *log.Logger

	mu     sync.Mutex
	state  State
	taskID string
	startX float64
	startY float64
	armed  bool
}

func New(tasks TaskLookup, setter StatusSetter, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Controller{tasks: tasks, setter: setter, threshold: DefaultThreshold, log: logger}
}

// WithThreshold overrides the activation distance.
func (c *Controller) WithThreshold(px float64) *Controller {
	c.threshold = px
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Press starts tracking a gesture on taskID. Any previous gesture is dropped.
func (c *Controller) Press(taskID string, x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Dragging
	c.taskID = taskID
	c.startX, c.startY = x, y
	c.armed = c.threshold <= 0
}

// Move arms the gesture once the pointer has travelled at least the threshold.
func (c *Controller) Move(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Dragging || c.armed {
		return
	}
	if math.Hypot(x-c.startX, y-c.startY) >= c.threshold {
		c.armed = true
	}
}

// Cancel abandons the gesture without side effects.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Drop resolves the gesture against target. A column target always moves the
// task to that column; a task target moves it to that task's status only when
// the status differs. The controller is idle again when Drop returns.
func (c *Controller) Drop(ctx context.Context, target Target) (Outcome, error) {
	c.mu.Lock()
	if c.state != Dragging {
		c.mu.Unlock()
		return Outcome{}, ErrNotDragging
	}
	c.state = Dropped
	taskID, armed := c.taskID, c.armed
	c.reset()
	c.mu.Unlock()

	out := Outcome{TaskID: taskID}
	if !armed {
		out.Reason = ReasonClick
		return out, nil
	}
	if target.ID == "" {
		out.Reason = ReasonNoTarget
		return out, nil
	}
	task, ok := c.tasks.Get(taskID)
	if !ok {
		out.Reason = ReasonUnknownTask
		return out, nil
	}

	status, column, ok := c.resolve(target)
	if !ok {
		out.Reason = ReasonUnknownTarget
		return out, nil
	}
	out.Status = status
	if !column && status == task.Status {
		out.Reason = ReasonSameStatus
		return out, nil
	}

	entry := c.log.WithFields(log.Fields{"taskId": taskID, "from": task.Status, "to": status})
	if _, err := c.setter.SetStatus(ctx, taskID, status); err != nil {
		entry.WithError(err).Warn("drop status change failed")
		return out, err
	}
	entry.Debug("drop committed")
	out.Committed = true
	out.Reason = ReasonCommitted
	return out, nil
}

// resolve maps a drop target to a status and reports whether the target was
// a column. Column ids take precedence over task ids.
func (c *Controller) resolve(target Target) (domain.Status, bool, bool) {
	if s := domain.Status(target.ID); s.Valid() {
		return s, true, true
	}
	over, ok := c.tasks.Get(target.ID)
	if !ok {
		return "", false, false
	}
	return over.Status, false, true
}

func (c *Controller) reset() {
	c.state = Idle
	c.taskID = ""
	c.armed = false
}
