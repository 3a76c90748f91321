package drag

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/23CSBS271/focus-flow/domain"
)

type fakeTasks map[string]domain.Task

func (f fakeTasks) Get(id string) (domain.Task, bool) {
	t, ok := f[id]
	return t, ok
}

type recordingSetter struct {
	calls []domain.Status
	err   error
}

func (r *recordingSetter) SetStatus(_ context.Context, id string, s domain.Status) (domain.Task, error) {
	r.calls = append(r.calls, s)
	if r.err != nil {
		return domain.Task{}, r.err
	}
	return domain.Task{ID: id, Status: s}, nil
}

func board() fakeTasks {
	return fakeTasks{
		"t1": {ID: "t1", Status: domain.StatusTodo},
		"t2": {ID: "t2", Status: domain.StatusInProgress},
		"t3": {ID: "t3", Status: domain.StatusTodo},
	}
}

func newController(setter *recordingSetter) *Controller {
	logger, _ := test.NewNullLogger()
	return New(board(), setter, logger)
}

func drag(c *Controller, id string) {
	c.Press(id, 0, 0)
	c.Move(3, 4)
	c.Move(6, 8)
}

func TestDropOnColumnCommitsOnce(t *testing.T) {
	setter := &recordingSetter{}
	c := newController(setter)

	drag(c, "t1")
	out, err := c.Drop(context.Background(), Target{ID: "completed"})
	require.NoError(t, err)
	require.True(t, out.Committed)
	require.Equal(t, domain.StatusCompleted, out.Status)
	require.Equal(t, []domain.Status{domain.StatusCompleted}, setter.calls)
	require.Equal(t, Idle, c.State())
}

func TestDropOnOwnColumnStillCommits(t *testing.T) {
	setter := &recordingSetter{}
	c := newController(setter)

	drag(c, "t1")
	out, err := c.Drop(context.Background(), Target{ID: "todo"})
	require.NoError(t, err)
	require.True(t, out.Committed)
	require.Equal(t, ReasonCommitted, out.Reason)
	require.Equal(t, []domain.Status{domain.StatusTodo}, setter.calls)
}

func TestDropOnOwnCardIsNoop(t *testing.T) {
	setter := &recordingSetter{}
	c := newController(setter)

	drag(c, "t1")
	out, err := c.Drop(context.Background(), Target{ID: "t1"})
	require.NoError(t, err)
	require.False(t, out.Committed)
	require.Equal(t, ReasonSameStatus, out.Reason)
	require.Empty(t, setter.calls)
}

func TestDropOnTaskUsesItsStatus(t *testing.T) {
	setter := &recordingSetter{}
	c := newController(setter)

	drag(c, "t1")
	out, err := c.Drop(context.Background(), Target{ID: "t2"})
	require.NoError(t, err)
	require.True(t, out.Committed)
	require.Equal(t, []domain.Status{domain.StatusInProgress}, setter.calls)

	drag(c, "t1")
	out, err = c.Drop(context.Background(), Target{ID: "t3"})
	require.NoError(t, err)
	require.False(t, out.Committed)
	require.Len(t, setter.calls, 1)
}

func TestDropBelowThresholdIsClick(t *testing.T) {
	setter := &recordingSetter{}
	c := newController(setter)

	c.Press("t1", 10, 10)
	c.Move(14, 14)
	out, err := c.Drop(context.Background(), Target{ID: "completed"})
	require.NoError(t, err)
	require.False(t, out.Committed)
	require.Equal(t, ReasonClick, out.Reason)
	require.Empty(t, setter.calls)
}

func TestDropOutsideTargetsIsNoop(t *testing.T) {
	setter := &recordingSetter{}
	c := newController(setter)

	drag(c, "t1")
	out, err := c.Drop(context.Background(), Target{})
	require.NoError(t, err)
	require.Equal(t, ReasonNoTarget, out.Reason)

	drag(c, "t1")
	out, err = c.Drop(context.Background(), Target{ID: "trash"})
	require.NoError(t, err)
	require.Equal(t, ReasonUnknownTarget, out.Reason)
	require.Empty(t, setter.calls)
}

func TestCancelReturnsToIdle(t *testing.T) {
	setter := &recordingSetter{}
	c := newController(setter)

	drag(c, "t1")
	require.Equal(t, Dragging, c.State())
	c.Cancel()
	require.Equal(t, Idle, c.State())
	_, err := c.Drop(context.Background(), Target{ID: "completed"})
	require.ErrorIs(t, err, ErrNotDragging)
	require.Empty(t, setter.calls)
}

func TestDropSurfacesSetterError(t *testing.T) {
	boom := errors.New("boom")
	setter := &recordingSetter{err: boom}
	c := newController(setter)

	drag(c, "t2")
	out, err := c.Drop(context.Background(), Target{ID: "todo"})
	require.ErrorIs(t, err, boom)
	require.False(t, out.Committed)
	require.Equal(t, Idle, c.State())
}
