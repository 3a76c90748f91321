package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/23CSBS271/focus-flow/domain"
)

type stubRemote struct {
	fetchFn  func(ctx context.Context, userID string) ([]domain.Task, error)
	createFn func(ctx context.Context, userID string, in domain.TaskInput) (domain.Task, error)
	updateFn func(ctx context.Context, userID, id string, patch domain.TaskPatch) (domain.Task, error)
	deleteFn func(ctx context.Context, userID, id string) error
}

func (s *stubRemote) FetchTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	if s.fetchFn != nil {
		return s.fetchFn(ctx, userID)
	}
	return nil, nil
}

func (s *stubRemote) CreateTask(ctx context.Context, userID string, in domain.TaskInput) (domain.Task, error) {
	if s.createFn != nil {
		return s.createFn(ctx, userID, in)
	}
	return domain.Task{}, errors.New("create not stubbed")
}

func (s *stubRemote) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) (domain.Task, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, userID, id, patch)
	}
	return domain.Task{ID: id}, nil
}

func (s *stubRemote) DeleteTask(ctx context.Context, userID, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, userID, id)
	}
	return nil
}

var fixedNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

func seedTasks() []domain.Task {
	return []domain.Task{
		{ID: "t1", Title: "one", Status: domain.StatusTodo, Priority: domain.PriorityLow, Tags: []string{"a"}},
		{ID: "t2", Title: "two", Status: domain.StatusCompleted, Priority: domain.PriorityHigh},
	}
}

func newLoaded(t *testing.T, remote *stubRemote, opts Options) (*Store, *Coordinator) {
	t.Helper()
	if remote.fetchFn == nil {
		remote.fetchFn = func(context.Context, string) ([]domain.Task, error) { return seedTasks(), nil }
	}
	logger, _ := test.NewNullLogger()
	if opts.Logger == nil {
		opts.Logger = logger
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	s := New(remote, opts.Logger)
	if _, err := s.Load(context.Background(), "user-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s, NewCoordinator(s, remote, opts)
}

func TestLoadFailureKeepsPreviousList(t *testing.T) {
	remote := &stubRemote{}
	s, _ := newLoaded(t, remote, Options{})

	fetchErr := &domain.FetchError{Op: "fetch tasks", StatusCode: 503}
	remote.fetchFn = func(context.Context, string) ([]domain.Task, error) { return nil, fetchErr }
	_, err := s.Load(context.Background(), "user-1")
	var fe *domain.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != 503 {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if s.Len() != 2 || s.UserID() != "user-1" {
		t.Fatalf("previous list not kept: len=%d user=%s", s.Len(), s.UserID())
	}
}

func TestAllReturnsIsolatedSnapshot(t *testing.T) {
	s, _ := newLoaded(t, &stubRemote{}, Options{})
	snap := s.All()
	snap[0].Title = "changed"
	snap[0].Tags[0] = "changed"
	got, _ := s.Get("t1")
	if got.Title != "one" || got.Tags[0] != "a" {
		t.Fatalf("store mutated through snapshot: %#v", got)
	}
}

func TestCreateFailureLeavesListUnchanged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	remote := &stubRemote{
		createFn: func(context.Context, string, domain.TaskInput) (domain.Task, error) {
			return domain.Task{}, &domain.FetchError{Op: "create task", StatusCode: 500}
		},
	}
	s, c := newLoaded(t, remote, Options{Logger: logger})

	_, err := c.Create(context.Background(), domain.TaskInput{Title: "Write report"})
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 tasks, got %d", s.Len())
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != log.ErrorLevel || entry.Data["op"] != "create" {
		t.Fatalf("expected create error log, got %#v", entry)
	}
}

func TestCreateAppendsServerTask(t *testing.T) {
	remote := &stubRemote{
		createFn: func(_ context.Context, userID string, in domain.TaskInput) (domain.Task, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user: %s", userID)
			}
			if in.Priority != domain.PriorityMedium || in.Category != domain.CategoryPersonal {
				t.Fatalf("input not normalized: %#v", in)
			}
			return domain.Task{ID: "srv-1", Title: in.Title, Status: in.Status, Priority: in.Priority}, nil
		},
	}
	s, c := newLoaded(t, remote, Options{})
	created, err := c.Create(context.Background(), domain.TaskInput{Title: " Write report "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "srv-1" || s.Len() != 3 {
		t.Fatalf("unexpected result: %#v len=%d", created, s.Len())
	}
	all := s.All()
	if all[2].ID != "srv-1" || all[2].Title != "Write report" {
		t.Fatalf("task not appended at end: %#v", all[2])
	}
}

func TestCreateValidationSkipsNetwork(t *testing.T) {
	var called atomic.Bool
	remote := &stubRemote{
		createFn: func(context.Context, string, domain.TaskInput) (domain.Task, error) {
			called.Store(true)
			return domain.Task{}, nil
		},
	}
	_, c := newLoaded(t, remote, Options{})
	_, err := c.Create(context.Background(), domain.TaskInput{Title: "   "})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called.Load() {
		t.Fatalf("remote called for invalid input")
	}
}

func TestUpdateMergesIntoCurrentTask(t *testing.T) {
	serverTime := time.Date(2024, 5, 15, 9, 30, 0, 0, time.UTC)
	remote := &stubRemote{
		updateFn: func(_ context.Context, _, id string, _ domain.TaskPatch) (domain.Task, error) {
			return domain.Task{ID: id, UpdatedAt: serverTime}, nil
		},
	}
	s, c := newLoaded(t, remote, Options{})
	title := "renamed"
	got, err := c.Update(context.Background(), "t1", domain.TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "renamed" || got.Priority != domain.PriorityLow || !got.UpdatedAt.Equal(serverTime) {
		t.Fatalf("unexpected merge: %#v", got)
	}
	stored, _ := s.Get("t1")
	if stored.Title != "renamed" {
		t.Fatalf("store not updated: %#v", stored)
	}
}

func TestUpdateUsesClockWithoutServerTimestamp(t *testing.T) {
	_, c := newLoaded(t, &stubRemote{}, Options{})
	got, err := c.SetStatus(context.Background(), "t1", domain.StatusInProgress)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if got.Status != domain.StatusInProgress || !got.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected task: %#v", got)
	}
}

func TestUpdateUnknownIDSkipsNetwork(t *testing.T) {
	remote := &stubRemote{
		updateFn: func(context.Context, string, string, domain.TaskPatch) (domain.Task, error) {
			t.Fatalf("remote should not be called")
			return domain.Task{}, nil
		},
	}
	_, c := newLoaded(t, remote, Options{})
	_, err := c.SetStatus(context.Background(), "missing", domain.StatusCompleted)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateRacingDeleteDoesNotResurrect(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	remote := &stubRemote{
		updateFn: func(_ context.Context, _, id string, _ domain.TaskPatch) (domain.Task, error) {
			close(started)
			<-release
			return domain.Task{ID: id}, nil
		},
	}
	s, c := newLoaded(t, remote, Options{})

	errc := make(chan error, 1)
	go func() {
		_, err := c.SetStatus(context.Background(), "t1", domain.StatusCompleted)
		errc <- err
	}()
	<-started
	if err := c.Delete(context.Background(), "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	close(release)

	if err := <-errc; !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, ok := s.Get("t1"); ok || s.Len() != 1 {
		t.Fatalf("deleted task resurrected, len=%d", s.Len())
	}
}

func TestDeleteFailureKeepsTask(t *testing.T) {
	remote := &stubRemote{
		deleteFn: func(context.Context, string, string) error {
			return &domain.FetchError{Op: "delete task", Err: errors.New("connection reset")}
		},
	}
	s, c := newLoaded(t, remote, Options{})
	if err := c.Delete(context.Background(), "t2"); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := s.Get("t2"); !ok {
		t.Fatalf("task removed despite failure")
	}
}

func TestToggleComplete(t *testing.T) {
	var sent []domain.Status
	remote := &stubRemote{
		updateFn: func(_ context.Context, _, id string, p domain.TaskPatch) (domain.Task, error) {
			sent = append(sent, *p.Status)
			return domain.Task{ID: id}, nil
		},
	}
	_, c := newLoaded(t, remote, Options{})
	if _, err := c.ToggleComplete(context.Background(), "t1"); err != nil {
		t.Fatalf("toggle t1: %v", err)
	}
	if _, err := c.ToggleComplete(context.Background(), "t2"); err != nil {
		t.Fatalf("toggle t2: %v", err)
	}
	if len(sent) != 2 || sent[0] != domain.StatusCompleted || sent[1] != domain.StatusTodo {
		t.Fatalf("unexpected statuses sent: %v", sent)
	}
}

func TestMoveDueDate(t *testing.T) {
	s, c := newLoaded(t, &stubRemote{}, Options{})
	due := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if _, err := c.MoveDueDate(context.Background(), "t1", &due); err != nil {
		t.Fatalf("move: %v", err)
	}
	got, _ := s.Get("t1")
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("due date not moved: %v", got.DueDate)
	}
	if _, err := c.MoveDueDate(context.Background(), "t1", nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = s.Get("t1")
	if got.DueDate != nil {
		t.Fatalf("due date not cleared")
	}
}

func TestStrictOrderingSerialisesSameID(t *testing.T) {
	var (
		calls    atomic.Int32
		inFlight atomic.Int32
		maxSeen  atomic.Int32
	)
	release := make(chan struct{})
	remote := &stubRemote{
		updateFn: func(_ context.Context, _, id string, _ domain.TaskPatch) (domain.Task, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			if calls.Add(1) == 1 {
				<-release
			}
			return domain.Task{ID: id}, nil
		},
	}
	_, c := newLoaded(t, remote, Options{StrictOrdering: true})

	var wg sync.WaitGroup
	for _, s := range []domain.Status{domain.StatusInProgress, domain.StatusCompleted} {
		wg.Add(1)
		go func(s domain.Status) {
			defer wg.Done()
			if _, err := c.SetStatus(context.Background(), "t1", s); err != nil {
				t.Errorf("set status: %v", err)
			}
		}(s)
		time.Sleep(20 * time.Millisecond)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected second call to wait, calls=%d", got)
	}
	close(release)
	wg.Wait()
	if calls.Load() != 2 || maxSeen.Load() != 1 {
		t.Fatalf("calls=%d max in flight=%d", calls.Load(), maxSeen.Load())
	}
}

func TestStrictOrderingDoesNotBlockOtherIDs(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	remote := &stubRemote{
		updateFn: func(_ context.Context, _, id string, _ domain.TaskPatch) (domain.Task, error) {
			if id == "t1" {
				<-release
			}
			return domain.Task{ID: id}, nil
		},
	}
	_, c := newLoaded(t, remote, Options{StrictOrdering: true})
	go func() { _, _ = c.SetStatus(context.Background(), "t1", domain.StatusCompleted) }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := c.SetStatus(ctx, "t2", domain.StatusTodo); err != nil {
		t.Fatalf("t2 blocked by t1: %v", err)
	}
}

func TestStrictOrderingUpdateAfterDeleteIsNotFound(t *testing.T) {
	deleting := make(chan struct{})
	release := make(chan struct{})
	var updates atomic.Int32
	remote := &stubRemote{
		deleteFn: func(context.Context, string, string) error {
			close(deleting)
			<-release
			return nil
		},
		updateFn: func(_ context.Context, _, id string, _ domain.TaskPatch) (domain.Task, error) {
			updates.Add(1)
			return domain.Task{}, &domain.FetchError{Op: "update task", StatusCode: 404}
		},
	}
	s, c := newLoaded(t, remote, Options{StrictOrdering: true})

	delErr := make(chan error, 1)
	go func() { delErr <- c.Delete(context.Background(), "t1") }()
	<-deleting

	updErr := make(chan error, 1)
	go func() {
		_, err := c.SetStatus(context.Background(), "t1", domain.StatusCompleted)
		updErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	if err := <-delErr; err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := <-updErr; !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %T %v", err, err)
	}
	if n := updates.Load(); n != 0 {
		t.Fatalf("expected no remote update, got %d", n)
	}
	if _, ok := s.Get("t1"); ok {
		t.Fatal("deleted task resurrected")
	}
	if err := c.Delete(context.Background(), "t1"); !domain.IsNotFound(err) {
		t.Fatalf("expected second delete to be not found, got %v", err)
	}
}

func TestSameIDUpdatesLastResponseWins(t *testing.T) {
	entered := make(chan domain.Status, 2)
	gates := map[domain.Status]chan struct{}{
		domain.StatusInProgress: make(chan struct{}),
		domain.StatusCompleted:  make(chan struct{}),
	}
	remote := &stubRemote{
		updateFn: func(_ context.Context, _, id string, patch domain.TaskPatch) (domain.Task, error) {
			entered <- *patch.Status
			<-gates[*patch.Status]
			return domain.Task{ID: id}, nil
		},
	}
	s, c := newLoaded(t, remote, Options{})

	done := map[domain.Status]chan error{
		domain.StatusInProgress: make(chan error, 1),
		domain.StatusCompleted:  make(chan error, 1),
	}
	for status := range gates {
		go func(status domain.Status) {
			_, err := c.SetStatus(context.Background(), "t1", status)
			done[status] <- err
		}(status)
	}
	<-entered
	<-entered

	close(gates[domain.StatusCompleted])
	if err := <-done[domain.StatusCompleted]; err != nil {
		t.Fatalf("completed update: %v", err)
	}
	close(gates[domain.StatusInProgress])
	if err := <-done[domain.StatusInProgress]; err != nil {
		t.Fatalf("in-progress update: %v", err)
	}

	got, _ := s.Get("t1")
	if got.Status != domain.StatusInProgress {
		t.Fatalf("expected the later response to win, got %s", got.Status)
	}
}

func TestClosedCoordinatorNeverWrites(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	remote := &stubRemote{
		updateFn: func(_ context.Context, _, id string, _ domain.TaskPatch) (domain.Task, error) {
			close(started)
			<-release
			return domain.Task{ID: id}, nil
		},
	}
	s, c := newLoaded(t, remote, Options{})

	errc := make(chan error, 1)
	go func() {
		_, err := c.SetStatus(context.Background(), "t1", domain.StatusCompleted)
		errc <- err
	}()
	<-started
	c.Close()
	close(release)

	if err := <-errc; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	got, _ := s.Get("t1")
	if got.Status != domain.StatusTodo {
		t.Fatalf("store written after close: %#v", got)
	}
	if _, err := c.Create(context.Background(), domain.TaskInput{Title: "x"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed for new call, got %v", err)
	}
}

func TestKeyLockHonoursContext(t *testing.T) {
	l := newKeyLock()
	unlock, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	unlock()
	if len(l.slots) != 0 {
		t.Fatalf("idle slot not released: %d", len(l.slots))
	}
}
