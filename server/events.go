package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/23CSBS271/focus-flow/domain"
)

// EventSenderOptions tunes the background publishing pool.
type EventSenderOptions struct {
	Workers        int
	Buffer         int
	PublishTimeout time.Duration
	HandoffTimeout time.Duration
}

func (o EventSenderOptions) withDefaults() EventSenderOptions {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Buffer <= 0 {
		o.Buffer = 256
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 30 * time.Second
	}
	if o.HandoffTimeout < 0 {
		o.HandoffTimeout = 0
	}
	return o
}

// EventSender publishes task events off the request path. When the buffer is
// saturated it publishes inline. A nil *EventSender drops events.
type EventSender struct {
	pub  Publisher
	opts EventSenderOptions
	log  *log.Logger

	mu     sync.RWMutex
	jobs   chan []domain.Event
	closed bool
	wg     sync.WaitGroup
}

// NewEventSender starts the worker pool.
func NewEventSender(pub Publisher, opts EventSenderOptions, logger *log.Logger) *EventSender {
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &EventSender{pub: pub, opts: opts.withDefaults(), log: logger}
	s.jobs = make(chan []domain.Event, s.opts.Buffer)
	for i := 0; i < s.opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.log.Infof("event sender started, workers: %d, buffer: %d, timeout: %v, handoff: %v",
		s.opts.Workers, s.opts.Buffer, s.opts.PublishTimeout, s.opts.HandoffTimeout)
	return s
}

func (s *EventSender) worker(id int) {
	defer s.wg.Done()
	for batch := range s.jobs {
		s.publish(batch, id)
	}
}

func (s *EventSender) publish(batch []domain.Event, worker int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.PublishTimeout)
	defer cancel()
	if err := s.pub.Publish(ctx, batch); err != nil {
		s.log.WithFields(log.Fields{
			"user":   batch[0].UserID,
			"count":  len(batch),
			"worker": worker,
		}).WithError(err).Error("publish events failed")
	}
}

// Send hands events to the pool, waiting up to the handoff timeout for room
// before publishing inline.
func (s *EventSender) Send(events ...domain.Event) {
	if s == nil || len(events) == 0 {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.jobs <- events:
		return
	default:
	}
	if s.opts.HandoffTimeout > 0 {
		timer := time.NewTimer(s.opts.HandoffTimeout)
		defer timer.Stop()
		select {
		case s.jobs <- events:
			return
		case <-timer.C:
		}
	}
	s.log.Warn("event buffer saturated; publishing inline")
	s.publish(events, -1)
}

// Close stops accepting events and waits for queued ones to be published.
func (s *EventSender) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

var lastTimestamp int64

// nextTimestamp returns a strictly increasing unix-nano timestamp so events
// from one process keep their order.
func nextTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}

// newTaskEvent builds an event carrying the task body. A nil task produces an
// event without data.
func newTaskEvent(eventType, userID, taskID string, task *domain.Task) domain.Event {
	ev := domain.Event{
		ID:         uuid.NewString(),
		EntityID:   taskID,
		EntityType: "task",
		Type:       eventType,
		Timestamp:  nextTimestamp(),
		UserID:     userID,
	}
	if task != nil {
		if data, err := sonic.ConfigStd.Marshal(task); err == nil {
			ev.Data = data
		}
	}
	return ev
}
