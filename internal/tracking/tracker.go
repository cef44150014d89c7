// Package tracking records widget interaction events without blocking the
// caller.
package tracking

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/logger"
)

// DefaultBuffer is the queue size used when none is configured.
const DefaultBuffer = 1024

// Recorder persists one interaction.
type Recorder interface {
	RecordInteraction(ctx context.Context, in api.Interaction) error
}

// Tracker queues interactions and records them on a background worker.
// Track never blocks: when the queue is full the event is dropped.
type Tracker struct {
	recorder Recorder
	queue    chan api.Interaction
	timeout  time.Duration

	dropped  atomic.Int64
	failed   atomic.Int64
	recorded atomic.Int64

	closeOnce sync.Once
	done      chan struct{}
}

// Stats is a snapshot of tracker counters.
type Stats struct {
	Recorded int64 `json:"recorded"`
	Dropped  int64 `json:"dropped"`
	Failed   int64 `json:"failed"`
	Queued   int   `json:"queued"`
}

// New starts a tracker with the given queue size.
func New(recorder Recorder, buffer int) *Tracker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	t := &Tracker{
		recorder: recorder,
		queue:    make(chan api.Interaction, buffer),
		timeout:  5 * time.Second,
		done:     make(chan struct{}),
	}
	go t.run()
	return t
}

// Track enqueues an interaction. Invalid actions are ignored.
func (t *Tracker) Track(in api.Interaction) {
	if !in.Action.Valid() || in.WidgetID == "" {
		logger.Debug("Ignoring invalid interaction", "widget_id", in.WidgetID, "action", string(in.Action))
		return
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}

	defer func() {
		// Track after Close lands here; the event is dropped like any other overflow.
		if recover() != nil {
			t.dropped.Add(1)
		}
	}()

	select {
	case t.queue <- in:
	default:
		t.dropped.Add(1)
		logger.Warn("Interaction queue full, dropping event",
			"widget_id", in.WidgetID,
			"action", string(in.Action),
		)
	}
}

// Close stops accepting events and waits for queued ones to be recorded or
// for ctx to end.
func (t *Tracker) Close(ctx context.Context) error {
	t.closeOnce.Do(func() { close(t.queue) })
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the current counters.
func (t *Tracker) Stats() Stats {
	return Stats{
		Recorded: t.recorded.Load(),
		Dropped:  t.dropped.Load(),
		Failed:   t.failed.Load(),
		Queued:   len(t.queue),
	}
}

func (t *Tracker) run() {
	defer close(t.done)
	for in := range t.queue {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		err := t.recorder.RecordInteraction(ctx, in)
		cancel()
		if err != nil {
			t.failed.Add(1)
			logger.Warn("Failed to record interaction",
				"widget_id", in.WidgetID,
				"action", string(in.Action),
				"error", err,
			)
			continue
		}
		t.recorded.Add(1)
	}
}
