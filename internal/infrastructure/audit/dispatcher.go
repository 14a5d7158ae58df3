package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

const (
	defaultBufferSize   = 1024
	defaultWriteTimeout = 5 * time.Second
)

// Writer stores one audit event.
type Writer interface {
	Write(ctx context.Context, event domain.AuditEvent) error
}

type WriterFunc func(ctx context.Context, event domain.AuditEvent) error

func (f WriterFunc) Write(ctx context.Context, event domain.AuditEvent) error {
	return f(ctx, event)
}

// Dispatcher is the pipeline's AuditSink. Record only enqueues; a background
// goroutine fans events out to the writers. A full buffer drops the event.
type Dispatcher struct {
	writers []Writer
	log     logrus.FieldLogger
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	events  chan domain.AuditEvent
	done    chan struct{}
	dropped atomic.Int64
}

func NewDispatcher(log logrus.FieldLogger, bufferSize int, writers ...Writer) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	d := &Dispatcher{
		writers: writers,
		log:     log,
		timeout: defaultWriteTimeout,
		events:  make(chan domain.AuditEvent, bufferSize),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) Record(_ context.Context, event domain.AuditEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher closed")
		return
	}

	select {
	case d.events <- event:
	default:
		d.drop(event, "buffer full")
	}
}

func (d *Dispatcher) drop(event domain.AuditEvent, reason string) {
	d.dropped.Add(1)
	d.log.WithFields(logrus.Fields{
		"action":    event.Action,
		"entity_id": event.EntityID,
		"reason":    reason,
	}).Warn("audit event dropped")
}

// Dropped reports how many events were discarded.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for event := range d.events {
		for _, w := range d.writers {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			if err := w.Write(ctx, event); err != nil {
				d.log.WithError(err).WithFields(logrus.Fields{
					"action":    event.Action,
					"entity_id": event.EntityID,
				}).Warn("audit write failed")
			}
			cancel()
		}
	}
}

// Close stops accepting events and waits until the buffered ones are written
// or ctx expires.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
