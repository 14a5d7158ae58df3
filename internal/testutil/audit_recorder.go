package testutil

import (
	"context"
	"sync"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

// AuditRecorder is an AuditSink that keeps every event.
type AuditRecorder struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (r *AuditRecorder) Record(_ context.Context, event domain.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *AuditRecorder) Events() []domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEvent(nil), r.events...)
}

// ByAction returns the recorded events with the given action.
func (r *AuditRecorder) ByAction(action string) []domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AuditEvent
	for _, e := range r.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// NotifyRecorder is a SessionNotifier that keeps every update.
type NotifyRecorder struct {
	mu      sync.Mutex
	updates []domain.SessionUpdate
}

func (r *NotifyRecorder) Publish(_ context.Context, update domain.SessionUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update)
	return nil
}

func (r *NotifyRecorder) Updates() []domain.SessionUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SessionUpdate(nil), r.updates...)
}
