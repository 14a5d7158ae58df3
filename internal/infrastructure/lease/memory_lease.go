package lease

import (
	"context"
	"sync"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

// MemoryLease guards sessions within a single process.
type MemoryLease struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryLease() *MemoryLease {
	return &MemoryLease{held: make(map[string]struct{})}
}

func (m *MemoryLease) Acquire(_ context.Context, sessionID string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.held[sessionID]; ok {
		return nil, domain.ErrSessionLeased
	}
	m.held[sessionID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, sessionID)
			m.mu.Unlock()
		})
	}, nil
}
