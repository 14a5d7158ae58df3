// Package testutil holds in-memory implementations of the import ports for tests.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

// MemorySessionStore implements domain.SessionStore with the same transition
// rules as the database store.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.UploadSession
	files    map[string]map[string]*domain.UploadFileRecord
	order    map[string][]string
	failures map[string]error
	now      func() time.Time

	progressWrites []domain.Progress
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*domain.UploadSession),
		files:    make(map[string]map[string]*domain.UploadFileRecord),
		order:    make(map[string][]string),
		failures: make(map[string]error),
		now:      time.Now,
	}
}

// FailOn makes every call to the named method return err. A nil err clears it.
func (m *MemorySessionStore) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, method)
		return
	}
	m.failures[method] = err
}

// ProgressWrites returns every aggregate written through UpdateProgress.
func (m *MemorySessionStore) ProgressWrites() []domain.Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Progress(nil), m.progressWrites...)
}

// Seed inserts a session as-is, e.g. one left in_progress by a crash.
func (m *MemorySessionStore) Seed(s domain.UploadSession, records ...domain.UploadFileRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := s
	m.sessions[s.ID] = &cp
	if m.files[s.ID] == nil {
		m.files[s.ID] = make(map[string]*domain.UploadFileRecord)
	}
	for _, r := range records {
		rec := r
		rec.SessionID = s.ID
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		m.files[s.ID][r.ContentHash] = &rec
		m.order[s.ID] = append(m.order[s.ID], r.ContentHash)
	}
}

func (m *MemorySessionStore) fail(method string) error {
	if err, ok := m.failures[method]; ok {
		return domain.NewPersistenceError(method, err)
	}
	return nil
}

func (m *MemorySessionStore) CreateSession(_ context.Context, in domain.CreateSessionInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateSession"); err != nil {
		return "", err
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := m.sessions[id]; ok {
		return "", domain.NewPersistenceError("CreateSession", fmt.Errorf("session %s already exists", id))
	}
	m.sessions[id] = &domain.UploadSession{
		ID:             id,
		OwnerID:        in.OwnerID,
		OrganizationID: in.OrganizationID,
		TotalFiles:     in.TotalFiles,
		Status:         domain.SessionInProgress,
		Source:         in.Source,
		StartedAt:      m.now().UTC(),
		Metadata:       in.Metadata,
	}
	m.files[id] = make(map[string]*domain.UploadFileRecord)
	return id, nil
}

func (m *MemorySessionStore) GetSession(_ context.Context, sessionID string) (*domain.UploadSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetSession"); err != nil {
		return nil, err
	}

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *s
	cp.Errors = append([]string(nil), s.Errors...)
	return &cp, nil
}

func (m *MemorySessionStore) ListSessions(_ context.Context, organizationID string, limit int) ([]domain.UploadSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListSessions"); err != nil {
		return nil, err
	}

	out := make([]domain.UploadSession, 0)
	for _, s := range m.sessions {
		if s.OrganizationID == organizationID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemorySessionStore) FindIncompleteSession(_ context.Context, organizationID string, hashes []string, policy domain.ResumePolicy) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindIncompleteSession"); err != nil {
		return "", err
	}

	sample := policy.Sample(hashes)
	cutoff := policy.Cutoff(m.now())

	var best *domain.UploadSession
	for _, s := range m.sessions {
		if s.OrganizationID != organizationID || s.Status != domain.SessionInProgress || s.StartedAt.Before(cutoff) {
			continue
		}
		if best == nil || s.StartedAt.After(best.StartedAt) {
			best = s
		}
	}
	if best == nil {
		return "", nil
	}

	matched := 0
	for _, h := range sample {
		if _, ok := m.files[best.ID][h]; ok {
			matched++
		}
	}
	if !policy.Matches(matched, len(hashes)) {
		return "", nil
	}
	return best.ID, nil
}

func (m *MemorySessionStore) IsProcessed(_ context.Context, sessionID, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("IsProcessed"); err != nil {
		return false, err
	}

	rec, ok := m.files[sessionID][hash]
	return ok && rec.Status.IsCheckpoint(), nil
}

func (m *MemorySessionStore) FindFile(_ context.Context, sessionID, hash string) (*domain.UploadFileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindFile"); err != nil {
		return nil, err
	}

	rec, ok := m.files[sessionID][hash]
	if !ok {
		return nil, domain.ErrFileNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MemorySessionStore) ListFiles(_ context.Context, sessionID string) ([]domain.UploadFileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListFiles"); err != nil {
		return nil, err
	}

	out := make([]domain.UploadFileRecord, 0, len(m.order[sessionID]))
	for _, h := range m.order[sessionID] {
		out = append(out, *m.files[sessionID][h])
	}
	return out, nil
}

func (m *MemorySessionStore) RegisterFile(_ context.Context, sessionID, fileName, hash string, size *int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("RegisterFile"); err != nil {
		return "", err
	}

	s, ok := m.sessions[sessionID]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	if rec, ok := m.files[sessionID][hash]; ok {
		return rec.ID, nil
	}
	if s.Status.IsTerminal() {
		return "", domain.ErrSessionClosed
	}

	rec := &domain.UploadFileRecord{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		FileName:    fileName,
		ContentHash: hash,
		FileSize:    size,
		Status:      domain.FilePending,
	}
	m.files[sessionID][hash] = rec
	m.order[sessionID] = append(m.order[sessionID], hash)
	return rec.ID, nil
}

func (m *MemorySessionStore) transition(method, sessionID, hash string, next domain.FileStatus, apply func(*domain.UploadFileRecord)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(method); err != nil {
		return err
	}

	rec, ok := m.files[sessionID][hash]
	if !ok {
		return domain.ErrFileNotFound
	}
	if !slices.Contains(domain.AllowedPredecessors(next), rec.Status) {
		return nil
	}
	rec.Status = next
	apply(rec)
	return nil
}

func (m *MemorySessionStore) MarkProcessing(_ context.Context, sessionID, hash string) error {
	return m.transition("MarkProcessing", sessionID, hash, domain.FileProcessing, func(r *domain.UploadFileRecord) {
		now := m.now().UTC()
		r.StartedAt = &now
	})
}

func (m *MemorySessionStore) MarkCompleted(_ context.Context, sessionID, hash, candidateID, resumeID string) error {
	return m.transition("MarkCompleted", sessionID, hash, domain.FileCompleted, func(r *domain.UploadFileRecord) {
		now := m.now().UTC()
		r.CompletedAt = &now
		r.CandidateID = candidateID
		r.ResumeID = resumeID
		r.ErrorMessage = ""
	})
}

func (m *MemorySessionStore) MarkFailed(_ context.Context, sessionID, hash, errMsg string) error {
	return m.transition("MarkFailed", sessionID, hash, domain.FileFailed, func(r *domain.UploadFileRecord) {
		now := m.now().UTC()
		r.CompletedAt = &now
		r.ErrorMessage = domain.TruncateError(errMsg)
	})
}

func (m *MemorySessionStore) MarkSkipped(_ context.Context, sessionID, hash, reason string) error {
	return m.transition("MarkSkipped", sessionID, hash, domain.FileSkipped, func(r *domain.UploadFileRecord) {
		now := m.now().UTC()
		r.CompletedAt = &now
		r.ErrorMessage = domain.TruncateError(reason)
	})
}

func (m *MemorySessionStore) UpdateProgress(_ context.Context, sessionID string, processed, succeeded, failed int, errs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateProgress"); err != nil {
		return err
	}

	s, ok := m.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.ProcessedFiles = processed
	s.SucceededFiles = succeeded
	s.FailedFiles = failed
	s.Errors = domain.CapErrors(append([]string(nil), errs...))
	m.progressWrites = append(m.progressWrites, s.Progress())
	return nil
}

func (m *MemorySessionStore) finish(method, sessionID string, next domain.SessionStatus, apply func(*domain.UploadSession)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(method); err != nil {
		return err
	}

	s, ok := m.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if !s.Status.CanTransitionTo(next) {
		return domain.ErrSessionClosed
	}
	now := m.now().UTC()
	s.Status = next
	s.CompletedAt = &now
	apply(s)
	return nil
}

func (m *MemorySessionStore) CompleteSession(_ context.Context, sessionID string, succeeded, failed int, errs []string) error {
	return m.finish("CompleteSession", sessionID, domain.SessionCompleted, func(s *domain.UploadSession) {
		s.SucceededFiles = succeeded
		s.FailedFiles = failed
		s.Errors = domain.CapErrors(append([]string(nil), errs...))
	})
}

func (m *MemorySessionStore) FailSession(_ context.Context, sessionID string, reason string) error {
	return m.finish("FailSession", sessionID, domain.SessionFailed, func(s *domain.UploadSession) {
		s.Errors = domain.CapErrors(append(s.Errors, domain.TruncateError(reason)))
	})
}

func (m *MemorySessionStore) CancelSession(_ context.Context, sessionID string) error {
	return m.finish("CancelSession", sessionID, domain.SessionCancelled, func(*domain.UploadSession) {})
}
