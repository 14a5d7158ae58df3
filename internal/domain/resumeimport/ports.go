package resumeimport

import (
	"context"
	"time"
)

type CreateSessionInput struct {
	ID             string
	OwnerID        string
	OrganizationID string
	TotalFiles     int
	Source         string
	Metadata       map[string]any
}

// SessionStore is the durable record of sessions and per-file outcomes. It is
// the only component allowed to declare a file already handled.
type SessionStore interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (string, error)
	GetSession(ctx context.Context, sessionID string) (*UploadSession, error)
	ListSessions(ctx context.Context, organizationID string, limit int) ([]UploadSession, error)
	FindIncompleteSession(ctx context.Context, organizationID string, hashes []string, policy ResumePolicy) (string, error)

	IsProcessed(ctx context.Context, sessionID, hash string) (bool, error)
	FindFile(ctx context.Context, sessionID, hash string) (*UploadFileRecord, error)
	ListFiles(ctx context.Context, sessionID string) ([]UploadFileRecord, error)
	RegisterFile(ctx context.Context, sessionID, fileName, hash string, size *int64) (string, error)
	MarkProcessing(ctx context.Context, sessionID, hash string) error
	MarkCompleted(ctx context.Context, sessionID, hash, candidateID, resumeID string) error
	MarkFailed(ctx context.Context, sessionID, hash, errMsg string) error
	MarkSkipped(ctx context.Context, sessionID, hash, reason string) error

	UpdateProgress(ctx context.Context, sessionID string, processed, succeeded, failed int, errs []string) error
	CompleteSession(ctx context.Context, sessionID string, succeeded, failed int, errs []string) error
	FailSession(ctx context.Context, sessionID string, reason string) error
	CancelSession(ctx context.Context, sessionID string) error
}

// Extractor turns resume bytes into structured candidate fields.
type Extractor interface {
	Extract(ctx context.Context, content []byte, fileName string) (ExtractedFields, error)
}

// PersistenceGateway writes candidates and resumes. WithinTx runs fn against a
// gateway bound to a single transaction; any error rolls everything back.
type PersistenceGateway interface {
	CreateCandidate(ctx context.Context, organizationID string, fields ExtractedFields) (string, error)
	AttachSkills(ctx context.Context, candidateID string, skills []string) error
	CreateResume(ctx context.Context, candidateID, contentHash string, meta FileMeta, qualityScore *int) (string, error)
	FindExistingResumeByHash(ctx context.Context, hash string) (*ExistingResume, error)
	LinkCandidateToOrganization(ctx context.Context, candidateID, organizationID, linkType string) error
	WithinTx(ctx context.Context, fn func(tx PersistenceGateway) error) error
}

// ObjectStore keeps the original resume file. Put returns the stored location.
type ObjectStore interface {
	Put(ctx context.Context, key string, content []byte, contentType string) (string, error)
}

type AuditEvent struct {
	ID             string
	Action         string
	EntityType     string
	EntityID       string
	OrganizationID string
	UserID         string
	Details        map[string]any
	OccurredAt     time.Time
}

// AuditSink accepts events without blocking and without reporting failure.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent)
}

// SessionLease guards a session against concurrent coordinators.
type SessionLease interface {
	Acquire(ctx context.Context, sessionID string) (release func(), err error)
}

type SessionUpdate struct {
	SessionID string        `json:"session_id"`
	Status    SessionStatus `json:"status"`
	Progress  Progress      `json:"progress"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// SessionNotifier pushes live session state to interested listeners.
type SessionNotifier interface {
	Publish(ctx context.Context, update SessionUpdate) error
}
