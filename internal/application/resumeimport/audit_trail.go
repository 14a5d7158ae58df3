package resumeimport

import (
	"context"
	"time"

	"github.com/google/uuid"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

const (
	ActionImportStart    = "bulk_import_start"
	ActionImportProgress = "bulk_import_progress"
	ActionImportComplete = "bulk_import_complete"
	ActionImportCancel   = "bulk_import_cancel"
	ActionImportError    = "bulk_import_error"
	ActionRetryAttempt   = "retry_attempt"
	ActionUploadResume   = "upload_resume"

	entitySession = "bulk_upload_session"
	entityResume  = "resumes"

	maxAuditErrors   = 10
	maxAuditErrorLen = 200
)

// auditTrail shapes pipeline events for the AuditSink. Every method is
// fire-and-forget.
type auditTrail struct {
	sink domain.AuditSink
	now  func() time.Time
}

func newAuditTrail(sink domain.AuditSink) auditTrail {
	return auditTrail{sink: sink, now: time.Now}
}

func (a auditTrail) record(ctx context.Context, s *domain.UploadSession, action, entityType, entityID string, details map[string]any) {
	if a.sink == nil {
		return
	}
	event := domain.AuditEvent{
		ID:         uuid.NewString(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		OccurredAt: a.now().UTC(),
	}
	if s != nil {
		event.OrganizationID = s.OrganizationID
		event.UserID = s.OwnerID
	}
	a.sink.Record(ctx, event)
}

func (a auditTrail) sessionStarted(ctx context.Context, s *domain.UploadSession, resumed bool) {
	a.record(ctx, s, ActionImportStart, entitySession, s.ID, map[string]any{
		"total_files": s.TotalFiles,
		"source":      s.Source,
		"resumed":     resumed,
		"status":      "started",
	})
}

func (a auditTrail) progress(ctx context.Context, s *domain.UploadSession, p domain.Progress) {
	pct := 0
	if p.Total > 0 {
		pct = p.Processed * 100 / p.Total
	}
	a.record(ctx, s, ActionImportProgress, entitySession, s.ID, map[string]any{
		"processed":           p.Processed,
		"total":               p.Total,
		"succeeded":           p.Succeeded,
		"failed":              p.Failed,
		"progress_percentage": pct,
	})
}

func (a auditTrail) sessionCompleted(ctx context.Context, s *domain.UploadSession, p domain.Progress, errs []string) {
	a.record(ctx, s, ActionImportComplete, entitySession, s.ID, map[string]any{
		"total_files": p.Total,
		"succeeded":   p.Succeeded,
		"failed":      p.Failed,
		"skipped":     p.Skipped,
		"errors":      firstErrors(errs),
		"status":      string(domain.SessionCompleted),
	})
}

func (a auditTrail) sessionCancelled(ctx context.Context, s *domain.UploadSession, p domain.Progress) {
	a.record(ctx, s, ActionImportCancel, entitySession, s.ID, map[string]any{
		"processed": p.Processed,
		"total":     p.Total,
		"status":    string(domain.SessionCancelled),
	})
}

func (a auditTrail) sessionError(ctx context.Context, s *domain.UploadSession, err error, extra map[string]any) {
	a.record(ctx, s, ActionImportError, entitySession, s.ID, map[string]any{
		"error":   truncate(err.Error(), maxAuditErrorLen),
		"context": extra,
	})
}

func (a auditTrail) retryAttempt(ctx context.Context, s *domain.UploadSession, fileHash string, attempt RetryAttempt) {
	a.record(ctx, s, ActionRetryAttempt, "bulk_upload_file", fileHash, map[string]any{
		"operation":   attempt.Operation,
		"attempt":     attempt.Attempt,
		"max_retries": attempt.MaxRetries,
		"delay_ms":    attempt.Delay.Milliseconds(),
		"error":       truncate(attempt.Err.Error(), maxAuditErrorLen),
		"session_id":  s.ID,
	})
}

func (a auditTrail) fileOutcome(ctx context.Context, s *domain.UploadSession, res FileResult) {
	details := map[string]any{
		"file_name":    res.FileName,
		"content_hash": res.ContentHash,
		"status":       string(res.Status),
		"success":      res.Status == domain.FileCompleted,
		"session_id":   s.ID,
	}
	if res.Error != "" {
		details["error"] = truncate(res.Error, maxAuditErrorLen)
	}
	a.record(ctx, s, ActionUploadResume, entityResume, res.CandidateID, details)
}

func firstErrors(errs []string) []string {
	n := min(len(errs), maxAuditErrors)
	out := make([]string, 0, n)
	for _, e := range errs[:n] {
		out = append(out, truncate(e, maxAuditErrorLen))
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
