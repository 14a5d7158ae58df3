package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
	"github.com/hireloop/resume-import/internal/infrastructure/db/models"
)

// SessionStore keeps upload sessions and their file records in Postgres.
// File updates only apply from an allowed predecessor status, so completed
// and skipped records are never rewritten.
type SessionStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

func (r *SessionStore) CreateSession(ctx context.Context, in domain.CreateSessionInput) (string, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}

	row := models.UploadSession{
		ID:             id,
		UserID:         in.OwnerID,
		OrganizationID: in.OrganizationID,
		TotalFiles:     in.TotalFiles,
		Status:         string(domain.SessionInProgress),
		Source:         in.Source,
		Errors:         datatypes.JSONSlice[string]{},
		Metadata:       datatypes.JSONMap(in.Metadata),
		StartedAt:      r.now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", domain.NewPersistenceError("create_session", err)
	}
	return row.ID, nil
}

func (r *SessionStore) GetSession(ctx context.Context, sessionID string) (*domain.UploadSession, error) {
	var row models.UploadSession
	err := r.db.WithContext(ctx).First(&row, "id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, domain.NewPersistenceError("get_session", err)
	}

	session := toDomainSession(row)
	return &session, nil
}

func (r *SessionStore) ListSessions(ctx context.Context, organizationID string, limit int) ([]domain.UploadSession, error) {
	var rows []models.UploadSession
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("started_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, domain.NewPersistenceError("list_sessions", err)
	}

	out := make([]domain.UploadSession, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainSession(row))
	}
	return out, nil
}

// FindIncompleteSession looks at the organisation's most recent in_progress
// session inside the policy window and reports it when enough of the sampled
// hashes are already registered in it.
func (r *SessionStore) FindIncompleteSession(ctx context.Context, organizationID string, hashes []string, policy domain.ResumePolicy) (string, error) {
	sample := policy.Sample(hashes)
	if len(sample) == 0 {
		return "", nil
	}

	var row models.UploadSession
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND status = ? AND started_at >= ?",
			organizationID, string(domain.SessionInProgress), policy.Cutoff(r.now().UTC())).
		Order("started_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", domain.NewPersistenceError("find_incomplete_session", err)
	}

	var matched int64
	err = r.db.WithContext(ctx).
		Model(&models.UploadFile{}).
		Where("session_id = ? AND file_hash IN ?", row.ID, sample).
		Count(&matched).Error
	if err != nil {
		return "", domain.NewPersistenceError("find_incomplete_session", err)
	}

	if !policy.Matches(int(matched), len(hashes)) {
		return "", nil
	}
	return row.ID, nil
}

func (r *SessionStore) IsProcessed(ctx context.Context, sessionID, hash string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.UploadFile{}).
		Where("session_id = ? AND file_hash = ? AND status IN ?", sessionID, hash,
			[]string{string(domain.FileCompleted), string(domain.FileSkipped)}).
		Count(&n).Error
	if err != nil {
		return false, domain.NewPersistenceError("is_processed", err)
	}
	return n > 0, nil
}

func (r *SessionStore) FindFile(ctx context.Context, sessionID, hash string) (*domain.UploadFileRecord, error) {
	var row models.UploadFile
	err := r.db.WithContext(ctx).First(&row, "session_id = ? AND file_hash = ?", sessionID, hash).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFileNotFound
		}
		return nil, domain.NewPersistenceError("find_file", err)
	}

	rec := toDomainFile(row)
	return &rec, nil
}

func (r *SessionStore) ListFiles(ctx context.Context, sessionID string) ([]domain.UploadFileRecord, error) {
	var rows []models.UploadFile
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, domain.NewPersistenceError("list_files", err)
	}

	out := make([]domain.UploadFileRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainFile(row))
	}
	return out, nil
}

// RegisterFile inserts a pending record once per (session, hash). Existing
// records keep their status.
func (r *SessionStore) RegisterFile(ctx context.Context, sessionID, fileName, hash string, size *int64) (string, error) {
	var id string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.UploadSession
		if err := tx.Select("id", "status").First(&session, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrSessionNotFound
			}
			return err
		}

		var existing models.UploadFile
		err := tx.Select("id").First(&existing, "session_id = ? AND file_hash = ?", sessionID, hash).Error
		if err == nil {
			id = existing.ID
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if domain.SessionStatus(session.Status).IsTerminal() {
			return domain.ErrSessionClosed
		}

		row := models.UploadFile{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			FileName:  fileName,
			FileHash:  hash,
			FileSize:  size,
			Status:    string(domain.FilePending),
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "file_hash"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			id = row.ID
			return nil
		}

		// lost a race with a concurrent registration of the same content
		if err := tx.Select("id").First(&existing, "session_id = ? AND file_hash = ?", sessionID, hash).Error; err != nil {
			return err
		}
		id = existing.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrSessionClosed) {
			return "", err
		}
		return "", domain.NewPersistenceError("register_file", err)
	}
	return id, nil
}

func (r *SessionStore) MarkProcessing(ctx context.Context, sessionID, hash string) error {
	return r.transitionFile(ctx, "mark_processing", sessionID, hash, domain.FileProcessing, map[string]any{
		"started_at": r.now().UTC(),
	})
}

func (r *SessionStore) MarkCompleted(ctx context.Context, sessionID, hash, candidateID, resumeID string) error {
	return r.transitionFile(ctx, "mark_completed", sessionID, hash, domain.FileCompleted, map[string]any{
		"candidate_id":  nullableText(candidateID),
		"resume_id":     nullableText(resumeID),
		"error_message": nil,
		"completed_at":  r.now().UTC(),
	})
}

func (r *SessionStore) MarkFailed(ctx context.Context, sessionID, hash, errMsg string) error {
	return r.transitionFile(ctx, "mark_failed", sessionID, hash, domain.FileFailed, map[string]any{
		"error_message": domain.TruncateError(errMsg),
		"completed_at":  r.now().UTC(),
	})
}

func (r *SessionStore) MarkSkipped(ctx context.Context, sessionID, hash, reason string) error {
	return r.transitionFile(ctx, "mark_skipped", sessionID, hash, domain.FileSkipped, map[string]any{
		"error_message": domain.TruncateError(reason),
		"completed_at":  r.now().UTC(),
	})
}

func (r *SessionStore) transitionFile(ctx context.Context, op, sessionID, hash string, next domain.FileStatus, fields map[string]any) error {
	allowed := domain.AllowedPredecessors(next)
	from := make([]string, 0, len(allowed))
	for _, s := range allowed {
		from = append(from, string(s))
	}

	fields["status"] = string(next)
	fields["updated_at"] = r.now().UTC()

	res := r.db.WithContext(ctx).
		Model(&models.UploadFile{}).
		Where("session_id = ? AND file_hash = ? AND status IN ?", sessionID, hash, from).
		Updates(fields)
	if res.Error != nil {
		return domain.NewPersistenceError(op, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.db.WithContext(ctx).
		Model(&models.UploadFile{}).
		Where("session_id = ? AND file_hash = ?", sessionID, hash).
		Count(&n).Error; err != nil {
		return domain.NewPersistenceError(op, err)
	}
	if n == 0 {
		return domain.ErrFileNotFound
	}
	// record is in a checkpoint state and stays as it is
	return nil
}

func (r *SessionStore) UpdateProgress(ctx context.Context, sessionID string, processed, succeeded, failed int, errs []string) error {
	res := r.db.WithContext(ctx).
		Model(&models.UploadSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"processed_files": processed,
			"succeeded_files": succeeded,
			"failed_files":    failed,
			"errors":          datatypes.JSONSlice[string](domain.CapErrors(errs)),
			"updated_at":      r.now().UTC(),
		})
	if res.Error != nil {
		return domain.NewPersistenceError("update_progress", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionStore) CompleteSession(ctx context.Context, sessionID string, succeeded, failed int, errs []string) error {
	return r.finishSession(ctx, "complete_session", sessionID, domain.SessionCompleted, map[string]any{
		"succeeded_files": succeeded,
		"failed_files":    failed,
		"errors":          datatypes.JSONSlice[string](domain.CapErrors(errs)),
	})
}

func (r *SessionStore) FailSession(ctx context.Context, sessionID string, reason string) error {
	return r.finishSession(ctx, "fail_session", sessionID, domain.SessionFailed, map[string]any{
		"errors": datatypes.JSONSlice[string]{domain.TruncateError(reason)},
	})
}

func (r *SessionStore) CancelSession(ctx context.Context, sessionID string) error {
	return r.finishSession(ctx, "cancel_session", sessionID, domain.SessionCancelled, map[string]any{})
}

// finishSession moves an in_progress session to a terminal status. Sessions
// never leave a terminal status.
func (r *SessionStore) finishSession(ctx context.Context, op, sessionID string, next domain.SessionStatus, fields map[string]any) error {
	now := r.now().UTC()
	fields["status"] = string(next)
	fields["completed_at"] = now
	fields["updated_at"] = now

	res := r.db.WithContext(ctx).
		Model(&models.UploadSession{}).
		Where("id = ? AND status = ?", sessionID, string(domain.SessionInProgress)).
		Updates(fields)
	if res.Error != nil {
		return domain.NewPersistenceError(op, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&models.UploadSession{}).Where("id = ?", sessionID).Count(&n).Error; err != nil {
		return domain.NewPersistenceError(op, err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return domain.ErrSessionClosed
}

func toDomainSession(row models.UploadSession) domain.UploadSession {
	return domain.UploadSession{
		ID:             row.ID,
		OwnerID:        row.UserID,
		OrganizationID: row.OrganizationID,
		TotalFiles:     row.TotalFiles,
		ProcessedFiles: row.ProcessedFiles,
		SucceededFiles: row.SucceededFiles,
		FailedFiles:    row.FailedFiles,
		Status:         domain.SessionStatus(row.Status),
		Source:         row.Source,
		StartedAt:      row.StartedAt,
		CompletedAt:    row.CompletedAt,
		Errors:         []string(row.Errors),
		Metadata:       map[string]any(row.Metadata),
	}
}

func toDomainFile(row models.UploadFile) domain.UploadFileRecord {
	return domain.UploadFileRecord{
		ID:           row.ID,
		SessionID:    row.SessionID,
		FileName:     row.FileName,
		ContentHash:  row.FileHash,
		FileSize:     row.FileSize,
		Status:       domain.FileStatus(row.Status),
		CandidateID:  derefText(row.CandidateID),
		ResumeID:     derefText(row.ResumeID),
		ErrorMessage: derefText(row.ErrorMessage),
		StartedAt:    row.StartedAt,
		CompletedAt:  row.CompletedAt,
	}
}

func nullableText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func derefText(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
