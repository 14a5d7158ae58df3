package resumeimport

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

const defaultMaxFileBytes = 10 * 1024 * 1024

type persistedIDs struct {
	candidateID string
	resumeID    string
}

type ImportWorkerConfig struct {
	MaxFileBytes int64
}

// ImportWorker runs the per-file pipeline: mark processing, extract, store the
// original, persist candidate + skills + resume, record the outcome.
type ImportWorker struct {
	store     domain.SessionStore
	extractor domain.Extractor
	gateway   domain.PersistenceGateway
	objects   domain.ObjectStore
	retry     *RetryExecutor
	log       logrus.FieldLogger
	cfg       ImportWorkerConfig
}

func NewImportWorker(
	store domain.SessionStore,
	extractor domain.Extractor,
	gateway domain.PersistenceGateway,
	objects domain.ObjectStore,
	retry *RetryExecutor,
	log logrus.FieldLogger,
	cfg ImportWorkerConfig,
) *ImportWorker {
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = defaultMaxFileBytes
	}

	return &ImportWorker{
		store:     store,
		extractor: extractor,
		gateway:   gateway,
		objects:   objects,
		retry:     retry,
		log:       log,
		cfg:       cfg,
	}
}

// Process drives one file to a terminal state. Failures are reported on the
// result and never returned: they belong to the file, not the session.
func (w *ImportWorker) Process(ctx context.Context, session *domain.UploadSession, file PreparedFile, onRetry RetryObserver) FileResult {
	log := w.log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"file_hash":  domain.ShortHash(file.Hash),
		"file_name":  file.Name,
	})
	result := FileResult{FileName: file.Name, ContentHash: file.Hash}

	if err := w.validate(file); err != nil {
		return w.onProcessingError(ctx, log, session, result, err)
	}

	if err := w.store.MarkProcessing(ctx, session.ID, file.Hash); err != nil {
		log.WithError(err).Warn("mark processing failed")
	}

	fields, err := Retry(ctx, w.retry, "extract_resume", func(ctx context.Context) (domain.ExtractedFields, error) {
		return w.extractor.Extract(ctx, file.Content, file.Name)
	}, onRetry)
	if err != nil {
		return w.onProcessingError(ctx, log, session, result, fmt.Errorf("extract: %w", err))
	}

	fields = SanitizeFields(fields)
	result.Fields = &fields

	fileURL, err := w.storeOriginal(ctx, session, file, onRetry)
	if err != nil {
		return w.onProcessingError(ctx, log, session, result, fmt.Errorf("store resume file: %w", err))
	}

	meta := domain.FileMeta{
		FileName:    file.Name,
		FileURL:     fileURL,
		ContentType: file.ContentType,
		Size:        file.Size,
	}

	ids, err := Retry(ctx, w.retry, "persist_candidate", func(ctx context.Context) (persistedIDs, error) {
		var out persistedIDs
		txErr := w.gateway.WithinTx(ctx, func(tx domain.PersistenceGateway) error {
			candidateID, err := tx.CreateCandidate(ctx, session.OrganizationID, fields)
			if err != nil {
				return err
			}
			if err := tx.AttachSkills(ctx, candidateID, fields.Skills); err != nil {
				return err
			}
			resumeID, err := tx.CreateResume(ctx, candidateID, file.Hash, meta, fields.QualityScore)
			if err != nil {
				return err
			}
			out = persistedIDs{candidateID: candidateID, resumeID: resumeID}
			return nil
		})
		return out, txErr
	}, onRetry)
	if errors.Is(err, domain.ErrDuplicateContent) {
		if markErr := w.store.MarkSkipped(ctx, session.ID, file.Hash, duplicateReason); markErr != nil {
			log.WithError(markErr).Warn("mark skipped failed")
		}
		log.Info("resume content already persisted, skipping")
		result.Status = domain.FileSkipped
		result.Message = duplicateReason
		return result
	}
	if err != nil {
		return w.onProcessingError(ctx, log, session, result, fmt.Errorf("persist candidate: %w", err))
	}

	if err := w.store.MarkCompleted(ctx, session.ID, file.Hash, ids.candidateID, ids.resumeID); err != nil {
		log.WithError(err).Warn("mark completed failed")
	}

	result.Status = domain.FileCompleted
	result.CandidateID = ids.candidateID
	result.ResumeID = ids.resumeID
	log.WithField("candidate_id", ids.candidateID).Info("resume imported")
	return result
}

func (w *ImportWorker) validate(file PreparedFile) error {
	if file.Size == 0 {
		return domain.ErrEmptyFile
	}
	if file.Size > w.cfg.MaxFileBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrFileTooLarge, file.Size, w.cfg.MaxFileBytes)
	}
	return nil
}

func (w *ImportWorker) storeOriginal(ctx context.Context, session *domain.UploadSession, file PreparedFile, onRetry RetryObserver) (string, error) {
	if w.objects == nil {
		return "", nil
	}

	key := ObjectKey(session.OrganizationID, file.Name)
	return Retry(ctx, w.retry, "store_resume_file", func(ctx context.Context) (string, error) {
		return w.objects.Put(ctx, key, file.Content, file.ContentType)
	}, onRetry)
}

func (w *ImportWorker) onProcessingError(ctx context.Context, log logrus.FieldLogger, session *domain.UploadSession, result FileResult, err error) FileResult {
	reason := domain.TruncateError(err.Error())
	if markErr := w.store.MarkFailed(ctx, session.ID, result.ContentHash, reason); markErr != nil {
		log.WithError(markErr).Warn("mark failed failed")
	}
	log.WithError(err).Warn("resume import failed")

	result.Status = domain.FileFailed
	result.Error = reason
	result.Message = FriendlyMessage(err)
	return result
}

// ObjectKey places sourced resumes under their organisation with a random name.
func ObjectKey(organizationID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("sourced/%s/%s%s", organizationID, uuid.NewString(), ext)
}
