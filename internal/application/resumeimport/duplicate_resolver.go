package resumeimport

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

const duplicateReason = "duplicate content"

type ResolveAction int

const (
	// ActionProcess hands the file to the ImportWorker.
	ActionProcess ResolveAction = iota
	// ActionAlreadyProcessed means the session already holds a completed or
	// skipped record for this content.
	ActionAlreadyProcessed
	// ActionDuplicate means a resume with this content exists from an
	// earlier import.
	ActionDuplicate
	// ActionSessionClosed means the session was finished elsewhere, usually
	// cancelled, and no more files may attach to it.
	ActionSessionClosed
)

func (a ResolveAction) String() string {
	switch a {
	case ActionAlreadyProcessed:
		return "already_processed"
	case ActionDuplicate:
		return "duplicate"
	case ActionSessionClosed:
		return "session_closed"
	}
	return "process"
}

type Resolution struct {
	Action   ResolveAction
	Prior    *domain.UploadFileRecord
	Existing *domain.ExistingResume
}

type DuplicateResolver struct {
	store   domain.SessionStore
	gateway domain.PersistenceGateway
	retry   *RetryExecutor
	log     logrus.FieldLogger
}

func NewDuplicateResolver(store domain.SessionStore, gateway domain.PersistenceGateway, retry *RetryExecutor, log logrus.FieldLogger) *DuplicateResolver {
	return &DuplicateResolver{store: store, gateway: gateway, retry: retry, log: log}
}

// Resolve decides what happens to one file of a session. Store failures are
// logged and the file falls through to processing: the content-hash
// uniqueness of the resume table still prevents a second candidate.
func (r *DuplicateResolver) Resolve(ctx context.Context, session *domain.UploadSession, file PreparedFile, onRetry RetryObserver) Resolution {
	log := r.log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"file_hash":  domain.ShortHash(file.Hash),
		"file_name":  file.Name,
	})

	processed, err := r.store.IsProcessed(ctx, session.ID, file.Hash)
	if err != nil {
		log.WithError(err).Warn("checkpoint lookup failed, continuing from in-memory state")
	}
	if processed {
		prior, err := r.store.FindFile(ctx, session.ID, file.Hash)
		if err != nil {
			log.WithError(err).Warn("load checkpoint record failed")
		}
		return Resolution{Action: ActionAlreadyProcessed, Prior: prior}
	}

	existing, err := Retry(ctx, r.retry, "find_existing_resume", func(ctx context.Context) (*domain.ExistingResume, error) {
		return r.gateway.FindExistingResumeByHash(ctx, file.Hash)
	}, onRetry)
	if err != nil {
		log.WithError(err).Warn("global duplicate lookup failed")
		existing = nil
	}

	size := file.Size
	if _, err := r.store.RegisterFile(ctx, session.ID, file.Name, file.Hash, &size); err != nil {
		if errors.Is(err, domain.ErrSessionClosed) {
			log.Info("session closed, file not registered")
			return Resolution{Action: ActionSessionClosed}
		}
		log.WithError(err).Warn("register file failed")
	}

	if existing == nil {
		return Resolution{Action: ActionProcess}
	}

	if err := r.store.MarkSkipped(ctx, session.ID, file.Hash, duplicateReason); err != nil {
		log.WithError(err).Warn("mark skipped failed")
	}
	if existing.CandidateID != "" {
		if err := r.gateway.LinkCandidateToOrganization(ctx, existing.CandidateID, session.OrganizationID, sanitizeLinkType(session.Source)); err != nil {
			log.WithError(err).Warn("relink existing candidate failed")
		}
	}
	log.WithField("candidate_id", existing.CandidateID).Info("duplicate content skipped")

	return Resolution{Action: ActionDuplicate, Existing: existing}
}
