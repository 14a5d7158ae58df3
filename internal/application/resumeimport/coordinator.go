package resumeimport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

const (
	defaultSource      = "resume_upload"
	defaultConcurrency = 5
	maxConcurrency     = 8
	defaultMaxFiles    = 1000
	defaultListLimit   = 10
	maxListLimit       = 100
	maxRetainedRuns    = 256
)

type ImportFile struct {
	Name        string
	ContentType string
	Content     []byte
}

type StartImportInput struct {
	// SessionID resumes or names a session explicitly. When empty the
	// coordinator looks for an interrupted session with overlapping content.
	SessionID      string
	OwnerID        string
	OrganizationID string
	Source         string
	Files          []ImportFile
	Metadata       map[string]any
}

// PreparedFile is an ImportFile after fingerprinting.
type PreparedFile struct {
	Index       int
	Name        string
	Hash        string
	Size        int64
	ContentType string
	Content     []byte

	// duplicateOf is the index of an earlier file in the batch with the same
	// content, or -1.
	duplicateOf int
}

type FileResult struct {
	FileName    string                  `json:"file_name"`
	ContentHash string                  `json:"content_hash"`
	Status      domain.FileStatus       `json:"status"`
	Error       string                  `json:"error,omitempty"`
	Message     string                  `json:"message,omitempty"`
	CandidateID string                  `json:"candidate_id,omitempty"`
	ResumeID    string                  `json:"resume_id,omitempty"`
	Fields      *domain.ExtractedFields `json:"extracted_fields,omitempty"`
}

type ImportReport struct {
	SessionID string          `json:"session_id"`
	Resumed   bool            `json:"resumed"`
	Progress  domain.Progress `json:"progress"`
	Errors    []string        `json:"errors,omitempty"`
	Results   []FileResult    `json:"results"`
}

type CoordinatorDeps struct {
	Store     domain.SessionStore
	Gateway   domain.PersistenceGateway
	Extractor domain.Extractor
	Objects   domain.ObjectStore
	Audit     domain.AuditSink
	Lease     domain.SessionLease
	Notifier  domain.SessionNotifier
	Log       logrus.FieldLogger
}

type CoordinatorConfig struct {
	Concurrency        int
	MaxFiles           int
	MaxFileBytes       int64
	Retry              RetryOptions
	ResumePolicy       domain.ResumePolicy
	// ProgressAuditEvery emits a progress audit event every N resolved files.
	ProgressAuditEvery int
}

// SessionCoordinator drives import batches: it opens or resumes a session,
// resolves and dispatches files over a bounded pool, keeps the session
// aggregates current and finalizes the session.
type SessionCoordinator struct {
	store    domain.SessionStore
	lease    domain.SessionLease
	notifier domain.SessionNotifier
	log      logrus.FieldLogger
	cfg      CoordinatorConfig

	resolver *DuplicateResolver
	worker   *ImportWorker
	audit    auditTrail
	now      func() time.Time

	mu      sync.Mutex
	runs    map[string]*sessionRun
	order   []string
	baseCtx context.Context
	wg      sync.WaitGroup
}

func NewSessionCoordinator(deps CoordinatorDeps, cfg CoordinatorConfig) *SessionCoordinator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Concurrency > maxConcurrency {
		cfg.Concurrency = maxConcurrency
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = defaultMaxFiles
	}
	if cfg.ProgressAuditEvery <= 0 {
		cfg.ProgressAuditEvery = 10
	}

	log := deps.Log
	if log == nil {
		discard := logrus.New()
		discard.SetLevel(logrus.PanicLevel)
		log = discard
	}

	retry := NewRetryExecutor(cfg.Retry, log)

	return &SessionCoordinator{
		store:    deps.Store,
		lease:    deps.Lease,
		notifier: deps.Notifier,
		log:      log,
		cfg:      cfg,
		resolver: NewDuplicateResolver(deps.Store, deps.Gateway, retry, log),
		worker: NewImportWorker(deps.Store, deps.Extractor, deps.Gateway, deps.Objects, retry, log, ImportWorkerConfig{
			MaxFileBytes: cfg.MaxFileBytes,
		}),
		audit:   newAuditTrail(deps.Audit),
		now:     time.Now,
		runs:    make(map[string]*sessionRun),
		baseCtx: context.Background(),
	}
}

// WithSleeper replaces the retry backoff sleep. Used by tests.
func (c *SessionCoordinator) WithSleeper(sleep func(ctx context.Context, d time.Duration) bool) *SessionCoordinator {
	retry := c.worker.retry.WithSleeper(sleep)
	c.worker.retry = retry
	c.resolver.retry = retry
	return c
}

// Start sets the context background imports run under. Cancelling it stops
// dispatch and leaves unfinished sessions in_progress so they can be resumed.
func (c *SessionCoordinator) Start(ctx context.Context) {
	c.mu.Lock()
	c.baseCtx = ctx
	c.mu.Unlock()
}

// Wait blocks until every background import has returned.
func (c *SessionCoordinator) Wait() {
	c.wg.Wait()
}

// Run imports a batch synchronously and returns the per-file breakdown.
func (c *SessionCoordinator) Run(ctx context.Context, in StartImportInput) (ImportReport, error) {
	run, err := c.begin(ctx, in)
	if err != nil {
		return ImportReport{}, err
	}
	return c.drive(ctx, run)
}

// StartImport opens or resumes the session and processes the batch in the
// background. The returned id is pollable through GetProgress and GetResults.
func (c *SessionCoordinator) StartImport(ctx context.Context, in StartImportInput) (string, error) {
	run, err := c.begin(ctx, in)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	base := c.baseCtx
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.drive(base, run); err != nil {
			c.log.WithError(err).WithField("session_id", run.session.ID).Error("background import stopped")
		}
	}()

	return run.session.ID, nil
}

func (c *SessionCoordinator) validate(in StartImportInput) error {
	if in.OrganizationID == "" || in.OwnerID == "" {
		return fmt.Errorf("%w: organization_id and owner_id are required", ErrInvalidImportRequest)
	}
	if len(in.Files) == 0 {
		return fmt.Errorf("%w: no files", ErrInvalidImportRequest)
	}
	if len(in.Files) > c.cfg.MaxFiles {
		return fmt.Errorf("%w: %d files, limit is %d", ErrTooManyFiles, len(in.Files), c.cfg.MaxFiles)
	}
	for i, f := range in.Files {
		if f.Name == "" {
			return fmt.Errorf("%w: file %d has no name", ErrInvalidImportRequest, i)
		}
	}
	return nil
}

// prepare fingerprints every file and marks in-batch copies.
func prepare(files []ImportFile) []PreparedFile {
	out := make([]PreparedFile, len(files))
	firstByHash := make(map[string]int, len(files))
	for i, f := range files {
		hash := domain.Fingerprint(f.Content)
		dup := -1
		if first, ok := firstByHash[hash]; ok {
			dup = first
		} else {
			firstByHash[hash] = i
		}
		out[i] = PreparedFile{
			Index:       i,
			Name:        f.Name,
			Hash:        hash,
			Size:        int64(len(f.Content)),
			ContentType: f.ContentType,
			Content:     f.Content,
			duplicateOf: dup,
		}
	}
	return out
}

func (c *SessionCoordinator) begin(ctx context.Context, in StartImportInput) (*sessionRun, error) {
	if err := c.validate(in); err != nil {
		return nil, err
	}
	if in.Source == "" {
		in.Source = defaultSource
	}

	files := prepare(in.Files)

	session, resumed, err := c.openSession(ctx, in, files)
	if err != nil {
		return nil, err
	}

	release := func() {}
	if c.lease != nil {
		release, err = c.lease.Acquire(ctx, session.ID)
		if err != nil {
			if errors.Is(err, domain.ErrSessionLeased) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: acquire session lease: %v", ErrStartImport, err)
		}
	}

	run := newSessionRun(session, files, resumed, release)
	if err := c.register(run); err != nil {
		release()
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"session_id":  session.ID,
		"total_files": len(files),
		"resumed":     resumed,
	}).Info("import session started")
	c.audit.sessionStarted(ctx, session, resumed)
	c.publish(ctx, run, "")

	return run, nil
}

func (c *SessionCoordinator) openSession(ctx context.Context, in StartImportInput, files []PreparedFile) (*domain.UploadSession, bool, error) {
	if in.SessionID != "" {
		session, err := c.store.GetSession(ctx, in.SessionID)
		switch {
		case err == nil && session.Status != domain.SessionInProgress:
			return nil, false, fmt.Errorf("%w: %s", ErrSessionNotActive, session.Status)
		case err == nil && session.TotalFiles >= len(files):
			return session, true, nil
		case err == nil:
			return nil, false, fmt.Errorf("%w: session holds %d files, batch has %d", ErrInvalidImportRequest, session.TotalFiles, len(files))
		case !errors.Is(err, domain.ErrSessionNotFound):
			return nil, false, fmt.Errorf("%w: %v", ErrStartImport, err)
		}
	} else if session := c.findResumable(ctx, in, files); session != nil {
		return session, true, nil
	}

	id := in.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	id, err := c.store.CreateSession(ctx, domain.CreateSessionInput{
		ID:             id,
		OwnerID:        in.OwnerID,
		OrganizationID: in.OrganizationID,
		TotalFiles:     len(files),
		Source:         in.Source,
		Metadata:       in.Metadata,
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrStartImport, err)
	}

	return &domain.UploadSession{
		ID:             id,
		OwnerID:        in.OwnerID,
		OrganizationID: in.OrganizationID,
		TotalFiles:     len(files),
		Status:         domain.SessionInProgress,
		Source:         in.Source,
		StartedAt:      c.now().UTC(),
		Metadata:       in.Metadata,
	}, false, nil
}

// findResumable returns an interrupted session whose registered files overlap
// the batch. Lookup failures fall back to a new session.
func (c *SessionCoordinator) findResumable(ctx context.Context, in StartImportInput, files []PreparedFile) *domain.UploadSession {
	hashes := make([]string, len(files))
	for i, f := range files {
		hashes[i] = f.Hash
	}

	id, err := c.store.FindIncompleteSession(ctx, in.OrganizationID, hashes, c.cfg.ResumePolicy)
	if err != nil {
		c.log.WithError(err).Warn("incomplete session lookup failed, starting new session")
		return nil
	}
	if id == "" {
		return nil
	}

	session, err := c.store.GetSession(ctx, id)
	if err != nil {
		c.log.WithError(err).WithField("session_id", id).Warn("load incomplete session failed, starting new session")
		return nil
	}
	if session.Status != domain.SessionInProgress || session.TotalFiles < len(files) {
		return nil
	}
	return session
}

func (c *SessionCoordinator) register(run *sessionRun) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.runs[run.session.ID]; ok && !existing.finished() {
		return domain.ErrSessionLeased
	}

	if _, ok := c.runs[run.session.ID]; !ok {
		c.order = append(c.order, run.session.ID)
	}
	c.runs[run.session.ID] = run

	for len(c.order) > maxRetainedRuns {
		oldest := c.order[0]
		if r := c.runs[oldest]; r != nil && !r.finished() {
			break
		}
		delete(c.runs, oldest)
		c.order = c.order[1:]
	}
	return nil
}

func (c *SessionCoordinator) lookup(sessionID string) *sessionRun {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs[sessionID]
}

func (c *SessionCoordinator) drive(ctx context.Context, run *sessionRun) (ImportReport, error) {
	defer run.release()
	defer close(run.done)

	log := c.log.WithField("session_id", run.session.ID)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for _, file := range run.files {
		file := file
		if run.cancelled.Load() || gctx.Err() != nil {
			break
		}

		if file.duplicateOf >= 0 {
			first := run.files[file.duplicateOf]
			c.record(ctx, run, file.Index, FileResult{
				FileName:    file.Name,
				ContentHash: file.Hash,
				Status:      domain.FileSkipped,
				Message:     fmt.Sprintf("Same content as %s in this upload.", first.Name),
			})
			continue
		}

		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("import %s panicked: %v", file.Name, r)
				}
			}()
			if run.cancelled.Load() || c.closedInStore(ctx, run) {
				return nil
			}
			run.markDispatched(file.Index)
			res, ok := c.processFile(ctx, run, file)
			if !ok {
				run.unmarkDispatched(file.Index)
				c.adoptStoredStatus(ctx, run)
				return nil
			}
			c.record(ctx, run, file.Index, res)
			return nil
		})
	}

	waitErr := g.Wait()

	switch {
	case run.cancelled.Load():
		c.persistProgress(ctx, run)
		return c.stopped(ctx, run, run.stoppedStatus()), nil

	case waitErr != nil:
		c.persistProgress(ctx, run)
		reason := domain.TruncateError(waitErr.Error())
		if err := c.store.FailSession(ctx, run.session.ID, reason); err != nil {
			if errors.Is(err, domain.ErrSessionClosed) {
				log.WithError(waitErr).Warn("import failed after the session was closed")
				return c.stopped(ctx, run, c.storedStatus(ctx, run)), nil
			}
			log.WithError(err).Warn("fail session failed")
		}
		run.finish(domain.SessionFailed)
		log.WithError(waitErr).Error("import session failed")
		c.audit.sessionError(ctx, run.session, waitErr, map[string]any{"phase": "dispatch"})
		c.publish(ctx, run, reason)
		return run.report(), fmt.Errorf("session %s: %w", run.session.ID, waitErr)

	case ctx.Err() != nil:
		c.persistProgress(context.WithoutCancel(ctx), run)
		run.finish(domain.SessionInProgress)
		log.Warn("import interrupted, session left resumable")
		return run.report(), ctx.Err()
	}

	p := run.progress()
	errs := run.errorList()
	if err := c.store.UpdateProgress(ctx, run.session.ID, p.Processed, p.Succeeded, p.Failed, errs); err != nil {
		log.WithError(err).Warn("final progress update failed")
	}
	if err := c.store.CompleteSession(ctx, run.session.ID, p.Succeeded, p.Failed, errs); err != nil {
		if errors.Is(err, domain.ErrSessionClosed) {
			return c.stopped(ctx, run, c.storedStatus(ctx, run)), nil
		}
		log.WithError(err).Error("complete session failed")
	}
	run.finish(domain.SessionCompleted)

	log.WithFields(logrus.Fields{
		"succeeded": p.Succeeded,
		"failed":    p.Failed,
		"skipped":   p.Skipped,
	}).Info("import session completed")
	c.audit.progress(ctx, run.session, run.progress())
	c.audit.sessionCompleted(ctx, run.session, run.progress(), errs)
	c.publish(ctx, run, "")

	return run.report(), nil
}

// stopped finalizes a run whose session was closed before it could complete,
// by this process or another one. status is what the store holds.
func (c *SessionCoordinator) stopped(ctx context.Context, run *sessionRun, status domain.SessionStatus) ImportReport {
	run.finish(status)
	p := run.progress()
	c.log.WithFields(logrus.Fields{
		"session_id": run.session.ID,
		"status":     status,
		"processed":  p.Processed,
	}).Info("import session stopped")
	if status == domain.SessionCancelled {
		c.audit.sessionCancelled(ctx, run.session, p)
	}
	c.publish(ctx, run, string(status))
	return run.report()
}

// closedInStore reports whether the session was finished outside this run,
// e.g. cancelled through another replica. Read failures keep the run going.
func (c *SessionCoordinator) closedInStore(ctx context.Context, run *sessionRun) bool {
	session, err := c.store.GetSession(ctx, run.session.ID)
	if err != nil {
		c.log.WithError(err).WithField("session_id", run.session.ID).Warn("session status check failed")
		return false
	}
	if !session.Status.IsTerminal() {
		return false
	}
	run.stop(session.Status)
	return true
}

func (c *SessionCoordinator) adoptStoredStatus(ctx context.Context, run *sessionRun) {
	run.stop(c.storedStatus(ctx, run))
}

// storedStatus is the terminal status the store holds for a session this run
// could not finish. Anything else reads as cancelled.
func (c *SessionCoordinator) storedStatus(ctx context.Context, run *sessionRun) domain.SessionStatus {
	session, err := c.store.GetSession(context.WithoutCancel(ctx), run.session.ID)
	if err != nil || !session.Status.IsTerminal() {
		return domain.SessionCancelled
	}
	return session.Status
}

// processFile resolves and imports one file. ok is false when the session
// was closed before the file could be registered.
func (c *SessionCoordinator) processFile(ctx context.Context, run *sessionRun, file PreparedFile) (res FileResult, ok bool) {
	onRetry := func(ctx context.Context, attempt RetryAttempt) {
		c.audit.retryAttempt(ctx, run.session, file.Hash, attempt)
	}

	resolution := c.resolver.Resolve(ctx, run.session, file, onRetry)
	switch resolution.Action {
	case ActionSessionClosed:
		return FileResult{}, false
	case ActionAlreadyProcessed:
		return resultFromCheckpoint(file, resolution.Prior), true
	case ActionDuplicate:
		res := FileResult{
			FileName:    file.Name,
			ContentHash: file.Hash,
			Status:      domain.FileSkipped,
			Message:     FriendlyMessage(domain.ErrDuplicateContent),
		}
		if resolution.Existing != nil {
			res.CandidateID = resolution.Existing.CandidateID
			res.ResumeID = resolution.Existing.ResumeID
		}
		return res, true
	}

	return c.worker.Process(ctx, run.session, file, onRetry), true
}

func resultFromCheckpoint(file PreparedFile, prior *domain.UploadFileRecord) FileResult {
	res := FileResult{
		FileName:    file.Name,
		ContentHash: file.Hash,
		Status:      domain.FileSkipped,
		Message:     "Already imported in this session.",
	}
	if prior != nil {
		res.Status = prior.Status
		res.CandidateID = prior.CandidateID
		res.ResumeID = prior.ResumeID
	}
	return res
}

// record folds a file outcome into the running tally and pushes the new
// aggregates to the store.
func (c *SessionCoordinator) record(ctx context.Context, run *sessionRun, index int, res FileResult) {
	processed := run.add(index, res)
	c.audit.fileOutcome(ctx, run.session, res)
	c.persistProgress(ctx, run)
	c.publish(ctx, run, "")

	if processed%c.cfg.ProgressAuditEvery == 0 {
		c.audit.progress(ctx, run.session, run.progress())
	}
}

// persistProgress serialises store writes so the last write always carries
// the latest tally.
func (c *SessionCoordinator) persistProgress(ctx context.Context, run *sessionRun) {
	run.writeMu.Lock()
	defer run.writeMu.Unlock()

	p := run.progress()
	if err := c.store.UpdateProgress(ctx, run.session.ID, p.Processed, p.Succeeded, p.Failed, run.errorList()); err != nil {
		c.log.WithError(err).WithField("session_id", run.session.ID).Warn("update progress failed")
	}
}

func (c *SessionCoordinator) publish(ctx context.Context, run *sessionRun, message string) {
	if c.notifier == nil {
		return
	}
	p := run.progress()
	update := domain.SessionUpdate{
		SessionID: run.session.ID,
		Status:    p.Status,
		Progress:  p,
		Message:   message,
		Timestamp: c.now().UTC(),
	}
	if err := c.notifier.Publish(ctx, update); err != nil {
		c.log.WithError(err).WithField("session_id", run.session.ID).Warn("publish session update failed")
	}
}

// GetProgress reports live counts for a running session, or the stored
// aggregates otherwise.
func (c *SessionCoordinator) GetProgress(ctx context.Context, sessionID string) (domain.Progress, error) {
	if run := c.lookup(sessionID); run != nil {
		return run.progress(), nil
	}

	session, err := c.getSession(ctx, sessionID)
	if err != nil {
		return domain.Progress{}, err
	}
	return session.Progress(), nil
}

// GetResults returns the per-file breakdown. Sessions not driven by this
// process are rebuilt from their file records.
func (c *SessionCoordinator) GetResults(ctx context.Context, sessionID string) ([]FileResult, error) {
	if run := c.lookup(sessionID); run != nil {
		return run.snapshotResults(), nil
	}

	if _, err := c.getSession(ctx, sessionID); err != nil {
		return nil, err
	}

	records, err := c.store.ListFiles(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGetSession, err)
	}

	results := make([]FileResult, 0, len(records))
	for _, r := range records {
		res := FileResult{
			FileName:    r.FileName,
			ContentHash: r.ContentHash,
			Status:      r.Status,
			Error:       r.ErrorMessage,
			CandidateID: r.CandidateID,
			ResumeID:    r.ResumeID,
		}
		if r.ErrorMessage != "" {
			res.Message = FriendlyMessage(errors.New(r.ErrorMessage))
		}
		results = append(results, res)
	}
	return results, nil
}

// CancelImport stops dispatch for the session and marks it cancelled. Files
// already handed to a worker run to their own terminal state.
func (c *SessionCoordinator) CancelImport(ctx context.Context, sessionID string) error {
	run := c.lookup(sessionID)
	if run == nil || run.finished() {
		session, err := c.getSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.Status != domain.SessionInProgress {
			return fmt.Errorf("%w: %s", ErrSessionNotActive, session.Status)
		}
	}

	if err := c.store.CancelSession(ctx, sessionID); err != nil {
		if errors.Is(err, domain.ErrSessionClosed) {
			return fmt.Errorf("%w: %v", ErrSessionNotActive, err)
		}
		if errors.Is(err, domain.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("%w: %v", ErrGetSession, err)
	}

	if run != nil && !run.finished() {
		run.cancel()
	}
	c.log.WithField("session_id", sessionID).Info("import cancellation requested")
	return nil
}

// ListSessions returns the organisation's most recent sessions, newest first.
func (c *SessionCoordinator) ListSessions(ctx context.Context, organizationID string, limit int) ([]domain.UploadSession, error) {
	if organizationID == "" {
		return nil, fmt.Errorf("%w: organization_id is required", ErrInvalidImportRequest)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	sessions, err := c.store.ListSessions(ctx, organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGetSession, err)
	}
	return sessions, nil
}

func (c *SessionCoordinator) getSession(ctx context.Context, sessionID string) (*domain.UploadSession, error) {
	session, err := c.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrGetSession, err)
	}
	return session, nil
}

// sessionRun is the in-memory state of one batch being driven.
type sessionRun struct {
	session *domain.UploadSession
	files   []PreparedFile
	resumed bool
	release func()

	cancelled atomic.Bool
	done      chan struct{}
	writeMu   sync.Mutex

	mu         sync.Mutex
	status     domain.SessionStatus
	stoppedAs  domain.SessionStatus
	results    []FileResult
	dispatched []bool
	processed  int
	succeeded  int
	failed     int
	errs       []string
}

func newSessionRun(session *domain.UploadSession, files []PreparedFile, resumed bool, release func()) *sessionRun {
	results := make([]FileResult, len(files))
	for i, f := range files {
		results[i] = FileResult{FileName: f.Name, ContentHash: f.Hash, Status: domain.FilePending}
	}
	return &sessionRun{
		session:    session,
		files:      files,
		resumed:    resumed,
		release:    release,
		done:       make(chan struct{}),
		status:     domain.SessionInProgress,
		results:    results,
		dispatched: make([]bool, len(files)),
	}
}

func (r *sessionRun) add(index int, res FileResult) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results[index] = res
	r.dispatched[index] = true

	r.processed++
	switch res.Status {
	case domain.FileCompleted:
		r.succeeded++
	case domain.FileFailed:
		r.failed++
		if len(r.errs) < domain.MaxSessionErrors {
			r.errs = append(r.errs, fmt.Sprintf("%s: %s", res.FileName, res.Error))
		}
	}
	return r.processed
}

func (r *sessionRun) markDispatched(i int) {
	r.mu.Lock()
	r.dispatched[i] = true
	r.mu.Unlock()
}

func (r *sessionRun) unmarkDispatched(i int) {
	r.mu.Lock()
	r.dispatched[i] = false
	r.mu.Unlock()
}

func (r *sessionRun) cancel() {
	r.stop(domain.SessionCancelled)
}

// stop halts dispatch. The first terminal status recorded wins.
func (r *sessionRun) stop(status domain.SessionStatus) {
	r.mu.Lock()
	if r.stoppedAs == "" {
		r.stoppedAs = status
		r.status = status
	}
	r.mu.Unlock()
	r.cancelled.Store(true)
}

func (r *sessionRun) stoppedStatus() domain.SessionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stoppedAs == "" {
		return domain.SessionCancelled
	}
	return r.stoppedAs
}

func (r *sessionRun) finish(status domain.SessionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status = status
	for i := range r.results {
		if !r.dispatched[i] && r.results[i].Status == domain.FilePending {
			r.results[i].Message = "Not processed: the import was stopped before this file was reached."
		}
	}
}

func (r *sessionRun) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *sessionRun) progress() domain.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.Progress{
		Processed: r.processed,
		Succeeded: r.succeeded,
		Failed:    r.failed,
		Skipped:   r.processed - r.succeeded - r.failed,
		Total:     r.session.TotalFiles,
		Status:    r.status,
	}
}

func (r *sessionRun) errorList() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errs...)
}

func (r *sessionRun) snapshotResults() []FileResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FileResult(nil), r.results...)
}

func (r *sessionRun) report() ImportReport {
	return ImportReport{
		SessionID: r.session.ID,
		Resumed:   r.resumed,
		Progress:  r.progress(),
		Errors:    r.errorList(),
		Results:   r.snapshotResults(),
	}
}
