package resumeimport_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/hireloop/resume-import/internal/application/resumeimport"
	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
	"github.com/hireloop/resume-import/internal/logger"
	"github.com/hireloop/resume-import/internal/testutil"
)

type coordinatorFixture struct {
	store    *testutil.MemorySessionStore
	gateway  *testutil.MemoryGateway
	audit    *testutil.AuditRecorder
	notifier *testutil.NotifyRecorder
	objects  *testutil.MemoryObjectStore
}

func newFixture() *coordinatorFixture {
	return &coordinatorFixture{
		store:    testutil.NewMemorySessionStore(),
		gateway:  testutil.NewMemoryGateway(),
		audit:    &testutil.AuditRecorder{},
		notifier: &testutil.NotifyRecorder{},
		objects:  testutil.NewMemoryObjectStore(),
	}
}

func (f *coordinatorFixture) coordinator(extractor domain.Extractor, cfg app.CoordinatorConfig) *app.SessionCoordinator {
	return app.NewSessionCoordinator(app.CoordinatorDeps{
		Store:     f.store,
		Gateway:   f.gateway,
		Extractor: extractor,
		Objects:   f.objects,
		Audit:     f.audit,
		Notifier:  f.notifier,
		Log:       logger.Discard(),
	}, cfg).WithSleeper(func(ctx context.Context, _ time.Duration) bool {
		return ctx.Err() == nil
	})
}

func importInput(files ...app.ImportFile) app.StartImportInput {
	return app.StartImportInput{
		OwnerID:        "user-1",
		OrganizationID: "org-1",
		Files:          files,
	}
}

func resumeFile(name, body string) app.ImportFile {
	return app.ImportFile{Name: name, ContentType: "text/plain", Content: []byte(body)}
}

func numberedFiles(n int) []app.ImportFile {
	files := make([]app.ImportFile, n)
	for i := range files {
		files[i] = resumeFile(fmt.Sprintf("cv-%02d.txt", i), fmt.Sprintf("Candidate %02d\nGo developer", i))
	}
	return files
}

func TestCoordinatorCreatesOneCandidatePerContent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	coord := f.coordinator(testutil.NameFromContent(), app.CoordinatorConfig{Concurrency: 3})

	report, err := coord.Run(context.Background(), importInput(
		resumeFile("A.pdf", "Alice\nengineer"),
		resumeFile("A_copy.pdf", "Alice\nengineer"),
		resumeFile("B.pdf", "Bob\nanalyst"),
	))
	require.NoError(t, err)

	assert.Len(t, f.gateway.Candidates(), 2)
	assert.Equal(t, 3, report.Progress.Total)
	assert.Equal(t, 3, report.Progress.Processed)
	assert.Equal(t, 2, report.Progress.Succeeded)
	assert.Equal(t, 0, report.Progress.Failed)
	assert.Equal(t, 1, report.Progress.Skipped)

	require.Len(t, report.Results, 3)
	assert.Equal(t, domain.FileCompleted, report.Results[0].Status)
	assert.Equal(t, domain.FileSkipped, report.Results[1].Status)
	assert.Equal(t, report.Results[0].ContentHash, report.Results[1].ContentHash)
	assert.Equal(t, domain.FileCompleted, report.Results[2].Status)

	session, err := f.store.GetSession(context.Background(), report.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, session.Status)
	assert.Equal(t, 2, session.SucceededFiles)
	assert.NotNil(t, session.CompletedAt)
}

func TestCoordinatorPartialFailureStillCompletes(t *testing.T) {
	t.Parallel()

	f := newFixture()
	extractor := testutil.ExtractorFunc(func(_ context.Context, content []byte, name string) (domain.ExtractedFields, error) {
		if strings.HasPrefix(name, "broken") {
			return domain.ExtractedFields{}, domain.NewExtractionError(name, "not a valid resume", nil)
		}
		return domain.ExtractedFields{FullName: string(content)}, nil
	})
	coord := f.coordinator(extractor, app.CoordinatorConfig{Concurrency: 4})

	files := numberedFiles(8)
	files = append(files, resumeFile("broken-1.pdf", "%PDF garbage 1"), resumeFile("broken-2.pdf", "%PDF garbage 2"))

	report, err := coord.Run(context.Background(), importInput(files...))
	require.NoError(t, err)

	assert.Equal(t, 8, report.Progress.Succeeded)
	assert.Equal(t, 2, report.Progress.Failed)
	assert.Len(t, report.Errors, 2)
	assert.Equal(t, domain.FileFailed, report.Results[8].Status)
	assert.Contains(t, report.Results[8].Message, "Could not parse file")

	session, err := f.store.GetSession(context.Background(), report.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, session.Status)
	assert.Equal(t, 8, session.SucceededFiles)
	assert.Equal(t, 2, session.FailedFiles)
	assert.Len(t, session.Errors, 2)

	completed := f.audit.ByAction(app.ActionImportComplete)
	require.Len(t, completed, 1)
	assert.Len(t, completed[0].Details["errors"], 2)
}

func TestCoordinatorRetriesTimedOutExtraction(t *testing.T) {
	t.Parallel()

	f := newFixture()
	var calls atomic.Int32
	extractor := testutil.ExtractorFunc(func(ctx context.Context, _ []byte, _ string) (domain.ExtractedFields, error) {
		if calls.Add(1) <= 2 {
			<-ctx.Done()
			return domain.ExtractedFields{}, ctx.Err()
		}
		return domain.ExtractedFields{FullName: "Dana Scully"}, nil
	})
	coord := f.coordinator(extractor, app.CoordinatorConfig{
		Concurrency: 1,
		Retry:       app.RetryOptions{MaxRetries: 3, AttemptTimeout: 20 * time.Millisecond},
	})

	report, err := coord.Run(context.Background(), importInput(resumeFile("dana.pdf", "Dana")))
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, domain.FileCompleted, report.Results[0].Status)
	assert.Equal(t, int32(3), calls.Load())

	retries := f.audit.ByAction(app.ActionRetryAttempt)
	require.Len(t, retries, 2)
	assert.Equal(t, "extract_resume", retries[0].Details["operation"])
	assert.Equal(t, 1, retries[0].Details["attempt"])
	assert.Equal(t, 2, retries[1].Details["attempt"])
}

func TestCoordinatorRerunDoesNotDuplicateCandidates(t *testing.T) {
	t.Parallel()

	f := newFixture()
	coord := f.coordinator(testutil.NameFromContent(), app.CoordinatorConfig{})
	in := importInput(numberedFiles(4)...)

	first, err := coord.Run(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, f.gateway.Candidates(), 4)

	second, err := coord.Run(context.Background(), in)
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Len(t, f.gateway.Candidates(), 4)
	assert.Equal(t, 0, second.Progress.Succeeded)
	assert.Equal(t, 4, second.Progress.Skipped)
	for _, r := range second.Results {
		assert.Equal(t, domain.FileSkipped, r.Status)
		assert.NotEmpty(t, r.CandidateID)
	}
}

func TestCoordinatorResumesInterruptedSession(t *testing.T) {
	t.Parallel()

	f := newFixture()
	files := numberedFiles(6)

	records := make([]domain.UploadFileRecord, 0, 5)
	for _, file := range files[:5] {
		records = append(records, domain.UploadFileRecord{
			FileName:    file.Name,
			ContentHash: domain.Fingerprint(file.Content),
			Status:      domain.FileCompleted,
			CandidateID: "cand-" + file.Name,
		})
	}
	f.store.Seed(domain.UploadSession{
		ID:             "interrupted",
		OwnerID:        "user-1",
		OrganizationID: "org-1",
		TotalFiles:     6,
		ProcessedFiles: 5,
		SucceededFiles: 5,
		Status:         domain.SessionInProgress,
		Source:         "resume_upload",
		StartedAt:      time.Now().Add(-time.Hour),
	}, records...)

	var calls atomic.Int32
	extractor := testutil.ExtractorFunc(func(_ context.Context, content []byte, _ string) (domain.ExtractedFields, error) {
		calls.Add(1)
		return domain.ExtractedFields{FullName: string(content)}, nil
	})
	coord := f.coordinator(extractor, app.CoordinatorConfig{})

	report, err := coord.Run(context.Background(), importInput(files...))
	require.NoError(t, err)

	assert.Equal(t, "interrupted", report.SessionID)
	assert.True(t, report.Resumed)
	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, f.gateway.Candidates(), 1)
	assert.Equal(t, 6, report.Progress.Succeeded)

	session, err := f.store.GetSession(context.Background(), "interrupted")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, session.Status)

	started := f.audit.ByAction(app.ActionImportStart)
	require.Len(t, started, 1)
	assert.Equal(t, true, started[0].Details["resumed"])
}

func TestCoordinatorIgnoresStaleSession(t *testing.T) {
	t.Parallel()

	f := newFixture()
	files := numberedFiles(5)
	records := make([]domain.UploadFileRecord, 0, len(files))
	for _, file := range files {
		records = append(records, domain.UploadFileRecord{
			FileName:    file.Name,
			ContentHash: domain.Fingerprint(file.Content),
			Status:      domain.FileCompleted,
		})
	}
	f.store.Seed(domain.UploadSession{
		ID:             "stale",
		OrganizationID: "org-1",
		TotalFiles:     5,
		Status:         domain.SessionInProgress,
		StartedAt:      time.Now().Add(-8 * 24 * time.Hour),
	}, records...)

	coord := f.coordinator(testutil.NameFromContent(), app.CoordinatorConfig{})
	report, err := coord.Run(context.Background(), importInput(files...))
	require.NoError(t, err)

	assert.NotEqual(t, "stale", report.SessionID)
	assert.False(t, report.Resumed)
	assert.Len(t, f.gateway.Candidates(), 5)
}

func TestCoordinatorCancelStopsDispatch(t *testing.T) {
	t.Parallel()

	f := newFixture()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	extractor := testutil.ExtractorFunc(func(_ context.Context, content []byte, _ string) (domain.ExtractedFields, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return domain.ExtractedFields{FullName: string(content)}, nil
	})
	coord := f.coordinator(extractor, app.CoordinatorConfig{Concurrency: 1})

	sessionID, err := coord.StartImport(context.Background(), importInput(numberedFiles(5)...))
	require.NoError(t, err)

	<-started
	require.NoError(t, coord.CancelImport(context.Background(), sessionID))
	close(release)
	coord.Wait()

	progress, err := coord.GetProgress(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCancelled, progress.Status)
	assert.Equal(t, 1, progress.Processed)
	assert.Equal(t, 1, progress.Succeeded)
	assert.Equal(t, int32(1), calls.Load())

	results, err := coord.GetResults(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, results, 5)
	assert.Equal(t, domain.FileCompleted, results[0].Status)
	for _, r := range results[1:] {
		assert.Equal(t, domain.FilePending, r.Status)
		assert.NotEmpty(t, r.Message)
	}

	session, err := f.store.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCancelled, session.Status)

	assert.ErrorIs(t, coord.CancelImport(context.Background(), sessionID), app.ErrSessionNotActive)
	assert.Len(t, f.audit.ByAction(app.ActionImportCancel), 1)
}

func TestCoordinatorStopsWhenAnotherReplicaCancels(t *testing.T) {
	t.Parallel()

	f := newFixture()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	extractor := testutil.ExtractorFunc(func(_ context.Context, content []byte, _ string) (domain.ExtractedFields, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return domain.ExtractedFields{FullName: string(content)}, nil
	})
	driving := f.coordinator(extractor, app.CoordinatorConfig{Concurrency: 1})
	other := f.coordinator(testutil.NameFromContent(), app.CoordinatorConfig{})

	sessionID, err := driving.StartImport(context.Background(), importInput(numberedFiles(5)...))
	require.NoError(t, err)

	<-started
	require.NoError(t, other.CancelImport(context.Background(), sessionID))
	close(release)
	driving.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, f.gateway.Candidates(), 1)

	progress, err := driving.GetProgress(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCancelled, progress.Status)
	assert.Equal(t, 1, progress.Processed)

	session, err := f.store.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCancelled, session.Status)
	assert.Equal(t, 1, session.ProcessedFiles)

	results, err := driving.GetResults(context.Background(), sessionID)
	require.NoError(t, err)
	for _, r := range results[1:] {
		assert.Equal(t, domain.FilePending, r.Status)
		assert.NotEmpty(t, r.Message)
	}
	assert.Empty(t, f.audit.ByAction(app.ActionImportComplete))
	assert.Len(t, f.audit.ByAction(app.ActionImportCancel), 1)
}

// cancelOnComplete closes the session just before the coordinator finalizes it.
type cancelOnComplete struct {
	*testutil.MemorySessionStore
}

func (s cancelOnComplete) CompleteSession(ctx context.Context, sessionID string, succeeded, failed int, errs []string) error {
	if err := s.CancelSession(ctx, sessionID); err != nil {
		return err
	}
	return s.MemorySessionStore.CompleteSession(ctx, sessionID, succeeded, failed, errs)
}

func TestCoordinatorReportsCancelThatRacesCompletion(t *testing.T) {
	t.Parallel()

	f := newFixture()
	coord := app.NewSessionCoordinator(app.CoordinatorDeps{
		Store:     cancelOnComplete{f.store},
		Gateway:   f.gateway,
		Extractor: testutil.NameFromContent(),
		Audit:     f.audit,
		Notifier:  f.notifier,
		Log:       logger.Discard(),
	}, app.CoordinatorConfig{Concurrency: 2})

	report, err := coord.Run(context.Background(), importInput(numberedFiles(3)...))
	require.NoError(t, err)

	assert.Equal(t, domain.SessionCancelled, report.Progress.Status)
	assert.Equal(t, 3, report.Progress.Processed)

	session, err := f.store.GetSession(context.Background(), report.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCancelled, session.Status)

	assert.Empty(t, f.audit.ByAction(app.ActionImportComplete))
	assert.Len(t, f.audit.ByAction(app.ActionImportCancel), 1)
}

func TestCoordinatorAuditsEveryFileOutcome(t *testing.T) {
	t.Parallel()

	f := newFixture()
	coord := f.coordinator(testutil.NameFromContent(), app.CoordinatorConfig{Concurrency: 1})

	_, err := coord.Run(context.Background(), importInput(resumeFile("A.pdf", "Alice\nengineer")))
	require.NoError(t, err)

	report, err := coord.Run(context.Background(), importInput(
		resumeFile("A_again.pdf", "Alice\nengineer"),
		resumeFile("B.pdf", "Bob\nanalyst"),
		resumeFile("B_copy.pdf", "Bob\nanalyst"),
	))
	require.NoError(t, err)

	var statuses []string
	for _, e := range f.audit.ByAction(app.ActionUploadResume) {
		if e.Details["session_id"] == report.SessionID {
			statuses = append(statuses, e.Details["status"].(string))
		}
	}
	assert.ElementsMatch(t, []string{"skipped", "completed", "skipped"}, statuses)
}

func TestCoordinatorShutdownLeavesSessionResumable(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	extractor := testutil.ExtractorFunc(func(ctx context.Context, content []byte, _ string) (domain.ExtractedFields, error) {
		if calls.Add(1) == 1 {
			cancel()
			<-ctx.Done()
			return domain.ExtractedFields{}, ctx.Err()
		}
		return domain.ExtractedFields{FullName: string(content)}, nil
	})
	coord := f.coordinator(extractor, app.CoordinatorConfig{Concurrency: 1})
	files := numberedFiles(3)

	report, err := coord.Run(ctx, importInput(files...))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.gateway.Candidates())

	session, err := f.store.GetSession(context.Background(), report.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionInProgress, session.Status)

	in := importInput(files...)
	in.SessionID = report.SessionID
	resumed, err := coord.Run(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, resumed.Resumed)
	assert.Equal(t, domain.SessionCompleted, resumed.Progress.Status)
	assert.Len(t, f.gateway.Candidates(), 3)
}

func TestCoordinatorProgressInvariantHolds(t *testing.T) {
	t.Parallel()

	f := newFixture()
	extractor := testutil.ExtractorFunc(func(_ context.Context, content []byte, name string) (domain.ExtractedFields, error) {
		if strings.HasSuffix(name, "3.txt") {
			return domain.ExtractedFields{}, domain.NewExtractionError(name, "unreadable", nil)
		}
		return domain.ExtractedFields{FullName: string(content)}, nil
	})
	coord := f.coordinator(extractor, app.CoordinatorConfig{Concurrency: 8})

	files := numberedFiles(30)
	files = append(files, files[0], files[1])
	report, err := coord.Run(context.Background(), importInput(files...))
	require.NoError(t, err)

	writes := f.store.ProgressWrites()
	require.NotEmpty(t, writes)
	last := 0
	for _, p := range writes {
		assert.True(t, p.Valid(), "invalid progress %+v", p)
		assert.GreaterOrEqual(t, p.Processed, last)
		last = p.Processed
	}
	assert.Equal(t, 32, report.Progress.Processed)
	assert.Equal(t, 3, report.Progress.Failed)
	assert.Equal(t, 27, report.Progress.Succeeded)
	assert.Equal(t, 2, report.Progress.Skipped)
}

func TestCoordinatorRelinksCrossOrganizationDuplicate(t *testing.T) {
	t.Parallel()

	f := newFixture()
	coord := f.coordinator(testutil.NameFromContent(), app.CoordinatorConfig{})

	_, err := coord.Run(context.Background(), importInput(resumeFile("ann.pdf", "Ann\nnurse")))
	require.NoError(t, err)
	candidates := f.gateway.Candidates()
	require.Len(t, candidates, 1)

	in := importInput(resumeFile("ann-again.pdf", "Ann\nnurse"))
	in.OrganizationID = "org-2"
	in.Source = "career_fair"
	report, err := coord.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, domain.FileSkipped, report.Results[0].Status)
	assert.Equal(t, "This resume has already been uploaded.", report.Results[0].Message)
	assert.Len(t, f.gateway.Candidates(), 1)

	linkType, ok := f.gateway.LinkType(candidates[0].ID, "org-2")
	require.True(t, ok)
	assert.Equal(t, "career_fair", linkType)
}

func TestCoordinatorSurvivesBookkeepingFailures(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.store.FailOn("UpdateProgress", errors.New("connection refused"))
	f.store.FailOn("IsProcessed", errors.New("connection refused"))
	f.store.FailOn("FindIncompleteSession", errors.New("connection refused"))
	coord := f.coordinator(testutil.NameFromContent(), app.CoordinatorConfig{})

	report, err := coord.Run(context.Background(), importInput(numberedFiles(3)...))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Progress.Succeeded)
	assert.Len(t, f.gateway.Candidates(), 3)

	session, err := f.store.GetSession(context.Background(), report.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, session.Status)
}

func TestCoordinatorFailsSessionOnPanic(t *testing.T) {
	t.Parallel()

	f := newFixture()
	extractor := testutil.ExtractorFunc(func(context.Context, []byte, string) (domain.ExtractedFields, error) {
		panic("extractor bug")
	})
	coord := f.coordinator(extractor, app.CoordinatorConfig{})

	report, err := coord.Run(context.Background(), importInput(resumeFile("x.pdf", "x")))
	require.Error(t, err)

	session, getErr := f.store.GetSession(context.Background(), report.SessionID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.SessionFailed, session.Status)
	assert.Len(t, f.audit.ByAction(app.ActionImportError), 1)
}

func TestCoordinatorValidatesInput(t *testing.T) {
	t.Parallel()

	f := newFixture()
	coord := f.coordinator(testutil.NameFromContent(), app.CoordinatorConfig{MaxFiles: 2})

	_, err := coord.Run(context.Background(), importInput(numberedFiles(3)...))
	assert.ErrorIs(t, err, app.ErrTooManyFiles)

	_, err = coord.Run(context.Background(), importInput())
	assert.ErrorIs(t, err, app.ErrInvalidImportRequest)

	in := importInput(numberedFiles(1)...)
	in.OrganizationID = ""
	_, err = coord.StartImport(context.Background(), in)
	assert.ErrorIs(t, err, app.ErrInvalidImportRequest)
}

func TestCoordinatorReadsStoredSessions(t *testing.T) {
	t.Parallel()

	f := newFixture()
	coord := f.coordinator(testutil.ExtractorFunc(func(_ context.Context, _ []byte, name string) (domain.ExtractedFields, error) {
		if name == "cv-01.txt" {
			return domain.ExtractedFields{}, errors.New("upstream 503")
		}
		return domain.ExtractedFields{FullName: name}, nil
	}), app.CoordinatorConfig{Concurrency: 1, Retry: app.RetryOptions{MaxRetries: 1}})

	report, err := coord.Run(context.Background(), importInput(numberedFiles(2)...))
	require.NoError(t, err)

	fresh := f.coordinator(testutil.NameFromContent(), app.CoordinatorConfig{})

	results, err := fresh.GetResults(context.Background(), report.SessionID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, domain.FileCompleted, results[0].Status)
	assert.Equal(t, domain.FileFailed, results[1].Status)
	assert.Equal(t, "Server is temporarily unavailable. Please try again in a few minutes.", results[1].Message)

	progress, err := fresh.GetProgress(context.Background(), report.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.Progress{Processed: 2, Succeeded: 1, Failed: 1, Total: 2, Status: domain.SessionCompleted}, progress)

	sessions, err := fresh.ListSessions(context.Background(), "org-1", 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	_, err = fresh.GetProgress(context.Background(), "missing")
	assert.ErrorIs(t, err, app.ErrSessionNotFound)
	assert.ErrorIs(t, fresh.CancelImport(context.Background(), report.SessionID), app.ErrSessionNotActive)
}

type busyLease struct{}

func (busyLease) Acquire(context.Context, string) (func(), error) {
	return nil, domain.ErrSessionLeased
}

func TestCoordinatorRespectsSessionLease(t *testing.T) {
	t.Parallel()

	f := newFixture()
	coord := app.NewSessionCoordinator(app.CoordinatorDeps{
		Store:     f.store,
		Gateway:   f.gateway,
		Extractor: testutil.NameFromContent(),
		Lease:     busyLease{},
		Log:       logger.Discard(),
	}, app.CoordinatorConfig{})

	_, err := coord.Run(context.Background(), importInput(numberedFiles(1)...))
	assert.ErrorIs(t, err, domain.ErrSessionLeased)
	assert.Empty(t, f.gateway.Candidates())
}
