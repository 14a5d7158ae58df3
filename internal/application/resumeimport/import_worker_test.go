package resumeimport_test

import (
	"context"
	"errors"
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

type workerFixture struct {
	store   *testutil.MemorySessionStore
	gateway *testutil.MemoryGateway
	objects *testutil.MemoryObjectStore
	session *domain.UploadSession
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	store := testutil.NewMemorySessionStore()
	id, err := store.CreateSession(context.Background(), domain.CreateSessionInput{
		OwnerID:        "user-1",
		OrganizationID: "org-1",
		TotalFiles:     1,
		Source:         "resume_upload",
	})
	require.NoError(t, err)
	session, err := store.GetSession(context.Background(), id)
	require.NoError(t, err)

	return &workerFixture{
		store:   store,
		gateway: testutil.NewMemoryGateway(),
		objects: testutil.NewMemoryObjectStore(),
		session: session,
	}
}

func (f *workerFixture) worker(extractor domain.Extractor, cfg app.ImportWorkerConfig) *app.ImportWorker {
	retry := app.NewRetryExecutor(app.RetryOptions{MaxRetries: 3}, logger.Discard()).
		WithSleeper(func(context.Context, time.Duration) bool { return true })
	return app.NewImportWorker(f.store, extractor, f.gateway, f.objects, retry, logger.Discard(), cfg)
}

func (f *workerFixture) prepared(t *testing.T, name string, content []byte) app.PreparedFile {
	t.Helper()
	hash := domain.Fingerprint(content)
	size := int64(len(content))
	_, err := f.store.RegisterFile(context.Background(), f.session.ID, name, hash, &size)
	require.NoError(t, err)
	return app.PreparedFile{Name: name, Hash: hash, Size: size, Content: content, ContentType: "application/pdf"}
}

func TestImportWorkerPersistsCandidateAndResume(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture(t)
	w := f.worker(testutil.ExtractorFunc(func(context.Context, []byte, string) (domain.ExtractedFields, error) {
		return domain.ExtractedFields{
			FullName: "  Grace Hopper ",
			Email:    "GRACE@Navy.mil",
			Skills:   []string{"• COBOL", "cobol", "Compilers"},
		}, nil
	}), app.ImportWorkerConfig{})

	file := f.prepared(t, "Grace.PDF", []byte("grace resume"))
	res := w.Process(context.Background(), f.session, file, nil)

	require.Equal(t, domain.FileCompleted, res.Status)
	require.NotNil(t, res.Fields)
	assert.Equal(t, "Grace Hopper", res.Fields.FullName)
	assert.Equal(t, "grace@navy.mil", res.Fields.Email)
	assert.Equal(t, []string{"COBOL", "Compilers"}, res.Fields.Skills)

	candidates := f.gateway.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, res.CandidateID, candidates[0].ID)
	assert.Equal(t, "org-1", candidates[0].OrganizationID)
	assert.Equal(t, []string{"COBOL", "Compilers"}, candidates[0].Skills)

	resume := f.gateway.Resumes()[file.Hash]
	assert.Equal(t, res.ResumeID, resume.ID)
	assert.True(t, strings.HasPrefix(resume.Meta.FileURL, "sourced/org-1/"))
	assert.True(t, strings.HasSuffix(resume.Meta.FileURL, ".pdf"))
	assert.Equal(t, []string{resume.Meta.FileURL}, f.objects.Keys())

	rec, err := f.store.FindFile(context.Background(), f.session.ID, file.Hash)
	require.NoError(t, err)
	assert.Equal(t, domain.FileCompleted, rec.Status)
	assert.Equal(t, res.CandidateID, rec.CandidateID)
	assert.NotNil(t, rec.StartedAt)
	assert.NotNil(t, rec.CompletedAt)
}

func TestImportWorkerRejectsEmptyAndOversizedFiles(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture(t)
	var calls atomic.Int32
	w := f.worker(testutil.ExtractorFunc(func(context.Context, []byte, string) (domain.ExtractedFields, error) {
		calls.Add(1)
		return domain.ExtractedFields{}, nil
	}), app.ImportWorkerConfig{MaxFileBytes: 8})

	empty := w.Process(context.Background(), f.session, f.prepared(t, "empty.pdf", []byte{}), nil)
	assert.Equal(t, domain.FileFailed, empty.Status)
	assert.Equal(t, "File is empty.", empty.Message)

	big := w.Process(context.Background(), f.session, f.prepared(t, "big.pdf", []byte("0123456789")), nil)
	assert.Equal(t, domain.FileFailed, big.Status)
	assert.Contains(t, big.Error, "file too large")
	assert.Equal(t, "File is too large. Maximum file size is 10MB.", big.Message)

	assert.Zero(t, calls.Load())
	assert.Empty(t, f.gateway.Candidates())
}

func TestImportWorkerRetriesTransientPersistence(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture(t)
	var failures atomic.Int32
	f.gateway.BeforeCreateResume = func(string) error {
		if failures.Add(1) == 1 {
			return domain.NewPersistenceError("create_resume", errors.New("connection reset by peer"))
		}
		return nil
	}
	w := f.worker(testutil.NameFromContent(), app.ImportWorkerConfig{})

	var attempts []app.RetryAttempt
	res := w.Process(context.Background(), f.session, f.prepared(t, "a.txt", []byte("Ada")), func(_ context.Context, a app.RetryAttempt) {
		attempts = append(attempts, a)
	})

	assert.Equal(t, domain.FileCompleted, res.Status)
	assert.Len(t, f.gateway.Candidates(), 1, "rolled back candidate must not survive")
	require.Len(t, attempts, 1)
	assert.Equal(t, "persist_candidate", attempts[0].Operation)
}

func TestImportWorkerSkipsConcurrentDuplicate(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture(t)
	f.gateway.BeforeCreateResume = func(string) error { return domain.ErrDuplicateContent }
	w := f.worker(testutil.NameFromContent(), app.ImportWorkerConfig{})

	file := f.prepared(t, "dup.txt", []byte("Dup"))
	res := w.Process(context.Background(), f.session, file, nil)

	assert.Equal(t, domain.FileSkipped, res.Status)
	assert.Empty(t, f.gateway.Candidates())

	rec, err := f.store.FindFile(context.Background(), f.session.ID, file.Hash)
	require.NoError(t, err)
	assert.Equal(t, domain.FileSkipped, rec.Status)
}

func TestImportWorkerDoesNotRetryExtractionErrors(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture(t)
	var calls atomic.Int32
	w := f.worker(testutil.ExtractorFunc(func(_ context.Context, _ []byte, name string) (domain.ExtractedFields, error) {
		calls.Add(1)
		return domain.ExtractedFields{}, domain.NewExtractionError(name, "unsupported format", nil)
	}), app.ImportWorkerConfig{})

	file := f.prepared(t, "photo.png", []byte("png"))
	res := w.Process(context.Background(), f.session, file, nil)

	assert.Equal(t, domain.FileFailed, res.Status)
	assert.Equal(t, int32(1), calls.Load())

	rec, err := f.store.FindFile(context.Background(), f.session.ID, file.Hash)
	require.NoError(t, err)
	assert.Equal(t, domain.FileFailed, rec.Status)
	assert.Contains(t, rec.ErrorMessage, "unsupported format")
}

func TestObjectKey(t *testing.T) {
	t.Parallel()

	key := app.ObjectKey("org-9", "Resume.DOCX")
	assert.True(t, strings.HasPrefix(key, "sourced/org-9/"))
	assert.True(t, strings.HasSuffix(key, ".docx"))
	assert.NotEqual(t, key, app.ObjectKey("org-9", "Resume.DOCX"))
}

func TestImportWorkerKeepsFieldsOfTheAttemptThatSucceeded(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture(t)
	retry := app.NewRetryExecutor(app.RetryOptions{MaxRetries: 3, AttemptTimeout: 10 * time.Millisecond}, logger.Discard()).
		WithSleeper(func(context.Context, time.Duration) bool { return true })

	var calls atomic.Int32
	staleDone := make(chan struct{})
	extractor := testutil.ExtractorFunc(func(context.Context, []byte, string) (domain.ExtractedFields, error) {
		if calls.Add(1) == 1 {
			defer close(staleDone)
			time.Sleep(60 * time.Millisecond)
			return domain.ExtractedFields{FullName: "Slow Reply"}, nil
		}
		return domain.ExtractedFields{FullName: "Fresh Name"}, nil
	})
	w := app.NewImportWorker(f.store, extractor, f.gateway, f.objects, retry, logger.Discard(), app.ImportWorkerConfig{})

	file := f.prepared(t, "fresh.pdf", []byte("fresh resume"))
	res := w.Process(context.Background(), f.session, file, nil)
	<-staleDone

	require.Equal(t, domain.FileCompleted, res.Status)
	require.NotNil(t, res.Fields)
	assert.Equal(t, "Fresh Name", res.Fields.FullName)

	candidates := f.gateway.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, "Fresh Name", candidates[0].Fields.FullName)
}
