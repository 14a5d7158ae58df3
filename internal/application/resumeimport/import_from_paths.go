package resumeimport

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

type StartImportFromPathsInput struct {
	OrganizationID string
	OwnerID        string
	Source         string
	Paths          []string
}

type StartImportOutput struct {
	SessionID string               `json:"session_id"`
	Status    domain.SessionStatus `json:"status"`
}

type StartImportFromPaths interface {
	Execute(ctx context.Context, in StartImportFromPathsInput) (StartImportOutput, error)
}

type sourceOpener interface {
	Open(ctx context.Context, sourcePath string) (io.ReadCloser, error)
}

type importStarter interface {
	StartImport(ctx context.Context, in StartImportInput) (string, error)
}

type startImportFromPaths struct {
	source       sourceOpener
	starter      importStarter
	maxFileBytes int64
}

func NewStartImportFromPaths(source sourceOpener, starter importStarter, maxFileBytes int64) StartImportFromPaths {
	if maxFileBytes <= 0 {
		maxFileBytes = defaultMaxFileBytes
	}
	return &startImportFromPaths{source: source, starter: starter, maxFileBytes: maxFileBytes}
}

func (uc *startImportFromPaths) Execute(ctx context.Context, in StartImportFromPathsInput) (StartImportOutput, error) {
	if len(in.Paths) == 0 {
		return StartImportOutput{}, fmt.Errorf("%w: no paths given", ErrInvalidImportSource)
	}

	files := make([]ImportFile, 0, len(in.Paths))
	for _, raw := range in.Paths {
		path := strings.TrimSpace(raw)
		ext := strings.ToLower(filepath.Ext(path))
		if path == "" || !supportedExtensions[ext] {
			return StartImportOutput{}, fmt.Errorf("%w: %q", ErrInvalidImportSource, raw)
		}

		content, err := uc.read(ctx, path)
		if err != nil {
			return StartImportOutput{}, fmt.Errorf("%w: %v", ErrInvalidImportSource, err)
		}

		files = append(files, ImportFile{
			Name:        filepath.Base(path),
			ContentType: mime.TypeByExtension(ext),
			Content:     content,
		})
	}

	sessionID, err := uc.starter.StartImport(ctx, StartImportInput{
		OwnerID:        in.OwnerID,
		OrganizationID: in.OrganizationID,
		Source:         in.Source,
		Files:          files,
		Metadata:       map[string]any{"origin": "server_path"},
	})
	if err != nil {
		return StartImportOutput{}, err
	}

	return StartImportOutput{
		SessionID: sessionID,
		Status:    domain.SessionInProgress,
	}, nil
}

// read loads at most one byte past the size limit, which is enough for the
// worker to reject the file as too large.
func (uc *startImportFromPaths) read(ctx context.Context, path string) ([]byte, error) {
	rc, err := uc.source.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, uc.maxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return content, nil
}
