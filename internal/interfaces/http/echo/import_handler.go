package echo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	app "github.com/hireloop/resume-import/internal/application/resumeimport"
	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

const defaultMaxUploadFileBytes = 10 * 1024 * 1024

type importService interface {
	StartImport(ctx context.Context, in app.StartImportInput) (string, error)
	GetProgress(ctx context.Context, sessionID string) (domain.Progress, error)
	GetResults(ctx context.Context, sessionID string) ([]app.FileResult, error)
	CancelImport(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context, organizationID string, limit int) ([]domain.UploadSession, error)
}

type ImportHandler struct {
	imports      importService
	paths        app.StartImportFromPaths
	maxFileBytes int64
}

type importPathsRequest struct {
	OrganizationID string   `json:"organization_id"`
	OwnerID        string   `json:"owner_id"`
	Source         string   `json:"source"`
	Paths          []string `json:"paths"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func NewImportHandler(imports importService, paths app.StartImportFromPaths, maxFileBytes int64) *ImportHandler {
	if maxFileBytes <= 0 {
		maxFileBytes = defaultMaxUploadFileBytes
	}
	return &ImportHandler{imports: imports, paths: paths, maxFileBytes: maxFileBytes}
}

// UploadResumes accepts a multipart batch and answers as soon as the session
// is open. Files are processed in the background.
func (h *ImportHandler) UploadResumes(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "expected multipart/form-data body",
		}})
	}

	headers := form.File["files[]"]
	if len(headers) == 0 {
		headers = form.File["files"]
	}

	files := make([]app.ImportFile, 0, len(headers))
	for _, fh := range headers {
		content, err := h.readPart(fh)
		if err != nil {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "bad_request",
				Message: fmt.Sprintf("could not read %s", fh.Filename),
			}})
		}
		files = append(files, app.ImportFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Content:     content,
		})
	}

	sessionID, err := h.imports.StartImport(c.Request().Context(), app.StartImportInput{
		SessionID:      c.FormValue("session_id"),
		OwnerID:        c.FormValue("owner_id"),
		OrganizationID: c.FormValue("organization_id"),
		Source:         c.FormValue("source"),
		Files:          files,
		Metadata:       map[string]any{"origin": "upload", "request_id": c.Response().Header().Get(echo.HeaderXRequestID)},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: app.StartImportOutput{
		SessionID: sessionID,
		Status:    domain.SessionInProgress,
	}})
}

// readPart keeps one byte past the limit so the worker reports the file as
// too large instead of importing a truncated copy.
func (h *ImportHandler) readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, h.maxFileBytes+1))
}

func (h *ImportHandler) ImportFromPaths(c echo.Context) error {
	var req importPathsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "invalid request body",
		}})
	}

	out, err := h.paths.Execute(c.Request().Context(), app.StartImportFromPathsInput{
		OrganizationID: req.OrganizationID,
		OwnerID:        req.OwnerID,
		Source:         req.Source,
		Paths:          req.Paths,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, app.ErrInvalidImportSource):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "invalid_source",
			Message: "paths must name .pdf, .docx or .txt files inside the import directory",
		}})
	case errors.Is(err, app.ErrTooManyFiles):
		return c.JSON(http.StatusRequestEntityTooLarge, apiResponse{Error: &errorBody{
			Code:    "too_many_files",
			Message: err.Error(),
		}})
	case errors.Is(err, app.ErrInvalidImportRequest):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "invalid_request",
			Message: err.Error(),
		}})
	case errors.Is(err, app.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
			Code:    "not_found",
			Message: "import session not found",
		}})
	case errors.Is(err, app.ErrSessionNotActive):
		return c.JSON(http.StatusConflict, apiResponse{Error: &errorBody{
			Code:    "session_not_active",
			Message: "import session is no longer in progress",
		}})
	case errors.Is(err, domain.ErrSessionLeased):
		return c.JSON(http.StatusConflict, apiResponse{Error: &errorBody{
			Code:    "session_busy",
			Message: "import session is being processed elsewhere",
		}})
	}

	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
		Code:    "internal_error",
		Message: "failed to process import request",
	}})
}
