package resumeimport

import "errors"

var (
	ErrInvalidImportRequest = errors.New("invalid import request")
	ErrTooManyFiles         = errors.New("too many files in import batch")
	ErrStartImport          = errors.New("failed to start import")
	ErrSessionNotFound      = errors.New("import session not found")
	ErrSessionNotActive     = errors.New("import session is not in progress")
	ErrGetSession           = errors.New("failed to get import session")
	ErrInvalidImportSource  = errors.New("invalid import source")
)
