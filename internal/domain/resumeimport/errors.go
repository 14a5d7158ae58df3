package resumeimport

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound  = errors.New("upload session not found")
	ErrSessionClosed    = errors.New("upload session is closed")
	ErrSessionLeased    = errors.New("upload session is owned by another coordinator")
	ErrFileNotFound     = errors.New("upload file record not found")
	ErrDuplicateContent = errors.New("duplicate content")
	ErrEmptyFile        = errors.New("empty file")
	ErrFileTooLarge     = errors.New("file too large")

	// ErrUpstreamUnavailable marks a transient dependency failure that
	// carries no recognisable transport error.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ExtractionError means the file itself could not be turned into candidate
// fields (unsupported format, unreadable document). It is never retried.
type ExtractionError struct {
	FileName string
	Reason   string
	Err      error
}

func (e *ExtractionError) Error() string {
	msg := "extract " + e.FileName + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func NewExtractionError(fileName, reason string, err error) *ExtractionError {
	return &ExtractionError{FileName: fileName, Reason: reason, Err: err}
}

func IsExtractionError(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// PersistenceError wraps a failure of a backing store call.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
