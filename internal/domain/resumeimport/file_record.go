package resumeimport

import (
	"strings"
	"time"
)

const maxErrorMessageLen = 1000

type FileStatus string

const (
	FilePending    FileStatus = "pending"
	FileProcessing FileStatus = "processing"
	FileCompleted  FileStatus = "completed"
	FileFailed     FileStatus = "failed"
	FileSkipped    FileStatus = "skipped"
)

// IsCheckpoint reports whether the status records a finished fact that a
// re-run must not redo.
func (s FileStatus) IsCheckpoint() bool {
	return s == FileCompleted || s == FileSkipped
}

func (s FileStatus) IsTerminal() bool {
	return s == FileCompleted || s == FileSkipped || s == FileFailed
}

// CanTransitionTo encodes pending -> processing -> {completed|failed|skipped}.
// A failed record may be picked up again when an interrupted session is
// resumed; completed and skipped records never change.
func (s FileStatus) CanTransitionTo(next FileStatus) bool {
	if s.IsCheckpoint() {
		return false
	}
	switch next {
	case FileProcessing:
		return s == FilePending || s == FileProcessing || s == FileFailed
	case FileCompleted:
		return s == FilePending || s == FileProcessing
	case FileFailed, FileSkipped:
		return s == FilePending || s == FileProcessing || s == FileFailed
	}
	return false
}

// AllowedPredecessors lists the statuses a record may be in for an update to next.
func AllowedPredecessors(next FileStatus) []FileStatus {
	all := []FileStatus{FilePending, FileProcessing, FileCompleted, FileFailed, FileSkipped}
	out := make([]FileStatus, 0, len(all))
	for _, s := range all {
		if s.CanTransitionTo(next) {
			out = append(out, s)
		}
	}
	return out
}

type UploadFileRecord struct {
	ID           string
	SessionID    string
	FileName     string
	ContentHash  string
	FileSize     *int64
	Status       FileStatus
	CandidateID  string
	ResumeID     string
	ErrorMessage string
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// TruncateError trims msg and caps it at 1000 bytes.
func TruncateError(msg string) string {
	msg = strings.TrimSpace(msg)
	if len(msg) <= maxErrorMessageLen {
		return msg
	}
	return msg[:maxErrorMessageLen]
}
