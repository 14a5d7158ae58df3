package resumeimport

import "time"

// MaxSessionErrors bounds the error list kept on an upload session.
const MaxSessionErrors = 100

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionFailed     SessionStatus = "failed"
	SessionCancelled  SessionStatus = "cancelled"
)

func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionCompleted, SessionFailed, SessionCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a session may move from s to next.
// Sessions only move forward: in_progress to one of the terminal states.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	return s == SessionInProgress && next.IsTerminal()
}

type UploadSession struct {
	ID             string
	OwnerID        string
	OrganizationID string
	TotalFiles     int
	ProcessedFiles int
	SucceededFiles int
	FailedFiles    int
	Status         SessionStatus
	Source         string
	StartedAt      time.Time
	CompletedAt    *time.Time
	Errors         []string
	Metadata       map[string]any
}

func (s UploadSession) Progress() Progress {
	return Progress{
		Processed: s.ProcessedFiles,
		Succeeded: s.SucceededFiles,
		Failed:    s.FailedFiles,
		Skipped:   max(s.ProcessedFiles-s.SucceededFiles-s.FailedFiles, 0),
		Total:     s.TotalFiles,
		Status:    s.Status,
	}
}

type Progress struct {
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Total     int           `json:"total"`
	Status    SessionStatus `json:"status"`
}

// Valid checks succeeded+failed <= processed <= total.
func (p Progress) Valid() bool {
	return p.Succeeded >= 0 && p.Failed >= 0 &&
		p.Succeeded+p.Failed <= p.Processed &&
		p.Processed <= p.Total
}

// CapErrors returns at most MaxSessionErrors entries of errs.
func CapErrors(errs []string) []string {
	if len(errs) <= MaxSessionErrors {
		return errs
	}
	return errs[:MaxSessionErrors]
}
