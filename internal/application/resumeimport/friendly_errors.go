package resumeimport

import (
	"errors"
	"regexp"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

type friendlyRule struct {
	pattern *regexp.Regexp
	message string
}

var friendlyRules = []friendlyRule{
	{regexp.MustCompile(`(?i)rate limit|\b429\b`), "Too many requests. Please wait a moment and try again."},
	{regexp.MustCompile(`(?i)network|fetch failed|ECONNRESET|connection reset|connection refused`), "Network error. Please check your connection and try again."},
	{regexp.MustCompile(`(?i)timeout|timed out|ETIMEDOUT`), "Request timed out. The file might be too large or the service is slow."},
	{regexp.MustCompile(`\b50[234]\b`), "Server is temporarily unavailable. Please try again in a few minutes."},
	{regexp.MustCompile(`(?i)file.*too large|size.*exceed`), "File is too large. Maximum file size is 10MB."},
	{regexp.MustCompile(`(?i)parse|invalid.*format|unsupported|extract`), "Could not parse file. Please ensure it is a valid resume in PDF, DOCX, or TXT format."},
	{regexp.MustCompile(`(?i)duplicate`), "This resume has already been uploaded."},
	{regexp.MustCompile(`(?i)auth|permission|unauthorized|\b403\b`), "Permission denied. Please log in again."},
}

var stackTracePattern = regexp.MustCompile(`(?i)stack trace|goroutine \d+`)

// FriendlyMessage turns a technical failure into text suitable for the
// per-file result list.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, domain.ErrEmptyFile) {
		return "File is empty."
	}
	msg := err.Error()
	for _, rule := range friendlyRules {
		if rule.pattern.MatchString(msg) {
			return rule.message
		}
	}
	if len(msg) < 100 && !stackTracePattern.MatchString(msg) {
		return msg
	}
	return "An unexpected error occurred. Please try again or contact support."
}
