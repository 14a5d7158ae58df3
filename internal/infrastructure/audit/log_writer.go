package audit

import (
	"context"

	"github.com/sirupsen/logrus"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

// LogWriter emits audit events as structured log lines.
type LogWriter struct {
	log logrus.FieldLogger
}

func NewLogWriter(log logrus.FieldLogger) *LogWriter {
	return &LogWriter{log: log}
}

func (l *LogWriter) Write(_ context.Context, event domain.AuditEvent) error {
	l.log.WithFields(logrus.Fields{
		"audit_id":        event.ID,
		"action":          event.Action,
		"entity_type":     event.EntityType,
		"entity_id":       event.EntityID,
		"organization_id": event.OrganizationID,
		"details":         event.Details,
	}).Info("audit")
	return nil
}
