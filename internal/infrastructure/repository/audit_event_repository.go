package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
	"github.com/hireloop/resume-import/internal/infrastructure/db/models"
)

type AuditEventRepository struct {
	db *gorm.DB
}

func NewAuditEventRepository(db *gorm.DB) *AuditEventRepository {
	return &AuditEventRepository{db: db}
}

// Insert appends one audit row. Events are never updated.
func (r *AuditEventRepository) Insert(ctx context.Context, event domain.AuditEvent) error {
	row := models.AuditEvent{
		ID:             event.ID,
		Action:         event.Action,
		EntityType:     event.EntityType,
		EntityID:       nullableText(event.EntityID),
		OrganizationID: nullableText(event.OrganizationID),
		UserID:         nullableText(event.UserID),
		Details:        datatypes.JSONMap(event.Details),
		CreatedAt:      event.OccurredAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.NewPersistenceError("insert_audit_event", err)
	}
	return nil
}

// ListByEntity returns the events recorded for one entity, oldest first.
func (r *AuditEventRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditEvent, error) {
	var rows []models.AuditEvent
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, domain.NewPersistenceError("list_audit_events", err)
	}

	out := make([]domain.AuditEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.AuditEvent{
			ID:             row.ID,
			Action:         row.Action,
			EntityType:     row.EntityType,
			EntityID:       derefText(row.EntityID),
			OrganizationID: derefText(row.OrganizationID),
			UserID:         derefText(row.UserID),
			Details:        map[string]any(row.Details),
			OccurredAt:     row.CreatedAt,
		})
	}
	return out, nil
}
