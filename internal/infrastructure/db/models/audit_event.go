package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditEvent struct {
	ID             string            `gorm:"type:text;primaryKey"`
	Action         string            `gorm:"type:text;not null;index"`
	EntityType     string            `gorm:"type:text;not null"`
	EntityID       *string           `gorm:"type:text"`
	OrganizationID *string           `gorm:"type:text;index"`
	UserID         *string           `gorm:"type:text"`
	Details        datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"not null"`
}

func (AuditEvent) TableName() string {
	return "audit_logs"
}
