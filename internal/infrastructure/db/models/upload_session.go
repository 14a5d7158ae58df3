package models

import (
	"time"

	"gorm.io/datatypes"
)

type UploadSession struct {
	ID             string                      `gorm:"type:text;primaryKey"`
	UserID         string                      `gorm:"type:text;not null"`
	OrganizationID string                      `gorm:"type:text;not null;index:idx_upload_sessions_org_started,priority:1"`
	TotalFiles     int                         `gorm:"not null;default:0"`
	ProcessedFiles int                         `gorm:"not null;default:0"`
	SucceededFiles int                         `gorm:"not null;default:0"`
	FailedFiles    int                         `gorm:"not null;default:0"`
	Status         string                      `gorm:"type:text;not null;index"`
	Source         string                      `gorm:"type:text;not null"`
	Errors         datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Metadata       datatypes.JSONMap           `gorm:"type:jsonb"`
	StartedAt      time.Time                   `gorm:"not null;index:idx_upload_sessions_org_started,priority:2,sort:desc"`
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (UploadSession) TableName() string {
	return "bulk_upload_sessions"
}

type UploadFile struct {
	ID           string  `gorm:"type:text;primaryKey"`
	SessionID    string  `gorm:"type:text;not null;uniqueIndex:uq_upload_files_session_hash,priority:1"`
	FileName     string  `gorm:"type:text;not null"`
	FileHash     string  `gorm:"type:text;not null;uniqueIndex:uq_upload_files_session_hash,priority:2"`
	FileSize     *int64  `gorm:"type:bigint"`
	Status       string  `gorm:"type:text;not null"`
	CandidateID  *string `gorm:"type:text"`
	ResumeID     *string `gorm:"type:text"`
	ErrorMessage *string `gorm:"type:text"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UploadFile) TableName() string {
	return "bulk_upload_files"
}
