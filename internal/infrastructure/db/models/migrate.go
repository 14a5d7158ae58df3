package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every table the import pipeline writes.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UploadSession{},
		&UploadFile{},
		&Candidate{},
		&CandidateSkill{},
		&Resume{},
		&CandidateOrgLink{},
		&AuditEvent{},
	)
}
