package models

import "time"

// Candidate rows created by the import are sourced profiles: user_id stays null.
type Candidate struct {
	ID                string  `gorm:"type:text;primaryKey"`
	UserID            *string `gorm:"type:text"`
	FullName          string  `gorm:"size:200;not null"`
	Email             *string `gorm:"size:255"`
	Phone             *string `gorm:"size:30"`
	Location          *string `gorm:"size:500"`
	CurrentTitle      *string `gorm:"size:500"`
	CurrentCompany    *string `gorm:"size:500"`
	YearsOfExperience *int    `gorm:"type:integer"`
	ProfileScore      *int    `gorm:"type:integer"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Candidate) TableName() string {
	return "candidates"
}

type CandidateSkill struct {
	ID          int64  `gorm:"primaryKey"`
	CandidateID string `gorm:"type:text;not null;uniqueIndex:uq_candidate_skills,priority:1"`
	SkillName   string `gorm:"size:100;not null;uniqueIndex:uq_candidate_skills,priority:2"`
	CreatedAt   time.Time
}

func (CandidateSkill) TableName() string {
	return "candidate_skills"
}

type Resume struct {
	ID                  string  `gorm:"type:text;primaryKey"`
	CandidateID         string  `gorm:"type:text;not null;index"`
	FileName            string  `gorm:"type:text;not null"`
	FileURL             string  `gorm:"type:text;not null"`
	FileType            *string `gorm:"type:text"`
	FileSize            *int64  `gorm:"type:bigint"`
	ContentHash         string  `gorm:"type:text;not null;uniqueIndex"`
	IsPrimary           bool    `gorm:"not null;default:true"`
	OverallQualityScore *int    `gorm:"type:integer"`
	CreatedAt           time.Time
}

func (Resume) TableName() string {
	return "resumes"
}

type CandidateOrgLink struct {
	CandidateID    string `gorm:"type:text;primaryKey"`
	OrganizationID string `gorm:"type:text;primaryKey"`
	LinkType       string `gorm:"size:80;not null"`
	Status         string `gorm:"type:text;not null;default:active"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (CandidateOrgLink) TableName() string {
	return "candidate_org_links"
}
