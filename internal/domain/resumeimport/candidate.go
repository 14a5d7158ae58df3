package resumeimport

// ExtractedFields is what the extraction collaborator returns for one resume.
type ExtractedFields struct {
	FullName          string   `json:"full_name"`
	Email             string   `json:"email,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Location          string   `json:"location,omitempty"`
	CurrentTitle      string   `json:"current_title,omitempty"`
	CurrentCompany    string   `json:"current_company,omitempty"`
	Skills            []string `json:"skills"`
	YearsOfExperience *int     `json:"years_of_experience,omitempty"`
	QualityScore      *int     `json:"quality_score,omitempty"`
}

// ComputeQualityScore scores profile completeness on a 0..100 scale.
func ComputeQualityScore(f ExtractedFields) int {
	score := 0
	if f.FullName != "" && f.FullName != UnknownCandidateName {
		score += 20
	}
	if f.Email != "" {
		score += 15
	}
	if f.Phone != "" {
		score += 10
	}
	if f.Location != "" {
		score += 5
	}
	if f.CurrentTitle != "" {
		score += 15
	}
	if f.CurrentCompany != "" {
		score += 10
	}
	if f.YearsOfExperience != nil {
		score += 5
	}
	switch n := len(f.Skills); {
	case n >= 10:
		score += 20
	case n >= 5:
		score += 15
	case n > 0:
		score += 8
	}
	return min(score, 100)
}

const UnknownCandidateName = "Unknown"

// FileMeta describes the stored resume file a Resume record points at.
type FileMeta struct {
	FileName    string
	FileURL     string
	ContentType string
	Size        int64
}

// ExistingResume is a resume already persisted for some content hash.
type ExistingResume struct {
	ResumeID    string
	CandidateID string
}
