package resumeimport

import (
	"net/mail"
	"regexp"
	"strings"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

const (
	maxStringLen   = 500
	maxNameLen     = 200
	maxEmailLen    = 255
	maxPhoneLen    = 30
	maxSkills      = 50
	maxSkillLen    = 100
	maxYearsExp    = 70
	maxScore       = 100
	maxLinkTypeLen = 80
)

var (
	phonePattern       = regexp.MustCompile(`^[+]?[0-9\s().-]{7,25}$`)
	skillBulletPattern = regexp.MustCompile(`^[•\-*\x{2022}]+\s*`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	emailDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// SanitizeFields normalises extractor output before it is persisted. Invalid
// optional values are dropped rather than rejected.
func SanitizeFields(in domain.ExtractedFields) domain.ExtractedFields {
	out := domain.ExtractedFields{
		FullName:       sanitizeString(in.FullName, maxNameLen),
		Email:          sanitizeEmail(in.Email),
		Phone:          sanitizePhone(in.Phone),
		Location:       sanitizeString(in.Location, maxStringLen),
		CurrentTitle:   sanitizeString(in.CurrentTitle, maxStringLen),
		CurrentCompany: sanitizeString(in.CurrentCompany, maxStringLen),
		Skills:         sanitizeSkills(in.Skills),
	}
	if out.FullName == "" {
		out.FullName = domain.UnknownCandidateName
	}
	if in.YearsOfExperience != nil {
		v := clamp(*in.YearsOfExperience, 0, maxYearsExp)
		out.YearsOfExperience = &v
	}
	if in.QualityScore != nil {
		v := clamp(*in.QualityScore, 0, maxScore)
		out.QualityScore = &v
	} else {
		v := domain.ComputeQualityScore(out)
		out.QualityScore = &v
	}
	return out
}

func sanitizeString(value string, maxLen int) string {
	value = strings.TrimSpace(value)
	if len(value) > maxLen {
		value = value[:maxLen]
	}
	value = strings.NewReplacer("<", "", ">", "").Replace(value)
	return strings.TrimSpace(value)
}

func sanitizeEmail(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || len(value) > maxEmailLen {
		return ""
	}
	if !emailDomainPattern.MatchString(value) {
		return ""
	}
	if _, err := mail.ParseAddress(value); err != nil {
		return ""
	}
	return value
}

func sanitizePhone(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > maxPhoneLen {
		return ""
	}
	if !phonePattern.MatchString(value) {
		return ""
	}
	return value
}

func sanitizeSkills(skills []string) []string {
	out := make([]string, 0, min(len(skills), maxSkills))
	seen := make(map[string]struct{}, len(skills))
	for _, raw := range skills {
		if len(out) == maxSkills {
			break
		}
		s := sanitizeString(raw, maxSkillLen)
		s = skillBulletPattern.ReplaceAllString(s, "")
		s = strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// sanitizeLinkType bounds the source tag stored on candidate/org links.
func sanitizeLinkType(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return defaultSource
	}
	if len(source) > maxLinkTypeLen {
		source = source[:maxLinkTypeLen]
	}
	return source
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
