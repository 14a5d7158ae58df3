package extractor

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

var (
	emailPattern      = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern      = regexp.MustCompile(`\+?[0-9][0-9\s().-]{6,23}[0-9]`)
	skillsLinePattern = regexp.MustCompile(`(?i)^\s*(skills|technical skills|technologies)\s*[:\-]\s*(.+)$`)
	yearsPattern      = regexp.MustCompile(`(?i)(\d{1,2})\+?\s+years?\s+(of\s+)?experience`)
	titleLinePattern  = regexp.MustCompile(`(?i)^\s*(title|current role|position)\s*[:\-]\s*(.+)$`)
)

// HeuristicExtractor reads candidate fields out of resume text with simple
// patterns. It serves deployments without a language model key.
type HeuristicExtractor struct {
	text *TextExtractor
}

func NewHeuristicExtractor(text *TextExtractor) *HeuristicExtractor {
	return &HeuristicExtractor{text: text}
}

func (h *HeuristicExtractor) Extract(_ context.Context, content []byte, fileName string) (domain.ExtractedFields, error) {
	text, err := h.text.ExtractText(content, fileName)
	if err != nil {
		return domain.ExtractedFields{}, err
	}
	if strings.TrimSpace(text) == "" {
		return domain.ExtractedFields{}, domain.NewExtractionError(fileName, "no text found in file", nil)
	}
	return ParseFields(text), nil
}

// ParseFields applies the heuristics to already extracted text.
func ParseFields(text string) domain.ExtractedFields {
	var fields domain.ExtractedFields

	fields.Email = emailPattern.FindString(text)
	fields.Phone = strings.TrimSpace(phonePattern.FindString(text))

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if fields.FullName == "" && looksLikeName(line) {
			fields.FullName = line
			continue
		}
		if m := skillsLinePattern.FindStringSubmatch(line); m != nil && len(fields.Skills) == 0 {
			fields.Skills = splitSkills(m[2])
			continue
		}
		if m := titleLinePattern.FindStringSubmatch(line); m != nil && fields.CurrentTitle == "" {
			fields.CurrentTitle = strings.TrimSpace(m[2])
		}
	}

	if m := yearsPattern.FindStringSubmatch(text); m != nil {
		if years, err := strconv.Atoi(m[1]); err == nil {
			fields.YearsOfExperience = &years
		}
	}
	return fields
}

func looksLikeName(line string) bool {
	if len(line) > 60 || emailPattern.MatchString(line) || strings.ContainsAny(line, "0123456789:@/") {
		return false
	}
	words := strings.Fields(line)
	return len(words) >= 1 && len(words) <= 4
}

func splitSkills(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || r == '•'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
