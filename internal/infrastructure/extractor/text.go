package extractor

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

// TextExtractor pulls plain text out of PDF, DOCX and text resumes. Every
// failure is an ExtractionError: the bytes will not parse on a retry either.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (te *TextExtractor) ExtractText(content []byte, fileName string) (string, error) {
	switch kind := DetectKind(content, fileName); kind {
	case mimeText:
		if !utf8.Valid(content) {
			return "", domain.NewExtractionError(fileName, "text file is not valid UTF-8", nil)
		}
		return string(content), nil
	case mimePDF:
		return te.extractPDF(content, fileName)
	case mimeDOCX:
		return te.extractDOCX(content, fileName)
	default:
		return "", domain.NewExtractionError(fileName, fmt.Sprintf("unsupported file type %q", kind), nil)
	}
}

// DetectKind resolves the resume format from the file extension, falling back
// to the PDF magic number.
func DetectKind(content []byte, fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDOCX
	case ".txt", ".md", ".text":
		return mimeText
	}
	if bytes.HasPrefix(content, []byte("%PDF-")) {
		return mimePDF
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
}

func (te *TextExtractor) extractPDF(content []byte, fileName string) (text string, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = domain.NewExtractionError(fileName, "malformed pdf", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", domain.NewExtractionError(fileName, "failed to read pdf", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (te *TextExtractor) extractDOCX(content []byte, fileName string) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", domain.NewExtractionError(fileName, "failed to parse docx", err)
	}
	defer doc.Close()

	return stripXMLTags(doc.Editable().GetContent()), nil
}

// stripXMLTags turns the raw document.xml body into text, one paragraph per
// line.
func stripXMLTags(raw string) string {
	raw = strings.ReplaceAll(raw, "</w:p>", "\n")

	var sb strings.Builder
	inTag := false
	for _, r := range raw {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			sb.WriteRune(' ')
		case !inTag:
			sb.WriteRune(r)
		}
	}

	lines := strings.Split(sb.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
