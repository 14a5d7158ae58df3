package extractor

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

const sampleResume = `Jane Doe
jane.doe@example.com | +1 (415) 555-0100
Title: Staff Engineer
Skills: Go, Kubernetes; PostgreSQL | gRPC
9 years of experience building distributed systems.`

func TestTextExtractorPlainText(t *testing.T) {
	t.Parallel()

	text, err := NewTextExtractor().ExtractText([]byte(sampleResume), "jane.txt")
	require.NoError(t, err)
	assert.Equal(t, sampleResume, text)
}

func TestTextExtractorRejectsUnsupportedAndBrokenFiles(t *testing.T) {
	t.Parallel()

	te := NewTextExtractor()

	_, err := te.ExtractText([]byte{0x89, 'P', 'N', 'G'}, "photo.png")
	require.Error(t, err)
	assert.True(t, domain.IsExtractionError(err))
	assert.Contains(t, err.Error(), "unsupported")

	_, err = te.ExtractText([]byte("%PDF-1.4 not really"), "broken.pdf")
	require.Error(t, err)
	assert.True(t, domain.IsExtractionError(err))

	_, err = te.ExtractText([]byte("PK no zip"), "broken.docx")
	require.Error(t, err)
	assert.True(t, domain.IsExtractionError(err))
}

func TestDetectKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, mimePDF, DetectKind(nil, "CV.PDF"))
	assert.Equal(t, mimeDOCX, DetectKind(nil, "cv.docx"))
	assert.Equal(t, mimeText, DetectKind(nil, "cv.md"))
	assert.Equal(t, mimePDF, DetectKind([]byte("%PDF-1.7"), "upload"))
	assert.Equal(t, "rtf", DetectKind([]byte("{\\rtf1"), "cv.rtf"))
}

func TestStripXMLTags(t *testing.T) {
	t.Parallel()

	raw := `<w:body><w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p><w:p><w:r><w:t>Skills: Go</w:t></w:r></w:p></w:body>`
	assert.Equal(t, "Jane Doe\nSkills: Go", stripXMLTags(raw))
}

func TestParseFields(t *testing.T) {
	t.Parallel()

	fields := ParseFields(sampleResume)
	assert.Equal(t, "Jane Doe", fields.FullName)
	assert.Equal(t, "jane.doe@example.com", fields.Email)
	assert.Equal(t, "+1 (415) 555-0100", fields.Phone)
	assert.Equal(t, "Staff Engineer", fields.CurrentTitle)
	assert.Equal(t, []string{"Go", "Kubernetes", "PostgreSQL", "gRPC"}, fields.Skills)
	require.NotNil(t, fields.YearsOfExperience)
	assert.Equal(t, 9, *fields.YearsOfExperience)
}

func TestHeuristicExtractorRejectsEmptyText(t *testing.T) {
	t.Parallel()

	_, err := NewHeuristicExtractor(NewTextExtractor()).Extract(context.Background(), []byte("   \n"), "blank.txt")
	require.Error(t, err)
	assert.True(t, domain.IsExtractionError(err))
}

type fakeChat struct {
	reply string
	err   error
	empty bool
	req   openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	if f.empty {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.reply}}},
	}, nil
}

func TestOpenAIExtractorParsesFencedJSON(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{reply: "```json\n{\"full_name\":\"Jane Doe\",\"email\":\"jane@example.com\",\"skills\":[\"Go\"],\"years_of_experience\":9}\n```"}
	ext := newOpenAIExtractor(chat, "", NewTextExtractor())

	fields, err := ext.Extract(context.Background(), []byte(sampleResume), "jane.txt")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", fields.FullName)
	assert.Equal(t, []string{"Go"}, fields.Skills)
	require.NotNil(t, fields.YearsOfExperience)
	assert.Equal(t, 9, *fields.YearsOfExperience)

	assert.Equal(t, openai.GPT4oMini, chat.req.Model)
	require.NotNil(t, chat.req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, chat.req.ResponseFormat.Type)
}

func TestOpenAIExtractorClassifiesFailures(t *testing.T) {
	t.Parallel()

	invalid := newOpenAIExtractor(&fakeChat{reply: "not json"}, "gpt-4o", NewTextExtractor())
	_, err := invalid.Extract(context.Background(), []byte(sampleResume), "jane.txt")
	assert.True(t, domain.IsExtractionError(err))

	transient := newOpenAIExtractor(&fakeChat{err: errors.New("dial tcp: connection refused")}, "gpt-4o", NewTextExtractor())
	_, err = transient.Extract(context.Background(), []byte(sampleResume), "jane.txt")
	require.Error(t, err)
	assert.False(t, domain.IsExtractionError(err))
	assert.Contains(t, err.Error(), "connection refused")

	empty := newOpenAIExtractor(&fakeChat{empty: true}, "gpt-4o", NewTextExtractor())
	_, err = empty.Extract(context.Background(), []byte(sampleResume), "jane.txt")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.False(t, domain.IsExtractionError(err))
}

func TestCleanJSON(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, CleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanJSON("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, CleanJSON(`  {"a":1} `))
}
