package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

const maxPromptChars = 15000

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIExtractor extracts the resume text locally and asks a chat model for
// the structured candidate fields.
type OpenAIExtractor struct {
	client chatCompleter
	model  string
	text   *TextExtractor
}

func NewOpenAIExtractor(apiKey, model string, text *TextExtractor) *OpenAIExtractor {
	return newOpenAIExtractor(openai.NewClient(apiKey), model, text)
}

func newOpenAIExtractor(client chatCompleter, model string, text *TextExtractor) *OpenAIExtractor {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIExtractor{client: client, model: model, text: text}
}

type modelFields struct {
	FullName          string   `json:"full_name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	Location          string   `json:"location"`
	CurrentTitle      string   `json:"current_title"`
	CurrentCompany    string   `json:"current_company"`
	Skills            []string `json:"skills"`
	YearsOfExperience *int     `json:"years_of_experience"`
}

const systemPrompt = `You extract candidate data from resumes.
Reply with a single JSON object with the keys full_name, email, phone, location,
current_title, current_company, skills (array of strings) and years_of_experience
(integer). Use null or an empty string for anything the resume does not state.`

func (e *OpenAIExtractor) Extract(ctx context.Context, content []byte, fileName string) (domain.ExtractedFields, error) {
	text, err := e.text.ExtractText(content, fileName)
	if err != nil {
		return domain.ExtractedFields{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ExtractedFields{}, domain.NewExtractionError(fileName, "no text found in file", nil)
	}
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 400 {
			return domain.ExtractedFields{}, domain.NewExtractionError(fileName, "model rejected the resume", err)
		}
		return domain.ExtractedFields{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.ExtractedFields{}, fmt.Errorf("chat completion: no choices returned: %w", domain.ErrUpstreamUnavailable)
	}

	var out modelFields
	if err := json.Unmarshal([]byte(CleanJSON(resp.Choices[0].Message.Content)), &out); err != nil {
		return domain.ExtractedFields{}, domain.NewExtractionError(fileName, "model returned invalid JSON", err)
	}

	return domain.ExtractedFields{
		FullName:          out.FullName,
		Email:             out.Email,
		Phone:             out.Phone,
		Location:          out.Location,
		CurrentTitle:      out.CurrentTitle,
		CurrentCompany:    out.CurrentCompany,
		Skills:            out.Skills,
		YearsOfExperience: out.YearsOfExperience,
	}, nil
}

// CleanJSON strips a markdown code fence around a model reply.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
