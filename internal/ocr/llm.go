package ocr

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

var languageNames = map[string]string{
	"tha": "Thai",
	"eng": "English",
}

// LLMEngine drives a vision-capable chat model as the OCR backend. The model
// is asked for a verbatim transcription at temperature zero; everything else
// stays untrusted input for the verifier.
type LLMEngine struct {
	model llms.Model
}

// NewOpenAIEngine creates an LLM-backed OCR engine using the OpenAI client.
// The API key is taken from the environment by the client library.
func NewOpenAIEngine(model string) (*LLMEngine, error) {
	llm, err := openai.New(openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}
	return &LLMEngine{model: llm}, nil
}

// NewLLMEngine wraps an already-constructed model
func NewLLMEngine(model llms.Model) *LLMEngine {
	return &LLMEngine{model: model}
}

// ExtractText implements the Engine interface
func (e *LLMEngine) ExtractText(ctx context.Context, image []byte, lang string) (string, error) {
	language, ok := languageNames[lang]
	if !ok {
		language = lang
	}

	prompt := fmt.Sprintf(
		"Transcribe every piece of text visible in this bank-transfer receipt image, verbatim, preserving line breaks. The text is primarily in %s. Output the raw transcription only, with no commentary.",
		language,
	)

	msg := llms.MessageContent{
		Role: schema.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.TextPart(prompt),
			llms.BinaryPart("image/jpeg", image),
		},
	}

	resp, err := e.model.GenerateContent(ctx, []llms.MessageContent{msg}, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("ocr completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OCR model")
	}
	return resp.Choices[0].Content, nil
}
