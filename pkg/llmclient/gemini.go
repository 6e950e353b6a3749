package llmclient

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiBackend generates text through the Gemini API at temperature 0 for
// deterministic decoding.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend builds a Gemini-backed Client.
func NewGeminiBackend(ctx context.Context, model, apiKey string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiBackend{client: client, model: model}, nil
}

func (c *GeminiBackend) Name() string { return "gemini:" + c.model }

func (c *GeminiBackend) Generate(ctx context.Context, prompts ...Prompt) (string, error) {
	var parts []*genai.Part
	for _, p := range prompts {
		text, ok := p.(TextPrompt)
		if !ok {
			return "", fmt.Errorf("gemini backend: unsupported prompt type")
		}
		parts = append(parts, genai.NewPartFromText(string(text)))
	}
	contents := []*genai.Content{{Parts: parts}}

	temperature := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no content in gemini response")
	}
	return text, nil
}
