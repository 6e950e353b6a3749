package llmclient

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend generates text through an OpenAI-compatible chat
// completion endpoint at temperature 0 for deterministic decoding.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend builds an OpenAI-compatible Client.
func NewOpenAIBackend(model, apiKey string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is empty")
	}
	return &OpenAIBackend{client: openai.NewClient(apiKey), model: model}, nil
}

func (c *OpenAIBackend) Name() string { return "openai:" + c.model }

func (c *OpenAIBackend) Generate(ctx context.Context, prompts ...Prompt) (string, error) {
	var sb []openai.ChatCompletionMessage
	for _, p := range prompts {
		text, ok := p.(TextPrompt)
		if !ok {
			return "", fmt.Errorf("openai backend: unsupported prompt type")
		}
		sb = append(sb, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: string(text)})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: sb,
		// A literal 0 is omitted from the request (omitempty), which would
		// leave the server default in place; the smallest non-zero value
		// is sent instead.
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return resp.Choices[0].Message.Content, nil
}
