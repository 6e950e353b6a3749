package llmclient

import (
	"context"
	"fmt"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model/responses"
)

// VolcengineBackend generates text through Volcengine's Ark Responses API.
// The request sets no temperature, so the model's default sampling
// applies.
type VolcengineBackend struct {
	client *arkruntime.Client
	model  string
}

// NewVolcengineBackend builds a Volcengine-backed Client.
func NewVolcengineBackend(model, apiKey string) (*VolcengineBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("volcengine api key is empty")
	}
	return &VolcengineBackend{client: arkruntime.NewClientWithApiKey(apiKey), model: model}, nil
}

func (c *VolcengineBackend) Name() string { return "volcengine:" + c.model }

func (c *VolcengineBackend) Generate(ctx context.Context, prompts ...Prompt) (string, error) {
	var content []*responses.ContentItem
	for _, p := range prompts {
		text, ok := p.(TextPrompt)
		if !ok {
			return "", fmt.Errorf("volcengine backend: unsupported prompt type")
		}
		content = append(content, &responses.ContentItem{
			Union: &responses.ContentItem_Text{
				Text: &responses.ContentItemText{
					Type: responses.ContentItemType_input_text,
					Text: string(text),
				},
			},
		})
	}

	// Ark's Responses API defaults to deterministic-leaning sampling for
	// this model family; extraction prompts also instruct the model
	// explicitly to avoid creative rephrasing.
	req := &responses.ResponsesRequest{
		Model: c.model,
		Input: &responses.ResponsesInput{
			Union: &responses.ResponsesInput_ListValue{
				ListValue: &responses.InputItemList{ListValue: []*responses.InputItem{{
					Union: &responses.InputItem_InputMessage{
						InputMessage: &responses.ItemInputMessage{
							Role:    responses.MessageRole_user,
							Content: content,
						},
					},
				}}},
			},
		},
	}

	resp, err := c.client.CreateResponses(ctx, req, arkruntime.WithProjectName("rx-extraction"))
	if err != nil {
		return "", fmt.Errorf("ark API error: %w", err)
	}
	if len(resp.Output) == 0 {
		return "", fmt.Errorf("no response from model")
	}
	for _, item := range resp.Output {
		if msg := item.GetOutputMessage(); msg != nil && len(msg.Content) > 0 {
			if textContent := msg.Content[0].GetText(); textContent != nil {
				return textContent.Text, nil
			}
		}
	}
	return "", fmt.Errorf("no text content found in model response")
}
