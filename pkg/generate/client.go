// Package generate wraps an OpenAI-compatible completion endpoint as the
// drama's text generation service. The engine passes the scenario's stop
// marker through and does no truncation of its own.
package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

type Client struct {
	client      openai.Client
	model       string
	temperature float64
	topP        float64
}

// NewClient builds a generation client. baseURL may be empty for the
// default OpenAI endpoint.
func NewClient(apiKey, baseURL, model string, temperature, topP float64) *Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
		topP:        topP,
	}
}

// Generate completes one prompt. An empty result is a valid outcome the
// caller treats as "skip this action".
func (c *Client) Generate(ctx context.Context, prompt, stop string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
		TopP:        openai.Float(c.topP),
	}
	if stop != "" {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfString: openai.String(stop),
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
