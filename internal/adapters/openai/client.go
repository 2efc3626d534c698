package openaiadapter

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/imiranda/rebrota/internal/core/domain"
)

// Client implements ports.ChatStreamer against an OpenAI-compatible
// completions API.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a streaming client. baseURL may point at any
// OpenAI-compatible endpoint; empty keeps the default.
func New(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: model}
}

// StreamCompletion runs a streaming chat completion, forwarding each content
// delta to onDelta. Returns ctx.Err() when the caller cancelled mid-stream.
func (c *Client) StreamCompletion(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error {
	msgs := make([]openai.ChatCompletionMessage, 0, len(prompt)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, m := range prompt {
		// Domain roles are the same strings the API expects.
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   true,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("create completion stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("stream recv: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			if err := onDelta(delta); err != nil {
				return err
			}
		}
	}
}
