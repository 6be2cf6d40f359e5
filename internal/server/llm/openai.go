package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
// Gemini is reached through its OpenAI-compatible base URL.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds a client for the given API key and model. baseURL may be
// empty to use the default OpenAI endpoint.
func NewOpenAI(apiKey, baseURL, model string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (c *OpenAIClient) buildRequest(messages []Message) openai.ChatCompletionRequest {
	var oaMsgs []openai.ChatCompletionMessage
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: oaMsgs,
	}
}

// Complete requests a full (non-streamed) reply.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(messages))
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream requests a streamed reply and forwards the produced deltas, in
// order, over the returned channel. The channel is closed when the engine
// signals completion or after a chunk carrying the terminal error.
func (c *OpenAIClient) Stream(ctx context.Context, messages []Message) (<-chan Chunk, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.buildRequest(messages))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion stream: %w", err)
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				out <- Chunk{Err: err}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case out <- Chunk{Content: delta}:
			case <-ctx.Done():
				select {
				case out <- Chunk{Err: ctx.Err()}:
				default:
				}
				return
			}
		}
	}()

	return out, nil
}
