// Package llm implements script.Generator on top of any OpenAI-compatible
// chat completions API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	openai "github.com/sashabaranov/go-openai"
)

// Config holds chat API settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client streams chat completions and returns the concatenated text.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a chat client. An empty model defaults to gpt-3.5-turbo.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is not set (llm.api_key or PODSYNTH_LLM_API_KEY)")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &Client{client: openai.NewClientWithConfig(oc), model: model}, nil
}

// Generate sends one system + user exchange and returns the full reply.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Stream: true,
	})
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading chat stream: %w", err)
		}
		if len(chunk.Choices) > 0 {
			sb.WriteString(chunk.Choices[0].Delta.Content)
		}
	}

	if sb.Len() == 0 {
		return "", errors.New("chat returned an empty completion")
	}
	slog.Debug("chat completion received",
		"model", c.model,
		"size", humanize.Bytes(uint64(sb.Len())),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return sb.String(), nil
}
