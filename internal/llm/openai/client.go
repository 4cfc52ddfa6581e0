package openai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"slidegen/internal/llm"
	"slidegen/pkg/prompts"
)

var _ llm.Client = (*Client)(nil)

// Config describes an OpenAI-compatible chat endpoint. Local servers such as
// llama.cpp accept any API key.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
	Language    string
}

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	language    string
	prompts     *prompts.Prompts
}

func NewClient(cfg Config, p *prompts.Prompts) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		client:      openai.NewClientWithConfig(config),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		language:    cfg.Language,
		prompts:     p,
	}, nil
}

func (c *Client) GenerateSlides(ctx context.Context, topic string, count int) ([]llm.SlideDraft, error) {
	req, err := llm.BuildRequest(c.prompts, topic, count, c.language)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: generate: %w", llm.ErrUpstream, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response", llm.ErrUpstream)
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("LLM slides raw response", "model", c.model, "content", content)

	return llm.ParseSlides(content)
}
