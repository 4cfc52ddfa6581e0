package groq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/conneroisu/groq-go"

	"slidegen/internal/llm"
	"slidegen/pkg/prompts"
)

var _ llm.Client = (*Client)(nil)

type Client struct {
	client   *groq.Client
	model    groq.ChatModel
	prompts  *prompts.Prompts
	language string
}

type Option func(*options)

type options struct {
	baseURL string
}

// WithBaseURL points the client at a different API root, e.g. a proxy.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

func NewClient(apiKey, model, language string, p *prompts.Prompts, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var (
		client *groq.Client
		err    error
	)
	if o.baseURL != "" {
		client, err = groq.NewClient(apiKey, groq.WithBaseURL(o.baseURL))
	} else {
		client, err = groq.NewClient(apiKey)
	}
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &Client{
		client:   client,
		model:    groq.ChatModel(model),
		prompts:  p,
		language: language,
	}, nil
}

func (c *Client) GenerateSlides(ctx context.Context, topic string, count int) ([]llm.SlideDraft, error) {
	req, err := llm.BuildRequest(c.prompts, topic, count, c.language)
	if err != nil {
		return nil, err
	}

	content, err := c.generateJSON(ctx, req)
	if err != nil {
		return nil, err
	}
	slog.Debug("Groq slides raw response", "content", content)

	return llm.ParseSlides(content)
}

func (c *Client) generateJSON(ctx context.Context, req llm.Request) (string, error) {
	resp, err := c.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: req.System},
			{Role: groq.RoleUser, Content: req.User},
		},
		ResponseFormat: &groq.ChatResponseFormat{
			Type: "json_object",
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: generate: %w", llm.ErrUpstream, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response", llm.ErrUpstream)
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("%w: empty response", llm.ErrUpstream)
	}

	return content, nil
}
