package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"slidegen/internal/llm"
	"slidegen/pkg/prompts"
)

var _ llm.Client = (*Client)(nil)

var slideSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"zagolovok": {Type: genai.TypeString, Description: "Short slide title"},
		"opisanie":  {Type: genai.TypeString, Description: "Slide body text"},
	},
	Required: []string{"zagolovok", "opisanie"},
}

var slidesSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"slides": {Type: genai.TypeArray, Items: slideSchema},
	},
	Required: []string{"slides"},
}

// Config selects the backend: Vertex AI when Project is set, the Gemini API
// with APIKey otherwise.
type Config struct {
	Project     string
	Location    string
	APIKey      string
	Model       string
	Temperature float32
	Language    string
}

type Client struct {
	models      generator
	model       string
	temperature float32
	language    string
	prompts     *prompts.Prompts
}

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func NewClient(ctx context.Context, cfg Config, p *prompts.Prompts) (*Client, error) {
	cc := &genai.ClientConfig{
		Project:  cfg.Project,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	}
	if cfg.Project == "" {
		cc = &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		models:      client.Models,
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

	temperature := c.temperature
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: req.System}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    slidesSchema,
		Temperature:       &temperature,
	}

	content, err := c.call(ctx, req.User, config)
	if err != nil {
		return nil, err
	}
	slog.Debug("Gemini slides raw response", "content", content)

	return llm.ParseSlides(content)
}

func (c *Client) call(ctx context.Context, userPrompt string, config *genai.GenerateContentConfig) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(userPrompt), config)
	if err != nil {
		return "", fmt.Errorf("%w: generate: %w", llm.ErrUpstream, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no response", llm.ErrUpstream)
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", fmt.Errorf("%w: empty response", llm.ErrUpstream)
	}

	return text, nil
}
