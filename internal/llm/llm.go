package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"slidegen/pkg/prompts"
)

var (
	ErrUpstream         = errors.New("language model request failed")
	ErrGenerationFormat = errors.New("language model returned malformed slides")
)

// SlideDraft is one slide as produced by the model. The JSON names are the
// field names the prompt asks for.
type SlideDraft struct {
	Title       string `json:"zagolovok"`
	Description string `json:"opisanie"`
}

type Client interface {
	GenerateSlides(ctx context.Context, topic string, count int) ([]SlideDraft, error)
}

// Request carries the rendered prompt pair sent to a provider.
type Request struct {
	System string
	User   string
}

// BuildRequest renders the slide prompt for topic and count.
func BuildRequest(p *prompts.Prompts, topic string, count int, language string) (Request, error) {
	user, err := p.RenderSlides(prompts.SlidesParams{
		Topic:    topic,
		Count:    count,
		Language: language,
	})
	if err != nil {
		return Request{}, fmt.Errorf("render prompt: %w", err)
	}
	return Request{System: p.System.Slides, User: user}, nil
}

// ParseSlides decodes a model response. It accepts a bare JSON array or an
// object wrapping the array under "slides". Every element must carry both
// zagolovok and opisanie.
func ParseSlides(content string) ([]SlideDraft, error) {
	content = stripFence(content)

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(content), &items); err != nil {
		var wrapped struct {
			Slides *[]json.RawMessage `json:"slides"`
		}
		if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
			return nil, fmt.Errorf("%w: response is not a JSON array", ErrGenerationFormat)
		}
		if wrapped.Slides == nil {
			return nil, fmt.Errorf("%w: response is not a JSON array", ErrGenerationFormat)
		}
		items = *wrapped.Slides
	}
	if items == nil {
		return nil, fmt.Errorf("%w: response is null", ErrGenerationFormat)
	}

	drafts := make([]SlideDraft, 0, len(items))
	for i, raw := range items {
		var item struct {
			Title       *string `json:"zagolovok"`
			Description *string `json:"opisanie"`
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("%w: slide %d is not an object", ErrGenerationFormat, i+1)
		}
		if item.Title == nil || item.Description == nil {
			return nil, fmt.Errorf("%w: slide %d lacks zagolovok or opisanie", ErrGenerationFormat, i+1)
		}
		drafts = append(drafts, SlideDraft{Title: *item.Title, Description: *item.Description})
	}
	return drafts, nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		content = content[nl+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
