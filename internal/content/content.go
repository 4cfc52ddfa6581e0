package content

import (
	"context"
	"log/slog"

	"slidegen/internal/deck"
	"slidegen/internal/llm"
)

type ImageGenerator interface {
	Generate(ctx context.Context, dir string, n int, title, description string) (string, error)
}

type Request struct {
	Topic        string
	SlideCount   int
	TemplateMode bool
	// ImageDir receives generated illustrations. Empty disables them for
	// this request.
	ImageDir string
}

// Source turns a topic into slide records using a language model and, when
// configured, an image generator.
type Source struct {
	llm    llm.Client
	images ImageGenerator
}

// NewSource returns a Source. images may be nil.
func NewSource(client llm.Client, images ImageGenerator) *Source {
	return &Source{llm: client, images: images}
}

func (s *Source) Generate(ctx context.Context, req Request) ([]deck.SlideRecord, error) {
	count := deck.ContentSlots(req.SlideCount, req.TemplateMode)
	if count <= 0 {
		slog.Info("No content slides requested", "slide_count", req.SlideCount, "template_mode", req.TemplateMode)
		return nil, nil
	}

	slog.Info("Generating slide content...", "topic", req.Topic, "count", count)
	drafts, err := s.llm.GenerateSlides(ctx, req.Topic, count)
	if err != nil {
		return nil, err
	}
	if len(drafts) > count {
		slog.Warn("Model returned extra slides", "requested", count, "received", len(drafts))
		drafts = drafts[:count]
	}
	slog.Info("Slide content generated", "slides", len(drafts))

	records := make([]deck.SlideRecord, 0, len(drafts))
	for i, d := range drafts {
		record := deck.SlideRecord{Title: d.Title, Body: d.Description}
		if s.images != nil && req.ImageDir != "" {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			record.ImagePath = s.illustrate(ctx, req.ImageDir, i+1, d)
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Source) illustrate(ctx context.Context, dir string, n int, d llm.SlideDraft) string {
	path, err := s.images.Generate(ctx, dir, n, d.Title, d.Description)
	if err != nil {
		slog.Warn("Image generation failed, slide left without image", "slide", n, "error", err)
		return ""
	}
	return path
}
