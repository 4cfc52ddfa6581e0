package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"slidegen/internal/content"
	"slidegen/internal/deck"
	"slidegen/internal/history"
)

var ErrValidation = errors.New("validation failed")

const (
	ModeSlides = "slides"
	ModeTopic  = "topic"
)

type Pipeline struct {
	service *Service
}

// SlidesRequest builds a deck from caller-supplied slides. Image paths must
// already point at staged files.
type SlidesRequest struct {
	Slides     []deck.SlideRecord
	SlideCount int
	OutputPath string
}

type TopicRequest struct {
	Topic        string
	SlideCount   int
	OutputPath   string
	TemplateMode bool
}

type Result struct {
	ID         string
	OutputPath string
	FileName   string
	Slides     int
	ArchiveURL string
}

func NewPipeline(service *Service) *Pipeline {
	return &Pipeline{service: service}
}

func (pipeline *Pipeline) FromSlides(ctx context.Context, req SlidesRequest) (*Result, error) {
	if req.SlideCount < 1 {
		return nil, fmt.Errorf("%w: slide_count must be at least 1", ErrValidation)
	}

	slog.Info("Generating presentation from slides", "slides", len(req.Slides), "slide_count", req.SlideCount)
	return pipeline.build(ctx, ModeSlides, deck.Spec{
		Records:     req.Slides,
		TotalSlides: req.SlideCount,
		OutputPath:  req.OutputPath,
	})
}

func (pipeline *Pipeline) FromTopic(ctx context.Context, req TopicRequest) (*Result, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is empty", ErrValidation)
	}
	if req.SlideCount < 1 {
		return nil, fmt.Errorf("%w: slide_count must be at least 1", ErrValidation)
	}
	if req.TemplateMode {
		if err := deck.ValidateTemplateCount(req.SlideCount); err != nil {
			return nil, err
		}
	}

	ws, err := pipeline.service.Storage().NewWorkspace()
	if err != nil {
		return nil, err
	}
	defer func() { _ = ws.Close() }()

	imageDir := ""
	if pipeline.service.Config().Images.Enabled {
		imageDir = ws.Dir
	}

	slog.Info("Generating presentation from topic", "topic", topic, "slide_count", req.SlideCount, "template", req.TemplateMode)
	records, err := pipeline.service.Content().Generate(ctx, content.Request{
		Topic:        topic,
		SlideCount:   req.SlideCount,
		TemplateMode: req.TemplateMode,
		ImageDir:     imageDir,
	})
	if err != nil {
		return nil, err
	}

	return pipeline.build(ctx, ModeTopic, deck.Spec{
		Records:      records,
		TotalSlides:  req.SlideCount,
		Topic:        topic,
		TemplateMode: req.TemplateMode,
		OutputPath:   req.OutputPath,
	})
}

func (pipeline *Pipeline) build(ctx context.Context, mode string, spec deck.Spec) (*Result, error) {
	id := uuid.New().String()
	name := deck.FileName(spec.OutputPath)

	out, err := pipeline.service.Storage().OutputPath(id, name)
	if err != nil {
		return nil, err
	}
	spec.OutputPath = out

	assembled, err := pipeline.service.Assembler().Assemble(ctx, spec)
	if err != nil {
		_ = os.RemoveAll(filepath.Dir(out))
		return nil, err
	}

	result := &Result{
		ID:         id,
		OutputPath: assembled.Path,
		FileName:   name,
		Slides:     assembled.Slides,
	}

	if archiver := pipeline.service.Archiver(); archiver != nil {
		url, err := archiver.Archive(ctx, assembled.Path, id)
		if err != nil {
			slog.Warn("Failed to archive deck", "id", id, "error", err)
		} else {
			result.ArchiveURL = url
			slog.Info("Deck archived", "url", url)
		}
	}

	if store := pipeline.service.History(); store != nil {
		err := store.Record(ctx, history.Entry{
			ID:           id,
			Mode:         mode,
			Topic:        spec.Topic,
			SlideCount:   spec.TotalSlides,
			TemplateMode: spec.TemplateMode,
			FileName:     name,
			ArchiveURL:   result.ArchiveURL,
			CreatedAt:    time.Now(),
		})
		if err != nil {
			slog.Warn("Failed to record history", "id", id, "error", err)
		}
	}

	return result, nil
}
