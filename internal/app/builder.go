package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"slidegen/internal/content"
	"slidegen/internal/deck"
	"slidegen/internal/deck/pptx"
	"slidegen/internal/history"
	"slidegen/internal/imagegen"
	"slidegen/internal/imagesearch"
	"slidegen/internal/llm"
	"slidegen/internal/llm/gemini"
	"slidegen/internal/llm/groq"
	"slidegen/internal/llm/openai"
	"slidegen/internal/storage"
	"slidegen/pkg/config"
	"slidegen/pkg/prompts"
)

type BuildResult struct {
	Service *Service
	closers []io.Closer
}

// Close releases the history database and archive client.
func (r *BuildResult) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func BuildService(ctx context.Context, cfg *config.Config, verbose bool) (*BuildResult, error) {
	p, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	llmClient, err := newLLMClient(ctx, cfg, p)
	if err != nil {
		return nil, err
	}

	images, err := newImageSource(cfg, p)
	if err != nil {
		return nil, err
	}

	localStorage := storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.Storage.OutputDir)
	if err := localStorage.EnsureDirectories(); err != nil {
		return nil, err
	}

	assembler := deck.NewAssembler(deck.AssemblerOptions{
		Backend:      pptx.NewBackend(),
		TemplatePath: cfg.Template.Path,
	})

	result := &BuildResult{}

	var archiver storage.Archiver
	if cfg.GCS.Enabled {
		gcs, err := storage.NewGCSArchiver(ctx, cfg.GCS.Bucket, cfg.GCS.Prefix, cfg.GCS.CredentialsFile)
		if err != nil {
			return nil, err
		}
		archiver = gcs
		result.closers = append(result.closers, gcs)
	}

	var store History
	if cfg.History.Enabled {
		db, err := history.Open(cfg.History.Path)
		if err != nil {
			_ = result.Close()
			return nil, err
		}
		store = db
		result.closers = append(result.closers, db)
	}

	if verbose {
		slog.Debug("Service configured",
			"llm_provider", cfg.LLM.Provider,
			"llm_model", cfg.LLM.Model,
			"images", cfg.Images.Enabled,
			"template", assembler.TemplatePath(),
			"gcs", cfg.GCS.Enabled,
			"history", cfg.History.Enabled,
		)
	}

	result.Service = NewService(ServiceOptions{
		Config:    cfg,
		Content:   content.NewSource(llmClient, images),
		Assembler: assembler,
		Storage:   localStorage,
		Archiver:  archiver,
		History:   store,
	})
	return result, nil
}

func newLLMClient(ctx context.Context, cfg *config.Config, p *prompts.Prompts) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			Language:    cfg.Content.Language,
		}, p)
	case "deepseek":
		if cfg.DeepSeekAPIKey == "" {
			return nil, fmt.Errorf("DEEPSEEK_API_KEY is required for the deepseek provider")
		}
		return openai.NewClient(openai.Config{
			APIKey:      cfg.DeepSeekAPIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			Language:    cfg.Content.Language,
		}, p)
	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is required for the groq provider")
		}
		return groq.NewClient(cfg.GroqAPIKey, cfg.LLM.Model, cfg.Content.Language, p)
	case "gemini":
		if cfg.GCPProject == "" && cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT or GEMINI_API_KEY is required for the gemini provider")
		}
		return gemini.NewClient(ctx, gemini.Config{
			Project:     cfg.GCPProject,
			Location:    cfg.GCPLocation,
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Language:    cfg.Content.Language,
		}, p)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func newImageSource(cfg *config.Config, p *prompts.Prompts) (content.ImageGenerator, error) {
	if !cfg.Images.Enabled {
		return nil, nil
	}
	switch cfg.Images.Source {
	case "generate":
		return imagegen.New(imagegen.Config{
			APIKey:          cfg.ImageAPIKey,
			BaseURL:         cfg.Images.BaseURL,
			Model:           cfg.Images.Model,
			Size:            cfg.Images.Size,
			Timeout:         cfg.Images.Timeout,
			DownloadRetries: cfg.Images.DownloadRetries,
		}, p), nil
	case "search":
		if cfg.SearchAPIKey == "" || cfg.SearchEngineID == "" {
			return nil, fmt.Errorf("GOOGLE_SEARCH_API_KEY and GOOGLE_SEARCH_ENGINE_ID are required for image search")
		}
		return imagesearch.NewClient(imagesearch.Config{
			APIKey:          cfg.SearchAPIKey,
			EngineID:        cfg.SearchEngineID,
			Timeout:         cfg.Images.Timeout,
			DownloadRetries: cfg.Images.DownloadRetries,
		}), nil
	default:
		return nil, fmt.Errorf("unknown image source %q", cfg.Images.Source)
	}
}
